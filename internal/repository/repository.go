package repository

import (
	"database/sql"
	"fmt"
)

// requireAffected maps zero-row writes to sql.ErrNoRows so services can
// surface NotFound uniformly.
func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s affected rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
