package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-track-api/api/swagger"
	"github.com/noah-isme/school-track-api/internal/handler"
	"github.com/noah-isme/school-track-api/internal/middleware"
	"github.com/noah-isme/school-track-api/internal/models"
	"github.com/noah-isme/school-track-api/internal/repository"
	"github.com/noah-isme/school-track-api/internal/service"
	"github.com/noah-isme/school-track-api/pkg/cache"
	"github.com/noah-isme/school-track-api/pkg/config"
	"github.com/noah-isme/school-track-api/pkg/database"
	"github.com/noah-isme/school-track-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-track-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-track-api/pkg/middleware/requestid"
)

// @title School Track API
// @version 1.0.0
// @description Multi-tenant school management API with scoped attendance queries
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "school-track-api",
	})
	querySvc := service.NewAttendanceQueryService(
		studentRepo,
		teacherRepo,
		classRepo,
		subjectRepo,
		cacheRepo,
		cfg.Attendance.ScopeCacheTTL,
		cfg.Attendance.PageSize,
		metricsSvc,
		logr,
	)
	markSvc := service.NewAttendanceMarkService(studentRepo, validate, logr)
	exportSvc := service.NewAttendanceExportService(querySvc)
	studentSvc := service.NewStudentService(studentRepo, classRepo, userRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, userRepo, cacheRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, validate, logr)
	complaintSvc := service.NewComplaintService(complaintRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(querySvc, markSvc, exportSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)

	auth := api.Group("")
	auth.Use(middleware.JWT(authSvc))

	attendance := auth.Group("/attendance")
	{
		admin := attendance.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin), middleware.RequireSelf("institutionId"))
		admin.GET("/admin/:institutionId", attendanceHandler.AdminView)
		if cfg.Exports.Enabled {
			admin.GET("/admin/:institutionId/export", attendanceHandler.Export)
		}

		teacher := attendance.Group("")
		teacher.Use(middleware.RequireRole(models.RoleTeacher), middleware.RequireSelf("teacherId"))
		teacher.GET("/teacher/:teacherId", attendanceHandler.TeacherView)

		student := attendance.Group("")
		student.Use(middleware.RequireRole(models.RoleStudent), middleware.RequireSelf("studentId"))
		student.GET("/student/:studentId", attendanceHandler.StudentView)

		attendance.POST("/mark",
			middleware.RequireRole(models.RoleAdmin, models.RoleTeacher),
			attendanceHandler.Mark)
	}

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	anyRole := middleware.RequireRole(models.RoleAdmin, models.RoleTeacher, models.RoleStudent)

	students := auth.Group("/students")
	{
		students.GET("", anyRole, studentHandler.List)
		students.GET("/:id", anyRole, studentHandler.Get)
		students.POST("", adminOnly, studentHandler.Register)
		students.PUT("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Delete)
	}

	teachers := auth.Group("/teachers")
	{
		teachers.GET("", anyRole, teacherHandler.List)
		teachers.GET("/:id", anyRole, teacherHandler.Get)
		teachers.POST("", adminOnly, teacherHandler.Register)
		teachers.PUT("/:id/subjects", adminOnly, teacherHandler.AssignSubjects)
		teachers.DELETE("/:id", adminOnly, teacherHandler.Delete)
	}

	classes := auth.Group("/classes")
	{
		classes.GET("", anyRole, classHandler.List)
		classes.POST("", adminOnly, classHandler.Create)
		classes.DELETE("/:id", adminOnly, classHandler.Delete)
	}

	subjects := auth.Group("/subjects")
	{
		subjects.GET("", anyRole, subjectHandler.List)
		subjects.POST("", adminOnly, subjectHandler.Create)
		subjects.DELETE("/:id", adminOnly, subjectHandler.Delete)
	}

	notices := auth.Group("/notices")
	{
		notices.GET("", anyRole, noticeHandler.List)
		notices.POST("", adminOnly, noticeHandler.Create)
		notices.DELETE("/:id", adminOnly, noticeHandler.Delete)
	}

	complaints := auth.Group("/complaints")
	{
		complaints.GET("", adminOnly, complaintHandler.List)
		complaints.POST("", middleware.RequireRole(models.RoleStudent), complaintHandler.File)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
