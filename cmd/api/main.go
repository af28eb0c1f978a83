package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/handler"
	"github.com/schoolhub-dev/schoolhub-api/internal/repository"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/cache"
	"github.com/schoolhub-dev/schoolhub-api/pkg/config"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/logger"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	sessionRepo := repository.NewAttendanceSessionRepository(db)
	recordRepo := repository.NewAttendanceRecordRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr).WithMetrics(metricsSvc)

	policy := authz.Policy{AdminBypass: cfg.Ownership.AdminBypass}
	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	var classSvc *service.ClassService
	var subjectSvc *service.SubjectService
	if redisClient != nil {
		classSvc = service.NewClassService(classRepo, cacheRepo, cfg.Cache.TTL, validate, logr)
		subjectSvc = service.NewSubjectService(subjectRepo, cacheRepo, cfg.Cache.TTL, validate, logr)
	} else {
		classSvc = service.NewClassService(classRepo, nil, 0, validate, logr)
		subjectSvc = service.NewSubjectService(subjectRepo, nil, 0, validate, logr)
	}
	allocationSvc := service.NewAllocationService(allocationRepo, userRepo, classRepo, subjectRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(allocationRepo, sessionRepo, recordRepo, policy, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, allocationRepo, policy, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, assignmentRepo, allocationRepo, policy, validate, logr)

	r := handler.NewRouter(handler.RouterDeps{
		Cfg:         cfg,
		Logger:      logr,
		Metrics:     metricsSvc,
		Auth:        handler.NewAuthHandler(authSvc),
		AuthService: authSvc,
		Users:       handler.NewUserHandler(userSvc),
		Classes:     handler.NewClassHandler(classSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Allocations: handler.NewAllocationHandler(allocationSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Submissions: handler.NewSubmissionHandler(submissionSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
