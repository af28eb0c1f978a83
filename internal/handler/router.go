package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/middleware"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/service"
	"github.com/schoolhub-dev/schoolhub-api/pkg/config"
	"github.com/schoolhub-dev/schoolhub-api/pkg/logger"
	corsmiddleware "github.com/schoolhub-dev/schoolhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolhub-dev/schoolhub-api/pkg/middleware/requestid"
)

// RouterDeps bundles everything the router mounts.
type RouterDeps struct {
	Cfg     *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	Auth        *AuthHandler
	AuthService *service.AuthService
	Users       *UserHandler
	Classes     *ClassHandler
	Subjects    *SubjectHandler
	Allocations *AllocationHandler
	Attendance  *AttendanceHandler
	Assignments *AssignmentHandler
	Submissions *SubmissionHandler
}

// NewRouter assembles the gin engine with all middleware and routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", deps.Auth.Login)

	authed := v1.Group("")
	authed.Use(middleware.JWT(deps.AuthService))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	users := authed.Group("/users")
	users.GET("", adminOnly, deps.Users.List)
	users.GET("/:id", deps.Users.Get)
	users.POST("", adminOnly, deps.Users.Create)
	users.PUT("/:id", adminOnly, deps.Users.Update)
	users.DELETE("/:id", adminOnly, deps.Users.Deactivate)

	classes := authed.Group("/classes")
	classes.GET("", deps.Classes.List)
	classes.GET("/:id", deps.Classes.Get)
	classes.POST("", adminOnly, deps.Classes.Create)
	classes.PUT("/:id", adminOnly, deps.Classes.Update)
	classes.DELETE("/:id", adminOnly, deps.Classes.Delete)

	subjects := authed.Group("/subjects")
	subjects.GET("", deps.Subjects.List)
	subjects.GET("/:id", deps.Subjects.Get)
	subjects.POST("", adminOnly, deps.Subjects.Create)
	subjects.PUT("/:id", adminOnly, deps.Subjects.Update)
	subjects.DELETE("/:id", adminOnly, deps.Subjects.Delete)

	allocations := authed.Group("/allocations")
	allocations.GET("", deps.Allocations.List)
	allocations.GET("/:id", deps.Allocations.Get)
	allocations.POST("", adminOnly, deps.Allocations.Create)
	allocations.DELETE("/:id", adminOnly, deps.Allocations.Delete)

	attendance := authed.Group("/attendance")
	attendance.POST("", staff, deps.Attendance.Mark)
	attendance.PUT("/:id", staff, deps.Attendance.Update)
	attendance.DELETE("/:id", staff, deps.Attendance.Delete)
	attendance.GET("/:id", staff, deps.Attendance.Recap)
	attendance.GET("/:id/export", staff, deps.Attendance.Export)

	assignments := authed.Group("/assignments")
	assignments.GET("", deps.Assignments.List)
	assignments.GET("/:id", deps.Assignments.Get)
	assignments.POST("", staff, deps.Assignments.Create)
	assignments.PUT("/:id", staff, deps.Assignments.Update)
	assignments.DELETE("/:id", staff, deps.Assignments.Delete)
	assignments.GET("/:id/submissions", staff, deps.Submissions.ListByAssignment)

	submissions := authed.Group("/submissions")
	submissions.POST("", middleware.RequireRoles(models.RoleStudent), deps.Submissions.Create)
	submissions.PUT("/:id/grade", staff, deps.Submissions.Grade)
	submissions.DELETE("/:id", deps.Submissions.Delete)

	return r
}
