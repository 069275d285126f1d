package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	projectHandler *ProjectHandler,
	taskHandler *TaskHandler,
	attachmentHandler *AttachmentHandler,
	dashboardHandler *DashboardHandler,
	jwtSecret string,
	revoker TokenRevocations,
	logger *zap.Logger,
	db *pgxpool.Pool,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(logger))
	r.Use(MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/identity", authHandler.LoginWithIdentity)

	// Protected
	protected := r.Group("/api")
	protected.Use(AuthMiddleware(jwtSecret, revoker))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/dashboard", dashboardHandler.GetDashboard)

		protected.GET("/projects", projectHandler.ListProjects)
		protected.POST("/projects", projectHandler.CreateProject)
		protected.GET("/projects/:id", projectHandler.GetProject)
		protected.GET("/projects/:id/tasks", taskHandler.ListTasks)
		protected.POST("/projects/:id/tasks", taskHandler.CreateTask)

		protected.GET("/tasks/:id", taskHandler.GetTask)
		protected.GET("/tasks/:id/attachments", attachmentHandler.ListAttachments)
		protected.POST("/tasks/:id/attachments", attachmentHandler.UploadAttachment)

		protected.GET("/attachments/:id/download", attachmentHandler.DownloadAttachment)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
