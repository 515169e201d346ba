package router

import (
	"log/slog"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/internal/handlers"
	"github.com/plank-dev/plank/internal/middleware"
)

func NewRouter(h *handlers.Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     h.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.TraceHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if slices.Contains(h.AllowedOrigins, "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}

	r.Use(cors.New(corsConfig))

	requireAuth := middleware.AuthMiddleware(h.Issuer, h.Services.Users)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", requireAuth, h.Me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", h.ListUsers)
			users.PUT("/me/avatar", h.UploadAvatar)
			users.GET("/:user_id", h.GetUser)
			users.PUT("/:user_id", h.UpdateUser)
			users.DELETE("/:user_id", h.DeleteUser)
		}

		workspaces := api.Group("/workspaces", requireAuth)
		{
			workspaces.GET("", h.ListWorkspaces)
			workspaces.POST("", h.CreateWorkspace)
			workspaces.GET("/:workspace_id", h.GetWorkspace)
			workspaces.PUT("/:workspace_id", h.UpdateWorkspace)
			workspaces.DELETE("/:workspace_id", h.DeleteWorkspace)
			workspaces.GET("/:workspace_id/members", h.ListWorkspaceMembers)
			workspaces.POST("/:workspace_id/members", h.InviteWorkspaceMember)
			workspaces.GET("/:workspace_id/ws", h.WebSocket)
		}

		projects := api.Group("/projects", requireAuth)
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.GET("/workspace/:workspace_id", h.ListWorkspaceProjects)
			projects.GET("/:project_id", h.GetProject)
			projects.PUT("/:project_id", h.UpdateProject)
			projects.DELETE("/:project_id", h.DeleteProject)
			projects.GET("/:project_id/members", h.ListProjectMembers)
			projects.POST("/:project_id/members", h.AddProjectMember)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", h.ListTasks)
			tasks.POST("", h.CreateTask)
			tasks.GET("/project/:project_id", h.ListProjectTasks)
			tasks.GET("/:task_id", h.GetTask)
			tasks.PUT("/:task_id", h.UpdateTask)
			tasks.DELETE("/:task_id", h.DeleteTask)
		}

		comments := api.Group("/comments", requireAuth)
		{
			comments.GET("/task/:task_id", h.ListTaskComments)
			comments.POST("/task/:task_id", h.CreateComment)
			comments.DELETE("/:comment_id", h.DeleteComment)
		}
	}

	return r
}
