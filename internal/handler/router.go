package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/metrics"
	"github.com/xxxsen/accord/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Documents     *DocumentHandler
	Files         *FileHandler
	Export        *ExportHandler
	Comments      *CommentHandler
	Witness       *WitnessHandler
	AI            *AIHandler
	Notifications *NotificationHandler
	Mail          *MailHandler
	Metrics       *metrics.Metrics
	JWTSecret     []byte
	// CommentWindow is the minimum gap between two comments from one actor.
	CommentWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)
	api.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	api.GET("/notifications/count", middleware.OptionalJWT(deps.JWTSecret), deps.Notifications.Count)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)

	authGroup.GET("/files", deps.Documents.List)
	authGroup.POST("/files", deps.Documents.Create)
	authGroup.GET("/files/:id", deps.Documents.Get)
	authGroup.PUT("/files/:id", deps.Documents.Update)
	authGroup.GET("/files/:id/pdf", deps.Export.ExportDocument)
	authGroup.GET("/files/:id/executed", deps.Files.Executed)
	authGroup.POST("/upload", deps.Files.Upload)
	authGroup.POST("/get-file-id", deps.Documents.FindID)

	authGroup.GET("/comments", deps.Comments.List)
	authGroup.POST("/comments", middleware.RateLimit(deps.CommentWindow), deps.Comments.Add)
	authGroup.DELETE("/comments", deps.Comments.Delete)

	authGroup.POST("/witness", deps.Witness.Request)
	authGroup.POST("/analyze", deps.AI.Analyze)
	authGroup.POST("/analyze-clause", deps.AI.AnalyzeClause)
	authGroup.POST("/generate/:kind", deps.AI.Generate)
	authGroup.POST("/generate-pdf", deps.Export.GeneratePDF)
	authGroup.POST("/email", deps.Mail.Send)

	authGroup.GET("/notifications", deps.Notifications.List)
	authGroup.POST("/notifications", deps.Notifications.Save)
	authGroup.PUT("/notifications/:id/read", deps.Notifications.MarkRead)
}
