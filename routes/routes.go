package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"careai/handlers"
	"careai/middleware"
	"careai/utils"
)

// RegisterMemberRoutes sets up the member widget API.
func RegisterMemberRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	applyGlobalMiddleware(r)

	api := r.Group("/api/chat")
	{
		api.POST("/session", hb.StartSession)
		api.GET("/session/:id", hb.GetSession)
		api.POST("/session/:id/message", hb.SendMessage)
		api.POST("/session/:id/intent", hb.SelectIntent)
		api.POST("/session/:id/sub-intent", hb.SelectSubIntent)
		api.POST("/session/:id/navigate", hb.Navigate)

		api.POST("/session/:id/appointment/select", hb.AppointmentSelect)
		api.POST("/session/:id/appointment/new-date", hb.AppointmentNewDate)
		api.POST("/session/:id/appointment/reminder", hb.AppointmentReminder)
		api.POST("/session/:id/appointment/confirm-contact", hb.AppointmentConfirmContact)

		api.POST("/session/:id/end", hb.EndSession)
		api.POST("/session/:id/feedback", hb.SubmitFeedback)
		api.POST("/session/:id/message/:msgID/feedback", hb.MessageFeedback)
	}

	RegisterHealthRoute(r)
}

// RegisterAgentRoutes sets up the agent console API.
func RegisterAgentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	applyGlobalMiddleware(r)

	api := r.Group("/api/agent")
	{
		api.POST("/login", hb.AgentLogin)
		api.POST("/logout", hb.AgentLogout)
		api.GET("/queue", hb.GetQueue)
		api.POST("/handoff/:id/claim", hb.ClaimHandoff)
		api.POST("/handoff/:id/message", hb.AgentMessage)
		api.POST("/handoff/:id/resolve", hb.ResolveHandoff)
		api.POST("/handoff/:id/escalate", hb.EscalateHandoff)
	}

	RegisterHealthRoute(r)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm CareAI"})
	})
}

func applyGlobalMiddleware(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware())
}
