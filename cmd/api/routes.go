package main

import (
	"campaign-engine/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h *httpapi.Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	jobs := r.Group("/jobs")
	{
		jobs.POST("", h.CreateJob)
		jobs.GET("/:id", h.GetJob)
		jobs.DELETE("/:id", h.DeleteJob)
		jobs.GET("/:id/stream", h.StreamJob)
		jobs.GET("/:id/results", h.Results)
		jobs.GET("/:id/results.csv", h.ResultsCSV)
		jobs.GET("/:id/conversations", h.Conversations)
	}

	// Provider webhooks (public).
	// NOTE: these should be protected by provider signature validation in production.
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/call-ended", h.CallEnded)
		webhooks.POST("/sms-reply", h.SMSReply)
	}

	r.POST("/leads/extract", h.ExtractPhones)
}
