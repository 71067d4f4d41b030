package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unifi-tools/threatwatch/pkg/broadcast"
	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/models"
	"github.com/unifi-tools/threatwatch/pkg/secrets"
)

// StatusProvider supplies the system status payload (the fetcher implements
// it).
type StatusProvider interface {
	Status(ctx context.Context) (*models.SystemStatus, error)
}

type Controller struct {
	DBClient     *database.Client
	Broadcaster  *broadcast.Manager
	Status       StatusProvider
	Sealer       *secrets.Sealer
	WriteTimeout time.Duration
	Prometheus   bool
}

func New(dbClient *database.Client, broadcaster *broadcast.Manager, status StatusProvider,
	sealer *secrets.Sealer, writeTimeout time.Duration, prometheus bool) *Controller {
	return &Controller{
		DBClient:     dbClient,
		Broadcaster:  broadcaster,
		Status:       status,
		Sealer:       sealer,
		WriteTimeout: writeTimeout,
		Prometheus:   prometheus,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.Health)

	if c.Prometheus {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/status", c.GetStatus)
		api.GET("/ws", c.ServeWebsocket)

		events := api.Group("/events")
		{
			events.GET("", c.ListEvents)
			events.GET("/stats", c.GetStats)
			events.GET("/timeline", c.GetTimeline)
			events.GET("/categories", c.GetCategories)
			events.GET("/ip/:ip", c.GetEventsByIP)
			events.GET("/:event_id", c.GetEvent)
			events.POST("/:event_id/archive", c.ArchiveEvent)
		}

		config := api.Group("/config")
		{
			config.POST("/unifi", c.SaveControllerConfig)
			config.GET("/unifi", c.GetControllerConfig)
			config.GET("/unifi/test", c.TestControllerConfig)
		}

		webhooks := api.Group("/webhooks")
		{
			webhooks.GET("", c.ListWebhooks)
			webhooks.POST("", c.CreateWebhook)
			webhooks.PUT("/:webhook_id", c.UpdateWebhook)
			webhooks.DELETE("/:webhook_id", c.DeleteWebhook)
		}
	}
}
