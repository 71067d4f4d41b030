package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

var validWebhookTypes = map[string]bool{
	"slack":   true,
	"discord": true,
	"generic": true,
}

func (c *Controller) ListWebhooks(gctx *gin.Context) {
	webhooks, err := c.DBClient.ListWebhooks(gctx.Request.Context())
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, models.WebhooksListResponse{
		Webhooks: webhooks,
		Total:    len(webhooks),
	})
}

func (c *Controller) CreateWebhook(gctx *gin.Context) {
	req := models.WebhookCreateRequest{}
	if err := gctx.ShouldBindJSON(&req); err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if req.Name == "" || req.URL == "" {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "name and url are required"})
		return
	}

	if !validWebhookTypes[req.WebhookType] {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "webhook_type must be one of slack, discord, generic"})
		return
	}

	minSeverity := req.MinSeverity
	if minSeverity == 0 {
		minSeverity = 2
	}

	if minSeverity < 1 || minSeverity > 3 {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "min_severity must be between 1 and 3"})
		return
	}

	webhook := models.Webhook{
		Name:        req.Name,
		WebhookType: req.WebhookType,
		URL:         req.URL,
		MinSeverity: minSeverity,
		EventAlert:  true,
		EventBlock:  true,
		Enabled:     true,
	}

	if req.EventAlert != nil {
		webhook.EventAlert = *req.EventAlert
	}

	if req.EventBlock != nil {
		webhook.EventBlock = *req.EventBlock
	}

	if req.Enabled != nil {
		webhook.Enabled = *req.Enabled
	}

	id, err := c.DBClient.CreateWebhook(gctx.Request.Context(), &webhook)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	created, err := c.DBClient.GetWebhook(gctx.Request.Context(), id)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusCreated, created)
}

func (c *Controller) UpdateWebhook(gctx *gin.Context) {
	id, err := strconv.ParseInt(gctx.Param("webhook_id"), 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid webhook id"})
		return
	}

	req := models.WebhookUpdateRequest{}
	if err := gctx.ShouldBindJSON(&req); err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	webhook, err := c.DBClient.GetWebhook(gctx.Request.Context(), id)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	if req.Name != nil {
		webhook.Name = *req.Name
	}

	if req.URL != nil {
		webhook.URL = *req.URL
	}

	if req.MinSeverity != nil {
		if *req.MinSeverity < 1 || *req.MinSeverity > 3 {
			gctx.JSON(http.StatusBadRequest, gin.H{"message": "min_severity must be between 1 and 3"})
			return
		}

		webhook.MinSeverity = *req.MinSeverity
	}

	if req.EventAlert != nil {
		webhook.EventAlert = *req.EventAlert
	}

	if req.EventBlock != nil {
		webhook.EventBlock = *req.EventBlock
	}

	if req.Enabled != nil {
		webhook.Enabled = *req.Enabled
	}

	if err := c.DBClient.UpdateWebhook(gctx.Request.Context(), webhook); err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, webhook)
}

func (c *Controller) DeleteWebhook(gctx *gin.Context) {
	id, err := strconv.ParseInt(gctx.Param("webhook_id"), 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid webhook id"})
		return
	}

	if err := c.DBClient.DeleteWebhook(gctx.Request.Context(), id); err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "webhook deleted",
	})
}
