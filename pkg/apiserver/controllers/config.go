package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/database"
	"github.com/unifi-tools/threatwatch/pkg/models"
	"github.com/unifi-tools/threatwatch/pkg/unifi"
)

// SaveControllerConfig stores the upstream controller configuration,
// sealing any provided secrets first.
func (c *Controller) SaveControllerConfig(gctx *gin.Context) {
	req := models.ControllerConfigRequest{}
	if err := gctx.ShouldBindJSON(&req); err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	if req.ControllerURL == "" {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "controller_url is required"})
		return
	}

	hasPassword := req.Password != nil && *req.Password != ""
	hasAPIKey := req.APIKey != nil && *req.APIKey != ""

	if !hasPassword && !hasAPIKey {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "either password or api_key must be provided"})
		return
	}

	siteID := req.SiteID
	if siteID == "" {
		siteID = "default"
	}

	stored := &database.ControllerConfig{
		ControllerURL: req.ControllerURL,
		Username:      req.Username,
		SiteID:        siteID,
		VerifySSL:     req.VerifySSL,
	}

	if hasPassword {
		sealed, err := c.Sealer.Seal(*req.Password)
		if err != nil {
			log.Errorf("unable to seal password: %s", err)
			gctx.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})

			return
		}

		stored.PasswordSealed = &sealed
	}

	if hasAPIKey {
		sealed, err := c.Sealer.Seal(*req.APIKey)
		if err != nil {
			log.Errorf("unable to seal api key: %s", err)
			gctx.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})

			return
		}

		stored.APIKeySealed = &sealed
	}

	if err := c.DBClient.SaveControllerConfig(gctx.Request.Context(), stored); err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "controller configuration saved successfully",
	})
}

// GetControllerConfig returns the stored configuration without secrets.
func (c *Controller) GetControllerConfig(gctx *gin.Context) {
	stored, err := c.DBClient.GetControllerConfig(gctx.Request.Context())
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, stored.Response())
}

// TestControllerConfig probes the configured controller and records the
// connection time on success.
func (c *Controller) TestControllerConfig(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	stored, err := c.DBClient.GetControllerConfig(ctx)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	client, err := unifi.NewClientFromStored(stored, c.Sealer)
	if err != nil {
		msg := "failed to decrypt credentials"
		log.Errorf("controller test: %s", err)
		gctx.JSON(http.StatusOK, models.ControllerConnectionTest{Connected: false, Error: &msg})

		return
	}

	result := client.TestConnection(ctx)

	if result.Connected {
		if err := c.DBClient.TouchControllerConnection(ctx, time.Now().UTC()); err != nil {
			log.Warningf("unable to record controller connection time: %s", err)
		}
	}

	gctx.JSON(http.StatusOK, models.ControllerConnectionTest{
		Connected:          result.Connected,
		ClientCount:        result.ClientCount,
		APCount:            result.APCount,
		Site:               result.Site,
		Error:              result.Error,
		IPSEventsAvailable: result.IPSEventsAvailable,
	})
}
