package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/unifi-tools/threatwatch/pkg/database"
)

// HandleDBErrors maps store errors to precise HTTP outcomes. Validation and
// not-found errors keep their message; anything else becomes a generic 500
// so internal detail never leaks.
func (*Controller) HandleDBErrors(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, database.InvalidFilter), errors.Is(err, database.InvalidInterval):
		gctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, database.EventNotFound),
		errors.Is(err, database.ConfigNotFound),
		errors.Is(err, database.WebhookNotFound):
		gctx.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	default:
		log.Errorf("api: %s", err)
		gctx.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
