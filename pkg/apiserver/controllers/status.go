package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (c *Controller) Health(gctx *gin.Context) {
	gctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (c *Controller) GetStatus(gctx *gin.Context) {
	status, err := c.Status.Status(gctx.Request.Context())
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, status)
}
