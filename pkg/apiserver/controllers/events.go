package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

// ListEvents returns one page of events matching the query filters.
func (c *Controller) ListEvents(gctx *gin.Context) {
	filter, err := parseEventFilter(gctx)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	page, err := c.DBClient.ListEvents(gctx.Request.Context(), filter)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, page)
}

func (c *Controller) GetStats(gctx *gin.Context) {
	stats, err := c.DBClient.GetStats(gctx.Request.Context())
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, stats)
}

func (c *Controller) GetTimeline(gctx *gin.Context) {
	interval := gctx.DefaultQuery("interval", "hour")

	days, err := parseIntParam(gctx, "days", 7)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	timeline, err := c.DBClient.GetTimeline(gctx.Request.Context(), interval, days)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, timeline)
}

func (c *Controller) GetCategories(gctx *gin.Context) {
	categories, err := c.DBClient.ListCategories(gctx.Request.Context())
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (c *Controller) GetEvent(gctx *gin.Context) {
	id, err := strconv.ParseInt(gctx.Param("event_id"), 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
		return
	}

	event, err := c.DBClient.GetEventByID(gctx.Request.Context(), id)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, event)
}

type archiveRequest struct {
	Archived *bool `json:"archived"`
}

// ArchiveEvent sets the archived flag, the only mutation events support.
func (c *Controller) ArchiveEvent(gctx *gin.Context) {
	id, err := strconv.ParseInt(gctx.Param("event_id"), 10, 64)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid event id"})
		return
	}

	req := archiveRequest{}
	if gctx.Request.ContentLength > 0 {
		if err := gctx.ShouldBindJSON(&req); err != nil {
			gctx.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
	}

	archived := true
	if req.Archived != nil {
		archived = *req.Archived
	}

	if err := c.DBClient.SetEventArchived(gctx.Request.Context(), id, archived); err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// GetEventsByIP lists events where the IP is either endpoint.
func (c *Controller) GetEventsByIP(gctx *gin.Context) {
	ip := gctx.Param("ip")

	page, err := parseIntParam(gctx, "page", 1)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	pageSize, err := parseIntParam(gctx, "page_size", models.DefaultPageSize)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result, err := c.DBClient.ListEventsForIP(gctx.Request.Context(), ip, page, pageSize)
	if err != nil {
		c.HandleDBErrors(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, result)
}
