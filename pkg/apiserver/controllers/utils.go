package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

const naiveTimeLayout = "2006-01-02T15:04:05"

// parseTimeParam accepts RFC3339 or a zone-less timestamp, which is assumed
// to be UTC.
func parseTimeParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(naiveTimeLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse time '%s'", value)
	}

	return t, nil
}

func parseIntParam(gctx *gin.Context, name string, fallback int) (int, error) {
	value := gctx.Query(name)
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s'", name, value)
	}

	return parsed, nil
}

// parseEventFilter builds the filter specification from query parameters.
// Validation happens in the store layer, before any query runs.
func parseEventFilter(gctx *gin.Context) (models.EventFilter, error) {
	filter := models.NewEventFilter()

	if value := gctx.Query("start_time"); value != "" {
		t, err := parseTimeParam(value)
		if err != nil {
			return filter, err
		}

		filter.StartTime = &t
	}

	if value := gctx.Query("end_time"); value != "" {
		t, err := parseTimeParam(value)
		if err != nil {
			return filter, err
		}

		filter.EndTime = &t
	}

	if value := gctx.Query("severity"); value != "" {
		severity, err := strconv.Atoi(value)
		if err != nil {
			return filter, fmt.Errorf("invalid severity '%s'", value)
		}

		filter.Severity = &severity
	}

	filter.Category = gctx.Query("category")
	filter.Action = gctx.Query("action")
	filter.SrcIP = gctx.Query("src_ip")
	filter.DestIP = gctx.Query("dest_ip")
	filter.Search = gctx.Query("search")

	var err error

	if filter.Page, err = parseIntParam(gctx, "page", filter.Page); err != nil {
		return filter, err
	}

	if filter.PageSize, err = parseIntParam(gctx, "page_size", filter.PageSize); err != nil {
		return filter, err
	}

	return filter, nil
}
