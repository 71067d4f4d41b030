package database

import "errors"

var (
	EventNotFound   = errors.New("event not found")
	ConfigNotFound  = errors.New("controller configuration not found")
	WebhookNotFound = errors.New("webhook not found")
	InsertFail      = errors.New("unable to insert row")
	QueryFail       = errors.New("unable to query")
	UpdateFail      = errors.New("unable to update")
	DeleteFail      = errors.New("unable to delete")
	InvalidFilter   = errors.New("invalid filter")
	InvalidInterval = errors.New("invalid interval")
)
