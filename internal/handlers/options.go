package handlers

import (
	"strings"
	"time"
)

// Options holds the request limits and link lifetimes shared by handlers.
type Options struct {
	MaxUploadBytes int64
	SignedURLTTL   time.Duration
	ShareTTL       time.Duration
	ShareBaseURL   string
}

func (o Options) withDefaults() Options {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 15 << 20
	}
	if o.SignedURLTTL <= 0 {
		o.SignedURLTTL = time.Hour
	}
	if o.ShareTTL <= 0 {
		o.ShareTTL = 7 * 24 * time.Hour
	}
	o.ShareBaseURL = strings.TrimSuffix(o.ShareBaseURL, "/")
	return o
}
