// Package clients holds the HTTP collaborators the pipeline consumes.
package clients

import (
	"net/http"
	"time"
)

type HTTP struct {
	c       *http.Client
	baseURL string
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{c: &http.Client{Timeout: 60 * time.Second}, baseURL: baseURL}
}
