package server

import (
	"fmt"
	"net/http"
)

// getScheme determines the HTTP scheme
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}

	if r.Header.Get("X-Forwarded-Ssl") == "on" {
		return "https"
	}

	return "http"
}

// getWSScheme determines the WebSocket scheme
func getWSScheme(r *http.Request) string {
	if getScheme(r) == "https" {
		return "wss"
	}
	return "ws"
}

// getBaseURL returns the base URL for HTTP
func getBaseURL(r *http.Request) string {
	return fmt.Sprintf("%s://%s", getScheme(r), r.Host)
}

// getWSURL returns the base URL for WebSocket
func getWSURL(r *http.Request) string {
	return fmt.Sprintf("%s://%s", getWSScheme(r), r.Host)
}
