package handlers

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/edufam/edufam-backend/internal/api/response"
)

// Pinger reports whether the backing store answers.
type Pinger func(ctx context.Context) error

type HealthResponse struct {
	Service string    `json:"service"`
	Time    time.Time `json:"time"`
	DB      string    `json:"db"`
}

// Health reports liveness and store reachability. It always answers 200.
func Health(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if ping == nil {
			status = "unavailable"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status = "unavailable"
			}
		}

		response.Success(w, HealthResponse{
			Service: "edufam-backend",
			Time:    time.Now().UTC(),
			DB:      status,
		})
	}
}

// Placeholder answers the segment roots that have no routes yet.
func Placeholder(segment string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, MessageResponse{Message: segment + " placeholder"})
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusNotFound, response.CodeNotFound, "Route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Fail(w, http.StatusMethodNotAllowed, response.CodeMethodNotAllowed, "Method not allowed")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
