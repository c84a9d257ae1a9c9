package app

import (
	"context"
	"net/http"
	"time"

	"github.com/smartfin/smartauth/internal/pkg/router"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (h healthResponse) Message() string {
	return "health check"
}

func (h healthResponse) StatusCode() int {
	if h.Status != "up" {
		return http.StatusServiceUnavailable
	}

	return http.StatusOK
}

type bannerResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

func (b bannerResponse) Message() string {
	return "welcome"
}

// initHealth exposes GET / with a service banner and GET /health reporting
// each backing resource.
func (a *App) initHealth() {
	a.router.GET("/", func(r *router.Request) (any, error) {
		return bannerResponse{
			Service: a.config.GetString("instrument.service_name"),
			Version: a.config.GetString("instrument.service_version"),
			Endpoints: []string{
				"POST /api/v1/auth/signup-init",
				"POST /api/v1/auth/verify-signup",
				"POST /api/v1/auth/resend-otp",
				"POST /api/v1/auth/login",
				"GET /api/v1/auth/profile",
				"GET /health",
			},
		}, nil
	})

	a.router.GET("/health", func(r *router.Request) (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:     "up",
			Components: map[string]string{},
		}

		check := func(name string, fn func(ctx context.Context) error) {
			if err := fn(ctx); err != nil {
				resp.Status = "down"
				resp.Components[name] = "down"
				return
			}
			resp.Components[name] = "up"
		}

		check("database", func(ctx context.Context) error {
			return a.dbConn.Ping(ctx)
		})
		check("redis", func(ctx context.Context) error {
			return a.cacheConn.Ping(ctx).Err()
		})

		return resp, nil
	})
}
