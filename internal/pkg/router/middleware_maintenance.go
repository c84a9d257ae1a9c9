package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/smartfin/smartauth/internal/pkg/config"
)

func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	if cfg != nil {
		cleaned := lo.FilterMap(cfg.GetArray("app.maintenance.endpoints"), func(endpoint string, _ int) (string, bool) {
			endpoint = strings.TrimSpace(endpoint)
			return endpoint, endpoint != ""
		})
		endpoints = lo.SliceToMap(cleaned, func(endpoint string) (string, struct{}) {
			return endpoint, struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if _, blocked := endpoints[route]; blocked {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
