package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/linkmirror/linkmirror/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"ghost": {
				OK:   d.GhostURL != "",
				Mode: "system-of-record",
			},
			"redis": sideIndexStatus(d),
			"resolver": {
				OK:   true,
				Mode: resolverMode(d),
			},
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func resolverMode(d deps.Deps) string {
	if d.RedisClient != nil {
		return "side-index+scan"
	}
	return "scan-only"
}

func determineSyncMode(components map[string]componentStatus) string {
	if ghost, exists := components["ghost"]; exists && !ghost.OK {
		return "critical" // no target store = nothing to mirror into
	}
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded" // side index down = every resolve is a scan
	}
	return "indexed"
}

func sideIndexStatus(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "resolver-scans-every-event",
			Error:  "not configured",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "resolver-scans-every-event",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "fast-identity-resolution",
		Error:  "none",
	}
}
