package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/sync"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	Orchestrator *sync.Orchestrator // handles one webhook event end to end
	RedisClient  *redis.Client      // side index connection, nil when disabled
	GhostURL     string             // target store base URL, for the infra report
}
