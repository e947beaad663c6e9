package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
	"github.com/MrSnakeDoc/bookmarkd/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarkd/internal/search"
	redisstore "github.com/MrSnakeDoc/bookmarkd/internal/store/redis"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access ops endpoints
	AllowedCIDRS []string         // IPs allowed to access ops endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string         // Origins allowed for CORS and the websocket handshake
	RateBurst    int              // per-IP burst on mutating routes
	RatePerMin   int              // per-IP refill on mutating routes

	Bookmarks   *bookmarks.Service   // Mutation pipeline and read side
	Registry    *realtime.Registry   // Live websocket connections
	Dispatcher  *realtime.Dispatcher // Event fan-out
	WSQueueSize int                  // Per-connection outbound queue cap

	Search            *search.Service             // nil when search is store-only
	RedisClient       *redis.Client               // nil when the suggestion cache is disabled
	Suggestions       *redisstore.SuggestionCache // nil when the suggestion cache is disabled
	ClassifierEnabled bool                        // false when no LLM key is configured
	Importer          *scheduler.Importer         // nil when import is disabled
	ImportTrigger     chan struct{}               // Channel to trigger a manual import (nil if import disabled)
}
