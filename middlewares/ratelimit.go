package middlewares

import (
	"JagannathOPD/utils"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops the limiter of a client not seen for this long.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterData keeps one limiter per client IP
type rateLimiterData struct {
	config   RateLimiterConfig
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	lastScan time.Time
}

func (d *rateLimiterData) allow(ip string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config.IdleTTL > 0 && now.Sub(d.lastScan) > d.config.IdleTTL {
		for key, client := range d.clients {
			if now.Sub(client.lastSeen) > d.config.IdleTTL {
				delete(d.clients, key)
			}
		}
		d.lastScan = now
	}

	client, ok := d.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(d.config.RequestsPerSecond), d.config.Burst)}
		d.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	data := &rateLimiterData{
		config:   config,
		clients:  make(map[string]*clientLimiter),
		lastScan: time.Now(),
	}

	return func(c *gin.Context) {
		if !data.allow(c.ClientIP(), time.Now()) {
			HttpError(c, utils.KindRateLimited, utils.CodeRateLimited, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
