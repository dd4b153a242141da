package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/spec-kit/bus-tracking/internal/persistence"
	apperrors "github.com/spec-kit/bus-tracking/pkg/util"
)

const (
	defaultAuthRate = "20-M"
	limiterPrefix   = "bus_auth_limiter"
)

// NewAuthLimiter builds the limiter guarding the credential endpoints. Redis
// backs it when configured so limits hold across replicas.
func NewAuthLimiter(rdb *persistence.Redis, rate string) (*limiter.Limiter, error) {
	if rate == "" {
		rate = defaultAuthRate
	}
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if rdb.Enabled() {
		store, err = redisstore.NewStoreWithOptions(rdb.Client, limiter.StoreOptions{Prefix: limiterPrefix})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix, CleanUpInterval: limiter.DefaultCleanUpInterval})
	}
	return limiter.New(store, parsed), nil
}

// RateLimit rejects clients that exceed l, keyed by client IP. A failing
// store is logged and the request let through.
func RateLimit(l *limiter.Limiter, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil {
			return c.Next()
		}
		lc, err := l.Get(c.UserContext(), c.IP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(lc.Reset, 10))
		if lc.Reached {
			return apperrors.NewTooManyRequests()
		}
		return c.Next()
	}
}
