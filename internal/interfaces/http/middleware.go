package httpinterface

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
	"github.com/b3pay/b3walletd/pkg/stats"
)

const (
	requestIDHeader      = "X-Request-ID"
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "b3wallet:idempotency:"
	inProgressMarker     = "__in_progress__"
	cacheTimeout         = 2 * time.Second

	callerKey = "caller"
	roleKey   = "role"
)

func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDHeader, reqID)
		return c.Next()
	}
}

func accessLogger(metrics *stats.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler write the response before reading the
			// status code.
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				c.Status(fiber.StatusInternalServerError)
			}
			err = nil
		}
		elapsed := time.Since(start)
		status := c.Response().StatusCode()

		metrics.HTTPRequest(c.Method(), c.Route().Path, status, elapsed)
		log.WithFields(log.Fields{
			"request_id": c.Locals(requestIDHeader),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    elapsed.String(),
		}).Debug("http request")
		return err
	}
}

// authenticate resolves the role of the bearer token of the caller.
func authenticate(roles ports.RoleAuthority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if len(auth) <= 0 || len(token) <= 0 || token == auth {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		c.Locals(callerKey, token)
		c.Locals(roleKey, roles.RoleOf(c.UserContext(), token))
		return c.Next()
	}
}

// requireRole rejects callers whose role does not satisfy required. With
// RoleNone any valid role is accepted.
func requireRole(required domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(roleKey).(domain.Role)
		if !role.IsValid() || !role.Satisfies(required) {
			return domain.ErrForbidden
		}
		return c.Next()
	}
}

func callerOf(c *fiber.Ctx) string {
	caller, _ := c.Locals(callerKey).(string)
	return caller
}

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// idempotency replays the stored response of a request carrying an already
// seen Idempotency-Key header. Requests without the header pass through.
func idempotency(cache *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return c.Next()
		}
		// Keys are scoped to the caller so that different callers cannot
		// read each other's responses.
		cacheKey := idempotencyPrefix + uuid.NewSHA1(
			uuid.NameSpaceOID, []byte(callerOf(c)+":"+key),
		).String()

		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				return fiber.NewError(
					fiber.StatusConflict, "duplicate request currently processing",
				)
			}

			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				log.WithError(err).WithField("key", key).Warn(
					"failed to decode stored idempotent response",
				)
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			for header, value := range stored.Headers {
				if strings.EqualFold(header, fiber.HeaderContentLength) ||
					strings.EqualFold(header, requestIDHeader) {
					continue
				}
				c.Set(header, value)
			}
			return c.Status(stored.Status).SendString(stored.Body)
		}
		if err != redis.Nil {
			log.WithError(err).WithField("key", key).Error("idempotency lookup failed")
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		ok, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			log.WithError(err).WithField("key", key).Error("idempotency reservation failed")
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}
		if !ok {
			return fiber.NewError(
				fiber.StatusConflict, "duplicate request currently processing",
			)
		}

		release := func() {
			ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
			defer cancel()
			cache.Del(ctx, cacheKey)
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}
		// Only successful submissions are replayed.
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			release()
			return nil
		}

		stored := storedResponse{
			Status:  c.Response().StatusCode(),
			Body:    string(c.Response().Body()),
			Headers: map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			stored.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(stored)
		if err != nil {
			release()
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), cacheTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			log.WithError(err).WithField("key", key).Error(
				"failed to persist idempotent response",
			)
			release()
		}
		return nil
	}
}
