package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/sales-api/internal/domain/entity"
	"github.com/sangkips/sales-api/internal/domain/repository"
	"github.com/sangkips/sales-api/internal/presentation/http/dto/response"
	"github.com/sangkips/sales-api/pkg/apperror"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo   repository.IdempotencyRepository
	Logger *zap.Logger
	// Required rejects writes that carry no key
	Required bool
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when a client repeats a write with
// the same Idempotency-Key. Reusing a key for a different body is rejected.
// Only 2xx responses are stored.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			if cfg.Required {
				response.Error(c, apperror.NewBadRequestError("Idempotency-Key header is required for this request"))
				c.Abort()
				return
			}
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			response.Error(c, apperror.NewBadRequestError("Idempotency-Key header is too long"))
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.NewBadRequestError("Unable to read request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := hashBody(body)
		client := c.ClientIP()
		endpoint := c.Request.Method + " " + c.FullPath()

		existing, err := cfg.Repo.GetByKey(c.Request.Context(), key, client)
		if err != nil {
			log.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if existing != nil && !existing.IsExpired() {
			if existing.RequestHash != hash || existing.Endpoint != endpoint {
				response.Error(c, apperror.NewAppError(http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different request"))
				c.Abort()
				return
			}
			c.Header("X-Idempotency-Replayed", "true")
			c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:          key,
			Client:       client,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseCode: status,
			ResponseBody: blw.body.String(),
			ExpiresAt:    time.Now().Add(IdempotencyKeyTTL),
		}
		if err := cfg.Repo.Create(c.Request.Context(), ikey); err != nil {
			log.Warn("failed to store idempotency key", zap.String("key", key), zap.Error(err))
		}
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// PurgeExpiredKeys deletes expired idempotency keys every interval until ctx is done.
func PurgeExpiredKeys(ctx context.Context, repo repository.IdempotencyRepository, every time.Duration, log *zap.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Warn("failed to purge idempotency keys", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("purged idempotency keys", zap.Int64("count", n))
			}
		}
	}
}
