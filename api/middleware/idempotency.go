package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rafaelortiz/tradeyard-backend/api/responses"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
)

const idempotencyHeader = "Idempotency-Key"

// IdempotencyStore is the subset of the redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type idempotencyRule struct {
	method  string
	matcher *regexp.Regexp
	scope   string
	ttl     time.Duration
}

var idempotencyRules = []idempotencyRule{
	{http.MethodPost, regexp.MustCompile(`^/api/v1/orders$`), "orders", 24 * time.Hour},
	{http.MethodPost, regexp.MustCompile(`^/api/v1/orders/[^/]+/transitions$`), "order-transitions", 24 * time.Hour},
	{http.MethodPost, regexp.MustCompile(`^/api/v1/orders/[^/]+/returns$`), "returns", 24 * time.Hour},
	{http.MethodPost, regexp.MustCompile(`^/api/v1/returns/[^/]+/transitions$`), "return-transitions", 24 * time.Hour},
	{http.MethodPost, regexp.MustCompile(`^/api/v1/webhooks/payments$`), "payment-webhooks", 24 * time.Hour},
}

type idempotencyRecord struct {
	RequestHash string `json:"requestHash"`
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        string `json:"body"`
}

type responseCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.buf.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotency replays stored responses for duplicate mutation requests keyed
// by the Idempotency-Key header. Reusing a key with a different request body
// is rejected.
func Idempotency(store IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchIdempotencyRule(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := sha256.Sum256(body)
			requestHash := hex.EncodeToString(hash[:])
			storeKey := store.IdempotencyKey(rule.scope, key)

			stored, err := store.Get(r.Context(), storeKey)
			switch {
			case err == nil:
				replayStoredResponse(r.Context(), logg, w, stored, requestHash)
				return
			case errors.Is(err, redis.Nil):
				// first use of this key
			default:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency lookup"))
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			if capture.status == 0 {
				capture.status = http.StatusOK
			}

			record := idempotencyRecord{
				RequestHash: requestHash,
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(capture.buf.Bytes()),
			}
			raw, err := json.Marshal(record)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "idempotency.record.marshal", err)
				}
				return
			}
			if _, err := store.SetNX(r.Context(), storeKey, string(raw), rule.ttl); err != nil && logg != nil {
				logg.Error(r.Context(), "idempotency.record.store", err)
			}
		})
	}
}

func matchIdempotencyRule(r *http.Request) (idempotencyRule, bool) {
	for _, rule := range idempotencyRules {
		if rule.method == r.Method && rule.matcher.MatchString(r.URL.Path) {
			return rule, true
		}
	}
	return idempotencyRule{}, false
}

func replayStoredResponse(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, stored, requestHash string) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding idempotency record"))
		return
	}

	if record.RequestHash != requestHash {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotency key was already used with a different request body"))
		return
	}

	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding idempotency record body"))
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	_, _ = w.Write(body)
}
