package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/planory/draftguard/internal/config"
	"github.com/planory/draftguard/internal/logger"
	"github.com/planory/draftguard/models"
)

type httpBackend struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPBackend constructs the resty-based [Backend] implementation from
// the adapter configuration.
func NewHTTPBackend(cfg config.Adapter, log *logger.Logger) Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout)

	return &httpBackend{client: cli, logger: log}
}

func (h *httpBackend) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpBackend) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpBackend) SaveDocument(ctx context.Context, key string, env models.BackupEnvelope) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(env).
		Put("/api/documents/" + key)
	if err != nil {
		return fmt.Errorf("save document request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpBackend) ApplyMutation(ctx context.Context, m models.Mutation) (json.RawMessage, error) {
	var (
		resp *resty.Response
		err  error
	)

	switch m.Op {
	case models.MutationCreate:
		resp, err = h.authedRequest(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(m.Payload).
			Post("/api/" + m.Entity)
	case models.MutationUpdate:
		id, idErr := payloadID(m.Payload)
		if idErr != nil {
			return nil, fmt.Errorf("apply update mutation %s: %w", m.ID, idErr)
		}
		resp, err = h.authedRequest(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(m.Payload).
			Patch("/api/" + m.Entity + "/" + id)
	case models.MutationDelete:
		id, idErr := payloadID(m.Payload)
		if idErr != nil {
			return nil, fmt.Errorf("apply delete mutation %s: %w", m.ID, idErr)
		}
		resp, err = h.authedRequest(ctx).
			Delete("/api/" + m.Entity + "/" + id)
	default:
		return nil, fmt.Errorf("apply mutation %s: unknown op %q", m.ID, m.Op)
	}

	if err != nil {
		return nil, fmt.Errorf("apply mutation request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	if len(resp.Body()) == 0 {
		return nil, nil
	}
	return json.RawMessage(resp.Body()), nil
}

func (h *httpBackend) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}

	return mapHTTPError(resp)
}

func (h *httpBackend) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// payloadID extracts the record id carried inside a mutation payload.
// Creates inject it at enqueue time so updates and deletes can always
// address the record, even on replay.
func payloadID(payload json.RawMessage) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("decode payload id: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("payload has no id field")
	}
	return body.ID, nil
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp)}
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusRequestTimeout:
		// treat like a network timeout: transient, retryable
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}

	if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError {
		return &RejectedError{StatusCode: resp.StatusCode(), Body: body}
	}

	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
}

// parseRetryAfter reads the cool-down hint from the Retry-After header
// (delta-seconds or HTTP-date form) or, failing that, from a retry_after
// field in the JSON body. Returns 0 when the server gave no usable hint.
func parseRetryAfter(resp *resty.Response) time.Duration {
	if v := strings.TrimSpace(resp.Header().Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil {
			if d := time.Until(at); d > 0 {
				return d
			}
		}
	}

	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}

	return 0
}
