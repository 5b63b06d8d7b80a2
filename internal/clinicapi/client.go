package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/config"
	"github.com/petnice/clinic-dashboard/internal/observability"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

const maxErrorBody = 64 << 10

// Client talks JSON to the clinic REST API. Non-2xx status is the only error signal.
type Client struct {
	BaseURL      string
	RegisterPath string
	RecordsPath  string
	HTTPClient   *http.Client

	metrics *observability.Metrics
	logger  *zap.Logger
}

// New returns a client for the configured API. A zero timeout means no client timeout.
func New(cfg config.ClinicAPIConfig, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerPath := cfg.RegisterPath
	if registerPath == "" {
		registerPath = "/api/auth/register"
	}
	recordsPath := cfg.RecordsPath
	if recordsPath == "" {
		recordsPath = "/api/records"
	}
	return &Client{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		RegisterPath: registerPath,
		RecordsPath:  recordsPath,
		HTTPClient:   &http.Client{Timeout: cfg.Timeout()},
		metrics:      metrics,
		logger:       logger.Named("clinicapi"),
	}
}

// Call describes one request to the API.
type Call struct {
	// Resource labels the call in metrics and logs.
	Resource string
	Method   string
	Path     string
	// Token is sent as a bearer credential when set.
	Token string
	Body  any
}

// Do issues the call and decodes a successful response into out (which may be nil).
// Failures are *apperrors.DomainError values: network errors for transport failures and
// FromStatus mappings for non-2xx responses.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	status, payload, err := c.exchange(ctx, call)
	if err != nil {
		return err
	}

	if !success(status) {
		apiErr := apperrors.FromStatus(status, errorMessage(payload))
		c.record(call, strings.ToLower(apperrors.ToDomainError(apiErr).Code))
		return apiErr
	}
	c.record(call, "ok")
	return decode(call, payload, out)
}

// exchange performs the round trip, turning transport failures into network errors.
func (c *Client) exchange(ctx context.Context, call Call) (int, []byte, error) {
	status, payload, err := c.send(ctx, call)
	if err != nil {
		c.record(call, "network")
		c.logger.Warn("clinic api unreachable",
			zap.String("resource", call.Resource),
			zap.String("method", call.Method),
			zap.Error(err))
		return 0, nil, apperrors.NewNetworkError(err)
	}
	return status, payload, nil
}

func decode(call Call, payload []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.NewInternalError(fmt.Errorf("decode %s response: %w", call.Resource, err))
	}
	return nil
}

func success(status int) bool {
	return status >= 200 && status <= 299
}

// send performs the round trip and returns the status with the raw body.
func (c *Client) send(ctx context.Context, call Call) (int, []byte, error) {
	var body io.Reader
	if call.Body != nil {
		raw, err := json.Marshal(call.Body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, c.BaseURL+call.Path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if !success(resp.StatusCode) {
		reader = io.LimitReader(resp.Body, maxErrorBody)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, payload, nil
}

func (c *Client) record(call Call, outcome string) {
	c.metrics.RecordClinicCall(call.Resource, call.Method, outcome)
}

// errorMessage extracts the human-readable reason from an error body. The API uses
// `msg`; `message` and a string `error` are accepted as well.
func errorMessage(payload []byte) string {
	var body struct {
		Msg     string          `json:"msg"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	switch {
	case body.Msg != "":
		return body.Msg
	case body.Message != "":
		return body.Message
	}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}
	return ""
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeNetwork)
}
