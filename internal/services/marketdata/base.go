package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	xhttp "AlphaFusion/pkg/http"
	applogger "AlphaFusion/pkg/logger"
)

// HTTPServiceBase is the shared foundation for market data HTTP clients.
// It centralizes base URL handling, JSON GETs and transient-error retries.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
	backoff time.Duration
	logger  *applogger.Logger
}

// NewHTTPServiceBase builds a base over client. A nil client gets a default one.
func NewHTTPServiceBase(baseURL string, client *xhttp.Client) *HTTPServiceBase {
	if client == nil {
		client = xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	}
	return &HTTPServiceBase{
		baseURL: baseURL,
		client:  client,
		backoff: 250 * time.Millisecond,
		logger:  applogger.NewNop(),
	}
}

// SetLogger sets the logger used for retry warnings.
func (b *HTTPServiceBase) SetLogger(l *applogger.Logger) {
	if l != nil {
		b.logger = l
	}
}

// GetJSON issues a GET for path under baseURL and decodes the JSON body into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("market data http client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         b.baseURL + path,
		QueryParams: query,
		Headers: map[string]string{
			"Accept": "application/json",
		},
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

// GetJSONWithRetry retries GetJSON up to attempts times. Only network errors
// and temporary statuses (429, 5xx) are retried.
func (b *HTTPServiceBase) GetJSONWithRetry(ctx context.Context, path string, query map[string][]string, dest interface{}, attempts int) error {
	if attempts <= 1 {
		return b.GetJSON(ctx, path, query, dest)
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = b.GetJSON(ctx, path, query, dest)
		if err == nil || ctx.Err() != nil || !retryable(err) || i == attempts {
			return err
		}
		b.logger.Warn("market data request retry",
			applogger.String("path", path),
			applogger.Int("attempt", i),
			applogger.Error(err),
		)
		select {
		case <-time.After(time.Duration(i) * b.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
