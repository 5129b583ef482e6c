package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"

	"go-food-scanner/internal/logger"
)

const (
	DefaultMaxAttempts = 2
	retryBaseDelay     = 300 * time.Millisecond
)

// Retrying wraps a Generator and repeats calls that failed for transient
// reasons. Delays grow linearly with the attempt number.
type Retrying struct {
	base        Generator
	maxAttempts int
	baseDelay   time.Duration
}

func NewRetrying(base Generator, maxAttempts int) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrying{
		base:        base,
		maxAttempts: maxAttempts,
		baseDelay:   retryBaseDelay,
	}
}

// Ready delegates to the wrapped generator.
func (r *Retrying) Ready() error {
	return Ready(r.base)
}

func (r *Retrying) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		reply, err := r.base.Generate(ctx, prompt, image, mimeType)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !ShouldRetry(err) || ctx.Err() != nil {
			break
		}

		delay := time.Duration(attempt) * r.baseDelay
		logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		}).Warn("Remote model call failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// ShouldRetry reports whether err looks transient: rate limiting, server
// errors, network timeouts and dropped connections. Cancellation and missing
// credentials are never retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrEmptyReply) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout")
}
