package llm

import (
	"context"
	"errors"
)

// Generator sends a prompt and a single image to a remote model and returns
// the raw text of its reply.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

var (
	// ErrMissingAPIKey is returned when no credential is configured.
	ErrMissingAPIKey = errors.New("llm: api key is empty")

	// ErrEmptyReply is returned when the model answers without any text part.
	ErrEmptyReply = errors.New("llm: empty response")
)

// readier is implemented by generators that can tell, without a network call,
// whether they are able to serve requests.
type readier interface {
	Ready() error
}

// Ready reports whether g can be called. A nil generator is treated as
// unconfigured. Generators that do not expose readiness are assumed ready.
func Ready(g Generator) error {
	if g == nil {
		return ErrMissingAPIKey
	}
	if r, ok := g.(readier); ok {
		return r.Ready()
	}
	return nil
}
