package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini calls the Gemini API. A client is created per call so a missing key
// only fails the request that needs it.
type Gemini struct {
	apiKey      string
	model       string
	temperature float32
	options     []option.ClientOption
}

// NewGemini builds a Gemini generator. Extra client options are appended after
// the API key, which lets tests point the client at a local endpoint.
func NewGemini(apiKey, model string, opts ...option.ClientOption) *Gemini {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		temperature: 0.2,
		options:     opts,
	}
}

// Ready returns ErrMissingAPIKey when no key was configured.
func (g *Gemini) Ready() error {
	if g.apiKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.options...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(g.temperature),
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		&genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	txt := strings.TrimSpace(firstText(resp))
	if txt == "" {
		return "", ErrEmptyReply
	}
	return txt, nil
}

// firstText returns the first text part of the first candidate that has one.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
