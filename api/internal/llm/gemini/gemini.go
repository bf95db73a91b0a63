package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"dental-bot/api/internal/llm"
)

type Engine struct {
	client *genai.Client
	Model  string
}

// New opens one client for the life of the process; call Close on shutdown.
func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Engine{client: cl, Model: strings.TrimSpace(model)}, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) WithModel(model string) llm.Engine {
	return &Engine{client: e.client, Model: strings.TrimSpace(model)}
}

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// GenerateStream sends the prompt followed by the image, as the mobile SDK does.
func (e *Engine) GenerateStream(ctx context.Context, prompt string, image []byte, mime string) (llm.Stream, error) {
	m := e.client.GenerativeModel(e.Model)
	if m == nil {
		return nil, errors.New("gemini: model is nil")
	}
	it := m.GenerateContentStream(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: mime, Data: image},
	)
	return &stream{it: it}, nil
}

type stream struct {
	it *genai.GenerateContentResponseIterator
}

// Next returns the text of the next chunk. Chunks without text yield "".
func (s *stream) Next() (string, error) {
	resp, err := s.it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return "", iterator.Done
		}
		return "", err
	}
	return chunkText(resp), nil
}

func (s *stream) Close() error { return nil }

func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
