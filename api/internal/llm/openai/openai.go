package openai

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/iterator"

	"dental-bot/api/internal/llm"
	"dental-bot/api/internal/util"
)

const maxTokens = 1024

type Engine struct {
	client *openai.Client
	Model  string
}

func New(apiKey, model string) (*Engine, error) {
	return NewWithBaseURL(apiKey, model, "")
}

// NewWithBaseURL points the client at a compatible endpoint (proxies, tests).
func NewWithBaseURL(apiKey, model, baseURL string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Engine{client: openai.NewClientWithConfig(cfg), Model: strings.TrimSpace(model)}, nil
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) WithModel(model string) llm.Engine {
	return &Engine{client: e.client, Model: strings.TrimSpace(model)}
}

func (e *Engine) GenerateStream(ctx context.Context, prompt string, image []byte, mime string) (llm.Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:     e.Model,
		MaxTokens: maxTokens,
		Stream:    true,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    util.MakeDataURL(mime, image),
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
	st, err := e.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	return &stream{st: st}, nil
}

type stream struct {
	st *openai.ChatCompletionStream
}

func (s *stream) Next() (string, error) {
	resp, err := s.st.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", iterator.Done
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *stream) Close() error {
	s.st.Close()
	return nil
}
