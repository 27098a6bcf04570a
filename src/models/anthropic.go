package models

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicLLM implements Agent using Anthropic's Messages API.
// PDFs are sent as base64 document blocks.
type AnthropicLLM struct {
	Client       *anthropic.Client
	Model        string
	MaxTokens    int
	PromptPrefix string
}

func NewAnthropicLLM(apiKey, model, promptPrefix string) (*AnthropicLLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic: missing API key")
	}
	cl := anthropic.NewClient(
		anthropicopt.WithAPIKey(apiKey),
	)
	return &AnthropicLLM{
		Client:       &cl,
		Model:        model,
		MaxTokens:    4096,
		PromptPrefix: promptPrefix,
	}, nil
}

func anthropicBlocks(prompt string, files []File) ([]anthropic.ContentBlockParamUnion, error) {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(files)+1)
	blocks = append(blocks, anthropic.NewTextBlock(prompt))
	for i, f := range files {
		mt := normalizeMIME(f.Name, f.MIME)
		switch {
		case mt == "application/pdf":
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
				Data: base64.StdEncoding.EncodeToString(f.Data),
			}))
		case isTextMIME(mt):
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.PlainTextSourceParam{
				Data: string(f.Data),
			}))
		default:
			return nil, fmt.Errorf("anthropic: %s: %w", fileTitle(f, i), ErrUnsupportedAttachment)
		}
	}
	return blocks, nil
}

// GenerateWithFiles performs a single-turn completion and returns concatenated text.
func (a *AnthropicLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	blocks, err := anthropicBlocks(prompt, files)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: int64(a.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if prefix := strings.TrimSpace(a.PromptPrefix); prefix != "" {
		params.System = []anthropic.TextBlockParam{{Text: prefix}}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	var b strings.Builder
	for _, cb := range msg.Content {
		if tb, ok := cb.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}

var _ Agent = (*AnthropicLLM)(nil)
