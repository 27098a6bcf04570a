package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ---------------------------- Google Gemini ----------------------------------

type GeminiLLM struct {
	Client       *genai.Client
	Model        string
	PromptPrefix string
}

func NewGeminiLLM(ctx context.Context, apiKey, model, promptPrefix string) (*GeminiLLM, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &GeminiLLM{Client: client, Model: model, PromptPrefix: promptPrefix}, nil
}

// generativeModel applies the prompt prefix as the system instruction.
func (g *GeminiLLM) generativeModel() *genai.GenerativeModel {
	model := g.Client.GenerativeModel(g.Model)
	if prefix := strings.TrimSpace(g.PromptPrefix); prefix != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prefix)}}
	}
	return model
}

func geminiParts(prompt string, files []File) ([]genai.Part, error) {
	parts := make([]genai.Part, 0, len(files)+1)
	parts = append(parts, genai.Text(prompt))
	for i, f := range files {
		mt := sanitizeForGemini(normalizeMIME(f.Name, f.MIME))
		if mt == "" {
			return nil, fmt.Errorf("gemini: %s: %w", fileTitle(f, i), ErrUnsupportedAttachment)
		}
		parts = append(parts, genai.Blob{MIMEType: mt, Data: f.Data})
	}
	return parts, nil
}

func (g *GeminiLLM) GenerateWithFiles(ctx context.Context, prompt string, files []File) (any, error) {
	parts, err := geminiParts(prompt, files)
	if err != nil {
		return nil, err
	}

	resp, err := g.generativeModel().GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: empty response")
	}
	return responseText(resp), nil
}

// GenerateStream forwards Gemini's server-side streaming as chunks.
func (g *GeminiLLM) GenerateStream(ctx context.Context, prompt string, files []File) (<-chan StreamChunk, error) {
	parts, err := geminiParts(prompt, files)
	if err != nil {
		return nil, err
	}

	iter := g.generativeModel().GenerateContentStream(ctx, parts...)

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		send := func(chunk StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var sb strings.Builder
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				send(StreamChunk{Done: true, FullText: sb.String(), Err: fmt.Errorf("gemini stream: %w", err)})
				return
			}
			delta := responseText(resp)
			if delta == "" {
				continue
			}
			sb.WriteString(delta)
			if !send(StreamChunk{Delta: delta}) {
				return
			}
		}
		send(StreamChunk{Done: true, FullText: sb.String()})
	}()

	return ch, nil
}

// Close releases the underlying client connection.
func (g *GeminiLLM) Close() error {
	if g.Client == nil {
		return nil
	}
	return g.Client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		return sb.String()
	}
	return ""
}

var _ StreamingAgent = (*GeminiLLM)(nil)
