package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/Protocol-Lattice/report-card-validator/src/models"
)

// GenerateStream provides a streaming interface for the agent's generation process.
// Models without native streaming produce a single terminal chunk.
func (a *Agent) GenerateStream(ctx context.Context, prompt string, files []models.File) (<-chan models.StreamChunk, error) {
	if strings.TrimSpace(prompt) == "" && len(files) == 0 {
		return nil, errors.New("user input is empty")
	}

	if streaming, ok := a.model.(models.StreamingAgent); ok {
		return streaming.GenerateStream(ctx, prompt, files)
	}

	// Helper to wrap immediate result in a stream
	immediateStream := func(val string, err error) (<-chan models.StreamChunk, error) {
		ch := make(chan models.StreamChunk, 1)
		if err != nil {
			ch <- models.StreamChunk{Err: err, Done: true}
		} else {
			ch <- models.StreamChunk{Delta: val, FullText: val, Done: true}
		}
		close(ch)
		return ch, nil
	}

	return immediateStream(a.Generate(ctx, prompt, files))
}
