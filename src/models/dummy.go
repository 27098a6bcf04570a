package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DummyLLM is a lightweight model implementation useful for local testing without API calls.
// When Reply is set it is returned verbatim; otherwise the composed prompt is echoed
// behind Prefix. The files of the most recent call are kept for inspection.
type DummyLLM struct {
	Prefix string
	Reply  string

	mu        sync.Mutex
	lastFiles []File
	calls     int
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

func (d *DummyLLM) GenerateWithFiles(_ context.Context, prompt string, files []File) (any, error) {
	d.record(files)
	if d.Reply != "" {
		return d.Reply, nil
	}
	return fmt.Sprintf("%s %s", d.Prefix, combinePromptWithFiles(prompt, files)), nil
}

// GenerateStream simulates streaming by splitting the response into word-level chunks.
// Whitespace inside the reply is preserved in FullText.
func (d *DummyLLM) GenerateStream(ctx context.Context, prompt string, files []File) (<-chan StreamChunk, error) {
	result, _ := d.GenerateWithFiles(ctx, prompt, files)
	text := fmt.Sprint(result)

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		for _, word := range strings.SplitAfter(text, " ") {
			if word == "" {
				continue
			}
			select {
			case ch <- StreamChunk{Delta: word}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- StreamChunk{Done: true, FullText: text}:
		case <-ctx.Done():
		}
	}()

	return ch, nil
}

// LastFiles returns a copy of the attachments seen by the latest call.
func (d *DummyLLM) LastFiles() []File {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]File, len(d.lastFiles))
	copy(out, d.lastFiles)
	return out
}

// Calls reports how many generations were requested.
func (d *DummyLLM) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *DummyLLM) record(files []File) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.lastFiles = make([]File, len(files))
	for i, f := range files {
		f.Data = append([]byte(nil), f.Data...)
		d.lastFiles[i] = f
	}
}

var _ StreamingAgent = (*DummyLLM)(nil)
