package models

import "context"

// File is a lightweight in-memory attachment.
// Name is used for display; MIME should be best-effort (e.g., "application/pdf").
type File struct {
	Name string
	MIME string
	Data []byte
}

// StreamChunk is one step of a streamed completion. The last chunk has Done set
// and carries the accumulated text in FullText, or the failure in Err.
type StreamChunk struct {
	Delta    string
	FullText string
	Done     bool
	Err      error
}

type Agent interface {
	GenerateWithFiles(context.Context, string, []File) (any, error)
}

// StreamingAgent is implemented by models that can emit partial output.
type StreamingAgent interface {
	Agent
	GenerateStream(context.Context, string, []File) (<-chan StreamChunk, error)
}
