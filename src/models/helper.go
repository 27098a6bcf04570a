package models

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// ErrUnsupportedAttachment is returned when a provider cannot carry a file's MIME type.
var ErrUnsupportedAttachment = errors.New("unsupported attachment type")

// MIME type lookup tables for fast access
var (
	mimeExtMap = map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".gif":  "image/gif",
		".webp": "image/webp",
		".txt":  "text/plain",
		".log":  "text/plain",
		".md":   "text/markdown",
		".json": "application/json",
		".yaml": "application/x-yaml",
		".yml":  "application/x-yaml",
		".xml":  "application/xml",
	}

	mimeAliasMap = map[string]string{
		"application/x-pdf":   "application/pdf",
		"application/acrobat": "application/pdf",
		"image/jpg":           "image/jpeg",
		"image/pjpeg":         "image/jpeg",
		"image/x-png":         "image/png",
	}
)

// NewLLMProvider returns a concrete Agent. The API key is passed in explicitly;
// providers never read credentials from the process environment.
func NewLLMProvider(ctx context.Context, provider, apiKey, model, promptPrefix string) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini", "google":
		llm, err := NewGeminiLLM(ctx, apiKey, model, promptPrefix)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case "anthropic", "claude":
		llm, err := NewAnthropicLLM(apiKey, model, promptPrefix)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case "dummy":
		return NewDummyLLM(promptPrefix), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// sanitizeForGemini filters to what Gemini accepts as inline data.
// Return "" when the file cannot be attached.
func sanitizeForGemini(mt string) string {
	mt = stripParams(strings.ToLower(strings.TrimSpace(mt)))

	switch {
	case mt == "":
		return ""
	case mt == "application/pdf":
		return mt
	case mt == "image/png", mt == "image/jpeg", mt == "image/webp", mt == "image/gif":
		return mt
	case isTextMIME(mt):
		return "text/plain"
	default:
		return ""
	}
}

// normalizeMIME fixes messy/alias MIMEs and falls back to file extension.
func normalizeMIME(name, m string) string {
	fromExt := func() string {
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			return ""
		}
		if mt, ok := mimeExtMap[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			return stripParams(mt)
		}
		return ""
	}

	raw := strings.ToLower(strings.TrimSpace(m))
	if raw == "" {
		return fromExt()
	}
	raw = stripParams(raw)

	if normalized, ok := mimeAliasMap[raw]; ok {
		return normalized
	}

	// Malformed MIME -> use extension
	if !strings.Contains(raw, "/") || strings.HasSuffix(raw, "/") {
		if via := fromExt(); via != "" {
			return via
		}
	}
	return raw
}

func stripParams(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func isTextMIME(m string) bool {
	m = strings.ToLower(strings.TrimSpace(m))
	if m == "" {
		return false
	}
	if strings.HasPrefix(m, "text/") {
		return true
	}
	switch m {
	case "application/json",
		"application/xml",
		"application/x-yaml",
		"application/yaml":
		return true
	default:
		return false
	}
}

// Only text files are inlined; everything else is referenced by name.
func combinePromptWithFiles(base string, files []File) string {
	if len(files) == 0 {
		return base
	}

	estimatedSize := len(base) + 200
	for _, f := range files {
		estimatedSize += len(f.Name) + 100
		if isTextMIME(normalizeMIME(f.Name, f.MIME)) {
			estimatedSize += len(f.Data)
		}
	}

	var b strings.Builder
	b.Grow(estimatedSize)

	b.WriteString(base)
	b.WriteString("\n\n---\nATTACHMENTS CONTEXT (inline for text files) BEGIN\n")

	for i, f := range files {
		title := fileTitle(f, i)
		mt := normalizeMIME(f.Name, f.MIME)

		if isTextMIME(mt) && len(f.Data) > 0 {
			b.WriteString("\n<<<FILE ")
			b.WriteString(title)
			if mt != "" {
				b.WriteString(" [")
				b.WriteString(mt)
				b.WriteString("]")
			}
			b.WriteString(">>>:\n")
			b.Write(f.Data)
			b.WriteString("\n<<<END FILE ")
			b.WriteString(title)
			b.WriteString(">>>\n")
		} else {
			b.WriteString("\n[Non-text attachment] ")
			b.WriteString(title)
			if mt != "" {
				b.WriteString(" (")
				b.WriteString(mt)
				b.WriteString(")")
			}
		}
	}

	b.WriteString("\nATTACHMENTS CONTEXT END\n---\n")
	return b.String()
}

func fileTitle(f File, i int) string {
	if title := strings.TrimSpace(f.Name); title != "" {
		return title
	}
	return fmt.Sprintf("file_%d", i+1)
}
