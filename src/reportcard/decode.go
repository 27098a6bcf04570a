package reportcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	noResponseMessage = "No response received from agent"

	errorKey = "error"
	rawKey   = "raw_response"
)

var errNotObject = errors.New("top-level value is not a JSON object")

// StripFences removes one leading ```json (or bare ```) marker and one trailing
// ``` marker, trimming surrounding whitespace. Text without fences comes back
// unchanged apart from that trimming.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```json"); ok {
		s = rest
	} else if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = rest
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Decode turns the agent's reply into a Result. It never fails: an empty
// reply becomes the no-response record and undecodable text becomes an error
// record carrying the raw reply. Only JSON objects are accepted.
func Decode(text string) Result {
	if strings.TrimSpace(text) == "" {
		return noResponse()
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(StripFences(text)), &out); err != nil {
		return parseFailure(err, text)
	}
	if out == nil {
		return parseFailure(errNotObject, text)
	}
	return Result(out)
}

func noResponse() Result {
	return Result{errorKey: noResponseMessage}
}

func parseFailure(err error, raw string) Result {
	return Result{
		errorKey: fmt.Sprintf("Failed to parse JSON response: %v", err),
		rawKey:   raw,
	}
}
