package reportcard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Protocol-Lattice/report-card-validator/src/session"
)

// ErrFileAccess marks a missing or unreadable input file.
var ErrFileAccess = errors.New("file access")

// BuildRequest reads both files fully and assembles the outgoing message: one
// instruction text part followed by the two files as PDF attachments. No size
// or type checks are made on the contents.
func BuildRequest(file1, file2 string) (session.Content, error) {
	data1, err := readAttachment(file1)
	if err != nil {
		return session.Content{}, err
	}
	data2, err := readAttachment(file2)
	if err != nil {
		return session.Content{}, err
	}

	return session.Content{
		Role: session.RoleUser,
		Parts: []session.Part{
			{Text: userPrompt(file1, file2)},
			{Name: filepath.Base(file1), MIMEType: PDFMIMEType, Data: data1},
			{Name: filepath.Base(file2), MIMEType: PDFMIMEType, Data: data2},
		},
	}, nil
}

func readAttachment(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileAccess, err)
	}
	return data, nil
}
