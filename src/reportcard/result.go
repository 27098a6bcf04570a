package reportcard

import (
	"encoding/json"
	"fmt"
	"io"
)

// Result is the decoded verdict, or an error record with an "error" key.
// Its shape is whatever the model produced; see Report for a typed view.
type Result map[string]any

// ErrorMessage returns the error record's message, if this is one.
func (r Result) ErrorMessage() (string, bool) {
	msg, ok := r[errorKey].(string)
	return msg, ok
}

// RawResponse returns the undecodable reply kept on parse failures.
func (r Result) RawResponse() (string, bool) {
	raw, ok := r[rawKey].(string)
	return raw, ok
}

// WriteJSON pretty-prints the result with a two-space indent.
func (r Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Report converts the result into the requested verdict shape. It fails when
// the model omitted the summary or mistyped a field.
func (r Result) Report() (*Report, error) {
	if msg, ok := r.ErrorMessage(); ok {
		return nil, fmt.Errorf("error record: %s", msg)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var rep Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if rep.Summary == nil {
		return nil, fmt.Errorf("decode report: missing validation_summary")
	}
	return &rep, nil
}

// Report is the verdict shape requested from the model.
type Report struct {
	File1   string   `json:"file_1"`
	File2   string   `json:"file_2"`
	Summary *Summary `json:"validation_summary"`
}

// Summary compares the two files.
type Summary struct {
	StudentIdentityMatch bool           `json:"student_identity_match"`
	FilesAreDuplicates   bool           `json:"files_are_duplicates"`
	File1                FileValidation `json:"file_1_validation"`
	File2                FileValidation `json:"file_2_validation"`
}

// FileValidation holds the per-document checks. Errors is nil when every check passed.
type FileValidation struct {
	IsReportCard      bool    `json:"is_report_card"`
	PaginationCorrect bool    `json:"pagination_correct"`
	ContentConsistent bool    `json:"content_consistent"`
	Errors            *string `json:"errors"`
}

// Valid reports whether all checks on the document passed.
func (v FileValidation) Valid() bool {
	return v.IsReportCard && v.PaginationCorrect && v.ContentConsistent && v.Errors == nil
}
