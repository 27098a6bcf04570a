package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Protocol-Lattice/report-card-validator/src/reportcard"
)

// scenario is one pair of files to compare.
type scenario struct {
	File1 string
	File2 string
}

var defaultScenarios = []scenario{
	{File1: "report_cards/Ananya Sharma - 1.pdf", File2: "report_cards/Ananya Sharma - 2.pdf"},
	{File1: "report_cards/Ananya Sharma - 1.pdf", File2: "report_cards/Ananya Sharma - 3.pdf"},
	{File1: "report_cards/Ananya Sharma - 1.pdf", File2: "report_cards/Rohan Verma.pdf"},
	{File1: "report_cards/Ananya Sharma - 1.pdf", File2: "report_cards/Ananya Sharma - 1.pdf"},
}

var divider = strings.Repeat("-", 50)

type validator interface {
	Validate(ctx context.Context, file1, file2 string) (reportcard.Result, error)
}

// resolveScenarios makes every path absolute against the working directory.
func resolveScenarios(in []scenario) ([]scenario, error) {
	out := make([]scenario, 0, len(in))
	for _, sc := range in {
		a, err := filepath.Abs(sc.File1)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", sc.File1, err)
		}
		b, err := filepath.Abs(sc.File2)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", sc.File2, err)
		}
		out = append(out, scenario{File1: a, File2: b})
	}
	return out, nil
}

// runScenarios validates each pair in order. Error records are printed like
// any other verdict; a returned error stops the run.
func runScenarios(ctx context.Context, w io.Writer, v validator, scenarios []scenario) error {
	for _, sc := range scenarios {
		fmt.Fprintf(w, "--- Running test case for %s and %s ---\n", filepath.Base(sc.File1), filepath.Base(sc.File2))

		result, err := v.Validate(ctx, sc.File1, sc.File2)
		if err != nil {
			return err
		}
		if err := result.WriteJSON(w); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		fmt.Fprintln(w, divider)
	}
	return nil
}
