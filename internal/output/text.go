// Package output writes scan reports as plain text and drives the optional
// progress spinner.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/symscan/internal/types"
)

// TextFormatter prints each report as a "Found!" block followed by an
// optional one-line summary.
type TextFormatter struct {
	NoSummary bool
}

// Format writes every report in result, then the summary. It suits callers
// that collect a whole ScanResult before printing.
func (f *TextFormatter) Format(w io.Writer, result *types.ScanResult) error {
	for _, r := range result.Reports {
		if err := f.WriteReport(w, r); err != nil {
			return err
		}
	}
	return f.WriteSummary(w, result)
}

// WriteReport writes a single report block. It is used for streaming output
// while a scan is still running.
func (f *TextFormatter) WriteReport(w io.Writer, r types.Report) error {
	listing := r.Listing
	if listing != "" && !strings.HasSuffix(listing, "\n") {
		listing += "\n"
	}
	_, err := fmt.Fprintf(w, "Found!\n%s\n%s\n%s", r.Archive, r.Member, listing)
	return err
}

// WriteSummary writes the closing counts line unless NoSummary is set.
func (f *TextFormatter) WriteSummary(w io.Writer, result *types.ScanResult) error {
	if f.NoSummary {
		return nil
	}
	parts := []string{
		fmt.Sprintf("%d archives scanned", result.ArchivesScanned),
		fmt.Sprintf("%d members", result.MembersScanned),
		fmt.Sprintf("%d matches", result.Matches),
		fmt.Sprintf("%d warnings", len(result.Warnings)),
	}
	if result.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", result.Duration.Seconds()))
	}
	_, err := fmt.Fprintf(w, "%s\n", strings.Join(parts, " · "))
	return err
}
