// Package types defines shared data structures (Report, Warning, ScanResult)
// used across the scanner, output and root packages to prevent import cycles.
package types

import (
	"fmt"
	"time"
)

// WarningKind classifies a recoverable problem met during a scan.
type WarningKind int

const (
	WarnExtractFailed WarningKind = iota
	WarnListFailed
	WarnListDiagnostics
	WarnWalkError
)

func (k WarningKind) String() string {
	switch k {
	case WarnExtractFailed:
		return "extract-failed"
	case WarnListFailed:
		return "list-failed"
	case WarnListDiagnostics:
		return "list-diagnostics"
	case WarnWalkError:
		return "walk-error"
	default:
		return "unknown"
	}
}

// Report is emitted when a member's symbol listing contains a target.
type Report struct {
	Archive string // archive path as discovered under the scan root
	Member  string // slash-separated path of the member inside the workspace
	Target  string // first configured target found in Listing
	Listing string // full stdout of the symbol lister
}

// Warning records a per-archive or per-member failure that did not stop the scan.
type Warning struct {
	Kind    WarningKind
	Archive string
	Member  string
	Message string
}

func (w Warning) String() string {
	loc := w.Archive
	if w.Member != "" {
		loc += ":" + w.Member
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, loc, w.Message)
}

// ScanResult holds the complete results of a scan.
type ScanResult struct {
	Root            string
	Targets         []string
	Reports         []Report
	Warnings        []Warning
	ArchivesScanned int
	MembersScanned  int
	Matches         int // reports emitted, also when Reports is not collected
	Duration        time.Duration
}

// WarningsOf returns the warnings of the given kind, in scan order.
func (r *ScanResult) WarningsOf(kind WarningKind) []Warning {
	var out []Warning
	for _, w := range r.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}
