package scanner

// This package re-exports types from internal/types for convenience.
// The canonical types live in internal/types to avoid import cycles.

import "github.com/garagon/symscan/internal/types"

type (
	Report      = types.Report
	Warning     = types.Warning
	WarningKind = types.WarningKind
	ScanResult  = types.ScanResult
)

const (
	WarnExtractFailed   = types.WarnExtractFailed
	WarnListFailed      = types.WarnListFailed
	WarnListDiagnostics = types.WarnListDiagnostics
	WarnWalkError       = types.WarnWalkError
)
