// Package scanner orchestrates archive discovery, member extraction and
// symbol-table matching for auditing static libraries.
package scanner

import (
	"context"

	"github.com/garagon/symscan/internal/toolchain"
)

// Archiver expands every member of an archive into a directory.
type Archiver interface {
	Extract(ctx context.Context, archive, dir string) error
}

// SymbolLister prints the symbol table of one object file. A non-nil error
// means the listing must not be trusted; Result.Stderr carries diagnostics
// even on success.
type SymbolLister interface {
	List(ctx context.Context, object string) (*toolchain.Result, error)
}
