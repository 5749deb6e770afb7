// Package sheets defines ports for mirroring ledger entries to a spreadsheet.
package sheets

import (
	"context"

	"envelope/internal/core"
)

// EntryMirror appends ledger entries to an external sheet. The mirror is an
// eventually consistent copy; it never feeds back into the ledger.
type EntryMirror interface {
	AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
}
