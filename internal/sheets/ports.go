package sheets

import (
	"context"

	"carenote/internal/core"
)

// Row is a single ledger line in the export spreadsheet. A day record
// maps to one worked day; a case record maps to its whole stay.
type Row struct {
	ID        int64
	Kind      string
	Date      string
	Workplace string
	Hours     string
	Days      int
	PayWon    int64
	TotalWon  int64
}

// RowFromRecord flattens a record into a ledger row.
func RowFromRecord(r core.Record) Row {
	row := Row{
		ID:        r.ID,
		Kind:      string(r.Kind),
		Workplace: string(r.Workplace()),
		Hours:     string(r.WorkHours),
		PayWon:    r.PayWon,
	}
	if r.Kind == core.KindCase {
		row.Date = r.StartDate.ISO()
		row.Days = len(r.DaysWorked)
	} else {
		row.Date = r.Date.ISO()
		row.Days = 1
	}
	row.TotalWon = int64(row.Days) * r.PayWon
	return row
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, row Row) (rowRef string, err error)
	}

	// LedgerReader reports which record IDs are already present in the
	// ledger, so the export worker can skip them.
	LedgerReader interface {
		ListIDs(ctx context.Context) ([]int64, error)
	}
)
