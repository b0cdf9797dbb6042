package worker

import (
	"context"
	"fmt"
	"log/slog"

	"carenote/internal/amqp"
	"carenote/internal/core"
	"carenote/internal/sheets"
	"carenote/internal/storage"
)

// ExportWorker mirrors persisted records into the Google Sheets ledger.
// Day records are exported as soon as they are saved; case records are
// exported once, when the case is closed, so the row carries the final
// day count and total.
type ExportWorker struct {
	store  *storage.RecordStore
	ledger sheets.LedgerWriter
	reader sheets.LedgerReader
}

func NewExportWorker(store *storage.RecordStore, ledger sheets.LedgerWriter, reader sheets.LedgerReader) *ExportWorker {
	return &ExportWorker{
		store:  store,
		ledger: ledger,
		reader: reader,
	}
}

// HandleRecordSaved processes a single saved-record message from AMQP
func (w *ExportWorker) HandleRecordSaved(ctx context.Context, msg *amqp.RecordSavedMessage) error {
	slog.InfoContext(ctx, "Processing saved-record message",
		"id", msg.ID,
		"kind", msg.Kind)

	records := w.store.Load(ctx)
	var record *core.Record
	for i := range records {
		if records[i].ID == msg.ID {
			record = &records[i]
			break
		}
	}
	if record == nil {
		// The record was deleted between the save and this delivery.
		slog.WarnContext(ctx, "Record not found in storage, skipping export", "id", msg.ID)
		return nil
	}

	if !exportable(*record) {
		slog.InfoContext(ctx, "Case still active, deferring export until close", "id", msg.ID)
		return nil
	}

	exported, err := w.exportedIDs(ctx)
	if err != nil {
		return err
	}
	if exported[record.ID] {
		slog.InfoContext(ctx, "Record already exported, skipping", "id", msg.ID)
		return nil
	}

	return w.exportRecord(ctx, *record)
}

// ExportPending appends every exportable record that is missing from the
// ledger. This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ExportPending(ctx context.Context) error {
	records := w.store.Load(ctx)
	if len(records) == 0 {
		return nil
	}

	exported, err := w.exportedIDs(ctx)
	if err != nil {
		return err
	}

	pending := 0
	errorCount := 0
	for _, r := range records {
		if !exportable(r) || exported[r.ID] {
			continue
		}
		pending++
		if err := w.exportRecord(ctx, r); err != nil {
			slog.ErrorContext(ctx, "Failed to export record", "id", r.ID, "error", err)
			errorCount++
		}
	}

	if pending > 0 {
		slog.InfoContext(ctx, "Pending export completed",
			"pending", pending,
			"errors", errorCount)
	}
	if errorCount > 0 {
		return fmt.Errorf("export pending: %d of %d records failed", errorCount, pending)
	}
	return nil
}

// StartupExportCheck reconciles the ledger with storage at worker startup.
// This is useful to recover from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup export check")
	return w.ExportPending(ctx)
}

func (w *ExportWorker) exportedIDs(ctx context.Context) (map[int64]bool, error) {
	ids, err := w.reader.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exported ids: %w", err)
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (w *ExportWorker) exportRecord(ctx context.Context, r core.Record) error {
	row := sheets.RowFromRecord(r)
	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported record",
		"id", r.ID,
		"kind", r.Kind,
		"sheets_ref", ref,
		"total_won", row.TotalWon)

	return nil
}

// exportable reports whether a record is ready for the ledger. Active
// cases are excluded until they close.
func exportable(r core.Record) bool {
	return r.Kind != core.KindCase || r.EndDate != nil
}
