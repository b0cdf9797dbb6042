package log

import (
	"context"
	"log/slog"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldRecordID   = "record_id"
	FieldRecordKind = "record_kind"
	FieldWorkplace  = "workplace"
	FieldPayWon     = "pay_won"
)

// Standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentRecord   = "record"
	ComponentStorage  = "storage"
	ComponentWorker   = "worker"
	ComponentIdentity = "identity"
	ComponentVerify   = "verify"
)

// Standard operation names
const (
	OpCreate  = "create"
	OpExport  = "export"
	OpMigrate = "migrate"
)

// LogRecordSaved logs a successful record mutation with its key fields.
func LogRecordSaved(ctx context.Context, id int64, kind, workplace string, payWon int64) {
	slog.InfoContext(ctx, "Record saved",
		FieldComponent, ComponentRecord,
		FieldOperation, OpCreate,
		FieldRecordID, id,
		FieldRecordKind, kind,
		FieldWorkplace, workplace,
		FieldPayWon, payWon)
}

// LogError logs an error with component and operation context.
func LogError(ctx context.Context, msg string, err error, component, operation string) {
	slog.ErrorContext(ctx, msg,
		FieldComponent, component,
		FieldOperation, operation,
		FieldError, err)
}
