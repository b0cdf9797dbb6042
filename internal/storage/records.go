package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"carenote/internal/core"
)

// RecordsKey is the fixed blob key holding the full record collection.
const RecordsKey = "carenote-careworker-logs"

// RecordStore loads and saves the record collection as one JSON blob.
// Load never fails the caller: missing or corrupt data degrades to an
// empty collection with a warning, so the model and stats layers always
// have something to work on.
type RecordStore struct {
	blobs BlobStore
	key   string
}

func NewRecordStore(blobs BlobStore) *RecordStore {
	return &RecordStore{blobs: blobs, key: RecordsKey}
}

// Load reads the collection, migrating every record from whatever
// legacy shape it was written in. Records that cannot be decoded even
// after migration are dropped with a warning rather than failing the
// whole collection.
func (s *RecordStore) Load(ctx context.Context) []core.Record {
	payload, found, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		slog.WarnContext(ctx, "Record load failed, starting empty", "key", s.key, "error", err)
		return []core.Record{}
	}
	if !found {
		return []core.Record{}
	}

	var raw []map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		slog.WarnContext(ctx, "Record payload corrupt, starting empty", "key", s.key, "error", err)
		return []core.Record{}
	}

	records := make([]core.Record, 0, len(raw))
	for i, m := range raw {
		migrated := MigrateRecord(m)
		b, err := json.Marshal(migrated)
		if err != nil {
			slog.WarnContext(ctx, "Dropping unreadable record", "index", i, "error", err)
			continue
		}
		var r core.Record
		if err := json.Unmarshal(b, &r); err != nil {
			slog.WarnContext(ctx, "Dropping unreadable record", "index", i, "error", err)
			continue
		}
		records = append(records, r)
	}
	return records
}

// Save writes the collection back as canonical JSON. In-memory records
// are already migrated, so legacy pay fields can never round-trip. The
// boolean mirrors the store contract: callers keep their in-memory
// state when it is false.
func (s *RecordStore) Save(ctx context.Context, records []core.Record) bool {
	if records == nil {
		records = []core.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		slog.WarnContext(ctx, "Record encode failed", "key", s.key, "error", err)
		return false
	}
	if err := s.blobs.Put(ctx, s.key, payload); err != nil {
		slog.WarnContext(ctx, "Record save failed", "key", s.key, "error", err)
		return false
	}
	return true
}

// Legacy pay-field migration. The collection has been serialized under
// several historical shapes: integer won ("payWon"), won in
// ten-thousands as number or string ("payManwon"), and free-form
// strings under "pay" or "dailyWage". The rules below run in precedence
// order and stop at the first field present; reapplying them to an
// already-migrated record is a no-op.

type payRule struct {
	field   string
	convert func(v any) (int64, bool)
}

var payRules = []payRule{
	{"payWon", convertNumber(1)},
	{"payManwon", convertNumber(10000)},
	{"payManwon", convertDecimalString(10000)},
	{"pay", convertDigitString},
	{"pay", convertNumber(1)},
	{"dailyWage", convertNumber(1)},
	{"dailyWage", convertDigitString},
}

// legacyPayFields are stripped after migration so stale duplicates
// never round-trip through the store again.
var legacyPayFields = []string{"payManwon", "pay", "dailyWage"}

// MigrateRecord normalizes one raw record to the current shape. It is
// idempotent and exported for the storage tests.
func MigrateRecord(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	pay := int64(0)
	for _, rule := range payRules {
		v, present := out[rule.field]
		if !present {
			continue
		}
		if won, ok := rule.convert(v); ok {
			pay = won
			break
		}
	}
	out["payWon"] = pay
	for _, f := range legacyPayFields {
		delete(out, f)
	}

	kind, _ := out["kind"].(string)
	switch kind {
	case string(core.KindCase):
		if _, ok := out["daysWorked"].([]any); !ok {
			out["daysWorked"] = []any{}
		}
		if str, _ := out["workPlaceType"].(string); str == "" {
			if legacy, _ := out["workType"].(string); legacy != "" {
				out["workPlaceType"] = legacy
			} else {
				out["workPlaceType"] = string(core.Hospital)
			}
		}
	case string(core.KindDay):
		// Already current.
	default:
		out["kind"] = string(core.KindDay)
	}
	return out
}

// convertNumber floors a JSON number and clamps it non-negative,
// scaling first (10000 turns man-won into won). int64 is accepted as
// well so re-migrating an in-memory record stays a no-op.
func convertNumber(scale int64) func(any) (int64, bool) {
	return func(v any) (int64, bool) {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int64:
			f = float64(n)
		case int:
			f = float64(n)
		default:
			return 0, false
		}
		if math.IsNaN(f) {
			return 0, false
		}
		won := int64(math.Floor(f * float64(scale)))
		if won < 0 {
			won = 0
		}
		return won, true
	}
}

// convertDecimalString parses a decimal string with grouping commas
// stripped, then scales and floors like convertNumber. An unparseable
// string still matches the rule and yields 0.
func convertDecimalString(scale int64) func(any) (int64, bool) {
	return func(v any) (int64, bool) {
		s, ok := v.(string)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || math.IsNaN(f) {
			return 0, true
		}
		won := int64(math.Floor(f * float64(scale)))
		if won < 0 {
			won = 0
		}
		return won, true
	}
}

// convertDigitString keeps only the digits of a string, so "110,000원"
// and "110000" both read as 110000. A digit-free string still matches
// and yields 0.
func convertDigitString(v any) (int64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, true
	}
	won, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, true
	}
	return won, true
}
