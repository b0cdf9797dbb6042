// Package identity manages the local device identity: a one-time UUID,
// its short display form, and the small consent/verification metadata
// record. Everything lives in the same blob store as the work records,
// under dedicated keys.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"carenote/internal/core"
	"carenote/internal/storage"
)

const (
	userIDKey   = "carenote_user_id"
	userMetaKey = "carenote_user_meta"
)

// Meta is the consent/verification record attached to the user id.
type Meta struct {
	UserID              string     `json:"userId"`
	PhoneVerified       bool       `json:"phoneVerified"`
	VerifiedPhoneMasked string     `json:"verifiedPhoneMasked,omitempty"`
	VerifiedAt          *core.Date `json:"verifiedAt,omitempty"`
}

// MetaPatch updates individual Meta fields; nil fields are left alone.
type MetaPatch struct {
	PhoneVerified       *bool
	VerifiedPhoneMasked *string
	VerifiedAt          *core.Date
}

type Manager struct {
	blobs storage.BlobStore
}

func NewManager(blobs storage.BlobStore) *Manager {
	return &Manager{blobs: blobs}
}

// GetOrCreateUserID returns the device's UUID, generating and
// persisting one on first use.
func (m *Manager) GetOrCreateUserID(ctx context.Context) (string, error) {
	raw, found, err := m.blobs.Get(ctx, userIDKey)
	if err != nil {
		return "", fmt.Errorf("load user id: %w", err)
	}
	if found {
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := m.blobs.Put(ctx, userIDKey, []byte(id)); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}
	slog.InfoContext(ctx, "Generated new user id", "display_id", displayForm(id))
	return id, nil
}

// DisplayID returns the short anonymous form shown on certificates:
// "DN-" plus the first six uppercase hex characters of the UUID with
// dashes stripped.
func (m *Manager) DisplayID(ctx context.Context) (string, error) {
	id, err := m.GetOrCreateUserID(ctx)
	if err != nil {
		return "", err
	}
	return displayForm(id), nil
}

func displayForm(userID string) string {
	compact := strings.ReplaceAll(userID, "-", "")
	if len(compact) > 6 {
		compact = compact[:6]
	}
	return "DN-" + strings.ToUpper(compact)
}

// GetMeta loads the metadata record, creating a default one bound to
// the user id on first access. Store trouble degrades to an in-memory
// default rather than failing the caller.
func (m *Manager) GetMeta(ctx context.Context) Meta {
	userID, err := m.GetOrCreateUserID(ctx)
	if err != nil {
		slog.WarnContext(ctx, "User id unavailable", "error", err)
	}
	fallback := Meta{UserID: userID}

	raw, found, err := m.blobs.Get(ctx, userMetaKey)
	if err != nil {
		slog.WarnContext(ctx, "User meta load failed", "error", err)
		return fallback
	}
	if !found {
		if b, err := json.Marshal(fallback); err == nil {
			if err := m.blobs.Put(ctx, userMetaKey, b); err != nil {
				slog.WarnContext(ctx, "User meta init failed", "error", err)
			}
		}
		return fallback
	}

	var meta Meta
	if err := json.Unmarshal(raw, &meta); err != nil {
		slog.WarnContext(ctx, "User meta corrupt, using defaults", "error", err)
		return fallback
	}
	// The id is authoritative, whatever the stored record says.
	meta.UserID = userID
	return meta
}

// SaveMeta merges the patch into the stored record and returns the
// result.
func (m *Manager) SaveMeta(ctx context.Context, patch MetaPatch) (Meta, error) {
	meta := m.GetMeta(ctx)
	if patch.PhoneVerified != nil {
		meta.PhoneVerified = *patch.PhoneVerified
	}
	if patch.VerifiedPhoneMasked != nil {
		meta.VerifiedPhoneMasked = *patch.VerifiedPhoneMasked
	}
	if patch.VerifiedAt != nil {
		meta.VerifiedAt = patch.VerifiedAt
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return meta, fmt.Errorf("encode user meta: %w", err)
	}
	if err := m.blobs.Put(ctx, userMetaKey, b); err != nil {
		return meta, fmt.Errorf("persist user meta: %w", err)
	}
	return meta, nil
}
