// Package syncmeta holds the synchronization bookkeeping attached to every
// syncable entity: creation/update instants, an optional tombstone marker,
// and the pending-sync flag set whenever the local copy has unpushed changes.
package syncmeta

import "time"

// Meta is embedded in every syncable entity. UpdatedAt is the sole
// conflict-resolution key and must be monotonically non-decreasing.
type Meta struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	PendingSync bool       `json:"pending_sync"`
	// SyncedAt records the last successful push. nil means the row has
	// never reached the remote store, which permits hard deletion.
	SyncedAt *time.Time `json:"synced_at,omitempty"`
}

// New returns fresh metadata for a just-created entity.
func New(now time.Time) Meta {
	return Meta{
		CreatedAt:   now,
		UpdatedAt:   now,
		PendingSync: true,
	}
}

// Touch marks a local mutation. UpdatedAt never moves backwards even if the
// wall clock does.
func (m *Meta) Touch(now time.Time) {
	if now.After(m.UpdatedAt) {
		m.UpdatedAt = now
	}
	m.PendingSync = true
}

// Tombstone soft-deletes the entity.
func (m *Meta) Tombstone(now time.Time) {
	t := now
	m.DeletedAt = &t
	m.Touch(now)
}

// Deleted reports whether the entity carries a tombstone.
func (m *Meta) Deleted() bool {
	return m.DeletedAt != nil
}

// EverSynced reports whether the entity has ever been pushed remotely.
func (m *Meta) EverSynced() bool {
	return m.SyncedAt != nil
}

// Newer reports whether m wins a last-write-wins comparison against other.
// Ties lose, so the caller's local copy is preserved on equal timestamps.
func (m *Meta) Newer(other *Meta) bool {
	return m.UpdatedAt.After(other.UpdatedAt)
}
