// Package models provides data model definitions for the moniesync offline core.
package models

// Field names marking a record as an unsynced, locally synthesized
// placeholder. The UI renders records carrying these flags with an
// "unsynced" affordance.
const (
	FieldOffline = "_offline"
	FieldTempID  = "_tempId"
)

// Record is a generic JSON object payload. Placeholders and cached
// server records share this shape; typed create-schemas exist only on
// the synthesis path.
type Record map[string]any

// TempID returns the placeholder temp id, or "" for server records.
func (r Record) TempID() string {
	id, _ := r[FieldTempID].(string)
	return id
}

// IsOffline reports whether the record is an unsynced placeholder.
func (r Record) IsOffline() bool {
	off, _ := r[FieldOffline].(bool)
	return off
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
