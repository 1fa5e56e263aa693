package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultIDField is the identifier field used when an entity does not name one.
const DefaultIDField = "id"

// ID identifies a record within one entity type. Numeric identifiers keep
// their literal text so 5 and "5" name the same record.
type ID string

func (id ID) String() string { return string(id) }

// Record is one entity instance as returned by the REST collaborator.
type Record map[string]any

// Get returns the value of a dotted field path, e.g. "company.name".
func (r Record) Get(path string) any {
	if r == nil {
		return nil
	}
	if v, ok := r[path]; ok {
		return v
	}
	parts := strings.Split(path, ".")
	var cur any = map[string]any(r)
	for _, p := range parts {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[p]
		case Record:
			cur = m[p]
		default:
			return nil
		}
	}
	return cur
}

// Identifier returns the record's id under field. ok is false when the
// field is missing or empty.
func (r Record) Identifier(field string) (ID, bool) {
	id := ToID(r.Get(field))
	return id, id != ""
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ToID normalizes an identifier value decoded from JSON.
func ToID(v any) ID {
	switch t := v.(type) {
	case nil:
		return ""
	case ID:
		return t
	case string:
		return ID(t)
	case json.Number:
		return ID(t.String())
	case float64:
		return ID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return ID(strconv.Itoa(t))
	case int64:
		return ID(strconv.FormatInt(t, 10))
	default:
		return ID(fmt.Sprint(t))
	}
}

// IdentifyBy returns an identity function for records keyed by field.
func IdentifyBy(field string) func(Record) ID {
	if field == "" {
		field = DefaultIDField
	}
	return func(r Record) ID {
		id, _ := r.Identifier(field)
		return id
	}
}

type SyncStatus string

const (
	StatusUninitialized SyncStatus = "uninitialized"
	StatusOK            SyncStatus = "ok"
	StatusSynchronizing SyncStatus = "synchronizing"
	StatusError         SyncStatus = "error"
	StatusDisposed      SyncStatus = "disposed"
)
