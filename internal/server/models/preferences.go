package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Preferences is an opaque per-user JSON object stored as JSONB.
type Preferences map[string]any

// Value implements driver.Valuer for JSONB.
func (p Preferences) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB.
func (p *Preferences) Scan(value any) error {
	if value == nil {
		*p = Preferences{}
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported preferences type %T", value)
	}

	out := Preferences{}
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*p = out
	return nil
}

// Clone returns a shallow copy that is never nil.
func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PreferencesPatch is a shallow merge request: present keys overwrite,
// present-null keys are removed, absent keys are retained.
type PreferencesPatch struct {
	Fields map[string]Optional[json.RawMessage]
}

func (p *PreferencesPatch) UnmarshalJSON(b []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Fields = make(map[string]Optional[json.RawMessage], len(raw))
	for k, v := range raw {
		if string(v) == "null" {
			p.Fields[k] = Null[json.RawMessage]()
			continue
		}
		p.Fields[k] = Some(v)
	}
	return nil
}

// Split returns the keys to set (decoded) and the keys to remove.
func (p PreferencesPatch) Split() (Preferences, []string, error) {
	set := Preferences{}
	unset := []string{}
	for k, v := range p.Fields {
		if !v.HasValue() {
			unset = append(unset, k)
			continue
		}
		var decoded any
		if err := json.Unmarshal(v.Value, &decoded); err != nil {
			return nil, nil, fmt.Errorf("preference %q: %w", k, err)
		}
		set[k] = decoded
	}
	return set, unset, nil
}

// Merge returns a copy of p with set applied and unset keys removed.
func (p Preferences) Merge(set Preferences, unset []string) Preferences {
	out := p.Clone()
	for k, v := range set {
		out[k] = v
	}
	for _, k := range unset {
		delete(out, k)
	}
	return out
}
