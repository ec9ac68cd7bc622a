package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// OptionalID distinguishes an absent JSON key from an explicit null.
// Set is true whenever the key was present; Value is nil for null or "".
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

// SomeID returns a present, non-null OptionalID.
func SomeID(id uuid.UUID) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// NullID returns a present, null OptionalID.
func NullID() OptionalID {
	return OptionalID{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("id must be a string or null: %w", err)
	}
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	o.Value = &id
	return nil
}

// OptionalString distinguishes an absent JSON key from an explicit value.
type OptionalString struct {
	Set   bool
	Value string
}

// SomeString returns a present OptionalString.
func SomeString(s string) OptionalString {
	return OptionalString{Set: true, Value: s}
}

// UnmarshalJSON implements json.Unmarshaler. null is treated as "".
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Value = ""
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}
