package services

import "encoding/json"

// Nullable tells an absent JSON field apart from an explicit null.
// Set is true whenever the field appeared in the input.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Some returns a set Nullable holding v.
func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

// Null returns a set Nullable holding nothing.
func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }
