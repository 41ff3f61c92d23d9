package core

import (
	"github.com/huandu/go-clone"
	"github.com/mitchellh/copystructure"
)

// Copy returns a deep copy of a normalized JSON value.
func Copy(v any) (any, error) {
	return copystructure.Copy(v)
}

// Clone returns a deep copy of a JSON value that is about to be stored into a document.
func Clone(v any) any {
	if v == nil {
		return nil
	}
	return clone.Clone(v)
}

// CloneObject returns a deep copy of a JSON object.
func CloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	return clone.Clone(obj).(map[string]any)
}
