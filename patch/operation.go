package patch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/core"
)

// OperationType defines the allowed SCIM patch operation types.
type OperationType string

const (
	OperationTypeAdd     OperationType = "add"
	OperationTypeRemove  OperationType = "remove"
	OperationTypeReplace OperationType = "replace"
)

// ParseOperationType parses an operation name case-insensitively, as some clients send "Add" or "Replace".
func ParseOperationType(s string) (OperationType, error) {
	switch t := OperationType(strings.ToLower(strings.TrimSpace(s))); t {
	case OperationTypeAdd, OperationTypeRemove, OperationTypeReplace:
		return t, nil
	}
	return "", scim.NewError(scim.InvalidSyntax, "unknown patch operation %q", s)
}

// Operation is a single step of a SCIM PATCH request. Operations are immutable: the value is copied when the
// operation is built and every accessor returns copies.
type Operation struct {
	op    OperationType
	path  scim.Path
	value any
}

// NewOperation validates and builds an operation.
//
// Add and replace need a non-null value that is not an empty array; without a path the value must be an object
// whose members are applied to the resource. Add paths cannot carry value filters. Remove needs a path and
// carries no value.
func NewOperation(op OperationType, path scim.Path, value any) (Operation, error) {
	switch op {
	case OperationTypeRemove:
		if value != nil {
			return Operation{}, scim.NewError(scim.InvalidValue, "remove operations carry no value")
		}
		if path.IsRoot() && path.Namespace() == "" {
			return Operation{}, scim.NewError(scim.NoTarget, "remove operations need a path")
		}
		return Operation{op: op, path: path}, nil
	case OperationTypeAdd, OperationTypeReplace:
	default:
		return Operation{}, scim.NewError(scim.InvalidSyntax, "unknown patch operation %q", op)
	}

	if value == nil {
		return Operation{}, scim.NewError(scim.InvalidValue, "%s operations need a value", op)
	}
	if err := core.Validate(value); err != nil {
		return Operation{}, scim.NewError(scim.InvalidValue, "%s value is not JSON: %v", op, err)
	}
	normalized, err := core.Normalize(value)
	if err != nil {
		return Operation{}, scim.NewError(scim.InvalidValue, "%s value is not JSON: %v", op, err)
	}
	if core.IsEmpty(normalized) {
		return Operation{}, scim.NewError(scim.InvalidValue, "%s operations need a non-empty value", op)
	}
	if path.IsRoot() && core.KindOf(normalized) != core.KindObject {
		return Operation{}, scim.NewError(scim.InvalidValue, "%s without a path needs an object value, got %s",
			op, core.KindOf(normalized))
	}
	if op == OperationTypeAdd && path.HasFilters() {
		return Operation{}, scim.NewError(scim.InvalidPath, "add operations cannot target a value filter: %q", path)
	}

	return Operation{op: op, path: path, value: normalized}, nil
}

func newOperation(op OperationType, path string, value any) (Operation, error) {
	p, err := scim.ParsePath(path)
	if err != nil {
		return Operation{}, err
	}
	return NewOperation(op, p, value)
}

// Add returns an operation adding value at path.
func Add(path string, value any) (Operation, error) {
	return newOperation(OperationTypeAdd, path, value)
}

// Replace returns an operation replacing the value at path.
func Replace(path string, value any) (Operation, error) {
	return newOperation(OperationTypeReplace, path, value)
}

// Remove returns an operation removing the value at path.
func Remove(path string) (Operation, error) {
	return newOperation(OperationTypeRemove, path, nil)
}

// AddValues returns an operation adding typed values to the multi-valued attribute at path. Times are written
// as RFC 3339 strings and byte slices as base64.
func AddValues[T any](path string, values ...T) (Operation, error) {
	list := make([]any, 0, len(values))
	for _, v := range values {
		list = append(list, v)
	}
	return Add(path, list)
}

// MustAdd is like Add but panics on error.
func MustAdd(path string, value any) Operation {
	return must(Add(path, value))
}

// MustReplace is like Replace but panics on error.
func MustReplace(path string, value any) Operation {
	return must(Replace(path, value))
}

// MustRemove is like Remove but panics on error.
func MustRemove(path string) Operation {
	return must(Remove(path))
}

func must(op Operation, err error) Operation {
	if err != nil {
		panic(err)
	}
	return op
}

// Type returns the operation type.
func (o Operation) Type() OperationType { return o.op }

// Path returns the target path. The root path targets the resource itself.
func (o Operation) Path() scim.Path { return o.path }

// Value returns a copy of the operation value, or nil for remove operations.
func (o Operation) Value() any {
	if o.value == nil {
		return nil
	}
	v, err := core.Copy(o.value)
	if err != nil {
		return core.Clone(o.value)
	}
	return v
}

func (o Operation) String() string {
	s := string(o.op)
	if p := o.path.String(); p != "" {
		s += " " + p
	}
	if o.value != nil {
		data, err := json.Marshal(o.value)
		if err == nil {
			s += " " + string(data)
		}
	}
	return s
}

type operationJSON struct {
	Op    string          `json:"op"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the operation as a member of a PatchOp "Operations" array.
func (o Operation) MarshalJSON() ([]byte, error) {
	if o.op == "" {
		return nil, fmt.Errorf("patch: cannot encode an empty operation")
	}
	out := operationJSON{Op: string(o.op), Path: o.path.String()}
	if o.value != nil {
		data, err := json.Marshal(o.value)
		if err != nil {
			return nil, err
		}
		out.Value = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes and validates an operation. The op name is matched case-insensitively and a null value
// counts as no value.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var in operationJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return scim.NewError(scim.InvalidSyntax, "malformed patch operation: %v", err)
	}
	op, err := ParseOperationType(in.Op)
	if err != nil {
		return err
	}
	path, err := scim.ParsePath(in.Path)
	if err != nil {
		return err
	}
	var value any
	if len(in.Value) > 0 {
		if err := json.Unmarshal(in.Value, &value); err != nil {
			return scim.NewError(scim.InvalidValue, "malformed patch value: %v", err)
		}
	}
	parsed, err := NewOperation(op, path, value)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
