// Package patch implements SCIM 2.0 PATCH (RFC 7644 section 3.5.2) over generic JSON resources.
package patch

import (
	"github.com/hashicorp/go-multierror"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/core"
	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
)

// PatchOpSchema is the schema URN of a PATCH request message.
const PatchOpSchema = "urn:ietf:params:scim:api:messages:2.0:PatchOp"

// Request is a SCIM PatchOp message: an ordered list of operations applied one after the other, each seeing
// the document as left by its predecessors.
type Request struct {
	Schemas    []string    `json:"schemas"`
	Operations []Operation `json:"Operations"`
}

// NewRequest returns a request carrying the PatchOp schema and the given operations.
func NewRequest(ops ...Operation) *Request {
	return &Request{
		Schemas:    []string{PatchOpSchema},
		Operations: append([]Operation(nil), ops...),
	}
}

// Validate reports every structural problem of the request at once.
func (r *Request) Validate() error {
	var result *multierror.Error

	found := false
	for _, s := range r.Schemas {
		if s == PatchOpSchema {
			found = true
			break
		}
	}
	if !found {
		result = multierror.Append(result, scim.NewError(scim.InvalidSyntax, "schemas must contain %q", PatchOpSchema))
	}
	if len(r.Operations) == 0 {
		result = multierror.Append(result, scim.NewError(scim.InvalidSyntax, "request has no operations"))
	}
	for i, op := range r.Operations {
		if op.Type() == "" {
			result = multierror.Append(result, scim.NewError(scim.InvalidSyntax, "operation %d is empty", i))
		}
	}

	return result.ErrorOrNil()
}

// Apply performs every operation on doc in order. It stops at the first failing operation and does not undo the
// operations before it; use ApplyCopy when the document must be left untouched on failure.
func (r *Request) Apply(doc map[string]any) error {
	for i, op := range r.Operations {
		entry := log.WithFields(log.Fields{"index": i, "op": op.Type(), "path": op.Path().String()})
		entry.Debug("Applying patch operation")

		if err := op.Apply(doc); err != nil {
			entry.WithError(err).Debug("Patch operation failed")
			return errors.WithStackTraceAndPrefix(err, "operation %d (%s %s)", i, op.Type(), op.Path())
		}
	}
	return nil
}

// ApplyCopy applies the request to a deep copy of doc and returns the copy. doc itself is never modified, so a
// failed request leaves no partial changes behind.
func (r *Request) ApplyCopy(doc map[string]any) (map[string]any, error) {
	out := core.CloneObject(doc)
	if out == nil {
		out = map[string]any{}
	}
	if err := r.Apply(out); err != nil {
		return nil, err
	}
	return out, nil
}
