// Package scim implements the SCIM 2.0 (RFC 7644) attribute path and filter languages over generic JSON
// documents.
//
// Documents are the trees encoding/json produces when decoding into any: map[string]any objects, []any arrays,
// strings, numbers, booleans and nil. Attribute names are matched case-insensitively.
//
// Parsing:
//
//	f, err := scim.ParseFilter(`emails[type eq "work" and value co "@example.com"] or userName sw "j"`)
//	p, err := scim.ParsePath(`urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:manager.value`)
//
// Filters can also be built in code:
//
//	f := scim.And(scim.Eq("userType", "Employee"), scim.Pr("title"))
//
// Evaluation:
//
//	if scim.Evaluate(f, user) { ... }
//
// Errors returned by this package and by the patch package unwrap to *Error, whose Type is the SCIM scimType
// (invalidFilter, invalidPath, noTarget, invalidValue or invalidSyntax).
package scim
