package core

import (
	"sort"
	"strings"
)

// Lookup returns the key and value stored in obj under name. An exact match wins; otherwise the smallest key
// equal to name under Unicode case folding is used, as attribute names are case-insensitive.
func Lookup(obj map[string]any, name string) (string, any, bool) {
	if v, ok := obj[name]; ok {
		return name, v, true
	}

	var matches []string
	for k := range obj {
		if strings.EqualFold(k, name) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return "", nil, false
	}
	sort.Strings(matches)
	return matches[0], obj[matches[0]], true
}

// Set stores value under name, reusing the spelling of an existing key that matches case-insensitively.
func Set(obj map[string]any, name string, value any) {
	if key, _, ok := Lookup(obj, name); ok {
		obj[key] = value
		return
	}
	obj[name] = value
}

// Delete removes name from obj and reports whether it was present.
func Delete(obj map[string]any, name string) bool {
	key, _, ok := Lookup(obj, name)
	if ok {
		delete(obj, key)
	}
	return ok
}

// NamespaceMatch describes where the attributes of a schema URN live within a resource.
type NamespaceMatch int

const (
	// NamespaceAbsent means the resource holds nothing for the URN.
	NamespaceAbsent NamespaceMatch = iota
	// NamespaceKey means the attributes live in the object keyed by the URN.
	NamespaceKey
	// NamespaceRoot means the URN is the resource's core schema and its attributes live at the root.
	NamespaceRoot
)

// MatchNamespace locates the attributes of the schema identified by urn within doc. When the URN-keyed member
// exists its key is returned.
func MatchNamespace(doc map[string]any, urn string) (string, NamespaceMatch) {
	if key, _, ok := Lookup(doc, urn); ok {
		return key, NamespaceKey
	}

	_, schemas, ok := Lookup(doc, "schemas")
	if !ok {
		return "", NamespaceAbsent
	}
	list, ok := schemas.([]any)
	if !ok || len(list) == 0 {
		return "", NamespaceAbsent
	}
	if core, ok := list[0].(string); ok && strings.EqualFold(core, urn) {
		return "", NamespaceRoot
	}
	return "", NamespaceAbsent
}
