package scim

import (
	"encoding/json"
	"math/rand"
	"testing"
)

const userJSON = `{
	"schemas": [
		"urn:ietf:params:scim:schemas:core:2.0:User",
		"urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"
	],
	"id": "2819c223-7f76-453a-919d-413861904646",
	"userName": "bjensen@example.com",
	"name": {"familyName": "Jensen", "givenName": "Barbara"},
	"displayName": "Babs Jensen",
	"title": null,
	"active": true,
	"children": 5,
	"ratio": 0.25,
	"nickNames": [],
	"emails": [
		{"value": "bjensen@example.com", "type": "work", "primary": true},
		{"value": "babs@jensen.org", "type": "home"}
	],
	"groups": [
		{"value": "e9e30dba", "display": "Tour Guides", "members": [{"value": "a"}, {"value": "b"}]}
	],
	"tags": ["admin", "Ops"],
	"meta": {"lastModified": "2011-05-13T04:42:34Z", "resourceType": "User"},
	"urn:ietf:params:scim:schemas:extension:enterprise:2.0:User": {
		"employeeNumber": "701984",
		"manager": {"value": "26118915-6090-4610-87e4-49d8ca9f808d", "displayName": "John Smith"}
	}
}`

func loadUser(t *testing.T) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(userJSON), &doc); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return doc
}

func TestEvaluate(t *testing.T) {
	doc := loadUser(t)

	tests := []struct {
		expr string
		want bool
	}{
		{`userName eq "bjensen@example.com"`, true},
		{`USERNAME EQ "BJENSEN@example.com"`, true},
		{`userName eq "someone"`, false},
		{`userName ne "someone"`, true},
		{`name.familyName co "ens"`, true},
		{`name.familyName sw "J"`, true},
		{`name.familyName ew "SEN"`, true},
		{`name.familyName sw "x"`, false},
		{`children gt 4`, true},
		{`children gt 4.5`, true},
		{`children ge 5`, true},
		{`children lt 5`, false},
		{`children le 5.0`, true},
		{`children eq 5`, true},
		{`ratio lt 1`, true},
		{`children gt "4"`, false},
		{`userName gt 4`, false},
		{`children co "5"`, false},
		{`active eq true`, true},
		{`active eq false`, false},
		{`active eq "true"`, false},
		{`title pr`, false},
		{`title eq null`, true},
		{`title ne null`, false},
		{`nickNames pr`, false},
		{`nickNames eq null`, true},
		{`missing eq null`, true},
		{`missing pr`, false},
		{`missing ne null`, false},
		{`userName pr`, true},
		{`userName eq null`, false},
		{`userName ne null`, true},
		{`name pr`, true},
		{`emails pr`, true},
		{`emails.value co "jensen.org"`, true},
		{`emails.type eq "other"`, false},
		{`emails co "jensen.org"`, false},
		{`emails[type eq "work" and value co "@example.com"]`, true},
		{`emails[type eq "home" and value co "@example.com"]`, false},
		{`emails[primary eq true]`, true},
		{`emails[primary eq false]`, false},
		{`emails[not (primary pr)]`, true},
		{`groups.members.value eq "b"`, true},
		{`groups[members.value eq "b"]`, true},
		{`tags eq "ops"`, true},
		{`tags[value eq "admin"]`, true},
		{`tags[value sw "x"]`, false},
		{`schemas eq "urn:ietf:params:scim:schemas:extension:enterprise:2.0:User"`, true},
		{`schemas[value eq "urn:ietf:params:scim:schemas:core:2.0:User"]`, true},
		{`meta.lastModified gt "2011-05-13T04:42:34Z"`, false},
		{`meta.lastModified ge "2011-05-13T04:42:34Z"`, true},
		{`meta.lastModified lt "2012-01-01T00:00:00Z"`, true},
		{`urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:employeeNumber eq "701984"`, true},
		{`urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:manager.displayName sw "john"`, true},
		{`urn:ietf:params:scim:schemas:core:2.0:User:userName sw "bjensen"`, true},
		{`urn:ietf:params:scim:schemas:extension:other:2.0:User:userName pr`, false},
		{`title pr or userName sw "b"`, true},
		{`title pr and userName sw "b"`, false},
		{`not (title pr) and (children gt 10 or active eq true)`, true},
		{`active eq null`, false},
		{`children gt null`, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			if err != nil {
				t.Fatalf("ParseFilter failed: %v", err)
			}
			if got := Evaluate(f, doc); got != tt.want {
				t.Errorf("Evaluate(%s) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	doc := loadUser(t)
	before, _ := json.Marshal(doc)
	Evaluate(MustParseFilter(`emails[type eq "work"] or missing.deep.path pr or tags co "x"`), doc)
	after, _ := json.Marshal(doc)
	if string(before) != string(after) {
		t.Error("Evaluate mutated the document")
	}
}

func TestEvaluateGoValues(t *testing.T) {
	doc := map[string]any{
		"count":  int32(7),
		"score":  float32(1.5),
		"labels": []any{"a", nil, "b"},
	}
	if !Evaluate(Gt("count", 6), doc) || !Evaluate(Eq("score", 1.5), doc) {
		t.Error("numbers of any Go type should compare as float64")
	}
	if !Evaluate(Eq("labels", "b"), doc) || Evaluate(Eq("labels", nil), doc) {
		t.Error("nulls inside arrays should be ignored")
	}
	if Evaluate(Pr("count.value"), doc) != true {
		t.Error("a scalar exposes itself as its value sub-attribute")
	}
	if Evaluate(Pr("anything"), "scalar") || Evaluate(Pr("a"), nil) {
		t.Error("scalars and null have no attributes")
	}
}

func TestValues(t *testing.T) {
	doc := loadUser(t)

	tests := []struct {
		path string
		want []any
	}{
		{"userName", []any{"bjensen@example.com"}},
		{"emails.value", []any{"bjensen@example.com", "babs@jensen.org"}},
		{`emails[type eq "home"].value`, []any{"babs@jensen.org"}},
		{`emails[type eq "none"].value`, nil},
		{"title", nil},
		{"nickNames", nil},
		{"tags", []any{"admin", "Ops"}},
		{"groups.members.value", []any{"a", "b"}},
		{"urn:ietf:params:scim:schemas:extension:enterprise:2.0:User:employeeNumber", []any{"701984"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Values(MustParsePath(tt.path), doc)
			if len(got) != len(tt.want) {
				t.Fatalf("Values = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Values[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	root := Values(Path{}, doc)
	if len(root) != 1 {
		t.Errorf("root path should address the document, got %d values", len(root))
	}
}

var (
	lawAttributes = []string{"a", "b", "c", "d", "e", "missing", "name.given"}
	lawLiterals   = []any{1, 0, 2.5, "x", "X", "y", true, false}
)

const lawDoc = `{"a": 1, "b": "x", "c": true, "d": [1, 2], "e": null, "name": {"given": "Y"}}`

func randomLeaf(r *rand.Rand) Filter {
	attr := lawAttributes[r.Intn(len(lawAttributes))]
	lit := lawLiterals[r.Intn(len(lawLiterals))]
	switch r.Intn(4) {
	case 0:
		return Pr(attr)
	case 1:
		return Gt(attr, lit)
	case 2:
		return Eq(attr, nil)
	}
	return Eq(attr, lit)
}

func randomFilter(r *rand.Rand, depth int) Filter {
	if depth == 0 || r.Intn(3) == 0 {
		return randomLeaf(r)
	}
	switch r.Intn(3) {
	case 0:
		return And(randomFilter(r, depth-1), randomFilter(r, depth-1))
	case 1:
		return Or(randomFilter(r, depth-1), randomFilter(r, depth-1))
	}
	return Not(randomFilter(r, depth-1))
}

func TestEvaluateBooleanLaws(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(lawDoc), &doc); err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		a := randomFilter(r, 3)
		b := randomFilter(r, 3)
		va, vb := Evaluate(a, doc), Evaluate(b, doc)

		if got := Evaluate(Not(Not(a)), doc); got != va {
			t.Errorf("not (not (%s)) = %v, want %v", a, got, va)
		}
		if got := Evaluate(Not(a), doc); got == va {
			t.Errorf("not (%s) = %v, want %v", a, got, !va)
		}
		if got := Evaluate(And(a, b), doc); got != (va && vb) {
			t.Errorf("(%s) and (%s) = %v, want %v", a, b, got, va && vb)
		}
		if got := Evaluate(Or(a, b), doc); got != (va || vb) {
			t.Errorf("(%s) or (%s) = %v, want %v", a, b, got, va || vb)
		}

		parsed, err := ParseFilter(a.String())
		if err != nil {
			t.Fatalf("ParseFilter(%q) failed: %v", a, err)
		}
		if !parsed.Equal(a) {
			t.Errorf("round trip of %q gave %q", a, parsed)
		}
	}
}
