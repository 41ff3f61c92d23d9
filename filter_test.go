package scim

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFilterString(t *testing.T) {
	tests := []struct {
		f    Filter
		want string
	}{
		{Eq("userName", "bjensen"), `userName eq "bjensen"`},
		{Ne("title", "x"), `not (title eq "x")`},
		{Gt("children", 4), `children gt 4`},
		{Ge("children", 4.5), `children ge 4.5`},
		{Lt("ratio", 1e-7), `ratio lt 1e-07`},
		{Le("n", uint8(3)), `n le 3`},
		{Eq("active", true), `active eq true`},
		{Eq("manager", nil), `manager eq null`},
		{Co("displayName", `a "b" <c>`), `displayName co "a \"b\" <c>"`},
		{Pr("title"), `title pr`},
		{And(Or(Pr("a"), Pr("b")), Pr("c")), `(a pr or b pr) and c pr`},
		{Or(Pr("a"), And(Pr("b"), Pr("c"))), `a pr or b pr and c pr`},
		{Or(Pr("a"), Or(Pr("b"), Pr("c"))), `a pr or (b pr or c pr)`},
		{And(Pr("a"), And(Pr("b"), Pr("c"))), `a pr and (b pr and c pr)`},
		{Not(And(Pr("a"), Pr("b"))), `not (a pr and b pr)`},
		{Complex("emails", And(Eq("type", "work"), Pr("value"))), `emails[type eq "work" and value pr]`},
		{Eq("meta.created", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)), `meta.created eq "2020-01-02T03:04:05Z"`},
		{Eq("x509Certificates.value", []byte{1, 2, 3}), `x509Certificates.value eq "AQID"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, err := ParseFilter(tt.f.String())
			if err != nil {
				t.Fatalf("ParseFilter failed: %v", err)
			}
			if !parsed.Equal(tt.f) {
				t.Errorf("reparsed filter %v differs from %v", parsed, tt.f)
			}
		})
	}
}

func TestFilterAccessors(t *testing.T) {
	f := MustParseFilter(`emails[type eq "work"] and not (title pr)`)
	if f.Kind() != KindAnd || len(f.Children()) != 2 {
		t.Fatalf("unexpected root %v", f)
	}
	if !f.Path().IsRoot() || f.Value() != nil {
		t.Error("logical filters have no path or value")
	}

	complex := f.Children()[0]
	if complex.Kind() != KindComplex || complex.Path().String() != "emails" {
		t.Errorf("unexpected complex node %v", complex)
	}
	eq := complex.Children()[0]
	if eq.Kind() != KindEq || eq.Value() != "work" || eq.Path().String() != "type" {
		t.Errorf("unexpected comparison %v", eq)
	}

	not := f.Children()[1]
	if not.Kind() != KindNot || not.Children()[0].Kind() != KindPr {
		t.Errorf("unexpected negation %v", not)
	}
	if len(eq.Children()) != 0 {
		t.Error("comparisons have no children")
	}
}

func TestFilterEqual(t *testing.T) {
	if !Eq("UserName", "x").Equal(Eq("userName", "x")) {
		t.Error("attribute names compare case-insensitively")
	}
	if Eq("userName", "x").Equal(Eq("userName", "X")) {
		t.Error("literals compare exactly")
	}
	if !Gt("n", 5).Equal(Gt("n", 5.0)) {
		t.Error("numbers compare by value")
	}
	if Gt("n", 5).Equal(Ge("n", 5)) {
		t.Error("kinds are significant")
	}
	if And(Pr("a"), Pr("b")).Equal(Or(Pr("a"), Pr("b"))) {
		t.Error("and differs from or")
	}
	if And(Pr("a"), Pr("b")).Equal(And(Pr("b"), Pr("a"))) {
		t.Error("operand order is significant")
	}
	if Pr("a").Equal(Eq("a", nil)) {
		t.Error("pr differs from eq")
	}
}

func TestKindString(t *testing.T) {
	if KindSw.String() != "sw" || KindComplex.String() != "complex" || Kind(99).String() != "Kind(99)" {
		t.Error("unexpected kind names")
	}
	if !KindNe.IsComparison() || KindPr.IsComparison() || KindAnd.IsComparison() {
		t.Error("unexpected IsComparison")
	}
}

func TestBuilderPanics(t *testing.T) {
	cases := map[string]func(){
		"filtered path":  func() { Eq(`emails[type eq "work"].value`, "x") },
		"root path":      func() { Pr("") },
		"bad path":       func() { Pr("a.") },
		"container":      func() { Eq("a", []any{1}) },
		"nil child":      func() { And(Pr("a"), nil) },
		"nested complex": func() { Complex("a", Complex("b", Pr("c"))) },
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

type countingVisitor struct {
	kinds []string
}

func (v *countingVisitor) And(l, r Filter) (int, error) { return v.pair("and", l, r) }
func (v *countingVisitor) Or(l, r Filter) (int, error)  { return v.pair("or", l, r) }

func (v *countingVisitor) Not(inner Filter) (int, error) {
	v.kinds = append(v.kinds, "not")
	n, err := Walk[int](inner, v)
	return n + 1, err
}

func (v *countingVisitor) Present(Path) (int, error) {
	v.kinds = append(v.kinds, "pr")
	return 1, nil
}

func (v *countingVisitor) Compare(kind Kind, _ Path, _ any) (int, error) {
	v.kinds = append(v.kinds, kind.String())
	return 1, nil
}

func (v *countingVisitor) Complex(_ Path, inner Filter) (int, error) {
	v.kinds = append(v.kinds, "complex")
	n, err := Walk[int](inner, v)
	return n + 1, err
}

func (v *countingVisitor) pair(kind string, l, r Filter) (int, error) {
	v.kinds = append(v.kinds, kind)
	a, err := Walk[int](l, v)
	if err != nil {
		return 0, err
	}
	b, err := Walk[int](r, v)
	return a + b + 1, err
}

func TestWalk(t *testing.T) {
	f := MustParseFilter(`a eq 1 or (b pr and not (c sw "x")) or emails[type ne "home"]`)
	v := &countingVisitor{}
	n, err := Walk[int](f, v)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if n != 10 {
		t.Errorf("counted %d nodes, want 10", n)
	}
	got := strings.Join(v.kinds, ",")
	want := "or,or,eq,and,pr,not,sw,complex,not,eq"
	if got != want {
		t.Errorf("visit order = %s, want %s", got, want)
	}
}

func TestAttributes(t *testing.T) {
	f := MustParseFilter(`userName eq "a" or (USERNAME sw "b" and emails[type eq "work" and value pr]) or ` +
		enterpriseURN + `:manager.value pr`)
	var got []string
	for _, p := range Attributes(f) {
		got = append(got, p.String())
	}
	want := []string{"userName", "emails.type", "emails.value", enterpriseURN + ":manager.value"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Attributes = %v, want %v", got, want)
	}
}

func TestFilterJSON(t *testing.T) {
	filters := []string{
		`userName eq "bjensen"`,
		`title pr and not (userType eq "Intern")`,
		`emails[type eq "work" and value co "@example.com"] or children gt 4.5`,
		`manager eq null`,
		`active eq true or children le 3`,
	}
	for _, expr := range filters {
		t.Run(expr, func(t *testing.T) {
			f := MustParseFilter(expr)
			data, err := MarshalFilterJSON(f)
			if err != nil {
				t.Fatalf("MarshalFilterJSON failed: %v", err)
			}
			back, err := UnmarshalFilterJSON(data)
			if err != nil {
				t.Fatalf("UnmarshalFilterJSON(%s) failed: %v", data, err)
			}
			if !back.Equal(f) {
				t.Errorf("JSON round trip changed %v into %v", f, back)
			}
		})
	}

	data, _ := MarshalFilterJSON(Eq("userName", "x"))
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["op"] != "eq" || raw["path"] != "userName" || raw["value"] != "x" {
		t.Errorf("unexpected JSON form %s", data)
	}
}

func TestFilterJSONDecodeNe(t *testing.T) {
	f, err := UnmarshalFilterJSON([]byte(`{"op":"NE","path":"title","value":"x"}`))
	if err != nil {
		t.Fatalf("UnmarshalFilterJSON failed: %v", err)
	}
	if !f.Equal(Ne("title", "x")) {
		t.Errorf("got %v", f)
	}
}

func TestFilterJSONErrors(t *testing.T) {
	tests := []struct {
		data string
		typ  ErrorType
	}{
		{`{`, InvalidFilter},
		{`{"op":"and","filters":[{"op":"pr","path":"a"}]}`, InvalidFilter},
		{`{"op":"not"}`, InvalidFilter},
		{`{"op":"eq","path":"a"}`, InvalidFilter},
		{`{"op":"eq","path":"a","value":[1]}`, InvalidFilter},
		{`{"op":"zz","path":"a","value":1}`, InvalidFilter},
		{`{"op":"eq","path":"a.","value":1}`, InvalidPath},
		{`{"op":"pr","path":""}`, InvalidPath},
		{`{"op":"complex","path":"a","filters":[{"op":"complex","path":"b","filters":[{"op":"pr","path":"c"}]}]}`, InvalidFilter},
		{`{"op":"or","filters":[null,{"op":"pr","path":"a"}]}`, InvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			_, err := UnmarshalFilterJSON([]byte(tt.data))
			e, ok := AsError(err)
			if !ok || e.Type != tt.typ {
				t.Errorf("expected %s error, got %v", tt.typ, err)
			}
		})
	}
}
