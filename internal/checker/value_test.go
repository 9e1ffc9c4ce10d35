package checker_test

import (
	"encoding/json"
	"testing"

	"github.com/petra-dev/upwatch/internal/checker"
)

func decode(t *testing.T, raw string) checker.Value {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return checker.FromAny(v)
}

func TestDig_WalksNestedObjects(t *testing.T) {
	v := decode(t, `{"a":{"b":{"c":"deep"}}}`)
	got := v.Dig("a.b.c")
	if got.Stringify() != "deep" {
		t.Errorf("expected %q, got %q", "deep", got.Stringify())
	}
}

func TestDig_EmptyPathIsRoot(t *testing.T) {
	v := decode(t, `{"a":1}`)
	if !v.Dig("").Truthy() {
		t.Error("expected root object to be returned for empty path")
	}
}

func TestDig_MissingKeyDegradesToEmptyObject(t *testing.T) {
	v := decode(t, `{"a":{"b":1}}`)

	for _, path := range []string{"a.missing", "missing", "a.b.c.d"} {
		got := v.Dig(path)
		if got.Kind() != checker.KindObject {
			t.Errorf("path %q: expected object kind, got %v", path, got.Kind())
		}
		if got.Truthy() {
			t.Errorf("path %q: expected falsy empty object", path)
		}
	}
}

func TestDig_ThroughScalarDegrades(t *testing.T) {
	v := decode(t, `{"a":"leaf"}`)
	// Descending "into" a string bottoms out at the empty object.
	got := v.Dig("a.b")
	if got.Truthy() {
		t.Errorf("expected falsy result, got %q", got.Stringify())
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		raw  string
		path string
		want string
	}{
		{`{"v":true}`, "v", "true"},
		{`{"v":false}`, "v", "false"},
		{`{"v":1}`, "v", "1"},
		{`{"v":1.5}`, "v", "1.5"},
		{`{"v":"text"}`, "v", "text"},
		{`{"v":null}`, "v", "null"},
		{`{"v":{}}`, "v", "{}"},
		{`{"v":[1,2]}`, "v", "[1,2]"},
	}
	for _, tc := range cases {
		got := decode(t, tc.raw).Dig(tc.path).Stringify()
		if got != tc.want {
			t.Errorf("%s → %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`null`, false},
		{`false`, false},
		{`true`, true},
		{`0`, false},
		{`42`, true},
		{`""`, false},
		{`"x"`, true},
		{`[]`, false},
		{`[0]`, true},
		{`{}`, false},
		{`{"k":0}`, true},
	}
	for _, tc := range cases {
		if got := decode(t, tc.raw).Truthy(); got != tc.want {
			t.Errorf("Truthy(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestInterface_RoundTrips(t *testing.T) {
	raw := `{"a":[1,"two",null],"b":{"c":true}}`
	v := decode(t, raw)

	out, err := json.Marshal(v.Interface())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal round-trip: %v", err)
	}
	if err := json.Unmarshal([]byte(raw), &want); err != nil {
		t.Fatalf("unmarshal original: %v", err)
	}
	gb, _ := json.Marshal(got)
	wb, _ := json.Marshal(want)
	if string(gb) != string(wb) {
		t.Errorf("round-trip mismatch: %s vs %s", gb, wb)
	}
}
