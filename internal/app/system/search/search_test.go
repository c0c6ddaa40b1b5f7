package search

import "testing"

func TestPrefix(t *testing.T) {
	re, ok := Prefix("  Zoho.Corp ")
	if !ok {
		t.Fatal("expected ok")
	}
	if re.Pattern != `^zoho\.corp` {
		t.Errorf("pattern = %q", re.Pattern)
	}
	if _, ok := Prefix("   "); ok {
		t.Error("expected blank query to be skipped")
	}
}

func TestContains_EscapesMeta(t *testing.T) {
	m, ok := Contains("a+b")
	if !ok {
		t.Fatal("expected ok")
	}
	if m["$regex"] != `a\+b` || m["$options"] != "i" {
		t.Errorf("unexpected filter %v", m)
	}
}

func TestExact(t *testing.T) {
	m, ok := Exact("Presidio")
	if !ok || m["$regex"] != "^Presidio$" {
		t.Errorf("unexpected filter %v", m)
	}
	if _, ok := Exact(""); ok {
		t.Error("expected empty to be skipped")
	}
}
