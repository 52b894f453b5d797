package ffigen

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Adder", "adder"},
		{"my-module", "my_module"},
		{"My Module.v2", "my_module_v2"},
		{"42counter", "ext_42counter"},
		{"___", "___"},
		{"!!!", "___"},
		{"", "external"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegistryCollisions(t *testing.T) {
	reg := NewRegistry()
	if got := reg.Claim("verilated_adder"); got != "verilated_adder" {
		t.Fatalf("first claim: got %q", got)
	}
	if got := reg.Claim("verilated_adder"); got != "verilated_adder_2" {
		t.Fatalf("second claim: got %q", got)
	}
	if got := reg.Claim("verilated_adder"); got != "verilated_adder_3" {
		t.Fatalf("third claim: got %q", got)
	}
	// Distinct bases do not interfere.
	if got := reg.Claim("verilated_mul"); got != "verilated_mul" {
		t.Fatalf("fresh base: got %q", got)
	}
}

func TestWrapperTypeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"verilated_adder", "VerilatedAdder"},
		{"verilated_adder_2", "VerilatedAdder2"},
		{"ext_42counter", "Ext42Counter"},
		{"a", "A"},
	}
	for _, tc := range cases {
		if got := WrapperTypeName(tc.in); got != tc.want {
			t.Errorf("WrapperTypeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
