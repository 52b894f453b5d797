package ffigen

import (
	"errors"
	"testing"

	"assassyn/internal/ir"
)

func TestStorageWidthRounding(t *testing.T) {
	cases := []struct {
		bits int
		want int
	}{
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{32, 32},
		{33, 64},
		{64, 64},
	}
	for _, tc := range cases {
		got, err := storageWidth(tc.bits)
		if err != nil {
			t.Fatalf("storageWidth(%d): %v", tc.bits, err)
		}
		if got != tc.want {
			t.Errorf("storageWidth(%d) = %d, want %d", tc.bits, got, tc.want)
		}
	}
}

func TestStorageWidthRejectsWide(t *testing.T) {
	for _, bits := range []int{65, 128, 512} {
		if _, err := storageWidth(bits); !errors.Is(err, ErrWidthUnsupported) {
			t.Errorf("storageWidth(%d): got %v, want ErrWidthUnsupported", bits, err)
		}
	}
	if _, err := storageWidth(0); err == nil {
		t.Error("storageWidth(0): expected error")
	}
	if _, err := storageWidth(-4); err == nil {
		t.Error("storageWidth(-4): expected error")
	}
}

func TestResolvePort(t *testing.T) {
	cases := []struct {
		name   string
		port   ir.Port
		goType string
		cType  string
	}{
		{"narrow unsigned", ir.Port{Name: "a", Dir: ir.DirInput, Type: ir.UInt(17)}, "uint32", "uint32_t"},
		{"exact unsigned", ir.Port{Name: "b", Dir: ir.DirInput, Type: ir.UInt(8)}, "uint8", "uint8_t"},
		{"signed", ir.Port{Name: "c", Dir: ir.DirOutput, Type: ir.Int(12)}, "int16", "int16_t"},
		{"bool", ir.Port{Name: "d", Dir: ir.DirInput, Type: ir.Bool()}, "uint8", "uint8_t"},
		{"wide unsigned", ir.Port{Name: "e", Dir: ir.DirOutput, Type: ir.UInt(48)}, "uint64", "uint64_t"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := ResolvePort(&tc.port)
			if err != nil {
				t.Fatalf("ResolvePort: %v", err)
			}
			if spec.GoType != tc.goType || spec.CType != tc.cType {
				t.Errorf("got (%s, %s), want (%s, %s)", spec.GoType, spec.CType, tc.goType, tc.cType)
			}
			if spec.Bits != tc.port.Type.Bits {
				t.Errorf("declared width not preserved: got %d, want %d", spec.Bits, tc.port.Type.Bits)
			}
		})
	}

	wide := ir.Port{Name: "w", Dir: ir.DirInput, Type: ir.UInt(128)}
	if _, err := ResolvePort(&wide); !errors.Is(err, ErrWidthUnsupported) {
		t.Errorf("128-bit port: got %v, want ErrWidthUnsupported", err)
	}
}
