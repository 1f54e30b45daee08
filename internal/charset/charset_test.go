package charset

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		charset string
		in      string
		want    string
	}{
		{"", "hello", "hello"},
		{"utf-8", "caf\xc3\xa9", "café"},
		{"utf-8", "bad\xff", "bad�"},
		{"windows-1251", "\xcf\xf0\xe8\xe2\xe5\xf2", "Привет"},
		{"CP1251", "\xcf", "П"},
		{"latin1", "caf\xe9", "café"},
		{"koi8-r", "\xf0\xd2\xc9\xd7\xc5\xd4", "Привет"},
	}
	for _, tt := range tests {
		d, err := Lookup(tt.charset)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.charset, err)
		}
		if got := d.Decode(tt.in); got != tt.want {
			t.Errorf("%s: Decode(%q) = %q, want %q", d.Name(), tt.in, got, tt.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("shift_jis"); err == nil {
		t.Error("multi-byte charset should not be offered")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names not sorted: %v", names)
		}
	}
}
