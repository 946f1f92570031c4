package core

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"车险整体", "车险整体"},
		{"  车险整体 ", "车险整体"},
		{"ＡＢＣ　公司", "ABC 公司"},
		{"非营业 \t 客车", "非营业 客车"},
		{"", ""},
		{"   ", ""},
		{"１吨以下", "1吨以下"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.out {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{"B", " B", "Ａ", "", "A"})
	if len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Fatalf("unexpected result: %v", got)
	}
}
