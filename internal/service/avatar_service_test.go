package service

import "testing"

func TestSniffImageType(t *testing.T) {
	cases := []struct {
		name  string
		probe []byte
		want  string
		ok    bool
	}{
		{"png", []byte("\x89PNG\r\n\x1a\n0000"), "image/png", true},
		{"jpeg", []byte("\xff\xd8\xff\xe0JFIF"), "image/jpeg", true},
		{"gif", []byte("GIF89a000000"), "", false},
		{"svg", []byte("<svg xmlns=\"http://www.w3.org/2000/svg\">"), "", false},
		{"truncated png header", []byte("\x89PN"), "", false},
		{"empty", nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := sniffImageType(tc.probe)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("sniffImageType = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
