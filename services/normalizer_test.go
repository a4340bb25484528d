package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Yankees", "Yankees"},
		{"keeps space and case", "Red Sox", "Red Sox"},
		{"keeps period", "img1.PNG", "img1.PNG"},
		{"keeps newline", "a\nb", "a\nb"},
		{"drops hyphen and apostrophe", "O'Brien-Smith", "OBrienSmith"},
		{"drops unicode letters", "Müller Café", "Mller Caf"},
		{"drops tabs and slashes", "a\tb/c\\d", "abcd"},
		{"no collapse", "a  ..  b", "a  ..  b"},
		{"invalid utf8", "ab\xffc", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Red Sox", "  Los Ángeles #1  ", "../../etc/passwd", "x\r\ny", "日本語.jpg", "\xfe\xff"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		field := NormalizeField(in)
		assert.Equal(t, field, NormalizeField(field), "input %q", in)
	}
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "Red Sox", NormalizeField("  Red Sox\n"))
	assert.Equal(t, "img.png", NormalizeField("\t img.png \r\n"))
	assert.Equal(t, "", NormalizeField(" -- "))
	assert.Equal(t, "....etcpasswd", NormalizeField("../../etc/passwd"))
}
