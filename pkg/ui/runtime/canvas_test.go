package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"breaks at spaces", "hello world", 5, []string{"hello", "world"}},
		{"joins words that fit", "hello big world", 9, []string{"hello big", "world"}},
		{"keeps blank lines", "a  b\n\nc", 10, []string{"a b", "", "c"}},
		{"hard breaks long words", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"tabs separate words", "x\ty", 10, []string{"x y"}},
		{"empty", "", 4, []string{""}},
		{"no width", "abc", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.in, tt.width))
		})
	}
}
