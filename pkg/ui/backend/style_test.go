package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorRGB565(t *testing.T) {
	tests := []struct {
		name    string
		in      uint16
		r, g, b uint8
	}{
		{"black", 0x0000, 0, 0, 0},
		{"white", 0xFFFF, 255, 255, 255},
		{"teal desktop", 0x0410, 0, 130, 132},
		{"navy title", 0x0010, 0, 0, 132},
		{"button face", 0xC618, 198, 195, 198},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ColorRGB565(tt.in)
			r, g, b := c.RGB()
			assert.True(t, c.IsRGB())
			assert.Equal(t, tt.r, r)
			assert.Equal(t, tt.g, g)
			assert.Equal(t, tt.b, b)
			assert.Equal(t, tt.in, c.RGB565())
		})
	}
}

func TestColorDefaultIsNotRGB(t *testing.T) {
	assert.False(t, ColorDefault.IsRGB())
	r, g, b := ColorDefault.RGB()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestStyleBuilders(t *testing.T) {
	s := DefaultStyle().Foreground(ColorWhite).Background(ColorBlack).Bold(true).Reverse(true)
	fg, bg, attrs := s.Decompose()
	assert.Equal(t, ColorWhite, fg)
	assert.Equal(t, ColorBlack, bg)
	assert.Equal(t, AttrBold|AttrReverse, attrs)

	s = s.Bold(false)
	assert.Equal(t, AttrReverse, s.attrs)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"default", ColorDefault, false},
		{" None ", ColorDefault, false},
		{"#ff8000", ColorRGB(255, 128, 0), false},
		{"0xFFFF", ColorRGB565(0xFFFF), false},
		{"1040", ColorRGB565(0x0410), false},
		{"#fff", ColorDefault, true},
		{"#gg0000", ColorDefault, true},
		{"70000", ColorDefault, true},
		{"teal", ColorDefault, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
