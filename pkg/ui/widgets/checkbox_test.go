package widgets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
)

func TestCheckboxTogglesOnRelease(t *testing.T) {
	cb := NewCheckbox("Wifi", false)
	cb.SetBounds(runtime.NewRect(0, 0, 12, 1))
	cb.Mount()
	var got []bool
	cb.OnChange(func(on bool) { got = append(got, on) })
	q := newQueue()

	cb.TouchBegin(q, 1, 0)
	assert.False(t, cb.Checked(), "toggles on release")
	cb.TouchEnd(q, 5, 0)
	assert.True(t, cb.Checked())
	assert.Empty(t, got, "callback is deferred")
	assert.Equal(t, 1, q.Execute())
	assert.Equal(t, []bool{true}, got)

	cb.TouchBegin(q, 1, 0)
	cb.TouchEnd(q, 30, 0)
	assert.True(t, cb.Checked(), "release outside cancels")
	assert.Zero(t, q.Execute())

	cb.SetChecked(false)
	assert.Zero(t, q.Execute(), "SetChecked does not notify")
}

func TestCheckboxDraw(t *testing.T) {
	cb := NewCheckbox("Wifi", true)
	cb.SetBounds(runtime.NewRect(1, 1, 12, 1))
	cb.Mount()
	cv := newCanvas(16, 3)
	cb.Draw(cv)
	assert.Equal(t, "[x]", rowText(cv, 1, 1, 4))
	assert.Equal(t, "Wifi", rowText(cv, 1, 5, 9))

	cb.SetChecked(false)
	cb.Draw(cv)
	assert.Equal(t, "[ ]", rowText(cv, 1, 1, 4))
}
