package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/odvcencio/tinydesk/pkg/ui/runtime"
	"github.com/odvcencio/tinydesk/pkg/ui/theme"
	"github.com/odvcencio/tinydesk/pkg/ui/wm"
)

type queueFunc []func()

func (q *queueFunc) Queue(fn func()) { *q = append(*q, fn) }

func (q *queueFunc) run() {
	for _, fn := range *q {
		fn()
	}
	*q = nil
}

func TestTaskbarTerminalGeometry(t *testing.T) {
	tb := newTaskbar(theme.Terminal(), func() []wm.AppInfo { return nil })

	assert.Equal(t, runtime.NewRect(0, 23, 80, 1), tb.Bounds())
	assert.Equal(t, runtime.NewRect(0, 23, 7, 1), tb.StartRect())
	assert.Equal(t, runtime.NewRect(76, 23, 4, 1), tb.KeyboardRect())
	assert.Equal(t, runtime.NewRect(69, 23, 7, 1), tb.TrayRect())

	rects := tb.AppRects(3)
	if assert.Len(t, rects, 3) {
		assert.Equal(t, runtime.NewRect(8, 23, 13, 1), rects[0])
		assert.Equal(t, runtime.NewRect(22, 23, 13, 1), rects[1])
	}
	assert.Empty(t, tb.AppRects(0))
}

func TestTaskbarAppButtonsShrinkToFit(t *testing.T) {
	tb := newTaskbar(theme.Terminal(), func() []wm.AppInfo { return nil })
	rects := tb.AppRects(10)
	last := rects[len(rects)-1]
	assert.LessOrEqual(t, last.Right(), tb.TrayRect().X)
	assert.Positive(t, last.Width)
}

func TestTaskbarAppButtonFiresOnlyOverSameButton(t *testing.T) {
	apps := []wm.AppInfo{{Name: "alpha"}, {Name: "beta"}}
	tb := newTaskbar(theme.Terminal(), func() []wm.AppInfo { return apps })
	var tapped []string
	tb.onApp = func(name string) { tapped = append(tapped, name) }
	var q queueFunc

	r := tb.AppRects(2)
	tb.TouchBegin(&q, r[0].X+1, r[0].Y)
	tb.TouchEnd(&q, r[1].X+1, r[1].Y)
	q.run()
	assert.Empty(t, tapped)

	tb.TouchBegin(&q, r[1].X+1, r[1].Y)
	tb.TouchEnd(&q, r[1].X+2, r[1].Y)
	q.run()
	assert.Equal(t, []string{"beta"}, tapped)
}

func TestTaskbarStartFiresWhereverReleased(t *testing.T) {
	tb := newTaskbar(theme.Terminal(), func() []wm.AppInfo { return nil })
	starts := 0
	tb.onStart = func() { starts++ }
	var q queueFunc

	tb.TouchBegin(&q, 1, 23)
	tb.TouchEnd(&q, 40, 5)
	q.run()
	assert.Equal(t, 1, starts)
}
