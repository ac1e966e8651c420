package display

import (
	"sync"

	"github.com/pkg/errors"
)

var ErrFenced = errors.New("display is fenced off")

// Fence passes calls through to a surface until it is closed. Once closed it
// drops every call, so an app that outlived its boot cannot draw over the
// reset indicator or the next boot.
type Fence struct {
	mu     sync.Mutex
	inner  Surface
	closed bool
}

func NewFence(inner Surface) *Fence {
	return &Fence{inner: inner}
}

// Surface returns the fenced view of the wrapped surface. It implements Dimmer
// only if the wrapped surface does.
func (f *Fence) Surface() Surface {
	if dimmer, ok := f.inner.(Dimmer); ok {
		return &dimmableFence{Fence: f, dimmer: dimmer}
	}
	return f
}

// Close waits for a call in progress and fences off all later ones.
func (f *Fence) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *Fence) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.inner.Clear()
	}
}

func (f *Fence) RenderText(content string, centered bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.inner.RenderText(content, centered)
	}
}

func (f *Fence) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFenced
	}
	return f.inner.Show()
}

type dimmableFence struct {
	*Fence
	dimmer Dimmer
}

func (f *dimmableFence) SetContrast(level byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFenced
	}
	return f.dimmer.SetContrast(level)
}
