// Package testutil provides common test utilities and fake implementations of
// the device's hardware facing interfaces.
package testutil

import (
	"strings"
	"sync"

	"moonclock/display"
)

// Frame is what a RecordingSurface held when Show was called.
type Frame struct {
	Content  string
	Centered bool
}

// RecordingSurface is a display.Surface (and display.Dimmer) that keeps every
// shown frame in memory.
type RecordingSurface struct {
	mu       sync.Mutex
	current  Frame
	frames   []Frame
	contrast []byte

	ShowErr     error
	PanicOnShow bool
	ContrastErr error
	OnShow      func(Frame)
}

func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

func (s *RecordingSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Frame{}
}

func (s *RecordingSurface) RenderText(content string, centered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Frame{Content: content, Centered: centered}
}

func (s *RecordingSurface) Show() error {
	s.mu.Lock()
	if s.PanicOnShow {
		s.mu.Unlock()
		panic("display bus exploded")
	}
	frame := s.current
	s.frames = append(s.frames, frame)
	err := s.ShowErr
	onShow := s.OnShow
	s.mu.Unlock()

	if onShow != nil {
		onShow(frame)
	}
	return err
}

func (s *RecordingSurface) SetContrast(level byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contrast = append(s.contrast, level)
	return s.ContrastErr
}

func (s *RecordingSurface) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := make([]Frame, len(s.frames))
	copy(frames, s.frames)
	return frames
}

// Contents returns the shown frames with glyphs replaced by printable runes.
func (s *RecordingSurface) Contents() []string {
	var contents []string
	for _, frame := range s.Frames() {
		contents = append(contents, display.Printable([]rune(frame.Content)))
	}
	return contents
}

func (s *RecordingSurface) Count(content string) int {
	count := 0
	for _, frame := range s.Frames() {
		if frame.Content == content {
			count++
		}
	}
	return count
}

func (s *RecordingSurface) CountContaining(sub string) int {
	count := 0
	for _, frame := range s.Frames() {
		if strings.Contains(frame.Content, sub) {
			count++
		}
	}
	return count
}

func (s *RecordingSurface) Last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return Frame{}
	}
	return s.frames[len(s.frames)-1]
}

func (s *RecordingSurface) Contrast() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.contrast...)
}
