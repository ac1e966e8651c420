package display

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

var ErrBusBusy = errors.New("display bus is busy")

// Panel is a single addressable screen. *ssd1306.Dev satisfies it.
type Panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

type contraster interface {
	SetContrast(level byte) error
}

// Bank spreads one line of text over a row of panels sharing one bus.
type Bank struct {
	panels          []Panel
	frames          []*image.Gray
	columnsPerPanel int

	frameLock sync.Mutex
	line      []rune

	// the bus is owned by one writer at a time; a writer that cannot get it
	// within busTimeout gives up instead of blocking the device
	bus        *semaphore.Weighted
	busTimeout time.Duration
}

func NewBank(panels []Panel, columnsPerPanel int) *Bank {
	frames := make([]*image.Gray, len(panels))
	for i, panel := range panels {
		frames[i] = image.NewGray(panel.Bounds())
	}

	if columnsPerPanel < 1 {
		columnsPerPanel = 1
	}

	return &Bank{
		panels:          panels,
		frames:          frames,
		columnsPerPanel: columnsPerPanel,
		bus:             semaphore.NewWeighted(1),
		busTimeout:      time.Second * 5,
	}
}

// Columns is the number of characters a single line can hold.
func (b *Bank) Columns() int {
	return len(b.panels) * b.columnsPerPanel
}

func (b *Bank) Clear() {
	b.frameLock.Lock()
	defer b.frameLock.Unlock()

	b.line = nil
	for _, frame := range b.frames {
		rasterize(frame, nil)
	}
}

func (b *Bank) RenderText(content string, centered bool) {
	line := Layout(content, b.Columns(), centered)

	b.frameLock.Lock()
	defer b.frameLock.Unlock()

	b.line = line
	for i, chunk := range Split(line, len(b.panels)) {
		rasterize(b.frames[i], chunk)
	}
}

// Line returns the text last rendered, laid out to the full bank width.
func (b *Bank) Line() string {
	b.frameLock.Lock()
	defer b.frameLock.Unlock()

	return string(b.line)
}

func (b *Bank) Show() error {
	release, err := b.acquireBus()
	if err != nil {
		return err
	}
	defer release()

	b.frameLock.Lock()
	defer b.frameLock.Unlock()

	for i, panel := range b.panels {
		frame := b.frames[i]
		err := panel.Draw(panel.Bounds(), frame, frame.Bounds().Min)
		if err != nil {
			return errors.Wrapf(err, "failed to flush panel %d", i)
		}
	}

	return nil
}

func (b *Bank) SetContrast(level byte) error {
	release, err := b.acquireBus()
	if err != nil {
		return err
	}
	defer release()

	for i, panel := range b.panels {
		c, ok := panel.(contraster)
		if !ok {
			continue
		}

		err := c.SetContrast(level)
		if err != nil {
			return errors.Wrapf(err, "failed to set contrast of panel %d", i)
		}
	}

	return nil
}

func (b *Bank) acquireBus() (func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.busTimeout)
	defer cancel()

	err := b.bus.Acquire(ctx, 1)
	if err != nil {
		return nil, ErrBusBusy
	}

	return func() { b.bus.Release(1) }, nil
}
