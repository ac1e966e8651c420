package display

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Console is a surface for development hosts without panels: every shown
// frame is written to the log, one cell group per panel.
type Console struct {
	panels          int
	columnsPerPanel int

	lock sync.Mutex
	line []rune
}

func NewConsole(opts Options) *Console {
	return &Console{panels: opts.Panels, columnsPerPanel: opts.ColumnsPerPanel}
}

func (c *Console) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.line = nil
}

func (c *Console) RenderText(content string, centered bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.line = Layout(content, c.panels*c.columnsPerPanel, centered)
}

func (c *Console) Show() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	cells := make([]string, 0, c.panels)
	for _, chunk := range Split(Layout(string(c.line), c.panels*c.columnsPerPanel, false), c.panels) {
		cells = append(cells, Printable(chunk))
	}

	log.Info().Str("frame", "["+strings.Join(cells, "|")+"]").Msg("display")
	return nil
}

func (c *Console) SetContrast(level byte) error {
	log.Debug().Msgf("display contrast set to %d", level)
	return nil
}
