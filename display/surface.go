package display

import "strings"

// Surface is the render contract used by the connectivity manager, the reset
// controller and every app. Clear and RenderText only touch the frame in
// memory; Show pushes it to the hardware.
type Surface interface {
	Clear()
	RenderText(content string, centered bool)
	Show() error
}

// Dimmer is implemented by surfaces that can change the panel brightness.
type Dimmer interface {
	SetContrast(level byte) error
}

// Icons that have no glyph in the text font. They are drawn from bitmaps.
const (
	GlyphWiFi  = '\uE000'
	GlyphCheck = '\uE001'
	GlyphCross = '\uE002'
)

// Layout fits content into a line of exactly columns runes, either left
// aligned or centered, truncating what does not fit.
func Layout(content string, columns int, centered bool) []rune {
	runes := []rune(content)
	if len(runes) > columns {
		runes = runes[:columns]
	}

	line := make([]rune, columns)
	for i := range line {
		line[i] = ' '
	}

	offset := 0
	if centered {
		offset = (columns - len(runes)) / 2
	}

	copy(line[offset:], runes)
	return line
}

// Split cuts a laid out line into one chunk per panel.
func Split(line []rune, panels int) [][]rune {
	if panels <= 0 {
		return nil
	}

	width := (len(line) + panels - 1) / panels
	chunks := make([][]rune, panels)
	for i := range chunks {
		start := i * width
		end := start + width
		if start > len(line) {
			start = len(line)
		}
		if end > len(line) {
			end = len(line)
		}
		chunks[i] = line[start:end]
	}

	return chunks
}

// Printable replaces the icon runes so a line can be written to a log.
func Printable(line []rune) string {
	return strings.NewReplacer(
		string(GlyphWiFi), "~",
		string(GlyphCheck), "v",
		string(GlyphCross), "x",
	).Replace(string(line))
}
