package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cellWidth  = 7
	cellHeight = 13
	cellAscent = 11
)

var glyphBitmaps = map[rune][cellHeight]string{
	GlyphWiFi: {
		".......",
		".......",
		".#####.",
		"#.....#",
		"..###..",
		".#...#.",
		"...#...",
		"..#.#..",
		".......",
		"...#...",
		".......",
		".......",
		".......",
	},
	GlyphCheck: {
		".......",
		".......",
		".......",
		"......#",
		".....##",
		"#...##.",
		"##.##..",
		".###...",
		"..#....",
		".......",
		".......",
		".......",
		".......",
	},
	GlyphCross: {
		".......",
		".......",
		".......",
		"#.....#",
		".#...#.",
		"..#.#..",
		"...#...",
		"..#.#..",
		".#...#.",
		"#.....#",
		".......",
		".......",
		".......",
	},
}

// rasterize draws chunk into frame, scaled by the largest integer factor that
// fits and centered on the panel.
func rasterize(frame *image.Gray, chunk []rune) {
	draw.Draw(frame, frame.Bounds(), image.Black, image.Point{}, draw.Src)
	if len(chunk) == 0 {
		return
	}

	canvas := image.NewGray(image.Rect(0, 0, cellWidth*len(chunk), cellHeight))
	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}

	for i, r := range chunk {
		if bitmap, ok := glyphBitmaps[r]; ok {
			blit(canvas, bitmap, i*cellWidth)
			continue
		}

		drawer.Dot = fixed.P(i*cellWidth, cellAscent)
		drawer.DrawString(string(r))
	}

	bounds := frame.Bounds()
	scale := min(bounds.Dy()/cellHeight, bounds.Dx()/canvas.Bounds().Dx())
	if scale < 1 {
		scale = 1
	}

	w, h := canvas.Bounds().Dx()*scale, cellHeight*scale
	x0 := bounds.Min.X + (bounds.Dx()-w)/2
	y0 := bounds.Min.Y + (bounds.Dy()-h)/2

	draw.NearestNeighbor.Scale(frame, image.Rect(x0, y0, x0+w, y0+h), canvas, canvas.Bounds(), draw.Src, nil)
}

func blit(canvas *image.Gray, bitmap [cellHeight]string, x int) {
	for y, row := range bitmap {
		for dx, px := range row {
			if px == '#' {
				canvas.SetGray(x+dx, y, color.Gray{Y: 0xff})
			}
		}
	}
}
