package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/raainshe/homepanel/internal/dashboard"
)

// Panel geometry of a 128x64 SSD1306.
const (
	Width      = 128
	Height     = 64
	lineHeight = 16
)

// Render rasterizes a screen: title left and clock right on the header row,
// then one body line per 16px band. Text past the right edge is clipped.
func Render(s dashboard.Screen) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 0xff}),
		Face: face,
	}
	ascent := face.Metrics().Ascent

	text := func(x int, top int, str string) {
		if str == "" {
			return
		}
		d.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(top) + ascent}
		d.DrawString(str)
	}

	text(0, 0, s.Title)
	if s.Clock != "" {
		w := d.MeasureString(s.Clock).Ceil()
		text(Width-w, 0, s.Clock)
	}
	for i, line := range s.Lines() {
		text(0, lineHeight*(i+1), line)
	}
	return img
}

// Pack converts a frame into SSD1306 page order: 8 pages of 128 columns, one
// byte per column with the least significant bit at the top.
func Pack(img *image.Gray) []byte {
	buf := make([]byte, Width*Height/8)
	b := img.Bounds()
	for y := 0; y < Height && y < b.Dy(); y++ {
		for x := 0; x < Width && x < b.Dx(); x++ {
			if img.GrayAt(b.Min.X+x, b.Min.Y+y).Y < 0x80 {
				continue
			}
			buf[(y/8)*Width+x] |= 1 << uint(y%8)
		}
	}
	return buf
}
