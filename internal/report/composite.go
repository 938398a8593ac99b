package report

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Page geometry.
const (
	PageWidth    = 600
	PageHeight   = 650
	FooterTop    = 500
	textMargin   = 20
	headingLine  = 535
	firstLine    = 575
	secondLine   = 605
	HeadingLabel = "FIELD NOTES:"
)

// Page colours.
var (
	PageColor    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	FooterColor  = color.RGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xff}
	HeadingColor = color.RGBA{R: 0x00, G: 0xe6, B: 0x76, A: 0xff}
	TextColor    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Composite draws the monster at the top of a white page and the notes in a
// dark footer below it. A nil drawing leaves the page blank.
func Composite(drawing image.Image, notes FieldNotes) *image.RGBA {
	page := image.NewRGBA(image.Rect(0, 0, PageWidth, PageHeight))
	draw.Draw(page, page.Bounds(), image.NewUniform(PageColor), image.Point{}, draw.Src)

	if drawing != nil {
		b := drawing.Bounds()
		draw.Draw(page, image.Rect(0, 0, b.Dx(), b.Dy()), drawing, b.Min, draw.Over)
	}

	footer := image.Rect(0, FooterTop, PageWidth, PageHeight)
	draw.Draw(page, footer, image.NewUniform(FooterColor), image.Point{}, draw.Src)

	text(page, HeadingLabel, textMargin, headingLine, HeadingColor)
	lines := notes.Lines()
	text(page, lines[0], textMargin, firstLine, TextColor)
	text(page, lines[1], textMargin, secondLine, TextColor)
	return page
}

// text draws s with its baseline at y.
func text(dst draw.Image, s string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
