package canvas

import (
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// ImageResolver supplies decoded part images by asset reference.
type ImageResolver interface {
	Image(asset string) (image.Image, error)
}

// Render draws the canvas onto a new RGBA image. Parts whose image cannot be
// resolved are skipped.
func (c *Canvas) Render(res ImageResolver) *image.RGBA {
	c.mu.Lock()
	w, h := c.doc.Width, c.doc.Height
	bg := c.doc.Background
	objs := make([]Object, len(c.doc.Objects))
	for i, o := range c.doc.Objects {
		objs[i] = o.Clone()
	}
	c.mu.Unlock()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	bgc, err := ParseColor(bg)
	if err != nil {
		bgc = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	}
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bgc), image.Point{}, draw.Src)

	for _, o := range objs {
		switch o.Kind {
		case KindImage:
			if res == nil {
				continue
			}
			src, err := res.Image(o.Asset)
			if err != nil {
				c.logger.Debug("part image unavailable", zap.String("asset", o.Asset), zap.Error(err))
				continue
			}
			drawPart(dst, src, o)
		case KindPath:
			drawStroke(dst, o)
		}
	}
	return dst
}

// PartBounds returns the rectangle a part occupies for an image of the
// given natural size.
func PartBounds(o Object, natural image.Point) image.Rectangle {
	if natural.X <= 0 || natural.Y <= 0 {
		return image.Rectangle{}
	}
	sw := o.Size
	sh := o.Size * float64(natural.Y) / float64(natural.X)
	x0 := int(math.Round(o.X - sw/2))
	y0 := int(math.Round(o.Y - sh/2))
	return image.Rect(x0, y0, x0+int(math.Round(sw)), y0+int(math.Round(sh)))
}

func drawPart(dst *image.RGBA, src image.Image, o Object) {
	r := PartBounds(o, src.Bounds().Size())
	if r.Empty() {
		return
	}
	draw.CatmullRom.Scale(dst, r, src, src.Bounds(), draw.Over, nil)
}

// drawStroke stamps discs of the brush width along each segment.
func drawStroke(dst *image.RGBA, o Object) {
	col, err := ParseColor(o.Color)
	if err != nil {
		return
	}
	radius := o.Width / 2
	if len(o.Points) == 1 {
		stamp(dst, o.Points[0], radius, col)
		return
	}
	for i := 1; i < len(o.Points); i++ {
		a, b := o.Points[i-1], o.Points[i]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		steps := int(math.Ceil(dist / math.Max(radius/2, 0.5)))
		if steps < 1 {
			steps = 1
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			stamp(dst, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, radius, col)
		}
	}
}

func stamp(dst *image.RGBA, p Point, radius float64, col color.RGBA) {
	b := dst.Bounds()
	r2 := radius * radius
	x0, x1 := int(math.Floor(p.X-radius)), int(math.Ceil(p.X+radius))
	y0, y1 := int(math.Floor(p.Y-radius)), int(math.Ceil(p.Y+radius))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := float64(x)-p.X, float64(y)-p.Y
			if dx*dx+dy*dy <= r2 {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}
