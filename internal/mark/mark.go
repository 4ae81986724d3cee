package mark

import (
	"image"
	"image/color"
	"image/draw"

	cfg "github.com/1F47E/go-tracemark/internal/config"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ShouldMark reports whether the 1-based frame index carries the mark.
// A frequency below 1 marks every frame.
func ShouldMark(index, frequency int) bool {
	if frequency < 1 {
		frequency = 1
	}
	return index%frequency == 0
}

// Embedder blends a faint text mark into the bottom right corner of a frame.
// It holds no per-frame state, one Embedder serves all workers.
type Embedder struct {
	Opacity  float64
	PaddingX int
	PaddingY int
	Color    color.RGBA

	face font.Face
}

func NewEmbedder(opacity float64) *Embedder {
	return &Embedder{
		Opacity:  opacity,
		PaddingX: cfg.MarkPaddingX,
		PaddingY: cfg.MarkPaddingY,
		Color:    color.RGBA{255, 255, 255, 255},
		// small fixed size bitmap font, 1px stroke
		face: basicfont.Face7x13,
	}
}

// Embed marks img in place when the index is due and reports whether it did.
func (e *Embedder) Embed(img *image.RGBA, payload string, index, frequency int) bool {
	if !ShouldMark(index, frequency) {
		return false
	}
	e.apply(img, payload)
	return true
}

// Bounds is the area of frame the mark for payload covers.
// The right edge sits PaddingX from the frame edge whatever the payload length.
func (e *Embedder) Bounds(frame image.Rectangle, payload string) image.Rectangle {
	_, box := e.layout(frame, payload)
	return box.Intersect(frame)
}

func (e *Embedder) layout(frame image.Rectangle, payload string) (image.Point, image.Rectangle) {
	width := font.MeasureString(e.face, payload).Ceil()
	m := e.face.Metrics()
	// text origin is the left end of the baseline
	dot := image.Pt(frame.Max.X-width-e.PaddingX, frame.Max.Y-e.PaddingY)
	box := image.Rect(dot.X, dot.Y-m.Ascent.Ceil(), dot.X+width, dot.Y+m.Descent.Ceil())
	return dot, box
}

func (e *Embedder) apply(img *image.RGBA, payload string) {
	dot, box := e.layout(img.Bounds(), payload)
	area := box.Intersect(img.Bounds())
	if area.Empty() || e.Opacity <= 0 {
		return
	}

	// overlay is an untouched copy of the area with the text drawn opaque
	overlay := image.NewRGBA(area)
	draw.Draw(overlay, area, img, area.Min, draw.Src)
	d := &font.Drawer{
		Dst:  overlay,
		Src:  image.NewUniform(e.Color),
		Face: e.face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(payload)

	blend(img, overlay, area, e.Opacity)
}

// blend sets dst = overlay*alpha + dst*(1-alpha) over area, alpha channel untouched.
func blend(dst, overlay *image.RGBA, area image.Rectangle, alpha float64) {
	if alpha > 1 {
		alpha = 1
	}
	beta := 1 - alpha
	for y := area.Min.Y; y < area.Max.Y; y++ {
		di := dst.PixOffset(area.Min.X, y)
		oi := overlay.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x++ {
			for c := 0; c < 3; c++ {
				v := float64(overlay.Pix[oi+c])*alpha + float64(dst.Pix[di+c])*beta
				dst.Pix[di+c] = uint8(v + 0.5)
			}
			di += 4
			oi += 4
		}
	}
}
