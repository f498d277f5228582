package zeno

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// Drawable is anything that can render itself into a rectangle of dst.
// Draw is only called from the Ebitengine draw callback.
type Drawable interface {
	Draw(dst *ebiten.Image, r Rect) error
}

// DrawableFunc adapts a function to the Drawable interface.
type DrawableFunc func(dst *ebiten.Image, r Rect) error

// Draw calls f(dst, r).
func (f DrawableFunc) Draw(dst *ebiten.Image, r Rect) error {
	return f(dst, r)
}

// Layers draws each drawable into the same rectangle, in order.
type Layers []Drawable

// Draw implements Drawable. It stops at the first error.
func (ls Layers) Draw(dst *ebiten.Image, r Rect) error {
	for i, d := range ls {
		if d == nil {
			continue
		}
		if err := d.Draw(dst, r); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Text is a drawable string rendered with the default font, wrapped to the
// rectangle width.
type Text struct {
	Content string
	Align   TextAlign
	Color   Color
}

// Draw implements Drawable.
func (t Text) Draw(dst *ebiten.Image, r Rect) error {
	c := t.Color
	if c == (Color{}) {
		c = ColorWhite
	}
	return drawText(dst, t.Content, r, t.Align, c)
}

// Image draws an Ebitengine image stretched into the rectangle.
type Image struct {
	Img *ebiten.Image
}

// Draw implements Drawable.
func (i Image) Draw(dst *ebiten.Image, r Rect) error {
	return DrawImage(dst, i.Img, r)
}

// Fill paints the rectangle with a solid color.
type Fill Color

// Draw implements Drawable.
func (f Fill) Draw(dst *ebiten.Image, r Rect) error {
	return FillRect(dst, Color(f), r)
}

// DrawableOf adapts a value to Drawable at the rendering boundary.
// Drawables pass through, images are stretched into the rectangle, colors
// fill it, nil draws nothing and everything else is rendered as text.
func DrawableOf(v any) Drawable {
	switch d := v.(type) {
	case nil:
		return Layers(nil)
	case Drawable:
		return d
	case *ebiten.Image:
		return Image{Img: d}
	case Color:
		return Fill(d)
	case []Drawable:
		return Layers(d)
	case string:
		return Text{Content: d}
	case error:
		return Text{Content: d.Error()}
	case fmt.Stringer:
		return Text{Content: d.String()}
	default:
		return Text{Content: fmt.Sprint(v)}
	}
}

// drawSafely runs fn, converting a panic into an error wrapping ErrDrawPanic.
func drawSafely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrDrawPanic, p)
		}
	}()
	return fn()
}

// --- Primitives ---

var (
	whitePixelOnce sync.Once
	whitePixel     *ebiten.Image
)

// solidPixel returns a shared 1x1 white image used for fills.
func solidPixel() *ebiten.Image {
	whitePixelOnce.Do(func() {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toRGBA())
	})
	return whitePixel
}

// DrawImage draws img stretched to fill r. A nil dst or img draws nothing.
func DrawImage(dst, img *ebiten.Image, r Rect) error {
	if dst == nil || img == nil || r.Empty() {
		return nil
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.Width/float64(b.Dx()), r.Height/float64(b.Dy()))
	op.GeoM.Translate(r.X, r.Y)
	dst.DrawImage(img, op)
	return nil
}

// DrawRegion draws the src sub-rectangle of img stretched to fill r.
func DrawRegion(dst, img *ebiten.Image, src image.Rectangle, r Rect) error {
	if img == nil {
		return nil
	}
	src = src.Intersect(img.Bounds())
	if src.Empty() {
		return nil
	}
	return DrawImage(dst, img.SubImage(src).(*ebiten.Image), r)
}

// FillRect paints r with c.
func FillRect(dst *ebiten.Image, c Color, r Rect) error {
	if dst == nil || r.Empty() {
		return nil
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.Width, r.Height)
	op.GeoM.Translate(r.X, r.Y)
	op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	dst.DrawImage(solidPixel(), op)
	return nil
}

// DrawText draws s in white with the default font, wrapped to r.Width and
// clipped to r.
func DrawText(dst *ebiten.Image, s string, r Rect, align TextAlign) error {
	return drawText(dst, s, r, align, ColorWhite)
}

var defaultFace = text.NewGoXFace(basicfont.Face7x13)

// DefaultFace returns the font used by DrawText and the text fallback.
func DefaultFace() text.Face {
	return defaultFace
}

const defaultLineHeight = 13

func drawText(dst *ebiten.Image, s string, r Rect, align TextAlign, c Color) error {
	if dst == nil || r.Empty() || s == "" {
		return nil
	}
	clip := image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
	target, ok := dst.SubImage(clip).(*ebiten.Image)
	if !ok {
		return nil
	}
	for i, line := range wrapLines(s, r.Width, measure) {
		y := r.Y + float64(i*defaultLineHeight)
		if y > r.Y+r.Height {
			break
		}
		op := &text.DrawOptions{}
		switch align {
		case TextAlignCenter:
			op.GeoM.Translate(r.X+r.Width/2, y)
			op.PrimaryAlign = text.AlignCenter
		case TextAlignRight:
			op.GeoM.Translate(r.X+r.Width, y)
			op.PrimaryAlign = text.AlignEnd
		default:
			op.GeoM.Translate(r.X, y)
		}
		op.ColorScale.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
		text.Draw(target, line, defaultFace, op)
	}
	return nil
}

func measure(s string) float64 {
	return text.Advance(s, defaultFace)
}

// wrapLines splits s on newlines and greedily wraps each paragraph so no line
// is wider than width. A single word wider than width gets its own line.
func wrapLines(s string, width float64, advance func(string) float64) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if advance(candidate) > width {
				out = append(out, line)
				line = w
				continue
			}
			line = candidate
		}
		out = append(out, line)
	}
	return out
}
