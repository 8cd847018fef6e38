package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// RasterRenderer paints a scene into a bitmap with the embedded Go fonts.
type RasterRenderer struct {
	regular *truetype.Font
	bold    *truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

func NewRasterRenderer() (*RasterRenderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &RasterRenderer{regular: regular, bold: bold, faces: make(map[faceKey]font.Face)}, nil
}

// face returns a cached font face. Faces are not safe for concurrent use, so
// callers hold r.mu for the whole paint.
func (r *RasterRenderer) face(size float64, bold bool) font.Face {
	k := faceKey{size, bold}
	if f, ok := r.faces[k]; ok {
		return f
	}
	ttf := r.regular
	if bold {
		ttf = r.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, Hinting: font.HintingFull})
	r.faces[k] = f
	return f
}

// Paint draws the scene and returns the bitmap.
func (r *RasterRenderer) Paint(s *Scene) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(s.Width, s.Height)
	dc.SetColor(parseHex(s.Background, 1))
	dc.Clear()

	for _, sh := range s.Shapes {
		switch v := sh.(type) {
		case Rect:
			dc.SetColor(parseHex(v.Fill, v.Alpha))
			if v.Radius > 0 {
				dc.DrawRoundedRectangle(v.X, v.Y, v.W, v.H, v.Radius)
			} else {
				dc.DrawRectangle(v.X, v.Y, v.W, v.H)
			}
			dc.Fill()
		case Circle:
			dc.DrawCircle(v.CX, v.CY, v.R)
			dc.SetColor(parseHex(v.Fill, 1))
			if v.Stroke != "" {
				dc.FillPreserve()
				dc.SetColor(parseHex(v.Stroke, 1))
				dc.SetLineWidth(v.StrokeWidth)
				dc.Stroke()
			} else {
				dc.Fill()
			}
		case Text:
			dc.SetFontFace(r.face(v.Size, v.Bold))
			dc.SetColor(parseHex(v.Fill, 1))
			dc.DrawStringAnchored(v.Content, v.X, v.Y, anchorX(v.Anchor), 0)
		case Line:
			dc.SetColor(parseHex(v.Stroke, v.Alpha))
			dc.SetLineWidth(v.Width)
			dc.DrawLine(v.X1, v.Y1, v.X2, v.Y2)
			dc.Stroke()
		case Polyline:
			if len(v.Points) < 2 {
				continue
			}
			dc.SetColor(parseHex(v.Stroke, 1))
			dc.SetLineWidth(v.Width)
			dc.SetLineCapRound()
			dc.SetLineJoinRound()
			dc.MoveTo(v.Points[0].X, v.Points[0].Y)
			for _, p := range v.Points[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.Stroke()
		}
	}
	return dc.Image()
}

// Encode serializes img as PNG or JPEG.
func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

func anchorX(a Anchor) float64 {
	switch a {
	case AnchorMiddle:
		return 0.5
	case AnchorEnd:
		return 1
	}
	return 0
}

// parseHex converts #rrggbb into a color; alpha 0 means opaque.
func parseHex(hex string, alpha float64) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	a := uint8(255)
	if alpha > 0 && alpha < 1 {
		a = uint8(alpha * 255)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}
}
