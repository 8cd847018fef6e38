package preview

import (
	"fmt"
	"strconv"
	"strings"

	"vote-preview/internal/format"
)

const fontFamily = "Inter, 'Segoe UI', Arial, sans-serif"

// SVGRenderer serializes a scene to an SVG document.
type SVGRenderer struct{}

func (SVGRenderer) Render(s *Scene) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		s.Width, s.Height, s.Width, s.Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, s.Background)
	for _, sh := range s.Shapes {
		switch v := sh.(type) {
		case Rect:
			fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"%s/>`,
				num(v.X), num(v.Y), num(v.W), num(v.H), num(v.Radius), v.Fill, opacity("fill-opacity", v.Alpha))
		case Circle:
			fmt.Fprintf(&b, `<circle cx="%s" cy="%s" r="%s" fill="%s"`, num(v.CX), num(v.CY), num(v.R), v.Fill)
			if v.Stroke != "" {
				fmt.Fprintf(&b, ` stroke="%s" stroke-width="%s"`, v.Stroke, num(v.StrokeWidth))
			}
			b.WriteString("/>")
		case Text:
			weight := "400"
			if v.Bold {
				weight = "700"
			}
			fmt.Fprintf(&b, `<text x="%s" y="%s" font-family="%s" font-size="%s" font-weight="%s" fill="%s" text-anchor="%s">%s</text>`,
				num(v.X), num(v.Y), fontFamily, num(v.Size), weight, v.Fill, anchorAttr(v.Anchor), format.EscapeXML(v.Content))
		case Line:
			fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"%s/>`,
				num(v.X1), num(v.Y1), num(v.X2), num(v.Y2), v.Stroke, num(v.Width), opacity("stroke-opacity", v.Alpha))
		case Polyline:
			pts := make([]string, len(v.Points))
			for i, p := range v.Points {
				pts[i] = num(p.X) + "," + num(p.Y)
			}
			fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="%s" stroke-linejoin="round" stroke-linecap="round"/>`,
				strings.Join(pts, " "), v.Stroke, num(v.Width))
		}
	}
	b.WriteString("</svg>")
	return []byte(b.String())
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func opacity(attr string, a float64) string {
	if a <= 0 || a >= 1 {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, attr, num(a))
}

func anchorAttr(a Anchor) string {
	switch a {
	case AnchorMiddle:
		return "middle"
	case AnchorEnd:
		return "end"
	}
	return "start"
}
