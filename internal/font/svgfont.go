package font

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// SVGFont writes glyphs as an SVG 1.1 font.
func SVGFont(glyphs []*Glyph, info Info, m Metrics) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" standalone="no"?>` + "\n")
	buf.WriteString(`<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg">` + "\n")
	fmt.Fprintf(&buf, "<metadata>%s</metadata>\n", escape("Version "+info.Version))
	buf.WriteString("<defs>\n")
	fmt.Fprintf(&buf, "  <font id=\"%s\" horiz-adv-x=\"%d\">\n", escape(info.FontName), m.UnitsPerEm)
	fmt.Fprintf(&buf, "    <font-face font-family=\"%s\" font-weight=\"%d\" font-stretch=\"normal\" units-per-em=\"%d\" ascent=\"%d\" descent=\"%d\" />\n",
		escape(info.FamilyName), info.Weight, m.UnitsPerEm, m.Ascent(), -m.Descent)
	buf.WriteString("    <missing-glyph horiz-adv-x=\"0\" />\n")
	for _, g := range glyphs {
		fmt.Fprintf(&buf, "    <glyph glyph-name=\"%s\" unicode=\"&#x%X;\" horiz-adv-x=\"%d\" d=\"%s\" />\n",
			escape(g.Name), g.Codepoint, g.Advance, glyphPath(g))
	}
	buf.WriteString("  </font>\n</defs>\n</svg>\n")

	return buf.Bytes()
}

// glyphPath renders the quadratic contours of g as SVG path data in font
// coordinates.
func glyphPath(g *Glyph) string {
	var b strings.Builder
	for _, c := range g.Contours {
		if len(c) == 0 {
			continue
		}
		// Start on an on-curve point; rotate the contour when needed.
		start := 0
		for i, p := range c {
			if p.On {
				start = i
				break
			}
		}
		first := c[start]
		b.WriteString("M" + coord(first))
		var ctrl *Point
		for i := 1; i <= len(c); i++ {
			p := c[(start+i)%len(c)]
			switch {
			case !p.On && ctrl != nil:
				mid := Point{X: (ctrl.X + p.X) / 2, Y: (ctrl.Y + p.Y) / 2, On: true}
				b.WriteString("Q" + coord(*ctrl) + " " + coord(mid))
				cp := p
				ctrl = &cp
			case !p.On:
				cp := p
				ctrl = &cp
			case ctrl != nil:
				b.WriteString("Q" + coord(*ctrl) + " " + coord(p))
				ctrl = nil
			default:
				if i < len(c) {
					b.WriteString("L" + coord(p))
				}
			}
		}
		b.WriteString("Z")
	}

	return b.String()
}

func coord(p Point) string {
	return strconv.Itoa(p.X) + " " + strconv.Itoa(p.Y)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))

	return b.String()
}
