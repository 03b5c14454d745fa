package yolo

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// paletteHex holds one box colour per class, cycling. The Ultralytics-style
// tuples are BGR, so each entry here has red and blue swapped.
var paletteHex = []string{
	"#3838ff", "#339dff", "#ffc522", "#50ff63", "#cc63ff",
	"#a5ff38", "#33ffff", "#ffa100", "#ff03ad", "#4763ff",
}

var palette = buildPalette(paletteHex)

func buildPalette(hexes []string) []color.RGBA {
	out := make([]color.RGBA, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("yolo: bad palette entry " + h)
		}
		r, g, b := c.RGB255()
		out = append(out, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return out
}

// ClassColor returns the box colour for a class id.
func ClassColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// TextColor picks black or white, whichever reads better on bg.
func TextColor(bg color.RGBA) color.RGBA {
	c, _ := colorful.MakeColor(bg)
	if _, _, l := c.Hcl(); l > 0.7 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
