package gallery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
)

const (
	tilePadding  = 40
	maxTileLines = 12
	ellipsis     = "..."
)

// RenderTextTile draws text in white on a square of the given color and
// returns it as a PNG data URL. Text wraps at word boundaries to the tile
// width less padding; anything past the last line is cut with an ellipsis.
func RenderTextTile(text, hex string, size int) (string, error) {
	bg, err := parseHex(hex)
	if err != nil {
		bg, _ = parseHex(category.FallbackColor)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}

	lines := wrap(d, text, fixed.I(size-tilePadding), maxTileLines)
	lineHeight := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	top := (size - len(lines)*lineHeight) / 2

	for i, line := range lines {
		w := d.MeasureString(line)
		d.Dot = fixed.Point26_6{
			X: (fixed.I(size) - w) / 2,
			Y: fixed.I(top + i*lineHeight + ascent),
		}
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode tile: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// wrap breaks text into at most maxLines lines no wider than width. Words
// wider than a line are hard-split.
func wrap(d *font.Drawer, text string, width fixed.Int26_6, maxLines int) []string {
	fits := func(s string) bool { return d.MeasureString(s) <= width }

	var (
		lines []string
		cur   string
	)
	words := strings.Fields(text)
	for len(words) > 0 {
		candidate := words[0]
		if cur != "" {
			candidate = cur + " " + words[0]
		}
		if fits(candidate) {
			cur = candidate
			words = words[1:]
			continue
		}

		if cur == "" {
			head, tail := split(words[0], fits)
			cur = head
			if tail == "" {
				words = words[1:]
			} else {
				words[0] = tail
			}
		}

		lines = append(lines, cur)
		cur = ""
		if len(lines) == maxLines {
			break
		}
	}

	if cur != "" {
		lines = append(lines, cur)
	}

	if len(words) > 0 && len(lines) > 0 {
		last := lines[len(lines)-1]
		for last != "" && !fits(last+ellipsis) {
			r := []rune(last)
			last = strings.TrimRight(string(r[:len(r)-1]), " ")
		}
		lines[len(lines)-1] = last + ellipsis
	}
	return lines
}

// split returns the longest prefix of w that fits and the rest.
func split(w string, fits func(string) bool) (string, string) {
	r := []rune(w)
	n := len(r)
	for n > 1 && !fits(string(r[:n])) {
		n--
	}
	return string(r[:n]), string(r[n:])
}

func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
