package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	placeholderBG   = color.RGBA{R: 0xF9, G: 0xFA, B: 0xFB, A: 0xFF}
	placeholderText = color.RGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF}
)

// placeholder draws NoDataMessage centred on a light background.
func placeholder(opts Options) (Image, error) {
	rgba := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(placeholderBG), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: image.NewUniform(placeholderText), Face: face}
	tw := dr.MeasureString(NoDataMessage).Ceil()
	x := (opts.Width - tw) / 2
	y := (opts.Height + face.Metrics().Ascent.Ceil()) / 2
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(NoDataMessage)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return Image{}, fmt.Errorf("encoding placeholder: %w", err)
	}
	return Image{PNG: buf.Bytes(), Width: opts.Width, Height: opts.Height, Placeholder: true}, nil
}
