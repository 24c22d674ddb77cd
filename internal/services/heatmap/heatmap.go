// Package heatmap renders an explanatory overlay for an analyzed image: the
// source converted to grayscale, mapped through a jet colormap and blended
// half-and-half with the original.
package heatmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	_ "image/gif"
	_ "image/jpeg"
)

// Generate decodes imageData (PNG, JPEG or GIF) and returns the blended
// heatmap overlay encoded as PNG.
func Generate(imageData []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	overlay := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixel := src.At(x, y)
			gray := color.GrayModel.Convert(pixel).(color.Gray).Y
			hr, hg, hb := jet(gray)

			r, g, b, _ := pixel.RGBA()
			overlay.Set(x, y, color.RGBA{
				R: blend(hr, uint8(r>>8)),
				G: blend(hg, uint8(g>>8)),
				B: blend(hb, uint8(b>>8)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, overlay); err != nil {
		return nil, fmt.Errorf("failed to encode heatmap: %w", err)
	}
	return buf.Bytes(), nil
}

// jet maps an intensity to the blue-cyan-yellow-red jet colormap.
func jet(v uint8) (uint8, uint8, uint8) {
	x := float64(v) / 255.0
	r := jetChannel(1.5 - math.Abs(4*x-3))
	g := jetChannel(1.5 - math.Abs(4*x-2))
	b := jetChannel(1.5 - math.Abs(4*x-1))
	return r, g, b
}

func jetChannel(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(math.Round(v * 255))
}

// blend averages a heatmap channel with the source channel.
func blend(heat, src uint8) uint8 {
	return uint8((uint16(heat) + uint16(src)) / 2)
}
