package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 32

var (
	iconOnce sync.Once
	iconData []byte
)

// Icon returns the tray icon as PNG: a rounded pad body with a d-pad and
// two face buttons.
func Icon() []byte {
	iconOnce.Do(func() {
		iconData = drawIcon()
	})
	return iconData
}

func drawIcon() []byte {
	body := color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	mark := color.RGBA{0xff, 0xff, 0xff, 0xff}

	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	for y := 8; y < 24; y++ {
		for x := 2; x < 30; x++ {
			if inRoundedRect(x, y, 2, 8, 30, 24, 5) {
				img.Set(x, y, body)
			}
		}
	}
	// d-pad
	for i := 9; i < 14; i++ {
		img.Set(i, 16, mark)
		img.Set(11, i+3, mark)
	}
	// face buttons
	fillDot(img, 21, 14, mark)
	fillDot(img, 24, 18, mark)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func inRoundedRect(x, y, x0, y0, x1, y1, r int) bool {
	cx, cy := x, y
	switch {
	case x < x0+r:
		cx = x0 + r
	case x >= x1-r:
		cx = x1 - r - 1
	}
	switch {
	case y < y0+r:
		cy = y0 + r
	case y >= y1-r:
		cy = y1 - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

func fillDot(img *image.RGBA, cx, cy int, c color.Color) {
	for y := cy - 1; y <= cy+1; y++ {
		for x := cx - 1; x <= cx+1; x++ {
			img.Set(x, y, c)
		}
	}
}
