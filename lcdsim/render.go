// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	cellWidth  = 12
	cellHeight = 24
	padding    = 16
	fontSize   = 18
)

var loadFace = sync.OnceValues(func() (font.Face, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: fontSize}), nil
})

// Bounds returns the size of the image Render draws for s.
func Bounds(s Screen) image.Rectangle {
	cols := 0
	for _, l := range s.Lines {
		cols = max(cols, len(l))
	}
	return image.Rect(0, 0, cols*cellWidth+2*padding, len(s.Lines)*cellHeight+2*padding)
}

// Render draws s as a picture of the module: a dark bezel around the panel,
// lit or not, with the characters in a monospaced font.
func Render(s Screen) (image.Image, error) {
	face, err := loadFace()
	if err != nil {
		return nil, err
	}
	b := Bounds(s)
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB255(int(bezelColor.R), int(bezelColor.G), int(bezelColor.B))
	dc.Clear()

	panel := darkColor
	if s.Backlight {
		panel = litColor
	}
	dc.SetRGB255(int(panel.R), int(panel.G), int(panel.B))
	dc.DrawRoundedRectangle(padding/2, padding/2, float64(b.Dx()-padding), float64(b.Dy()-padding), 6)
	dc.Fill()

	if !s.DisplayOn {
		return dc.Image(), nil
	}
	dc.SetFontFace(face)
	dc.SetRGB(0.05, 0.08, 0.05)
	for r, line := range s.Lines {
		y := float64(padding + (r+1)*cellHeight - cellHeight/4)
		for c, ch := range line {
			if ch == ' ' {
				continue
			}
			dc.DrawString(string(ch), float64(padding+c*cellWidth), y)
		}
	}
	return dc.Image(), nil
}

// ScreenHandler serves a PNG rendering of the current screen of b.
func ScreenHandler(b *Bus) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "", http.StatusMethodNotAllowed)
			return
		}
		img, err := Render(b.Screen())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := buf.WriteTo(w); err != nil {
			log.Printf("lcdsim: writing screen failed: %v", err)
		}
	})
}
