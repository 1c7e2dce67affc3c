package screen

import (
	"image"

	"github.com/milk9111/commscreen/common"
	"github.com/milk9111/commscreen/config"
)

// PanoramaWidth is the width a raster is scaled to in fill-height mode: wide
// enough to cover the screen height, and never narrower than the screen.
func PanoramaWidth(screen, raster image.Point) int {
	if raster.X <= 0 || raster.Y <= 0 {
		return screen.X
	}
	return max(screen.X, screen.Y*raster.X/raster.Y)
}

// Placement returns the screen rectangle the raster is drawn into. offset
// pans the fill-height panorama and is ignored by the other modes.
func Placement(mode config.Scaling, screen, raster image.Point, offset int) image.Rectangle {
	if raster.X <= 0 || raster.Y <= 0 {
		return image.Rectangle{}
	}
	switch mode {
	case config.ScaleFitWidth:
		h := raster.Y * screen.X / raster.X
		y := (screen.Y - h) / 2
		return image.Rect(0, y, screen.X, y+h)
	case config.ScaleFillHeight:
		w := PanoramaWidth(screen, raster)
		h := raster.Y * w / raster.X
		y := (screen.Y - h) / 2
		x := ClampOffset(offset, screen.X, w)
		return image.Rect(x, y, x+w, y+h)
	default:
		x := (screen.X - raster.X) / 2
		y := (screen.Y - raster.Y) / 2
		return image.Rect(x, y, x+raster.X, y+raster.Y)
	}
}

// FillRect returns where the translucent backdrop copy goes. It covers the
// whole screen; in fill-height mode it follows the panorama, widened on each
// side in proportion to the scale.
func FillRect(mode config.Scaling, screen, raster image.Point, offset int) image.Rectangle {
	if mode != config.ScaleFillHeight || raster.X <= 0 {
		return image.Rect(0, 0, screen.X, screen.Y)
	}
	w := PanoramaWidth(screen, raster)
	x := ClampOffset(offset, screen.X, w)
	pad := w * w / (raster.X * 20)
	return image.Rect(x-pad, 0, x+w+pad, screen.Y)
}

// ClampOffset keeps a panorama of width w covering a screen of width sw.
func ClampOffset(offset, sw, w int) int {
	if w <= sw {
		return (sw - w) / 2
	}
	return common.Clamp(offset, sw-w, 0)
}

// CenterOffset returns the offset that centers the panorama.
func CenterOffset(screen, raster image.Point) int {
	return (screen.X - PanoramaWidth(screen, raster)) / 2
}
