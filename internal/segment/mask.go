package segment

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/effect"
	bildsegment "github.com/anthonynsimon/bild/segment"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
)

// maskOn marks a foreground pixel in a binary mask.
const maskOn = 255

// maskByTag builds a binary mask of pixels whose HSV value falls inside the
// tag's range. Hue wrap-around (two-range union) is handled by Range itself.
func maskByTag(img image.Image, rng colorid.Range) *image.Gray {
	bounds := img.Bounds()
	mask := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cf, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			h, s, v := cf.Hsv()
			if rng.Contains(h, s, v) {
				mask.SetGray(x, y, color.Gray{Y: maskOn})
			}
		}
	}
	return mask
}

// maskByForeground builds a binary mask of pixels whose grayscale distance to
// the supplied background model exceeds diffThreshold.
func maskByForeground(img, background image.Image, diffThreshold uint8) *image.Gray {
	bounds := img.Bounds()
	mask := image.NewGray(bounds)
	bgBounds := background.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			bx := bgBounds.Min.X + (x - bounds.Min.X)
			by := bgBounds.Min.Y + (y - bounds.Min.Y)
			if bx >= bgBounds.Max.X || by >= bgBounds.Max.Y {
				continue
			}
			d := grayLevel(img.At(x, y)) - grayLevel(background.At(bx, by))
			if d < 0 {
				d = -d
			}
			if d > int(diffThreshold) {
				mask.SetGray(x, y, color.Gray{Y: maskOn})
			}
		}
	}
	return mask
}

// colorfulAt converts the pixel at p for HSV analysis.
func colorfulAt(img image.Image, p image.Point) (colorful.Color, bool) {
	return colorful.MakeColor(img.At(p.X, p.Y))
}

// grayLevel is the ITU-R BT.601 luminance of a pixel, 0..255.
func grayLevel(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int(0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8))
}

// closeMask applies morphological closing: dilate to merge fragmented mask
// pixels belonging to one blob, then erode to remove the added margin and
// salt noise. Iteration counts of zero skip the corresponding pass.
func closeMask(mask *image.Gray, dilationIters, erosionIters int) *image.Gray {
	if dilationIters <= 0 && erosionIters <= 0 {
		return mask
	}
	var img image.Image = mask
	for i := 0; i < dilationIters; i++ {
		img = effect.Dilate(img, 1)
	}
	for i := 0; i < erosionIters; i++ {
		img = effect.Erode(img, 1)
	}
	return bildsegment.Threshold(img, 128)
}
