// Package segment turns raw video frames into candidate ant detections:
// color or foreground thresholding, morphological cleanup, connected-component
// extraction, and geometric feature derivation.
package segment

import (
	"image"
	"log/slog"
	"sort"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
)

// Params are the segmentation knobs, all caller-supplied.
type Params struct {
	// MinArea and MaxArea bound the accepted blob pixel count. Contours
	// outside the bounds are rejected as noise or merged multi-ant blobs.
	MinArea float64
	MaxArea float64
	// DilationIters and ErosionIters control morphological closing.
	DilationIters int
	ErosionIters  int
	// ForegroundDiff is the grayscale distance from the background model at
	// which a pixel counts as foreground (foreground mode only).
	ForegroundDiff uint8
}

// Segmenter extracts Detections from frames.
type Segmenter struct {
	params     Params
	palette    colorid.Palette
	tags       []string
	classifier *colorid.Classifier
	logger     *slog.Logger
}

func NewSegmenter(params Params, palette colorid.Palette, classifier *colorid.Classifier, logger *slog.Logger) *Segmenter {
	tags := make([]string, 0, len(palette))
	for tag := range palette {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return &Segmenter{
		params:     params,
		palette:    palette,
		tags:       tags,
		classifier: classifier,
		logger:     logger,
	}
}

// SegmentByTags thresholds the frame once per palette tag and returns the
// detections of all tags, each labeled with its tag. Insertion order is
// tag-alphabetical then component scan order; the order carries no meaning.
// An entirely empty mask yields an empty slice, not an error.
func (s *Segmenter) SegmentByTags(img image.Image) []Detection {
	var detections []Detection
	for _, tag := range s.tags {
		mask := maskByTag(img, s.palette[tag])
		mask = closeMask(mask, s.params.DilationIters, s.params.ErosionIters)
		for _, det := range s.extract(mask, img) {
			det.ColorTag = tag
			detections = append(detections, det)
		}
	}
	return detections
}

// SegmentForeground thresholds the frame against a caller-supplied background
// model and classifies each detection's color from its own pixels.
func (s *Segmenter) SegmentForeground(img, background image.Image) []Detection {
	mask := maskByForeground(img, background, s.params.ForegroundDiff)
	mask = closeMask(mask, s.params.DilationIters, s.params.ErosionIters)
	detections := s.extract(mask, img)
	for i := range detections {
		detections[i].ColorTag = s.classifier.Classify(detections[i].Signature)
	}
	return detections
}

// extract finds connected components in the binary mask, filters them by
// area, and derives the per-detection features.
func (s *Segmenter) extract(mask *image.Gray, img image.Image) []Detection {
	clusters, bboxes := connectedComponents(mask)
	detections := make([]Detection, 0, len(clusters))
	for i, pixels := range clusters {
		area := float64(len(pixels))
		if area < s.params.MinArea || area > s.params.MaxArea {
			if s.logger != nil {
				s.logger.Debug("blob rejected by area gate", "area", area)
			}
			continue
		}
		det := newDetection(pixels, bboxes[i])
		det.Signature = regionSignature(img, pixels)
		detections = append(detections, det)
	}
	return detections
}

// connectedComponents groups 4-connected mask pixels into clusters, returning
// each cluster's pixels and bounding box. Scan order is row-major, so output
// order is deterministic.
func connectedComponents(mask *image.Gray) ([][]image.Point, []image.Rectangle) {
	bounds := mask.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	seen := make([]bool, width*height)
	var clusters [][]image.Point
	var bboxes []image.Rectangle

	idx := func(p image.Point) int {
		return (p.Y-bounds.Min.Y)*width + (p.X - bounds.Min.X)
	}
	on := func(p image.Point) bool {
		return mask.GrayAt(p.X, p.Y).Y > 0
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			start := image.Point{X: x, Y: y}
			if seen[idx(start)] {
				continue
			}
			if !on(start) {
				seen[idx(start)] = true
				continue
			}
			cluster := []image.Point{start}
			seen[idx(start)] = true
			x0, y0, x1, y1 := start.X, start.Y, start.X, start.Y
			for k := 0; k < len(cluster); k++ {
				p := cluster[k]
				if p.X < x0 {
					x0 = p.X
				}
				if p.X > x1 {
					x1 = p.X
				}
				if p.Y < y0 {
					y0 = p.Y
				}
				if p.Y > y1 {
					y1 = p.Y
				}
				for _, q := range [4]image.Point{{p.X, p.Y - 1}, {p.X, p.Y + 1}, {p.X - 1, p.Y}, {p.X + 1, p.Y}} {
					if !q.In(bounds) || seen[idx(q)] {
						continue
					}
					seen[idx(q)] = true
					if on(q) {
						cluster = append(cluster, q)
					}
				}
			}
			clusters = append(clusters, cluster)
			bboxes = append(bboxes, image.Rect(x0, y0, x1+1, y1+1))
		}
	}
	return clusters, bboxes
}

// maxSignatureSamples caps the per-region pixels sampled for the HSV statistic.
const maxSignatureSamples = 256

// regionSignature computes the HSV signature over (a sample of) the region's
// own pixels.
func regionSignature(img image.Image, pixels []image.Point) colorid.Signature {
	stride := 1
	if len(pixels) > maxSignatureSamples {
		stride = len(pixels) / maxSignatureSamples
	}
	var hues, sats, vals []float64
	for i := 0; i < len(pixels); i += stride {
		cf, ok := colorfulAt(img, pixels[i])
		if !ok {
			continue
		}
		h, s, v := cf.Hsv()
		hues = append(hues, h)
		sats = append(sats, s)
		vals = append(vals, v)
	}
	return colorid.SignatureOf(hues, sats, vals)
}
