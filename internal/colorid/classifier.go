// Package colorid classifies pixel neighborhoods against a configured palette
// of named HSV color tags, e.g. the dye marks used to identify individual ants.
package colorid

import (
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Unclassified is returned when no palette entry contains the observed signature.
const Unclassified = ""

// Range is one palette entry: an inclusive HSV box. Hue is in degrees [0,360),
// saturation and value in [0,1].
type Range struct {
	HueMin float64 `yaml:"hue_min"`
	HueMax float64 `yaml:"hue_max"`
	SatMin float64 `yaml:"sat_min"`
	SatMax float64 `yaml:"sat_max"`
	ValMin float64 `yaml:"val_min"`
	ValMax float64 `yaml:"val_max"`
}

// Palette maps tag names to their HSV ranges.
type Palette map[string]Range

// Validate checks that every range is within the HSV domain.
func (p Palette) Validate() error {
	for tag, r := range p {
		if r.HueMin < 0 || r.HueMin >= 360 || r.HueMax < 0 || r.HueMax >= 360 {
			return errors.Errorf("palette tag %q: hue bounds must be within [0,360)", tag)
		}
		if r.SatMin < 0 || r.SatMax > 1 || r.ValMin < 0 || r.ValMax > 1 {
			return errors.Errorf("palette tag %q: sat/val bounds must be within [0,1]", tag)
		}
		if r.SatMin > r.SatMax || r.ValMin > r.ValMax {
			return errors.Errorf("palette tag %q: min bound exceeds max", tag)
		}
	}
	return nil
}

// Contains reports whether the hue/sat/val triple falls inside the range.
// Hue is modular: an entry whose minimum is zero also matches the high end of
// the hue circle (red straddles 0°), and an entry with HueMin > HueMax is an
// explicit wrapped interval.
func (r Range) Contains(hue, sat, val float64) bool {
	if sat < r.SatMin || sat > r.SatMax || val < r.ValMin || val > r.ValMax {
		return false
	}
	switch {
	case r.HueMin > r.HueMax:
		return hue >= r.HueMin || hue <= r.HueMax
	case r.HueMin == 0:
		return hue <= r.HueMax || hue >= 360-r.HueMax
	default:
		return hue >= r.HueMin && hue <= r.HueMax
	}
}

// hueCenter returns the angular center of the range.
func (r Range) hueCenter() float64 {
	if r.HueMin > r.HueMax {
		c := (r.HueMin + r.HueMax + 360) / 2
		return math.Mod(c, 360)
	}
	return (r.HueMin + r.HueMax) / 2
}

// Signature is the HSV statistic of a pixel neighborhood: central value plus
// spread per channel. Hue statistics are circular.
type Signature struct {
	Hue       float64 `json:"hue"`
	Sat       float64 `json:"sat"`
	Val       float64 `json:"val"`
	HueSpread float64 `json:"hue_spread"`
	SatSpread float64 `json:"sat_spread"`
	ValSpread float64 `json:"val_spread"`
}

// Classifier matches signatures against a palette.
type Classifier struct {
	palette Palette
	tags    []string // sorted for deterministic tie-breaks
	// maxSpread is the confidence margin: signatures with a larger hue spread
	// than this are too noisy to classify.
	maxSpread float64
}

func NewClassifier(palette Palette, maxSpread float64) (*Classifier, error) {
	if err := palette.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid palette")
	}
	tags := make([]string, 0, len(palette))
	for tag := range palette {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return &Classifier{palette: palette, tags: tags, maxSpread: maxSpread}, nil
}

// Classify returns the best-matching tag for the signature, or Unclassified if
// no palette range contains it within the confidence margin. Among containing
// ranges the one whose hue center is angularly closest wins; exact ties go to
// the lexicographically first tag.
func (c *Classifier) Classify(sig Signature) string {
	if c.maxSpread > 0 && sig.HueSpread > c.maxSpread {
		return Unclassified
	}
	best := Unclassified
	bestDist := math.MaxFloat64
	for _, tag := range c.tags {
		r := c.palette[tag]
		if !r.Contains(sig.Hue, sig.Sat, sig.Val) {
			continue
		}
		if d := hueDistance(sig.Hue, r.hueCenter()); d < bestDist {
			bestDist = d
			best = tag
		}
	}
	return best
}

// ClassifyNeighborhood computes the signature of the pixels around (x, y) and
// classifies it. The neighborhood is the square of the given radius clipped to
// the image bounds.
func (c *Classifier) ClassifyNeighborhood(img image.Image, x, y, radius int) (string, Signature) {
	sig := NeighborhoodSignature(img, x, y, radius)
	return c.Classify(sig), sig
}

// NeighborhoodSignature computes the median+spread HSV statistic over the
// square neighborhood of the given radius around (x, y).
func NeighborhoodSignature(img image.Image, x, y, radius int) Signature {
	bounds := img.Bounds()
	var hues, sats, vals []float64
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			px, py := x+dx, y+dy
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			cf, ok := colorful.MakeColor(img.At(px, py))
			if !ok {
				continue
			}
			h, s, v := cf.Hsv()
			hues = append(hues, h)
			sats = append(sats, s)
			vals = append(vals, v)
		}
	}
	return SignatureOf(hues, sats, vals)
}

// SignatureOf reduces per-pixel HSV samples to a Signature. Hue uses circular
// statistics so samples straddling 0° do not average out to ~180°.
func SignatureOf(hues, sats, vals []float64) Signature {
	if len(hues) == 0 {
		return Signature{}
	}
	hue, hueSpread := circularStats(hues)
	sort.Float64s(sats)
	sort.Float64s(vals)
	return Signature{
		Hue:       hue,
		Sat:       stat.Quantile(0.5, stat.Empirical, sats, nil),
		Val:       stat.Quantile(0.5, stat.Empirical, vals, nil),
		HueSpread: hueSpread,
		SatSpread: stat.StdDev(sats, nil),
		ValSpread: stat.StdDev(vals, nil),
	}
}

// circularStats returns the wrap-aware median and circular standard deviation
// of hue samples, both in degrees. The median is computed after rotating the
// samples so their circular mean sits at 180°, which keeps red clusters
// straddling 0° intact.
func circularStats(hues []float64) (float64, float64) {
	var sumSin, sumCos float64
	for _, h := range hues {
		rad := h * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	n := float64(len(hues))
	meanRad := math.Atan2(sumSin/n, sumCos/n)
	meanDeg := math.Mod(meanRad*180/math.Pi+360, 360)

	// Resultant length → circular std dev.
	r := math.Hypot(sumSin/n, sumCos/n)
	var spread float64
	if r >= 1 {
		spread = 0
	} else if r <= 0 {
		spread = 180
	} else {
		spread = math.Sqrt(-2*math.Log(r)) * 180 / math.Pi
	}

	shift := 180 - meanDeg
	rotated := make([]float64, len(hues))
	for i, h := range hues {
		rotated[i] = math.Mod(h+shift+360, 360)
	}
	sort.Float64s(rotated)
	median := stat.Quantile(0.5, stat.Empirical, rotated, nil)
	return math.Mod(median-shift+720, 360), spread
}

// hueDistance is the angular distance between two hues in degrees.
func hueDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}
