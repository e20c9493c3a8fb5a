package recon

import (
	"errors"
	"fmt"
)

// ErrInvalidResolution is returned for a non-positive resolution in
// non-progressive mode.
var ErrInvalidResolution = errors.New("recon: invalid render resolution")

// Tier is a progressive render level. Lower tiers render smaller images with
// more anti-aliasing samples per pixel.
type Tier int

const (
	Tier8 Tier = iota
	Tier16
	Tier32
	Tier64
	Tier128
	Tier256
)

var tierTable = [...]RenderSpec{
	Tier8:   {Resolution: 8, Samples: 64},
	Tier16:  {Resolution: 16, Samples: 32},
	Tier32:  {Resolution: 32, Samples: 16},
	Tier64:  {Resolution: 64, Samples: 8},
	Tier128: {Resolution: 128, Samples: 4},
	Tier256: {Resolution: 256, Samples: 4},
}

// Spec returns the tier's resolution and sample count.
func (t Tier) Spec() RenderSpec {
	return tierTable[t]
}

// Resolution returns the tier's square image size.
func (t Tier) Resolution() int {
	return tierTable[t].Resolution
}

// Samples returns the tier's anti-aliasing sample count.
func (t Tier) Samples() int {
	return tierTable[t].Samples
}

func (t Tier) String() string {
	if t < Tier8 || t > Tier256 {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return fmt.Sprintf("tier%d", t.Resolution())
}

// SelectTier routes a requested resolution to a tier by threshold.
func SelectTier(res int) Tier {
	switch {
	case res <= 8:
		return Tier8
	case res <= 16:
		return Tier16
	case res <= 32:
		return Tier32
	case res <= 64:
		return Tier64
	case res <= 128:
		return Tier128
	default:
		return Tier256
	}
}

// RenderSpec is the image size and sample count handed to the rasterizer.
type RenderSpec struct {
	Resolution int
	Samples    int
}

// renderSpecFor resolves the render spec for a call. Progressive mode uses
// the tier table. The fixed path renders at res with a sample count that is
// independent of the batch; the older renderer passed the batch size here,
// which made a face's pixels depend on what it was batched with.
func renderSpecFor(res, samples int, progressive bool) (RenderSpec, error) {
	if progressive {
		return SelectTier(res).Spec(), nil
	}
	if res <= 0 {
		return RenderSpec{}, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}
	return RenderSpec{Resolution: res, Samples: samples}, nil
}
