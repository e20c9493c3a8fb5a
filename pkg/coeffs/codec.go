// Package coeffs splits the flat 257-value reconstruction coefficient vector
// into its identity, texture, expression, pose, lighting and translation
// parts.
package coeffs

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/taigrr/facerecon/pkg/facemodel"
	"github.com/taigrr/facerecon/pkg/math3d"
)

// Partition offsets of a coefficient vector.
const (
	IdentityStart    = 0
	TextureStart     = IdentityStart + facemodel.IdentityDim     // 80
	ExpressionStart  = TextureStart + facemodel.TextureDim       // 160
	AnglesStart      = ExpressionStart + facemodel.ExpressionDim // 224
	LightingStart    = AnglesStart + 3                           // 227
	TranslationStart = LightingStart + LightingDim               // 254
	Width            = TranslationStart + 3                      // 257
)

// SHTerms is the number of spherical-harmonics coefficients per channel.
const SHTerms = 9

// LightingDim is the number of lighting coefficients (3 channels x 9 terms).
const LightingDim = 3 * SHTerms

// ErrInvalidShape is returned when a coefficient batch is empty or a row is
// not exactly Width values long.
var ErrInvalidShape = errors.New("coeffs: invalid coefficient shape")

// Lighting holds per-channel (R, G, B) SH coefficients.
type Lighting [3][SHTerms]float64

// Batch is a split coefficient batch. The basis weights are B x K matrices
// so they can be multiplied against a basis in one call.
type Batch struct {
	Identity    *mat.Dense // B x 80
	Texture     *mat.Dense // B x 80
	Expression  *mat.Dense // B x 64
	Angles      []math3d.Vec3
	Lighting    []Lighting
	Translation []math3d.Vec3
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.Angles)
}

// Validate checks the batch shape without splitting it.
func Validate(rows [][]float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidShape)
	}
	for i, row := range rows {
		if len(row) != Width {
			return fmt.Errorf("%w: sample %d has %d values, want %d", ErrInvalidShape, i, len(row), Width)
		}
	}
	return nil
}

// Split slices every row at the fixed partition offsets. Values are copied
// but never transformed.
func Split(rows [][]float64) (*Batch, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}

	n := len(rows)
	b := &Batch{
		Identity:    mat.NewDense(n, facemodel.IdentityDim, nil),
		Texture:     mat.NewDense(n, facemodel.TextureDim, nil),
		Expression:  mat.NewDense(n, facemodel.ExpressionDim, nil),
		Angles:      make([]math3d.Vec3, n),
		Lighting:    make([]Lighting, n),
		Translation: make([]math3d.Vec3, n),
	}

	for i, row := range rows {
		b.Identity.SetRow(i, row[IdentityStart:TextureStart])
		b.Texture.SetRow(i, row[TextureStart:ExpressionStart])
		b.Expression.SetRow(i, row[ExpressionStart:AnglesStart])
		b.Angles[i] = vec3(row[AnglesStart:LightingStart])
		for c := range 3 {
			copy(b.Lighting[i][c][:], row[LightingStart+c*SHTerms:LightingStart+(c+1)*SHTerms])
		}
		b.Translation[i] = vec3(row[TranslationStart:Width])
	}

	return b, nil
}

// Join is the inverse of Split.
func Join(b *Batch) [][]float64 {
	rows := make([][]float64, b.Len())
	for i := range rows {
		row := make([]float64, Width)
		copy(row[IdentityStart:], b.Identity.RawRowView(i))
		copy(row[TextureStart:], b.Texture.RawRowView(i))
		copy(row[ExpressionStart:], b.Expression.RawRowView(i))
		a := b.Angles[i]
		row[AnglesStart], row[AnglesStart+1], row[AnglesStart+2] = a.X, a.Y, a.Z
		for c := range 3 {
			copy(row[LightingStart+c*SHTerms:], b.Lighting[i][c][:])
		}
		t := b.Translation[i]
		row[TranslationStart], row[TranslationStart+1], row[TranslationStart+2] = t.X, t.Y, t.Z
		rows[i] = row
	}
	return rows
}

// SetAngles returns a copy of row with the pose angles replaced.
func SetAngles(row []float64, angles math3d.Vec3) []float64 {
	out := append([]float64(nil), row...)
	if len(out) == Width {
		out[AnglesStart], out[AnglesStart+1], out[AnglesStart+2] = angles.X, angles.Y, angles.Z
	}
	return out
}

func vec3(s []float64) math3d.Vec3 {
	return math3d.V3(s[0], s[1], s[2])
}
