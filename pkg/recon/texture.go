package recon

import (
	"gonum.org/v1/gonum/mat"

	"github.com/taigrr/facerecon/pkg/facemodel"
	"github.com/taigrr/facerecon/pkg/math3d"
)

// SynthesizeTextures returns per-vertex albedo (RGB, 0-255 scale, unclamped)
// for texture weights of shape B x 80.
func SynthesizeTextures(m *facemodel.Model, tex *mat.Dense) [][]math3d.Vec3 {
	out := linearModel(tex, m.TexBasis, m.MeanTexture)
	rows, _ := out.Dims()
	textures := make([][]math3d.Vec3, rows)
	for i := range rows {
		textures[i] = facemodel.Reshape(out.RawRowView(i))
	}
	return textures
}
