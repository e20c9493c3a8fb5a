package recon

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/facerecon/pkg/coeffs"
	"github.com/taigrr/facerecon/pkg/facemodel"
	"github.com/taigrr/facerecon/pkg/math3d"
	"github.com/taigrr/facerecon/pkg/models"
	"github.com/taigrr/facerecon/pkg/render"
)

// Options configures a Reconstructor. Zero fields take their defaults.
type Options struct {
	Logger  *zap.Logger
	Workers int // per-sample parallelism, default GOMAXPROCS
	Samples int // anti-aliasing samples on the fixed path, default 1

	// Rasterizer renders the region meshes. Default: render.NewSoftware().
	Rasterizer render.Rasterizer
	// Device runs the rasterizer. Default: a device owned by the
	// Reconstructor and released by Close.
	Device *render.Device

	RenderProjection   Projection // default RenderProjection()
	LandmarkProjection Projection // default LandmarkProjection()
}

// Result is the output of Reconstruct. Every slice has one entry per sample.
type Result struct {
	Images    []*render.RGBImage
	Masks     []*render.Mask
	Landmarks [][]math3d.Vec2 // 68 points in render-projection image space
	Shapes    [][]math3d.Vec3 // posed mesh vertices
	Spec      RenderSpec
}

// Reconstructor runs the coefficient-to-image pipeline against one face
// model. Calls are independent and may run concurrently.
type Reconstructor struct {
	model     *facemodel.Model
	opts      Options
	dev       *render.Device
	ownDevice bool
	log       *zap.Logger
}

// New creates a Reconstructor for model.
func New(model *facemodel.Model, opts Options) *Reconstructor {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Samples <= 0 {
		opts.Samples = 1
	}
	if opts.Rasterizer == nil {
		opts.Rasterizer = render.NewSoftware()
	}
	if opts.RenderProjection == (Projection{}) {
		opts.RenderProjection = RenderProjection()
	}
	if opts.LandmarkProjection == (Projection{}) {
		opts.LandmarkProjection = LandmarkProjection()
	}

	r := &Reconstructor{
		model: model,
		opts:  opts,
		dev:   opts.Device,
		log:   opts.Logger.Named("recon"),
	}
	if r.dev == nil {
		r.dev = render.NewDevice()
		r.ownDevice = true
	}
	return r
}

// Close releases the render device if the Reconstructor created it.
func (r *Reconstructor) Close() {
	if r.ownDevice {
		r.dev.Close()
	}
}

// Model returns the face model.
func (r *Reconstructor) Model() *facemodel.Model {
	return r.model
}

// geometry holds the per-sample outputs of the geometry stages.
type geometry struct {
	Shapes  [][]math3d.Vec3 // posed
	Normals [][]math3d.Vec3 // rotated, nil unless shaded
	Colors  [][]math3d.Vec3 // nil unless shaded
}

// build runs split, shape synthesis and pose for every sample, plus normals,
// texture and illumination when shaded is set.
func (r *Reconstructor) build(rows [][]float64, shaded bool) (*geometry, error) {
	b, err := coeffs.Split(rows)
	if err != nil {
		return nil, err
	}

	shapes := SynthesizeShapes(r.model, b.Identity, b.Expression)
	var textures [][]math3d.Vec3
	if shaded {
		textures = SynthesizeTextures(r.model, b.Texture)
	}

	n := b.Len()
	g := &geometry{Shapes: make([][]math3d.Vec3, n)}
	if shaded {
		g.Normals = make([][]math3d.Vec3, n)
		g.Colors = make([][]math3d.Vec3, n)
	}

	topo := r.model.Topology()
	var eg errgroup.Group
	eg.SetLimit(r.opts.Workers)
	for i := range n {
		eg.Go(func() error {
			rot := RotationMatrix(b.Angles[i])
			if shaded {
				// Normals come from the canonical shape and take the rotation only.
				normals := RotateAll(ComputeNormals(shapes[i], topo), rot)
				g.Normals[i] = normals
				g.Colors[i] = Illuminate(textures[i], normals, b.Lighting[i])
			}
			g.Shapes[i] = RigidTransform(shapes[i], rot, b.Translation[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *Reconstructor) project(shapes [][]math3d.Vec3, p Projection) [][]math3d.Vec2 {
	idx := r.model.Topology().Landmarks
	out := make([][]math3d.Vec2, len(shapes))
	for i, s := range shapes {
		out[i] = p.ProjectAll(gather(s, idx))
	}
	return out
}

// Reconstruct renders every coefficient vector. batchSize <= 0 means
// len(rows); any other value must equal len(rows). In progressive mode res
// selects a tier; otherwise the image is res x res at Options.Samples.
func (r *Reconstructor) Reconstruct(rows [][]float64, res, batchSize int, progressive bool) (*Result, error) {
	if batchSize <= 0 {
		batchSize = len(rows)
	} else if batchSize != len(rows) {
		return nil, fmt.Errorf("%w: batch size %d but %d samples", coeffs.ErrInvalidShape, batchSize, len(rows))
	}

	spec, err := renderSpecFor(res, r.opts.Samples, progressive)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := r.build(rows, true)
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}
	geomTime := time.Since(start)

	images, masks, err := r.rasterize(r.renderRequest(g, spec))
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	r.log.Debug("reconstructed",
		zap.Int("batch", batchSize),
		zap.Int("requested_res", res),
		zap.Bool("progressive", progressive),
		zap.Int("resolution", spec.Resolution),
		zap.Int("samples", spec.Samples),
		zap.Duration("geometry", geomTime),
		zap.Duration("total", time.Since(start)),
	)

	return &Result{
		Images:    images,
		Masks:     masks,
		Landmarks: r.project(g.Shapes, r.opts.RenderProjection),
		Shapes:    g.Shapes,
		Spec:      spec,
	}, nil
}

// Landmarks returns the 68 landmarks of every sample under the landmark
// projection.
func (r *Reconstructor) Landmarks(rows [][]float64) ([][]math3d.Vec2, error) {
	g, err := r.build(rows, false)
	if err != nil {
		return nil, fmt.Errorf("landmarks: %w", err)
	}
	return r.project(g.Shapes, r.opts.LandmarkProjection), nil
}

// FaceShape returns the posed vertices of every sample.
func (r *Reconstructor) FaceShape(rows [][]float64) ([][]math3d.Vec3, error) {
	g, err := r.build(rows, false)
	if err != nil {
		return nil, fmt.Errorf("face shape: %w", err)
	}
	return g.Shapes, nil
}

// Mesh assembles the full posed and lit mesh of sample i for export. Colors
// are scaled to [0,1].
func (r *Reconstructor) Mesh(rows [][]float64, i int) (*models.Mesh, error) {
	if i < 0 || i >= len(rows) {
		return nil, fmt.Errorf("%w: sample %d of %d", coeffs.ErrInvalidShape, i, len(rows))
	}
	g, err := r.build(rows[i:i+1], true)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	mesh := models.NewMesh(fmt.Sprintf("face_%d", i))
	mesh.Vertices = make([]models.MeshVertex, len(g.Shapes[0]))
	for v := range mesh.Vertices {
		mesh.Vertices[v] = models.MeshVertex{
			Position: g.Shapes[0][v],
			Normal:   g.Normals[0][v],
			Color:    g.Colors[0][v].Scale(1.0 / 255),
		}
	}
	mesh.Faces = append(mesh.Faces, r.model.Topology().Faces...)
	mesh.CalculateBounds()
	return mesh, nil
}
