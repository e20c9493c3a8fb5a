package main

import (
	"flag"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/facerecon/internal/config"
	"github.com/taigrr/facerecon/internal/logger"
	"github.com/taigrr/facerecon/pkg/coeffs"
	"github.com/taigrr/facerecon/pkg/facemodel"
	"github.com/taigrr/facerecon/pkg/models"
	"github.com/taigrr/facerecon/pkg/recon"
	"github.com/taigrr/facerecon/pkg/render"
)

// setup parses args, loads the configuration and re-initializes logging
// from it. console=false keeps log output off the terminal.
func setup(fs *flag.FlagSet, f *config.Flags, args []string, console bool) (*config.Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f)
	if err != nil {
		return nil, err
	}

	var fileCfg logger.FileConfig
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, console); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// loadModel opens the configured asset, or builds the synthetic model when
// no path is set.
func loadModel(cfg *config.Config) (*facemodel.Model, error) {
	if cfg.Model.Path == "" {
		opts := facemodel.DefaultSyntheticOptions()
		opts.Seed = cfg.Model.Seed
		logger.Debug("using synthetic model", zap.Int64("seed", opts.Seed))
		return facemodel.Synthetic(opts)
	}

	start := time.Now()
	m, err := facemodel.Load(cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded model",
		zap.String("path", cfg.Model.Path),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", m.NumTriangles()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}

// loadRows reads coefficient vectors from path; an empty path gives one
// all-zero vector (the mean face, frontal).
func loadRows(path string) ([][]float64, error) {
	if path == "" {
		return coeffs.Zero(1), nil
	}
	return coeffs.LoadFile(path)
}

func newReconstructor(cfg *config.Config, m *facemodel.Model) *recon.Reconstructor {
	return recon.New(m, recon.Options{
		Logger:             logger.Log,
		Workers:            cfg.Render.Workers,
		Samples:            cfg.Render.Samples,
		RenderProjection:   cfg.Projection.Render,
		LandmarkProjection: cfg.Projection.Landmark,
	})
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := config.BindFlags(fs)
	coeffPath := fs.String("coeffs", "", "Coefficient file (YAML); default is the mean face")
	upscale := fs.Int("upscale", 0, "Resize output images to this size")
	withLandmarks := fs.Bool("landmarks", false, "Overlay the 68 landmarks")
	withMasks := fs.Bool("masks", false, "Also write coverage masks")

	cfg, err := setup(fs, f, args, true)
	if err != nil {
		return err
	}
	if *upscale > 0 {
		cfg.Render.Upscale = *upscale
	}

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	rows, err := loadRows(*coeffPath)
	if err != nil {
		return err
	}

	rec := newReconstructor(cfg, m)
	defer rec.Close()

	res, err := rec.Reconstruct(rows, cfg.Render.Resolution, cfg.Render.BatchSize, cfg.Render.Progressive)
	if err != nil {
		return err
	}
	logger.Info("rendered",
		zap.Int("samples", len(rows)),
		zap.Int("resolution", res.Spec.Resolution),
		zap.Int("aa_samples", res.Spec.Samples),
	)

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return err
	}
	for i := range res.Images {
		img := faceImage(res, i, cfg, *withLandmarks)
		path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("face_%03d.png", i))
		if err := render.SavePNG(img, path); err != nil {
			return err
		}
		logger.Info("wrote image", zap.String("path", path))

		if *withMasks {
			path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("face_%03d_mask.png", i))
			if err := render.SavePNG(res.Masks[i].ToImage(), path); err != nil {
				return err
			}
		}
	}
	return nil
}

// faceImage turns sample i into an output image: masked, optionally
// upscaled and optionally overlaid with its landmarks.
func faceImage(res *recon.Result, i int, cfg *config.Config, withLandmarks bool) image.Image {
	var img image.Image = res.Images[i].ToImageMasked(res.Masks[i])
	size := res.Spec.Resolution
	if cfg.Render.Upscale > 0 && cfg.Render.Upscale != size {
		size = cfg.Render.Upscale
		img = render.Upscale(img, size)
	}
	if !withLandmarks {
		return img
	}

	fb := render.NewFramebuffer(size, size)
	fb.DrawImage(img, false)
	render.DrawLandmarks(fb, res.Landmarks[i], cfg.Projection.Render.ImageSize(), render.LandmarkColor)
	return fb.ToImage()
}

// landmarkFile is the YAML layout of the landmarks command.
type landmarkFile struct {
	ImageSize float64        `yaml:"image_size"`
	Samples   [][][2]float64 `yaml:"samples"`
}

func runLandmarks(args []string) error {
	fs := flag.NewFlagSet("landmarks", flag.ContinueOnError)
	f := config.BindFlags(fs)
	coeffPath := fs.String("coeffs", "", "Coefficient file (YAML); default is the mean face")
	asYAML := fs.Bool("yaml", false, "Print YAML instead of plain text")

	cfg, err := setup(fs, f, args, true)
	if err != nil {
		return err
	}
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	rows, err := loadRows(*coeffPath)
	if err != nil {
		return err
	}

	rec := newReconstructor(cfg, m)
	defer rec.Close()

	lms, err := rec.Landmarks(rows)
	if err != nil {
		return err
	}

	if *asYAML {
		out := landmarkFile{
			ImageSize: cfg.Projection.Landmark.ImageSize(),
			Samples:   make([][][2]float64, len(lms)),
		}
		for i, pts := range lms {
			out.Samples[i] = make([][2]float64, len(pts))
			for j, p := range pts {
				out.Samples[i][j] = [2]float64{p.X, p.Y}
			}
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(out)
	}

	for i, pts := range lms {
		fmt.Printf("# sample %d\n", i)
		for j, p := range pts {
			fmt.Printf("%2d %9.3f %9.3f\n", j, p.X, p.Y)
		}
	}
	return nil
}

func runShape(args []string) error {
	fs := flag.NewFlagSet("shape", flag.ContinueOnError)
	f := config.BindFlags(fs)
	coeffPath := fs.String("coeffs", "", "Coefficient file (YAML); default is the mean face")
	index := fs.Int("index", -1, "Export only this sample (-1 = all)")

	cfg, err := setup(fs, f, args, true)
	if err != nil {
		return err
	}
	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	rows, err := loadRows(*coeffPath)
	if err != nil {
		return err
	}

	rec := newReconstructor(cfg, m)
	defer rec.Close()

	indices := []int{*index}
	if *index < 0 {
		indices = make([]int, len(rows))
		for i := range indices {
			indices[i] = i
		}
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return err
	}
	for _, i := range indices {
		mesh, err := rec.Mesh(rows, i)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.Output.Dir, mesh.Name+".glb")
		if err := models.SaveGLB(mesh, path); err != nil {
			return err
		}
		logger.Info("wrote mesh",
			zap.String("path", path),
			zap.Int("vertices", mesh.VertexCount()),
			zap.Int("triangles", mesh.TriangleCount()),
		)
	}
	return nil
}

func runMkModel(args []string) error {
	fs := flag.NewFlagSet("mkmodel", flag.ContinueOnError)
	f := config.BindFlags(fs)
	out := fs.String("o", "face_model.glb", "Output path")
	gridRows := fs.Int("rows", 16, "Vertex grid rows")
	gridCols := fs.Int("cols", 16, "Vertex grid columns")
	seed := fs.Int64("seed", 1, "Basis seed")

	if _, err := setup(fs, f, args, true); err != nil {
		return err
	}

	opts := facemodel.DefaultSyntheticOptions()
	opts.Rows, opts.Cols, opts.Seed = *gridRows, *gridCols, *seed
	m, err := facemodel.Synthetic(opts)
	if err != nil {
		return err
	}
	if err := facemodel.Save(m, *out); err != nil {
		return err
	}
	logger.Info("wrote model",
		zap.String("path", *out),
		zap.Int("vertices", m.NumVertices()),
		zap.Int("triangles", m.NumTriangles()),
	)
	return nil
}

func runMkCoeffs(args []string) error {
	fs := flag.NewFlagSet("mkcoeffs", flag.ContinueOnError)
	f := config.BindFlags(fs)
	out := fs.String("o", "coeffs.yaml", "Output path")
	n := fs.Int("n", 4, "Number of coefficient vectors")
	seed := fs.Int64("seed", 1, "Random seed")
	zero := fs.Bool("zero", false, "Write all-zero vectors (mean face)")

	if _, err := setup(fs, f, args, true); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("%w: need at least one vector, got %d", coeffs.ErrInvalidShape, *n)
	}

	rows := coeffs.Zero(*n)
	if !*zero {
		rows = coeffs.Random(rand.New(rand.NewSource(*seed)), *n)
	}
	if err := coeffs.SaveFile(*out, rows); err != nil {
		return err
	}
	logger.Info("wrote coefficients", zap.String("path", *out), zap.Int("samples", *n))
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	f := config.BindFlags(fs)
	out := fs.String("o", "", "Output path (default: user config directory)")

	cfg, err := setup(fs, f, args, true)
	if err != nil {
		return err
	}
	if *out == "" {
		if err := cfg.Save(); err != nil {
			return err
		}
		logger.Info("wrote config", zap.String("dir", config.ConfigDir()))
		return nil
	}
	if err := cfg.SaveTo(*out); err != nil {
		return err
	}
	logger.Info("wrote config", zap.String("path", *out))
	return nil
}
