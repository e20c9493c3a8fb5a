package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/facerecon/internal/config"
	"github.com/taigrr/facerecon/internal/logger"
	"github.com/taigrr/facerecon/pkg/coeffs"
	"github.com/taigrr/facerecon/pkg/math3d"
	"github.com/taigrr/facerecon/pkg/recon"
	"github.com/taigrr/facerecon/pkg/render"
)

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis whose velocity decays through a harmonica
// spring. damping 1.0 is critically damped.
func NewRotationAxis(fps int, frequency, damping float64) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// PoseState holds the preview's yaw and pitch offsets on top of the
// sample's own pose angles.
type PoseState struct {
	Pitch, Yaw RotationAxis

	fps                int
	frequency, damping float64
}

// NewPoseState creates a pose state at rest.
func NewPoseState(fps int, frequency, damping float64) *PoseState {
	p := &PoseState{fps: fps, frequency: frequency, damping: damping}
	p.Reset()
	return p
}

// Update advances both springs by one frame.
func (p *PoseState) Update() {
	p.Pitch.Update()
	p.Yaw.Update()
}

// ApplyImpulse adds angular velocity in radians per frame.
func (p *PoseState) ApplyImpulse(pitch, yaw float64) {
	p.Pitch.Velocity += pitch
	p.Yaw.Velocity += yaw
}

// Reset returns both axes to rest at zero offset.
func (p *PoseState) Reset() {
	p.Pitch = NewRotationAxis(p.fps, p.frequency, p.damping)
	p.Yaw = NewRotationAxis(p.fps, p.frequency, p.damping)
}

// Angles returns base with the preview offsets added. Pitch rotates about
// X and yaw about Y; roll is left as is.
func (p *PoseState) Angles(base math3d.Vec3) math3d.Vec3 {
	return math3d.V3(base.X+p.Pitch.Position, base.Y+p.Yaw.Position, base.Z)
}

// previewView holds the toggles of the preview.
type previewView struct {
	sample    int
	landmarks bool
	wireframe bool
}

var wireColor = color.RGBA{0, 255, 128, 255}

// faceArea returns the largest square framebuffer that fits the terminal
// and the cell rectangle that shows it centered. Each cell holds two
// framebuffer rows.
func faceArea(width, height int) (size int, area uv.Rectangle) {
	size = max(2, min(width, (height-1)*2))
	size -= size % 2
	cols, rows := size, size/2
	x := max(0, (width-cols)/2)
	y := max(0, (height-1-rows)/2)
	return size, uv.Rect(x, y, cols, rows)
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	f := config.BindFlags(fs)
	coeffPath := fs.String("coeffs", "", "Coefficient file (YAML); default is the mean face")
	fps := fs.Int("fps", 0, "Target FPS (0 = config)")
	res := fs.Int("preview-res", 0, "Preview render resolution (0 = config)")

	// The terminal owns stdout/stderr while the preview runs.
	cfg, err := setup(fs, f, args, false)
	if err != nil {
		return err
	}
	if *fps > 0 {
		cfg.Preview.FPS = *fps
	}
	if *res > 0 {
		cfg.Preview.Resolution = *res
	}

	m, err := loadModel(cfg)
	if err != nil {
		return err
	}
	rows, err := loadRows(*coeffPath)
	if err != nil {
		return err
	}
	batch, err := coeffs.Split(rows)
	if err != nil {
		return err
	}

	rec := newReconstructor(cfg, m)
	defer rec.Close()

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()

	cleanup := func() {
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			logger.Warn("terminal shutdown", zap.Error(err))
		}
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	pose := NewPoseState(cfg.Preview.FPS, cfg.Preview.SpringFrequency, cfg.Preview.SpringDamping)
	view := previewView{landmarks: cfg.Preview.Landmarks}
	const impulse = 0.02

	tier := recon.SelectTier(cfg.Preview.Resolution)
	cam := render.NewCamera()
	proj := cfg.Projection.Render
	cam.SetPosition(math3d.V3(0, 0, proj.CameraDistance))
	cam.SetFOV(proj.FOVY() * math.Pi / 180)
	cam.SetClipPlanes(recon.NearClip, recon.FarClip)

	logger.Info("preview started",
		zap.Int("samples", len(rows)),
		zap.Stringer("tier", tier),
		zap.Int("fps", cfg.Preview.FPS),
	)

	ticker := time.NewTicker(time.Second / time.Duration(max(1, cfg.Preview.FPS)))
	defer ticker.Stop()

	var frameTime time.Duration
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigChan:
			cancel()
			continue
		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				if err := term.Resize(width, height); err != nil {
					return fmt.Errorf("resize terminal: %w", err)
				}
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					cancel()
				case ev.MatchString("w", "up"):
					pose.ApplyImpulse(-impulse, 0)
				case ev.MatchString("s", "down"):
					pose.ApplyImpulse(impulse, 0)
				case ev.MatchString("a", "left"):
					pose.ApplyImpulse(0, -impulse)
				case ev.MatchString("d", "right"):
					pose.ApplyImpulse(0, impulse)
				case ev.MatchString("space"):
					pose.ApplyImpulse((rand.Float64()-0.5)*0.1, (rand.Float64()-0.5)*0.1)
				case ev.MatchString("r"):
					pose.Reset()
				case ev.MatchString("l"):
					view.landmarks = !view.landmarks
				case ev.MatchString("x"):
					view.wireframe = !view.wireframe
				case ev.MatchString("n", "tab"):
					view.sample = (view.sample + 1) % len(rows)
				case ev.MatchString("p", "shift+tab"):
					view.sample = (view.sample + len(rows) - 1) % len(rows)
				}
			}
			continue
		case <-ticker.C:
		}

		start := time.Now()
		pose.Update()

		row := coeffs.SetAngles(rows[view.sample], pose.Angles(batch.Angles[view.sample]))
		out, err := rec.Reconstruct([][]float64{row}, tier.Resolution(), 0, true)
		if err != nil {
			return err
		}

		size, area := faceArea(width, height)
		fb := render.NewFramebuffer(size, size)
		fb.DrawImage(out.Images[0].ToImageMasked(out.Masks[0]), false)
		if view.wireframe {
			wf := render.NewWireframe(cam, fb)
			wf.DrawMesh(out.Shapes[0], m.Topology().Faces, wireColor)
		}
		if view.landmarks {
			render.DrawLandmarks(fb, out.Landmarks[0], proj.ImageSize(), render.LandmarkColor)
		}

		status := fmt.Sprintf(" sample %d/%d  %s  pitch %+.2f yaw %+.2f  %s  [wasd] rotate [l]andmarks [x] wireframe [n]ext [q]uit",
			view.sample+1, len(rows), tier, pose.Pitch.Position, pose.Yaw.Position, frameTime.Round(time.Millisecond))
		term.Draw(uv.DrawableFunc(func(scr uv.Screen, bounds uv.Rectangle) {
			fb.Draw(scr, area.Intersect(bounds))
			line := uv.Rect(bounds.Min.X, bounds.Max.Y-1, bounds.Dx(), 1)
			uv.NewStyledString(status).Draw(scr, line)
		}))
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		frameTime = time.Since(start)
	}
}
