// Package config handles facerecon configuration loading and management.
package config

import "github.com/taigrr/facerecon/pkg/recon"

// Config holds all facerecon settings.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Projection ProjectionConfig `yaml:"projection"`
	Render     RenderConfig     `yaml:"render"`
	Output     OutputConfig     `yaml:"output"`
	Preview    PreviewConfig    `yaml:"preview"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ModelConfig selects the face model asset.
type ModelConfig struct {
	Path string `yaml:"path"` // Empty uses the built-in synthetic model
	Seed int64  `yaml:"seed"` // Synthetic model seed
}

// ProjectionConfig holds the two pinhole cameras.
type ProjectionConfig struct {
	Render   recon.Projection `yaml:"render"`
	Landmark recon.Projection `yaml:"landmark"`
}

// RenderConfig holds reconstruction render settings.
type RenderConfig struct {
	Resolution  int  `yaml:"resolution"`
	Progressive bool `yaml:"progressive"`
	BatchSize   int  `yaml:"batch_size"` // 0 means the number of coefficient rows
	Workers     int  `yaml:"workers"`    // 0 means GOMAXPROCS
	Samples     int  `yaml:"samples"`    // anti-aliasing samples when not progressive
	Upscale     int  `yaml:"upscale"`    // PNG output size, 0 keeps the tier size
}

// OutputConfig holds output locations.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// PreviewConfig holds terminal preview settings.
type PreviewConfig struct {
	FPS             int     `yaml:"fps"`
	Resolution      int     `yaml:"resolution"`
	SpringFrequency float64 `yaml:"spring_frequency"`
	SpringDamping   float64 `yaml:"spring_damping"`
	Landmarks       bool    `yaml:"landmarks"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Path: "",
			Seed: 1,
		},
		Projection: ProjectionConfig{
			Render:   recon.RenderProjection(),
			Landmark: recon.LandmarkProjection(),
		},
		Render: RenderConfig{
			Resolution:  256,
			Progressive: true,
			BatchSize:   0,
			Workers:     0,
			Samples:     1,
			Upscale:     0,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Preview: PreviewConfig{
			FPS:             30,
			Resolution:      64,
			SpringFrequency: 4.0,
			SpringDamping:   1.0,
			Landmarks:       false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
