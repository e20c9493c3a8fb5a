package coeffs

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML layout of a coefficient batch.
type File struct {
	Samples [][]float64 `yaml:"samples"`
}

// LoadFile reads and validates a YAML coefficient file.
func LoadFile(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coefficients: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse coefficients %s: %w", path, err)
	}
	if err := Validate(f.Samples); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Samples, nil
}

// SaveFile writes a coefficient batch as YAML.
func SaveFile(path string, rows [][]float64) error {
	if err := Validate(rows); err != nil {
		return err
	}
	data, err := yaml.Marshal(File{Samples: rows})
	if err != nil {
		return fmt.Errorf("encode coefficients: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Zero returns n all-zero coefficient vectors: mean face, frontal pose,
// ambient lighting only.
func Zero(n int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, Width)
	}
	return rows
}

// Random returns n coefficient vectors with normally distributed shape and
// texture weights, small pose angles and mild lighting.
func Random(rng *rand.Rand, n int) [][]float64 {
	rows := Zero(n)
	for _, row := range rows {
		for i := IdentityStart; i < AnglesStart; i++ {
			row[i] = rng.NormFloat64()
		}
		for i := AnglesStart; i < LightingStart; i++ {
			row[i] = (rng.Float64() - 0.5) * 0.4
		}
		for i := LightingStart; i < TranslationStart; i++ {
			row[i] = rng.NormFloat64() * 0.1
		}
	}
	return rows
}
