package coeffs

import (
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// ramp returns a row whose value at i is i, so every slice is recognisable.
func ramp() []float64 {
	row := make([]float64, Width)
	for i := range row {
		row[i] = float64(i)
	}
	return row
}

func TestOffsets(t *testing.T) {
	got := []int{IdentityStart, TextureStart, ExpressionStart, AnglesStart, LightingStart, TranslationStart, Width}
	want := []int{0, 80, 160, 224, 227, 254, 257}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSplit(t *testing.T) {
	b, err := Split([][]float64{ramp(), ramp()})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"identity first", b.Identity.At(0, 0), 0},
		{"identity last", b.Identity.At(1, 79), 79},
		{"texture first", b.Texture.At(0, 0), 80},
		{"texture last", b.Texture.At(0, 79), 159},
		{"expression first", b.Expression.At(0, 0), 160},
		{"expression last", b.Expression.At(1, 63), 223},
		{"pitch", b.Angles[0].X, 224},
		{"roll", b.Angles[0].Z, 226},
		{"red sh0", b.Lighting[0][0][0], 227},
		{"green sh0", b.Lighting[0][1][0], 236},
		{"blue sh8", b.Lighting[1][2][8], 253},
		{"tx", b.Translation[0].X, 254},
		{"tz", b.Translation[1].Z, 256},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSplitInvalid(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
	}{
		{"empty", nil},
		{"short", [][]float64{make([]float64, 256)}},
		{"long", [][]float64{make([]float64, 258)}},
		{"second row bad", [][]float64{ramp(), make([]float64, 10)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Split(tc.rows); !errors.Is(err, ErrInvalidShape) {
				t.Errorf("error = %v, want ErrInvalidShape", err)
			}
		})
	}
}

func TestJoinInvertsSplit(t *testing.T) {
	rows := Random(rand.New(rand.NewSource(3)), 3)
	b, err := Split(rows)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	back := Join(b)
	for i := range rows {
		for j := range rows[i] {
			if back[i][j] != rows[i][j] {
				t.Fatalf("row %d value %d = %v, want %v", i, j, back[i][j], rows[i][j])
			}
		}
	}
}

func TestSetAngles(t *testing.T) {
	row := ramp()
	out := SetAngles(row, math3d.V3(0.1, 0.2, 0.3))
	if out[AnglesStart] != 0.1 || out[AnglesStart+2] != 0.3 {
		t.Errorf("angles not replaced: %v", out[AnglesStart:LightingStart])
	}
	if row[AnglesStart] != 224 {
		t.Error("SetAngles modified its input")
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coeffs.yaml")
	rows := Random(rand.New(rand.NewSource(9)), 2)

	if err := SaveFile(path, rows); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(got) != 2 || len(got[1]) != Width {
		t.Fatalf("loaded shape %dx%d", len(got), len(got[0]))
	}
	if got[1][100] != rows[1][100] {
		t.Errorf("value mismatch: %v vs %v", got[1][100], rows[1][100])
	}
}

func TestSaveFileRejectsBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := SaveFile(path, [][]float64{{1, 2, 3}}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("error = %v, want ErrInvalidShape", err)
	}
}
