package pca

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/kailas-cloud/vecvstext/internal/domain"
)

const tol = 1e-9

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func byID(points []Point) map[string]Point {
	m := make(map[string]Point, len(points))
	for _, p := range points {
		m[p.ID] = p
	}
	return m
}

// planar embeds 2-D coordinates into d dimensions on an orthonormal basis
// shifted by a constant offset.
func planar(d int, coords [][2]float64) []domain.EmbeddingVector {
	e1 := make([]float64, d)
	e2 := make([]float64, d)
	e1[0], e1[1] = 1/math.Sqrt2, 1/math.Sqrt2
	e2[2] = 1
	out := make([]domain.EmbeddingVector, len(coords))
	for i, c := range coords {
		comp := make([]float64, d)
		for j := range comp {
			comp[j] = float64(j%3) - 1.5 + c[0]*e1[j] + c[1]*e2[j]
		}
		out[i] = domain.EmbeddingVector{ID: string(rune('a' + i)), Components: comp}
	}
	return out
}

func TestProject_Empty(t *testing.T) {
	points, err := Project(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", points)
	}
}

func TestProject_SinglePointAtOrigin(t *testing.T) {
	points, err := Project([]domain.EmbeddingVector{{ID: "only", Components: []float64{3, 4, 5}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 1 || points[0].ID != "only" || points[0].X != 0 || points[0].Y != 0 {
		t.Errorf("expected single point at origin, got %+v", points)
	}
}

func TestProject_PreservesPlanarDistances(t *testing.T) {
	coords := [][2]float64{{0, 0}, {3, 0}, {0, 4}, {-2, -1}, {5, 2}, {1, -3}}

	tests := []struct {
		name string
		d    int
		n    int
	}{
		{"gram path n<=d", 12, 4},
		{"covariance path n>d", 3, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := coords[:tc.n]
			points, err := Project(planar(tc.d, in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(points) != tc.n {
				t.Fatalf("expected %d points, got %d", tc.n, len(points))
			}
			for i := 0; i < tc.n; i++ {
				for j := i + 1; j < tc.n; j++ {
					want := math.Hypot(in[i][0]-in[j][0], in[i][1]-in[j][1])
					if got := dist(points[i], points[j]); math.Abs(got-want) > tol {
						t.Errorf("dist(%d,%d) = %v, want %v", i, j, got, want)
					}
				}
			}
		})
	}
}

func TestProject_OrderMatchesInput(t *testing.T) {
	vectors := planar(5, [][2]float64{{1, 2}, {3, 1}, {0, 0}, {7, 7}})
	points, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vectors {
		if points[i].ID != vectors[i].ID {
			t.Errorf("position %d: id %q, want %q", i, points[i].ID, vectors[i].ID)
		}
	}
}

func TestProject_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n, d = 9, 16
	vectors := make([]domain.EmbeddingVector, n)
	for i := range vectors {
		comp := make([]float64, d)
		for j := range comp {
			// decaying per-column scale keeps the top eigenvalues well separated
			comp[j] = rng.NormFloat64() * math.Pow(0.6, float64(j))
		}
		vectors[i] = domain.EmbeddingVector{ID: string(rune('A' + i)), Components: comp}
	}

	base, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	perm := rng.Perm(n)
	shuffled := make([]domain.EmbeddingVector, n)
	for i, p := range perm {
		shuffled[i] = vectors[p]
	}
	got, err := Project(shuffled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range perm {
		if got[i].ID != vectors[p].ID {
			t.Fatalf("output %d: id %q, want %q", i, got[i].ID, vectors[p].ID)
		}
	}

	a, b := byID(base), byID(got)
	for i := range vectors {
		for j := i + 1; j < n; j++ {
			idI, idJ := vectors[i].ID, vectors[j].ID
			if diff := math.Abs(dist(a[idI], a[idJ]) - dist(b[idI], b[idJ])); diff > 1e-6 {
				t.Errorf("distance %s-%s changed by %v after permutation", idI, idJ, diff)
			}
		}
	}

	again, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range base {
		for j := i + 1; j < n; j++ {
			if diff := math.Abs(dist(base[i], base[j]) - dist(again[i], again[j])); diff > tol {
				t.Errorf("repeated run changed distance %d-%d by %v", i, j, diff)
			}
		}
	}
}

func TestProject_FirstAxisCarriesMostVariance(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		{ID: "a", Components: []float64{10, 1, 0}},
		{ID: "b", Components: []float64{-10, -1, 0.5}},
		{ID: "c", Components: []float64{4, -2, 0}},
		{ID: "d", Components: []float64{-4, 2, -0.5}},
	}
	points, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var vx, vy float64
	for _, p := range points {
		vx += p.X * p.X
		vy += p.Y * p.Y
	}
	if vx < vy {
		t.Errorf("x variance %v should not be below y variance %v", vx, vy)
	}
}

func TestProject_RankOneHasZeroSecondAxis(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		{ID: "a", Components: []float64{1, 2, 3, 4}},
		{ID: "b", Components: []float64{2, 4, 6, 8}},
		{ID: "c", Components: []float64{4, 8, 12, 16}},
	}
	points, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if math.Abs(p.Y) > tol {
			t.Errorf("point %s: expected y=0, got %v", p.ID, p.Y)
		}
	}
	// |a-c| = 3 * |(1,2,3,4)| = 3*sqrt(30)
	if got, want := math.Abs(points[0].X-points[2].X), 3*math.Sqrt(30); math.Abs(got-want) > tol {
		t.Errorf("x spread = %v, want %v", got, want)
	}
}

func TestProject_IdenticalVectors(t *testing.T) {
	vectors := []domain.EmbeddingVector{
		{ID: "a", Components: []float64{1, 1}},
		{ID: "b", Components: []float64{1, 1}},
		{ID: "c", Components: []float64{1, 1}},
	}
	points, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range points {
		if p.X != 0 || p.Y != 0 {
			t.Errorf("point %s: expected origin, got (%v, %v)", p.ID, p.X, p.Y)
		}
	}
}

func TestProject_DimensionMismatch(t *testing.T) {
	_, err := Project([]domain.EmbeddingVector{
		{ID: "a", Components: []float64{1, 2, 3}},
		{ID: "b", Components: []float64{1, 2}},
	})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestProject_ZeroDimensional(t *testing.T) {
	_, err := Project([]domain.EmbeddingVector{{ID: "a"}, {ID: "b"}})
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestProject_SignIsCanonical(t *testing.T) {
	vectors := planar(4, [][2]float64{{0, 0}, {-9, 1}, {2, 0}, {1, -1}})
	points, err := Project(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	maxX := points[0]
	for _, p := range points {
		if math.Abs(p.X) > math.Abs(maxX.X) {
			maxX = p
		}
	}
	if maxX.X < 0 {
		t.Errorf("largest |x| should be positive, got %v", maxX.X)
	}
}

func TestCenter(t *testing.T) {
	centered, mean := Center([][]float64{{1, 10}, {3, 30}, {5, 50}})
	if mean[0] != 3 || mean[1] != 30 {
		t.Fatalf("unexpected mean: %v", mean)
	}
	want := [][]float64{{-2, -20}, {0, 0}, {2, 20}}
	for i := range want {
		for j := range want[i] {
			if centered[i][j] != want[i][j] {
				t.Errorf("centered[%d][%d] = %v, want %v", i, j, centered[i][j], want[i][j])
			}
		}
	}
}

func TestSymmetricEigen(t *testing.T) {
	values, vectors := symmetricEigen([][]float64{{2, 1}, {1, 2}})
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if math.Abs(sorted[0]-1) > tol || math.Abs(sorted[1]-3) > tol {
		t.Fatalf("eigenvalues = %v, want [1 3]", values)
	}
	for k := 0; k < 2; k++ {
		// A·v = λ·v
		v0, v1 := vectors[0][k], vectors[1][k]
		if math.Abs(2*v0+v1-values[k]*v0) > tol || math.Abs(v0+2*v1-values[k]*v1) > tol {
			t.Errorf("column %d is not an eigenvector", k)
		}
		if math.Abs(math.Hypot(v0, v1)-1) > tol {
			t.Errorf("column %d is not unit length", k)
		}
	}
}
