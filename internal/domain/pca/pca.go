// Package pca reduces embedding vectors to a 2-D layout.
//
// The reduction is a two-stage pipeline: Center subtracts column means (no
// variance scaling), then Fit projects every centered row onto the top two
// principal axes. Axis signs are canonicalized so that, per axis, the point
// with the largest absolute coordinate lies on the positive side. Callers
// must still treat signs as arbitrary and compare relative geometry only.
package pca

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/vecvstext/internal/domain"
)

// Point is one projected embedding.
type Point struct {
	ID string
	X  float64
	Y  float64
}

// relTol drops principal axes whose eigenvalue is negligible relative to the
// total variance, so rank-deficient inputs project to exact zeros.
const relTol = 1e-12

// Project centers the vectors and projects them onto two principal axes.
// Output order matches input order. An empty input returns an empty slice.
func Project(vectors []domain.EmbeddingVector) ([]Point, error) {
	if len(vectors) == 0 {
		return []Point{}, nil
	}
	if err := domain.CheckDimensions(vectors); err != nil {
		return nil, err
	}
	if vectors[0].Dim() == 0 {
		return nil, fmt.Errorf("%w: embedding %q has no components", domain.ErrMalformedPayload, vectors[0].ID)
	}

	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = v.Components
	}
	centered, _ := Center(rows)
	scores := Fit(centered)

	points := make([]Point, len(vectors))
	for i, v := range vectors {
		points[i] = Point{ID: v.ID, X: scores[i][0], Y: scores[i][1]}
	}
	return points, nil
}

// Center returns a copy of rows with each column's mean subtracted, along with
// the means. All rows must have the same length.
func Center(rows [][]float64) (centered [][]float64, mean []float64) {
	if len(rows) == 0 {
		return [][]float64{}, nil
	}
	d := len(rows[0])
	mean = make([]float64, d)
	for _, r := range rows {
		for j, x := range r {
			mean[j] += x
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	centered = make([][]float64, len(rows))
	for i, r := range rows {
		c := make([]float64, d)
		for j, x := range r {
			c[j] = x - mean[j]
		}
		centered[i] = c
	}
	return centered, mean
}

// Fit returns the coordinates of each centered row on the first two principal
// axes. Rows beyond the data rank get zero on the missing axes.
//
// The eigenproblem is solved on whichever of X·Xᵀ (n×n) and Xᵀ·X (d×d) is
// smaller. Both share non-zero eigenvalues; on the Gram side the score of
// row i on axis k is sqrt(λk)·u[i][k].
func Fit(centered [][]float64) [][2]float64 {
	n := len(centered)
	scores := make([][2]float64, n)
	if n < 2 {
		return scores
	}
	d := len(centered[0])

	if n <= d {
		gram := gramMatrix(centered)
		values, vectors := symmetricEigen(gram)
		order := descending(values)
		tol := relTol * trace(values)
		for axis := 0; axis < 2 && axis < len(order); axis++ {
			k := order[axis]
			if values[k] <= tol {
				continue
			}
			s := math.Sqrt(values[k])
			for i := 0; i < n; i++ {
				scores[i][axis] = s * vectors[i][k]
			}
		}
	} else {
		cov := scatterMatrix(centered)
		values, vectors := symmetricEigen(cov)
		order := descending(values)
		tol := relTol * trace(values)
		for axis := 0; axis < 2 && axis < len(order); axis++ {
			k := order[axis]
			if values[k] <= tol {
				continue
			}
			for i, row := range centered {
				var dot float64
				for j, x := range row {
					dot += x * vectors[j][k]
				}
				scores[i][axis] = dot
			}
		}
	}

	canonicalizeSigns(scores)
	return scores
}

func gramMatrix(x [][]float64) [][]float64 {
	n := len(x)
	g := newSquare(n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var dot float64
			for k := range x[i] {
				dot += x[i][k] * x[j][k]
			}
			g[i][j] = dot
			g[j][i] = dot
		}
	}
	return g
}

// scatterMatrix is Xᵀ·X. The 1/(n-1) covariance factor does not change the
// eigenvectors and is omitted.
func scatterMatrix(x [][]float64) [][]float64 {
	d := len(x[0])
	c := newSquare(d)
	for _, row := range x {
		for i := 0; i < d; i++ {
			if row[i] == 0 {
				continue
			}
			for j := i; j < d; j++ {
				c[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			c[j][i] = c[i][j]
		}
	}
	return c
}

func canonicalizeSigns(scores [][2]float64) {
	for axis := 0; axis < 2; axis++ {
		best, bestAbs := 0, 0.0
		for i := range scores {
			if a := math.Abs(scores[i][axis]); a > bestAbs {
				best, bestAbs = i, a
			}
		}
		if scores[best][axis] < 0 {
			for i := range scores {
				scores[i][axis] = -scores[i][axis]
			}
		}
	}
}

func descending(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })
	return order
}

func trace(values []float64) float64 {
	var sum float64
	for _, v := range values {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

func newSquare(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}
