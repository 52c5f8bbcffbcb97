package pca

import "math"

const (
	maxSweeps  = 100
	offDiagEps = 1e-24
)

// symmetricEigen diagonalizes a symmetric matrix with cyclic Jacobi rotations.
// It returns the eigenvalues and a matrix whose k-th column is the unit
// eigenvector for values[k]. The input is not modified.
func symmetricEigen(m [][]float64) (values []float64, vectors [][]float64) {
	n := len(m)
	a := newSquare(n)
	for i := range m {
		copy(a[i], m[i])
	}
	v := newSquare(n)
	for i := 0; i < n; i++ {
		v[i][i] = 1
	}

	var norm float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			norm += a[i][j] * a[i][j]
		}
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		var off float64
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				off += a[p][q] * a[p][q]
			}
		}
		if off <= offDiagEps*norm || off == 0 {
			break
		}

		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if a[p][q] == 0 {
					continue
				}
				rotate(a, v, p, q)
			}
		}
	}

	values = make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = a[i][i]
	}
	return values, v
}

// rotate applies the Jacobi rotation that zeroes a[p][q], accumulating it
// into v.
func rotate(a, v [][]float64, p, q int) {
	apq := a[p][q]
	theta := (a[q][q] - a[p][p]) / (2 * apq)

	var t float64
	switch {
	case math.Abs(theta) > 1e150:
		t = 1 / (2 * theta)
	case theta >= 0:
		t = 1 / (theta + math.Sqrt(theta*theta+1))
	default:
		t = -1 / (-theta + math.Sqrt(theta*theta+1))
	}
	c := 1 / math.Sqrt(t*t+1)
	s := t * c

	n := len(a)
	for k := 0; k < n; k++ {
		akp, akq := a[k][p], a[k][q]
		a[k][p] = c*akp - s*akq
		a[k][q] = s*akp + c*akq
	}
	for k := 0; k < n; k++ {
		apk, aqk := a[p][k], a[q][k]
		a[p][k] = c*apk - s*aqk
		a[q][k] = s*apk + c*aqk
	}
	for k := 0; k < n; k++ {
		vkp, vkq := v[k][p], v[k][q]
		v[k][p] = c*vkp - s*vkq
		v[k][q] = s*vkp + c*vkq
	}
}
