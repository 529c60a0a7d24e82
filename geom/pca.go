package geom

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PrincipalAxis returns the unit eigenvector belonging to the larger
// eigenvalue of the covariance of the polygon vertices.  The sign of the
// returned vector is arbitrary.  False is returned when fewer than two
// vertices are given or the decomposition fails.
func PrincipalAxis(pts []Point) (Point, bool) {

	n := len(pts)

	if n < 2 {
		return Point{}, false
	}

	data := make([]float64, 0, n*2)

	for _, p := range pts {
		data = append(data, p.X, p.Y)
	}

	// CovarianceMatrix centers each column on its mean
	obs := mat.NewDense(n, 2, data)
	cov := mat.NewSymDense(2, nil)
	stat.CovarianceMatrix(cov, obs, nil)

	var eig mat.EigenSym

	if ok := eig.Factorize(cov, true); !ok {
		return Point{}, false
	}

	// eigenvalues are returned in ascending order
	vals := eig.Values(nil)
	major := 0

	for i := range vals {
		if vals[i] > vals[major] {
			major = i
		}
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	axis := Point{X: vecs.At(0, major), Y: vecs.At(1, major)}
	l := axis.Len()

	if l == 0 {
		return Point{}, false
	}

	return axis.Scale(1 / l), true
}
