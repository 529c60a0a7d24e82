package tracker

import (
	"errors"
	"fmt"

	"github.com/swdee/go-autopark/geom"
	"gonum.org/v1/gonum/mat"
)

// CenterFilter is a constant velocity Kalman filter over a point in the
// image plane.  The state is [x y vx vy] and the measurement is [x y], one
// step per detection cycle.
type CenterFilter struct {
	stdPosition float64
	stdVelocity float64
	stdMeasure  float64
	motionMat   *mat.Dense
	updateMat   *mat.Dense
	mean        *mat.VecDense
	covariance  *mat.Dense
	initiated   bool
}

// NewCenterFilter returns a filter with the given process noise standard
// deviations for position and velocity and the measurement noise standard
// deviation, all in pixels
func NewCenterFilter(stdPosition, stdVelocity, stdMeasure float64) *CenterFilter {

	// motion model x' = x + v*dt with dt of one cycle
	motionMat := mat.NewDense(4, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	// observe position only
	updateMat := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})

	return &CenterFilter{
		stdPosition: stdPosition,
		stdVelocity: stdVelocity,
		stdMeasure:  stdMeasure,
		motionMat:   motionMat,
		updateMat:   updateMat,
	}
}

// Initiate sets the state to the measured point at rest
func (kf *CenterFilter) Initiate(p geom.Point) {

	kf.mean = mat.NewVecDense(4, []float64{p.X, p.Y, 0, 0})

	std := []float64{
		2 * kf.stdMeasure,
		2 * kf.stdMeasure,
		10 * kf.stdVelocity,
		10 * kf.stdVelocity,
	}

	kf.covariance = mat.NewDense(4, 4, nil)

	for i, v := range std {
		kf.covariance.Set(i, i, v*v)
	}

	kf.initiated = true
}

// Reset forgets the state, the next Observe initiates the filter again
func (kf *CenterFilter) Reset() {
	kf.mean = nil
	kf.covariance = nil
	kf.initiated = false
}

// Estimate returns the filtered position
func (kf *CenterFilter) Estimate() (geom.Point, bool) {

	if !kf.initiated {
		return geom.Point{}, false
	}

	return geom.Pt(kf.mean.AtVec(0), kf.mean.AtVec(1)), true
}

// Predict advances the state by one cycle
func (kf *CenterFilter) Predict() {

	if !kf.initiated {
		return
	}

	next := mat.NewVecDense(4, nil)
	next.MulVec(kf.motionMat, kf.mean)
	kf.mean = next

	motionCov := mat.NewDense(4, 4, nil)
	motionCov.Set(0, 0, kf.stdPosition*kf.stdPosition)
	motionCov.Set(1, 1, kf.stdPosition*kf.stdPosition)
	motionCov.Set(2, 2, kf.stdVelocity*kf.stdVelocity)
	motionCov.Set(3, 3, kf.stdVelocity*kf.stdVelocity)

	var cov mat.Dense
	cov.Mul(kf.motionMat, kf.covariance)
	cov.Mul(&cov, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	kf.covariance = &cov
}

// Update corrects the state with a measured point
func (kf *CenterFilter) Update(p geom.Point) error {

	if !kf.initiated {
		return errors.New("filter not initiated")
	}

	// project the state covariance to measurement space
	var tmp mat.Dense
	tmp.Mul(kf.updateMat, kf.covariance)

	var proj mat.Dense
	proj.Mul(&tmp, kf.updateMat.T())

	projectedCov := mat.NewSymDense(2, nil)

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			projectedCov.SetSym(i, j, proj.At(i, j))
		}
	}

	measureVar := kf.stdMeasure * kf.stdMeasure
	projectedCov.SetSym(0, 0, projectedCov.At(0, 0)+measureVar)
	projectedCov.SetSym(1, 1, projectedCov.At(1, 1)+measureVar)

	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// gain K = P H^T S^-1, solved as S K^T = H P^T
	var b mat.Dense
	b.Mul(kf.covariance, kf.updateMat.T())

	var gainT mat.Dense

	if err := chol.SolveTo(&gainT, b.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(2, []float64{
		p.X - kf.mean.AtVec(0),
		p.Y - kf.mean.AtVec(1),
	})

	var correction mat.VecDense
	correction.MulVec(gainT.T(), innovation)
	kf.mean.AddVec(kf.mean, &correction)

	// P = P - K S K^T
	var ks mat.Dense
	ks.Mul(gainT.T(), projectedCov)

	var kskt mat.Dense
	kskt.Mul(&ks, &gainT)

	var cov mat.Dense
	cov.Sub(kf.covariance, &kskt)

	kf.covariance = &cov

	return nil
}

// Observe runs a predict and update cycle for the measured point, initiating
// the filter on the first call, and returns the filtered position
func (kf *CenterFilter) Observe(p geom.Point) (geom.Point, error) {

	if !kf.initiated {
		kf.Initiate(p)
		return p, nil
	}

	kf.Predict()

	if err := kf.Update(p); err != nil {
		return p, err
	}

	est, _ := kf.Estimate()

	return est, nil
}
