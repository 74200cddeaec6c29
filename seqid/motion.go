package seqid

import (
	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// motionModel smooths a track's center with 2D Kalman filter so that position of a lost track
// can be extrapolated frame by frame.
type motionModel struct {
	tracker   *kalman_filter.Kalman2D
	predicted Point
}

func newMotionModel(center Point) *motionModel {
	/* Kalman filter props */
	dt := 1.0
	// No control input: constant velocity model
	ux := 0.0
	uy := 0.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(center.X, center.Y))
	return &motionModel{
		tracker:   kf,
		predicted: center,
	}
}

// predict executes Kalman filter's first step only. Called once per frame in which track was not observed
func (model *motionModel) predict() {
	model.tracker.Predict()
	stateX, stateY := model.tracker.GetState()
	model.predicted = Point{X: stateX, Y: stateY}
}

// observe advances the filter by one frame and corrects it with measured center
func (model *motionModel) observe(center Point) error {
	model.tracker.Predict()
	err := model.tracker.Update(center.X, center.Y)
	if err != nil {
		return errors.Wrap(err, "Can't update motion model")
	}
	stateX, stateY := model.tracker.GetState()
	model.predicted = Point{X: stateX, Y: stateY}
	return nil
}

// position returns current (possibly extrapolated) state
func (model *motionModel) position() Point {
	return model.predicted
}
