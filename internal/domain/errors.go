package domain

import "errors"

// Client input errors. Handlers translate these to 400 via mapError and the
// messages are part of the public contract, so they must not change.
var (
	ErrMissingSensorData = errors.New("Missing 'sensor_data' key in request body")
	ErrInvalidShape      = errors.New("Each sensor data row must have exactly 4 values: [Voltage, Temperature, DeltaWaterLevel, MotorStatus]")
)

// PredictionError reports a failure after input validation passed: a cell that
// is not a number, a classifier or decoder error, or a panic inside the model.
// It is rendered as a 500 with Err's message.
type PredictionError struct {
	Err error
}

func (e *PredictionError) Error() string { return e.Err.Error() }

func (e *PredictionError) Unwrap() error { return e.Err }

// NewPredictionError wraps err unless it already is a *PredictionError.
func NewPredictionError(err error) error {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return err
	}
	return &PredictionError{Err: err}
}
