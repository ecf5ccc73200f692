package fusion

import "errors"

// Sentinel errors for fusion and forecasting.
var (
	ErrNoEstimates           = errors.New("no wind estimates within the time window")
	ErrPredictionUnsupported = errors.New("wind field prediction is disabled")
	ErrInvalidHorizon        = errors.New("prediction target precedes the field time")
)
