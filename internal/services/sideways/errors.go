package sideways

import "errors"

// Degenerate-market conditions are distinguishable states, not crashes.
// Both resolve to a not-sideways / NEUTRAL outcome at the pipeline level.
var (
	// ErrInsufficientData means fewer candles than a rolling window needs.
	ErrInsufficientData = errors.New("sideways: insufficient data for window")

	// ErrDegenerateInput means the window is numerically unusable
	// (non-positive mid price, undefined indicator rows).
	ErrDegenerateInput = errors.New("sideways: degenerate window input")
)

// minStopDistance is the floor applied to stop distances before division so
// near-zero stops cannot blow up position sizing.
const minStopDistance = 0.005
