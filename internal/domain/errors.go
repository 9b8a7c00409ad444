package domain

import "errors"

var (
	// ErrMalformedFlight marks a flight that cannot be regularized: fewer than
	// two ascending samples, or series of mismatched length. The batch keeps
	// going with an all-missing profile for that launch.
	ErrMalformedFlight = errors.New("malformed flight")

	// ErrConfiguration marks settings that make any run meaningless.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrDuplicateLaunch is returned when a corpus already holds a launch time.
	ErrDuplicateLaunch = errors.New("duplicate launch")
)
