package domain

import "errors"

var errTooFewPoints = errors.New("grid needs at least two points")
