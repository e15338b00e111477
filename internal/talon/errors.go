package talon

import "errors"

var (
	ErrNoUser             = errors.New("no acting user found")
	ErrInsufficientPoints = errors.New("not enough loyalty points")
)
