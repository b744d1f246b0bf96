package flow

import "errors"

// ErrShape reports a direction slice that does not match the grid shape.
var ErrShape = errors.New("flow: direction count does not match grid shape")
