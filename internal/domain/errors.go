package domain

import "errors"

var ErrInvalidSnapshot = errors.New("cart snapshot violates invariants")
