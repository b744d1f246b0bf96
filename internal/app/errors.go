package service

import (
	"github.com/okian/watershed/internal/domain/model"
)

// Sentinel errors returned by the service.
var (
	ErrInvalidArgument = model.ErrInvalidArgument
	ErrNotStarted      = model.ErrNotStarted
)
