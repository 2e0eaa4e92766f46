package application

import (
	"errors"

	"github.com/b3pay/b3walletd/internal/core/ports"
)

var (
	// ErrSignerFailure wraps any error returned by the signing oracle.
	ErrSignerFailure = errors.New("signing oracle failure")
	// ErrBridgeFailure wraps any error returned by the bridge oracle.
	ErrBridgeFailure = errors.New("bridge oracle failure")
	// ErrChainBackendFailure wraps any error returned by a chain backend.
	ErrChainBackendFailure = errors.New("chain backend failure")
	// ErrChainBackendNotFound is returned when no backend is configured for
	// a chain kind.
	ErrChainBackendNotFound = ports.ErrBackendNotFound
	// ErrInvalidSnapshot ...
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrInvalidArgument is returned when the arguments of a call are
	// malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrServiceUnavailable is returned when a mandatory dependency of a
	// service is not configured.
	ErrServiceUnavailable = errors.New("service is unavailable, try again later")
)
