package cluster

import (
	"errors"
	"net/http"

	"github.com/zeebo/errs"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/asset"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/oracle"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

var (
	// RequestError classifies malformed or incomplete request bodies.
	RequestError = errs.Class("request")

	// AuthorizationError classifies owner-only operations attempted by
	// someone else.
	AuthorizationError = errs.Class("authorization")
)

var (
	ErrNotOwner            = errors.New("sender is not the cluster owner")
	ErrInactive            = errors.New("cluster is decommissioned")
	ErrBelowMinTokens      = errors.New("minted tokens below min_tokens")
	ErrInsufficientBalance = errors.New("token balance does not cover cost and fee")
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case RequestError.Has(err), fpdec.ParseError.Has(err),
		errors.Is(err, asset.ErrInvalidID), errors.Is(err, asset.ErrInvalidToken),
		errors.Is(err, asset.ErrDuplicate), errors.Is(err, asset.ErrEmpty),
		errors.Is(err, oracle.ErrInvalidPrice),
		errors.Is(err, penalty.ErrInvalidParams), errors.Is(err, penalty.ErrLengthMismatch):
		return http.StatusBadRequest
	case AuthorizationError.Has(err):
		return http.StatusForbidden
	case errors.Is(err, oracle.ErrMissingPrice), errors.Is(err, oracle.ErrStalePrice):
		return http.StatusConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case penalty.DomainError.Has(err), errors.Is(err, store.ErrConflict),
		errors.Is(err, ErrInactive), errors.Is(err, ErrBelowMinTokens),
		errors.Is(err, ErrInsufficientBalance):
		return http.StatusConflict
	case fpdec.ArithmeticError.Has(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorClass names err for metrics and logs.
func errorClass(err error) string {
	switch {
	case RequestError.Has(err):
		return "request"
	case AuthorizationError.Has(err):
		return "authorization"
	case penalty.DomainError.Has(err):
		return "domain"
	case fpdec.ArithmeticError.Has(err):
		return "arithmetic"
	case fpdec.ParseError.Has(err):
		return "parse"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, oracle.ErrMissingPrice), errors.Is(err, oracle.ErrStalePrice):
		return "oracle"
	case errors.Is(err, ErrInactive), errors.Is(err, ErrBelowMinTokens),
		errors.Is(err, ErrInsufficientBalance):
		return "state"
	default:
		return "internal"
	}
}
