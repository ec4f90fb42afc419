package cluster

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/oracle"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request", RequestError.New("user_id is required"), http.StatusBadRequest},
		{"parse", fpdec.ParseError.New("bad"), http.StatusBadRequest},
		{"invalid params", penalty.DomainError.New("x: %w", penalty.ErrInvalidParams), http.StatusBadRequest},
		{"authorization", AuthorizationError.New("x: %w", ErrNotOwner), http.StatusForbidden},
		{"not found", fmt.Errorf("%w: cluster x", store.ErrNotFound), http.StatusNotFound},
		{"missing price", fmt.Errorf("%w: native:uatom", oracle.ErrMissingPrice), http.StatusConflict},
		{"domain", penalty.DomainError.New("x: %w", penalty.ErrImbalanceTooHigh), http.StatusConflict},
		{"inactive", fmt.Errorf("mint: %w", ErrInactive), http.StatusConflict},
		{"arithmetic", fpdec.ArithmeticError.New("x: %w", fpdec.ErrDivideByZero), http.StatusUnprocessableEntity},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClass(t *testing.T) {
	if got := errorClass(penalty.DomainError.New("x: %w", penalty.ErrMaxTokensExceeded)); got != "domain" {
		t.Errorf("expected domain, got %s", got)
	}
	if got := errorClass(fmt.Errorf("%w: 1 < 2", ErrBelowMinTokens)); got != "state" {
		t.Errorf("expected state, got %s", got)
	}
}
