// Package asset parses and validates the identifiers of a cluster's
// component assets.
package asset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Supported asset kinds.
const (
	KindNative = "native"
	KindToken  = "token"
)

// idRegex matches: {kind}:{denom or contract address}
// Examples: native:uluna, token:terra1dzhzukyezv0etz22ud940z7adyv7xgcjkahuun
var idRegex = regexp.MustCompile(`^(native|token):([A-Za-z0-9][A-Za-z0-9/._-]{1,127})$`)

// tokenAddrRegex matches a bech32-style contract address.
var tokenAddrRegex = regexp.MustCompile(`^[a-z]{1,83}1[02-9ac-hj-np-z]{6,}$`)

var (
	ErrInvalidID    = errors.New("asset: invalid asset identifier")
	ErrInvalidToken = errors.New("asset: invalid token contract address")
	ErrDuplicate    = errors.New("asset: duplicate asset")
	ErrEmpty        = errors.New("asset: no assets given")
)

// Asset is a parsed component asset identifier.
type Asset struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	// Ref is the native denom or the token contract address.
	Ref string `json:"ref"`
}

// IsNative reports whether the asset is a native chain denom.
func (a Asset) IsNative() bool { return a.Kind == KindNative }

func (a Asset) String() string { return a.ID }

// Parse parses and validates an asset identifier.
// Format: native:{denom} or token:{contract address}
func Parse(id string) (Asset, error) {
	matches := idRegex.FindStringSubmatch(id)
	if matches == nil {
		return Asset{}, fmt.Errorf("%w: %q (expected native:{denom} or token:{address})", ErrInvalidID, id)
	}

	kind, ref := matches[1], matches[2]
	if kind == KindToken && !tokenAddrRegex.MatchString(ref) {
		return Asset{}, fmt.Errorf("%w: %s", ErrInvalidToken, ref)
	}

	return Asset{ID: id, Kind: kind, Ref: ref}, nil
}

// ParseSet parses a cluster's asset list. Order is preserved since it
// indexes every inventory, price and weight vector.
func ParseSet(ids []string) ([]Asset, error) {
	if len(ids) == 0 {
		return nil, ErrEmpty
	}
	seen := make(map[string]bool, len(ids))
	out := make([]Asset, 0, len(ids))
	for _, id := range ids {
		a, err := Parse(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, a.ID)
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out, nil
}

// IDs returns the identifiers of assets in order.
func IDs(assets []Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}
