package asset

import (
	"errors"
	"testing"
)

func TestParse_Native(t *testing.T) {
	a, err := Parse("native:uluna")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != KindNative {
		t.Errorf("expected kind=native, got %s", a.Kind)
	}
	if a.Ref != "uluna" {
		t.Errorf("expected ref=uluna, got %s", a.Ref)
	}
	if !a.IsNative() {
		t.Error("expected native asset")
	}
}

func TestParse_Token(t *testing.T) {
	id := "token:terra1dzhzukyezv0etz22ud940z7adyv7xgcjkahuun"
	a, err := Parse(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != KindToken || a.IsNative() {
		t.Errorf("expected token asset, got %s", a.Kind)
	}
	if a.String() != id {
		t.Errorf("expected %s, got %s", id, a)
	}
}

func TestParse_IBCDenom(t *testing.T) {
	if _, err := Parse("native:ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_InvalidFormat(t *testing.T) {
	tests := []string{
		"",
		"uluna",
		"native:",
		"native:u",
		"cw20:terra1dzhzukyezv0etz22ud940z7adyv7xgcjkahuun",
		"native:uluna extra",
		"NATIVE:uluna",
		"native:-uluna",
	}
	for _, id := range tests {
		_, err := Parse(id)
		if !errors.Is(err, ErrInvalidID) {
			t.Errorf("expected ErrInvalidID for %q, got %v", id, err)
		}
	}
}

func TestParse_InvalidToken(t *testing.T) {
	tests := []string{
		"token:notanaddress",
		"token:TERRA1DZHZUKYEZV0ETZ22UD940Z7ADYV7XGCJKAHUUN",
		"token:terra1b",
	}
	for _, id := range tests {
		_, err := Parse(id)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken for %q, got %v", id, err)
		}
	}
}

func TestParseSet_PreservesOrder(t *testing.T) {
	assets, err := ParseSet([]string{"native:uusd", "native:uluna", " native:ukrw "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := IDs(assets)
	want := []string{"native:uusd", "native:uluna", "native:ukrw"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
}

func TestParseSet_Duplicate(t *testing.T) {
	_, err := ParseSet([]string{"native:uluna", "native:uusd", "native:uluna"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestParseSet_Empty(t *testing.T) {
	if _, err := ParseSet(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}
