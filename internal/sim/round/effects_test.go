package round

import (
	"errors"
	"testing"
)

func TestEffectRefreshDoesNotStack(t *testing.T) {
	d := &Dominion{}
	d.initDefaults()

	if err := d.ActivateEffect("ares_call", 10, "D1"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	for i := 0; i < 4; i++ {
		d.advanceEffects()
	}
	if got := d.EffectRemaining("ares_call"); got != 6 {
		t.Fatalf("remaining = %d, want 6", got)
	}

	if err := d.ActivateEffect("ares_call", 10, "D1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := d.EffectRemaining("ares_call"); got != 10 {
		t.Fatalf("after refresh remaining = %d, want 10", got)
	}
	if len(d.Effects) != 1 {
		t.Fatalf("effect stacked: %d entries", len(d.Effects))
	}
}

func TestEffectAtMaximumRejected(t *testing.T) {
	d := &Dominion{}
	d.initDefaults()

	_ = d.ActivateEffect("gaias_watch", 10, "D1")
	err := d.ActivateEffect("gaias_watch", 10, "D1")
	if !errors.Is(err, ErrAlreadyAtMaximum) {
		t.Fatalf("err = %v, want ErrAlreadyAtMaximum", err)
	}
}

func TestEffectExpiry(t *testing.T) {
	d := &Dominion{}
	d.initDefaults()

	_ = d.ActivateEffect("ares_call", 2, "D1")
	_ = d.ActivateEffect("gaias_watch", 1, "D1")

	expired := d.advanceEffects()
	if len(expired) != 1 || expired[0] != "gaias_watch" {
		t.Fatalf("expired = %v, want [gaias_watch]", expired)
	}
	if d.EffectActive("gaias_watch") {
		t.Fatal("expired effect still active")
	}
	if !d.EffectActive("ares_call") {
		t.Fatal("live effect dropped")
	}

	expired = d.advanceEffects()
	if len(expired) != 1 || expired[0] != "ares_call" {
		t.Fatalf("expired = %v, want [ares_call]", expired)
	}
	if len(d.Effects) != 0 {
		t.Fatalf("ledger not empty: %d", len(d.Effects))
	}
}
