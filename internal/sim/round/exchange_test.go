package round

import (
	"errors"
	"testing"
)

func TestExchangePayout(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	d.Resources[ResourceLumber] = 10000
	d.Resources[ResourceFood] = 0

	out, err := r.Exchange(d, ResourceLumber, ResourceFood, 1000)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	// 1000 lumber -> 250 platinum-equivalent -> x4 food, human +5% bonus.
	want := 1050
	if got := d.Resources[ResourceFood]; got != want {
		t.Fatalf("food = %d, want %d", got, want)
	}
	if d.Resources[ResourceLumber] != 9000 {
		t.Fatalf("lumber = %d, want 9000", d.Resources[ResourceLumber])
	}
	if out.Deltas[ResourceFood] != want || out.Deltas[ResourceLumber] != -1000 {
		t.Fatalf("deltas = %v", out.Deltas)
	}
}

func TestExchangeBonusCapAppliesToPayout(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	d.Resources[ResourceLumber] = 10000
	d.Resources[ResourceFood] = 0
	d.TechPerks["exchange_rate"] = 500 // would be x6 uncapped

	_, err := r.Exchange(d, ResourceLumber, ResourceFood, 1000)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	// Capped at x2: floor(250 * 4 * 2).
	if got := d.Resources[ResourceFood]; got != 2000 {
		t.Fatalf("food = %d, want 2000", got)
	}
}

func TestExchangeValidation(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)

	if _, err := r.Exchange(d, ResourceGold, ResourceGold, 100); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("same resource: %v", err)
	}
	if _, err := r.Exchange(d, "mithril", ResourceGold, 100); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("unknown resource: %v", err)
	}
	if _, err := r.Exchange(d, ResourceGold, ResourceFood, 0); !errors.Is(err, ErrBadAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := r.Exchange(d, ResourceGold, ResourceFood, 10*1000*1000); !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("overdraw: %v", err)
	}

	d.Peasants = 10
	if _, err := r.Exchange(d, ResourceGold, ResourceFood, 100); !errors.Is(err, ErrInsufficientResources) {
		t.Fatalf("understaffed bank: %v", err)
	}
}

func TestExchangeUntradedResource(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	d.Resources[ResourceTech] = 1000

	if _, err := r.Exchange(d, ResourceTech, ResourceGold, 100); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("tech should not be traded: %v", err)
	}
}

func TestDailyLandBonusOncePerDay(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	r.rng = &stubRand{intn: 1, between: 5} // no jackpot, min+5 acres

	before := d.Land[LandPlain]
	out, err := r.DailyLandBonus(d, 30)
	if err != nil || !out.Success {
		t.Fatalf("claim: %v %+v", err, out)
	}
	want := r.tune.DailyLand.MinAcres + 5
	if got := d.Land[LandPlain] - before; got != want {
		t.Fatalf("gained %d acres, want %d", got, want)
	}

	if _, err := r.DailyLandBonus(d, 40); !errors.Is(err, ErrExhausted) {
		t.Fatalf("second claim same day: %v", err)
	}
	if _, err := r.DailyLandBonus(d, 30+uint64(r.tune.TicksPerDay)); err != nil {
		t.Fatalf("next day: %v", err)
	}
}

func TestDailyLandJackpot(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	r.rng = &stubRand{intn: 0} // Intn(JackpotOneIn) == 0 hits

	before := d.Land[LandPlain]
	if _, err := r.DailyLandBonus(d, 30); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got := d.Land[LandPlain] - before; got != r.tune.DailyLand.JackpotAcres {
		t.Fatalf("gained %d, want jackpot %d", got, r.tune.DailyLand.JackpotAcres)
	}
}
