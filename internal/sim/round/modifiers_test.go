package round

import (
	"math"
	"testing"
)

func TestModifierComposesAllSources(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "sylvan", 1, 0)

	// Race gives production +5; add tech and a spell on top.
	d.TechPerks["production"] = 3
	_ = d.ActivateEffect("gaias_watch", 10, d.ID)

	got := r.Modifier(d, "production")
	want := 1 + 0.05 + 0.03 + 0.10
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("production modifier = %f, want %f", got, want)
	}
}

func TestModifierNegativeSpellPerk(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)

	_ = d.ActivateEffect("insect_swarm", 12, "D99")
	got := r.Modifier(d, "production")
	if math.Abs(got-0.95) > 1e-9 {
		t.Fatalf("production under insect_swarm = %f, want 0.95", got)
	}
}

func TestImprovementDiminishingReturns(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)

	d.Improvements[ImpWalls] = 10000
	small := r.improvementPerk(d, "defense")

	d.Improvements[ImpWalls] = 1000000
	big := r.improvementPerk(d, "defense")

	if small <= 0 || big <= small {
		t.Fatalf("yield should grow: small=%f big=%f", small, big)
	}
	if big >= 0.20 {
		t.Fatalf("yield exceeded its cap: %f", big)
	}
}

func TestExchangeBonusClamped(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)

	d.TechPerks["exchange_rate"] = 500
	if got := r.ExchangeBonus(d); got != r.tune.Exchange.BonusCap {
		t.Fatalf("bonus = %f, want clamp at %f", got, r.tune.Exchange.BonusCap)
	}
}

func TestWizardRatioZeroLand(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "human", 1, 0)
	for _, k := range landKeys {
		d.Land[k] = 0
	}
	d.Units[UnitWizards] = 500

	if got := r.WizardRatio(d, false); got != 0 {
		t.Fatalf("WPA with zero land = %f, want 0", got)
	}
}

func TestWizardRatioOffenseCountsPerkUnits(t *testing.T) {
	r := newTestRound(t, 1)
	d := joinTestDominion(t, r, "sylvan", 1, 0)
	for _, k := range landKeys {
		d.Land[k] = 0
	}
	d.Land[LandPlain] = 100
	d.Units = map[string]int{UnitWizards: 50, UnitArchmages: 10, UnitSlot4: 40}

	def := r.WizardRatio(d, false)
	off := r.WizardRatio(d, true)
	if math.Abs(def-0.70) > 1e-9 {
		t.Fatalf("defensive WPA = %f, want 0.70", def)
	}
	// Sylvan druids count fully on offense.
	if math.Abs(off-1.10) > 1e-9 {
		t.Fatalf("offensive WPA = %f, want 1.10", off)
	}
}
