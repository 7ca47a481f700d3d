package round

import (
	"math"
	"testing"
)

func spawnTestBarbarian(t *testing.T, r *Round, now uint64) *Dominion {
	t.Helper()
	d := r.newDominion("B1", "Barbarian Horde", "barbarian", 0, now)
	d.NPC = true
	d.ProtectionTicks = 0
	r.dominions[d.ID] = d
	return d
}

func TestBarbarianTrainsTowardTarget(t *testing.T) {
	r := newTestRound(t, 1)
	b := spawnTestBarbarian(t, r, 0)
	r.rng = &stubRand{intn: 999} // no invasion roll this tick

	now := uint64(10)
	r.barbarianTick(b, now)

	bt := r.tune.Barbarian
	land := float64(b.TotalLand())
	targetDP := (bt.DpaConstant + bt.DpaPerTick*float64(now)) * land

	race := r.raceOf(b)
	pendingDP := r.barbarianPower(b, race, false, true)
	if pendingDP < targetDP {
		t.Fatalf("pending DP %f below target %f", pendingDP, targetDP)
	}
	// Training closes the shortfall with the strongest defender, so the
	// overshoot is at most one unit's power.
	if pendingDP >= targetDP+5 {
		t.Fatalf("pending DP %f overshoots target %f", pendingDP, targetDP)
	}

	targetOP := targetDP * bt.OpaRatio
	pendingOP := r.barbarianPower(b, race, true, true)
	if pendingOP < targetOP || pendingOP >= targetOP+5 {
		t.Fatalf("pending OP %f, target %f", pendingOP, targetOP)
	}
}

func TestBarbarianDoesNotRetrainPending(t *testing.T) {
	r := newTestRound(t, 1)
	b := spawnTestBarbarian(t, r, 0)
	r.rng = &stubRand{intn: 999}

	r.barbarianTick(b, 10)
	queued := len(b.Queue)
	r.barbarianTick(b, 10)
	if len(b.Queue) != queued {
		t.Fatalf("re-queued against pending units: %d -> %d", queued, len(b.Queue))
	}
}

func TestBarbarianInvadesWeakerInRangeTarget(t *testing.T) {
	r := newTestRound(t, 1)
	victim := joinTestDominion(t, r, "human", 1, 0)
	victim.ProtectionTicks = 0
	b := spawnTestBarbarian(t, r, 0)
	b.Units[UnitSlot4] = 2000 // plenty of offense

	r.rng = &stubRand{intn: 0} // invasion roll hits
	victimLand := victim.TotalLand()
	r.barbarianTick(b, 10)

	taken := victimLand - victim.TotalLand()
	if taken <= 0 {
		t.Fatal("no land taken")
	}
	if got := b.QueueTotal(SourceInvasion, landQueuePrefix+LandPlain); got == 0 {
		t.Fatal("stolen land not queued for return")
	}
	if !victim.RecentlyInvadedBy(b.ID, 10, r.tune.Range.RetaliationTicks) {
		t.Fatal("invasion not recorded")
	}
	if math.Abs(float64(taken)-math.Floor(float64(victimLand)*0.05)) > 1 {
		t.Fatalf("took %d of %d acres", taken, victimLand)
	}
}

func TestBarbarianSparesProtectedAndStronger(t *testing.T) {
	r := newTestRound(t, 1)
	victim := joinTestDominion(t, r, "human", 1, 0)
	b := spawnTestBarbarian(t, r, 0)
	b.Units[UnitSlot4] = 2000
	r.rng = &stubRand{intn: 0}

	// Protected: untouchable.
	land := victim.TotalLand()
	r.barbarianTick(b, 10)
	if victim.TotalLand() != land {
		t.Fatal("invaded a protected dominion")
	}

	// Stronger defense than the horde's offense: skipped.
	victim.ProtectionTicks = 0
	victim.Units[UnitSlot2] = 100000
	b.Queue = nil
	r.barbarianTick(b, 11)
	if victim.TotalLand() != land {
		t.Fatal("invaded a stronger dominion")
	}
}
