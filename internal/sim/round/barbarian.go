package round

import (
	"math"

	"ravenhold.gg/internal/sim/catalogs"
)

// Barbarian dominions are engine-driven. Each tick they train toward a
// defense-per-acre target that grows with the round, keep a fixed share of
// that as offense, and occasionally raid a player dominion in range.

func (r *Round) barbarianTick(d *Dominion, now uint64) {
	bt := r.tune.Barbarian
	if bt.ActEveryTicks > 1 && now%uint64(bt.ActEveryTicks) != 0 {
		return
	}
	if d.Locked {
		return
	}

	land := d.TotalLand()
	if land <= 0 {
		return
	}
	race := r.raceOf(d)

	targetDP := (bt.DpaConstant + bt.DpaPerTick*float64(now)) * float64(land)
	targetOP := targetDP * bt.OpaRatio

	haveDP := r.barbarianPower(d, race, false, true)
	haveOP := r.barbarianPower(d, race, true, true)

	r.barbarianTrain(d, race, false, targetDP-haveDP, bt.TrainingTicks)
	r.barbarianTrain(d, race, true, targetOP-haveOP, bt.TrainingTicks)

	if !d.Protected() && r.rng.Intn(1000) < bt.InvasionCapPerMille {
		r.barbarianInvade(d, race, now)
	}
}

// barbarianPower sums offensive or defensive unit power. When pending is
// true, units still in the training and invasion queues count as well, so
// the NPC does not endlessly re-train toward the same target.
func (r *Round) barbarianPower(d *Dominion, race catalogs.RaceDef, offense, pending bool) float64 {
	total := 0.0
	for _, u := range race.Units {
		power := u.Defense
		if offense {
			power = u.Offense
		}
		if power <= 0 {
			continue
		}
		key := unitSlotKey(u.Slot)
		n := d.Units[key]
		if pending {
			n += d.QueueTotalKey(key)
		}
		total += power * float64(n)
	}
	return total
}

// barbarianTrain queues enough of the strongest matching unit to close the
// given power shortfall. Barbarians conjure their troops; no resources are
// spent.
func (r *Round) barbarianTrain(d *Dominion, race catalogs.RaceDef, offense bool, shortfall float64, ticks int) {
	if shortfall <= 0 {
		return
	}
	bestKey := ""
	bestPower := 0.0
	for _, u := range race.Units {
		power := u.Defense
		if offense {
			power = u.Offense
		}
		if power > bestPower {
			bestPower = power
			bestKey = unitSlotKey(u.Slot)
		}
	}
	if bestKey == "" || bestPower <= 0 {
		return
	}
	count := int(math.Ceil(shortfall / bestPower))
	_ = d.QueueUp(SourceTraining, bestKey, count, ticks)
}

// barbarianInvade raids the weakest in-range player dominion whose standing
// defense the barbarian's home offense can beat.
func (r *Round) barbarianInvade(d *Dominion, race catalogs.RaceDef, now uint64) {
	op := r.barbarianPower(d, race, true, false)
	if op <= 0 {
		return
	}

	var victim *Dominion
	victimDP := 0.0
	for _, id := range r.sortedDominionIDs() {
		t := r.dominions[id]
		if t == d || t.NPC || t.Locked || t.Protected() {
			continue
		}
		if !r.InRange(d, t, now) {
			continue
		}
		dp := r.barbarianPower(t, r.raceOf(t), false, false)
		if dp >= op {
			continue
		}
		if victim == nil || dp < victimDP {
			victim = t
			victimDP = dp
		}
	}
	if victim == nil {
		return
	}

	losses := LandLoss(victim.Land, 0.05)
	taken := 0
	for _, k := range landKeys {
		lost := losses[k]
		if lost <= 0 {
			continue
		}
		victim.Land[k] -= lost
		taken += lost
		_ = d.QueueUp(SourceInvasion, landQueuePrefix+k, lost, r.tune.Barbarian.ReturnTicks)
	}
	if taken == 0 {
		return
	}
	victim.recordInvasion(d.ID, now, 4*r.tune.Range.RetaliationTicks)
	d.addStat("stat_land_conquered", taken)
	r.notifyInvaded(victim.ID, d.ID, now)
}
