package round

import (
	"math"

	"ravenhold.gg/internal/sim/catalogs"
)

// Improvement investments contribute to a named modifier with diminishing
// returns: max * points / (points + coef*land + base).
type improvementYield struct {
	Perk string
	Max  float64
	Coef float64
}

var improvementYields = map[string]improvementYield{
	ImpMarkets: {Perk: "exchange_rate", Max: 0.20, Coef: 4},
	ImpKeep:    {Perk: "max_population", Max: 0.15, Coef: 4},
	ImpForges:  {Perk: "offense", Max: 0.20, Coef: 5},
	ImpWalls:   {Perk: "defense", Max: 0.20, Coef: 5},
	ImpTowers:  {Perk: "wizard_power", Max: 0.40, Coef: 5},
	ImpHarbor:  {Perk: "production", Max: 0.20, Coef: 4},
}

const improvementBasePoints = 15000

func (r *Round) raceOf(d *Dominion) catalogs.RaceDef {
	return r.catalogs.Races.ByKey[d.Race]
}

// Modifier composes the multiplier for a named perk from every source a
// dominion carries: race, tech, active spells, and improvements. All
// percentage sources sum before the 1+x composition.
func (r *Round) Modifier(d *Dominion, perk string) float64 {
	m := 1.0
	m += r.raceOf(d).Perk(perk) / 100
	m += d.TechPerks[perk] / 100
	m += r.spellPerkTotal(d, perk) / 100
	m += r.improvementPerk(d, perk)
	return m
}

// spellPerkTotal sums a perk's value over the dominion's active effects,
// in sorted spell order.
func (r *Round) spellPerkTotal(d *Dominion, perk string) float64 {
	if len(d.Effects) == 0 {
		return 0
	}
	spells := sortedEffectKeys(d.Effects)

	total := 0.0
	for _, s := range spells {
		def, ok := r.catalogs.Spells.ByKey[s]
		if !ok {
			continue
		}
		if p, ok := def.Perk(perk); ok {
			total += p.Float(0, 0)
		}
	}
	return total
}

func (r *Round) improvementPerk(d *Dominion, perk string) float64 {
	total := 0.0
	land := float64(d.TotalLand())
	for _, imp := range improvementKeys {
		y, ok := improvementYields[imp]
		if !ok || y.Perk != perk {
			continue
		}
		points := float64(d.Improvements[imp])
		if points <= 0 {
			continue
		}
		total += y.Max * points / (points + y.Coef*land + improvementBasePoints)
	}
	return total
}

// ExchangeBonus is the composite exchange-rate multiplier, clamped at the
// configured cap.
func (r *Round) ExchangeBonus(d *Dominion) float64 {
	b := 1.0
	b += r.raceOf(d).Perk("exchange_bonus") / 100
	b += d.TechPerks["exchange_rate"] / 100
	b += r.spellPerkTotal(d, "exchange_rate") / 100
	b += r.improvementPerk(d, "exchange_rate")
	if cap := r.tune.Exchange.BonusCap; cap > 0 && b > cap {
		b = cap
	}
	return b
}

// SpellDamageModifier scales hostile instant damage by the caster's
// spell_damage sources.
func (r *Round) SpellDamageModifier(d *Dominion) float64 {
	return r.Modifier(d, "spell_damage")
}

// ReflectChance is the probability that a hostile spell bounces back at its
// caster.
func (r *Round) ReflectChance(d *Dominion) float64 {
	p := r.raceOf(d).Perk("chance_to_reflect_spells") / 100
	p += r.spellPerkTotal(d, "chance_to_reflect_spells") / 100
	return clamp01(p)
}

// WizardRatio is wizard power per acre: WPA. Archmages count double; units
// with counts_as_wizard_offense contribute on offense.
func (r *Round) WizardRatio(d *Dominion, offense bool) float64 {
	land := d.TotalLand()
	if land <= 0 {
		return 0
	}
	power := float64(d.Units[UnitWizards]) + 2*float64(d.Units[UnitArchmages])
	if offense {
		race := r.raceOf(d)
		for _, u := range race.Units {
			if perk := u.Perk("counts_as_wizard_offense"); perk > 0 {
				power += float64(d.Units[unitSlotKey(u.Slot)]) * perk
			}
		}
	}
	power *= 1 + r.improvementPerk(d, "wizard_power")
	return power / float64(land)
}

func unitSlotKey(slot int) string {
	switch slot {
	case 1:
		return UnitSlot1
	case 2:
		return UnitSlot2
	case 3:
		return UnitSlot3
	case 4:
		return UnitSlot4
	}
	return ""
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
