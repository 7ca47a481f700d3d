package round

import "sort"

// ActivateEffect applies a duration spell to the dominion. Re-applying an
// active effect refreshes its remaining ticks instead of stacking; if the
// effect is already at full duration the refresh is rejected.
func (d *Dominion) ActivateEffect(spell string, duration int, casterID string) error {
	if duration <= 0 {
		return ErrBadAmount
	}
	if e, ok := d.Effects[spell]; ok {
		if e.TicksRemaining >= duration {
			return ErrAlreadyAtMaximum
		}
		e.TicksRemaining = duration
		e.CasterID = casterID
		return nil
	}
	d.Effects[spell] = &ActiveEffect{
		Spell:          spell,
		TicksRemaining: duration,
		CasterID:       casterID,
	}
	return nil
}

func (d *Dominion) EffectActive(spell string) bool {
	e, ok := d.Effects[spell]
	return ok && e.TicksRemaining > 0
}

func (d *Dominion) EffectRemaining(spell string) int {
	if e, ok := d.Effects[spell]; ok {
		return e.TicksRemaining
	}
	return 0
}

func sortedEffectKeys(effects map[string]*ActiveEffect) []string {
	keys := make([]string, 0, len(effects))
	for k := range effects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// advanceEffects decrements every effect and drops the expired ones,
// returning their spell keys.
func (d *Dominion) advanceEffects() []string {
	var expired []string
	for spell, e := range d.Effects {
		e.TicksRemaining--
		if e.TicksRemaining <= 0 {
			expired = append(expired, spell)
		}
	}
	sort.Strings(expired)
	for _, spell := range expired {
		delete(d.Effects, spell)
	}
	return expired
}
