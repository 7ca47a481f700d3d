package round

import (
	"fmt"
	"math"

	"ravenhold.gg/internal/protocol"
	"ravenhold.gg/internal/sim/catalogs"
)

// CastSpell resolves one spell action. Self and friendly casts always land;
// hostile casts are contested against the target's wizardry and may be
// reflected back at the caster. The caster is the only dominion whose queue
// this function writes; hostile targets only take attribute damage.
func (r *Round) CastSpell(caster *Dominion, spellKey, targetID string, now uint64) (Outcome, error) {
	var out Outcome

	def, ok := r.catalogs.Spells.ByKey[spellKey]
	if !ok {
		return out, fmt.Errorf("%w: spell %s", ErrUnknownKey, spellKey)
	}
	if caster.Locked {
		return out, ErrLocked
	}
	if caster.WizardStrength < def.StrengthCost {
		return out, ErrExhausted
	}
	manaCost := int(math.Ceil(def.ManaCost * float64(caster.TotalLand())))
	if caster.Resources[ResourceMana] < manaCost {
		return out, ErrInsufficientResources
	}

	target, err := r.resolveTarget(caster, def, targetID, now)
	if err != nil {
		return out, err
	}

	// Prechecks that must fail before any cost is paid.
	if def.Class == catalogs.ClassInfo && r.WizardRatio(caster, true) == 0 {
		return out, fmt.Errorf("%w: info operations need a wizard force", ErrExhausted)
	}
	if def.Scope != catalogs.ScopeHostile && def.Class == catalogs.ClassDuration {
		if target.EffectRemaining(def.Key) >= def.DurationTicks {
			return out, ErrAlreadyAtMaximum
		}
	}
	if p, ok := def.Perk("increase_morale"); ok && p.Key != "" && target.Morale >= 100 {
		return out, fmt.Errorf("%w: morale", ErrAlreadyAtMaximum)
	}

	caster.Resources[ResourceMana] -= manaCost
	caster.WizardStrength -= def.StrengthCost
	caster.addStat("stat_total_mana_cast", manaCost)
	caster.addStat("stat_spell_attempts", 1)
	out.addDelta(ResourceMana, -manaCost)

	if def.Scope == catalogs.ScopeHostile {
		r.checkGuardApplication(caster, target, now)
		return r.resolveHostile(caster, target, def, now, out)
	}

	out.Success = true
	switch def.Class {
	case catalogs.ClassDuration:
		if err := target.ActivateEffect(def.Key, def.DurationTicks, caster.ID); err != nil {
			return out, err
		}
	case catalogs.ClassInstant:
		r.applyBenignPerks(target, def, &out)
	default:
		return out, fmt.Errorf("%w: %s spells cannot be %s", ErrUnknownKey, def.Scope, def.Class)
	}

	if def.Scope == catalogs.ScopeFriendly && target != caster {
		r.sendNotice(target.ID, protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Kind:            protocol.NoticeFriendlySpell,
			Tick:            now,
			Source:          caster.ID,
			Spell:           def.Key,
		})
	}
	caster.addStat("stat_spell_success", 1)
	return out, nil
}

func (r *Round) resolveTarget(caster *Dominion, def catalogs.SpellDef, targetID string, now uint64) (*Dominion, error) {
	switch def.Scope {
	case catalogs.ScopeSelf:
		if targetID != "" && targetID != caster.ID {
			return nil, ErrInvalidTarget
		}
		return caster, nil

	case catalogs.ScopeFriendly:
		target, ok := r.dominions[targetID]
		if !ok || target.Locked {
			return nil, ErrInvalidTarget
		}
		if target.Realm != caster.Realm {
			return nil, ErrInvalidTarget
		}
		return target, nil

	case catalogs.ScopeHostile:
		target, ok := r.dominions[targetID]
		if !ok || target.Locked || target == caster {
			return nil, ErrInvalidTarget
		}
		if target.Realm == caster.Realm {
			return nil, ErrInvalidTarget
		}
		if caster.Protected() || target.Protected() {
			return nil, ErrProtected
		}
		if def.Class != catalogs.ClassInvasion {
			if now < uint64(r.tune.Contest.MoratoriumTicks) {
				return nil, ErrMoratorium
			}
			if cutoff := r.tune.RoundLengthTicks - r.tune.Contest.CutoffTicksBeforeEnd; cutoff > 0 && now >= uint64(cutoff) {
				return nil, ErrMoratorium
			}
			if !r.InRange(caster, target, now) {
				return nil, ErrOutOfRange
			}
		}
		return target, nil
	}
	return nil, fmt.Errorf("%w: scope %s", ErrUnknownKey, def.Scope)
}

// contestChance is the success probability of a hostile roll at the given
// power ratio. Ratios are capped before division so a wizardry monster
// cannot push the curve past its ceiling.
func contestChance(selfPower, targetPower, multiplier, cap float64) float64 {
	if cap > 0 {
		selfPower = math.Min(selfPower, cap)
		targetPower = math.Min(targetPower, cap)
	}
	if targetPower <= 0 {
		return 1
	}
	ratio := selfPower / targetPower
	curved := math.Pow(ratio, 1.2)
	return clamp01(multiplier * curved / (curved + 1))
}

func (r *Round) resolveHostile(caster, target *Dominion, def catalogs.SpellDef, now uint64, out Outcome) (Outcome, error) {
	selfWpa := r.WizardRatio(caster, true)
	targetWpa := r.WizardRatio(target, false)

	multiplier := r.tune.Contest.HostileMultiplier
	if def.Class == catalogs.ClassInfo {
		multiplier = r.tune.Contest.InfoMultiplier
	}

	success := targetWpa == 0 || r.rng.Chance(contestChance(selfWpa, targetWpa, multiplier, r.tune.Contest.PowerRatioCap))
	if !success {
		r.failureCasualties(caster, target, selfWpa, targetWpa, now, &out)
		r.sendNotice(target.ID, protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Kind:            protocol.NoticeRepelledSpell,
			Tick:            now,
			Source:          caster.ID,
			Spell:           def.Key,
		})
		out.Success = false
		out.Message = "the spell was repelled"
		return out, nil
	}

	// The resolved pair: on reflection the caster eats its own spell and
	// the intended target is credited with the bounce. Invasion-class and
	// info-class spells never reflect.
	src, dst := caster, target
	if def.Class == catalogs.ClassInstant || def.Class == catalogs.ClassDuration {
		if r.rng.Chance(r.ReflectChance(target)) {
			src, dst = target, caster
			out.Reflected = true
			target.addStat("stat_spells_reflected", 1)
		}
	}

	switch def.Class {
	case catalogs.ClassInfo:
		out.Survey = r.buildSurvey(caster, target, selfWpa, targetWpa, now)
	case catalogs.ClassDuration:
		// A hostile refresh at full duration still counts as a landed cast.
		if err := dst.ActivateEffect(def.Key, def.DurationTicks, src.ID); err != nil && err != ErrAlreadyAtMaximum {
			return out, err
		}
	case catalogs.ClassInstant, catalogs.ClassInvasion:
		r.applyHostilePerks(src, dst, def, now, &out)
	}

	out.Success = true
	caster.addStat("stat_spell_success", 1)
	if landRatio := safeRatio(float64(target.TotalLand()), float64(caster.TotalLand())); !out.Reflected {
		caster.Experience += int(math.Round(r.tune.Contest.ExperienceBase * landRatio))
	}

	if out.Reflected {
		r.sendNotice(target.ID, protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Kind:            protocol.NoticeReflectedSpell,
			Tick:            now,
			Source:          caster.ID,
			Spell:           def.Key,
		})
	} else if def.Class != catalogs.ClassInfo {
		r.sendNotice(target.ID, protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Kind:            protocol.NoticeHostileSpell,
			Tick:            now,
			Source:          r.discloseSource(caster, target),
			Spell:           def.Key,
		})
	}
	return out, nil
}

func (r *Round) notifyInvaded(victimID, attackerID string, now uint64) {
	r.sendNotice(victimID, protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		Kind:            protocol.NoticeInvaded,
		Tick:            now,
		Source:          attackerID,
	})
}

// discloseSource names the caster only when the victim has reveal_ops up.
func (r *Round) discloseSource(caster, target *Dominion) string {
	if r.spellPerkTotal(target, "reveal_ops") > 0 {
		return caster.ID
	}
	return ""
}

func safeRatio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// failureCasualties kills a share of the caster's wizardry when a hostile
// roll fails. The share scales with how outmatched the caster was, clamped
// to a narrow band; with cogency up the losses retrain instead of dying.
func (r *Round) failureCasualties(caster, target *Dominion, selfWpa, targetWpa float64, now uint64, out *Outcome) {
	c := r.tune.Contest
	pct := c.FailureCasualtyMaxPct
	if selfWpa > 0 {
		pct = c.FailureCasualtyBasePct * targetWpa / selfWpa
	}
	pct = math.Max(c.FailureCasualtyMinPct, math.Min(c.FailureCasualtyMaxPct, pct))

	race := r.raceOf(caster)
	lost := 0
	if race.Perk("immortal_wizards") == 0 {
		lost = int(math.Floor(float64(caster.Units[UnitWizards]) * pct / 100))
		if lost > 0 {
			caster.Units[UnitWizards] -= lost
			out.addDelta(UnitWizards, -lost)
		}
		amLost := int(math.Floor(float64(caster.Units[UnitArchmages]) * pct / 100))
		if amLost > 0 {
			caster.Units[UnitArchmages] -= amLost
			out.addDelta(UnitArchmages, -amLost)
			lost += amLost
		}
	}
	for _, u := range race.Units {
		perk := u.Perk("counts_as_wizard_offense")
		if perk <= 0 || u.Perk("immortal_wizard") > 0 {
			continue
		}
		key := unitSlotKey(u.Slot)
		uLost := int(math.Floor(float64(caster.Units[key]) * (perk / 2) * pct / 100))
		if uLost > 0 {
			caster.Units[key] -= uLost
			out.addDelta(key, -uLost)
			lost += uLost
		}
	}

	if lost > 0 {
		caster.addStat("stat_total_wizards_lost", lost)
		if caster.EffectActive("cogency") {
			ticks := c.CogencyTrainingTicks
			if def, ok := r.catalogs.Spells.ByKey["cogency"]; ok {
				if p, ok := def.Perk("cogency"); ok {
					ticks = int(p.Float(0, float64(ticks)))
				}
			}
			// Everything lost retrains as plain wizards.
			_ = caster.QueueUp(SourceTraining, UnitWizards, lost, ticks)
			r.sendNotice(caster.ID, protocol.NoticeMsg{
				Type:            protocol.TypeNotice,
				ProtocolVersion: protocol.Version,
				Kind:            protocol.NoticeCogency,
				Tick:            now,
				Source:          target.ID,
			})
		}
	}
}

func (r *Round) buildSurvey(caster, target *Dominion, selfWpa, targetWpa float64, now uint64) *Survey {
	accuracy := 0.85 + 0.15*clamp01(safeRatio(selfWpa, math.Max(targetWpa, 0.1)))
	if r.spellPerkTotal(target, "fog_of_war") > 0 {
		accuracy *= 0.5
	}

	blur := func(v int) int {
		if v <= 0 {
			return 0
		}
		spread := 1 - accuracy
		f := 1 + (r.rng.Float64()*2-1)*spread
		return int(math.Round(float64(v) * f))
	}

	s := &Survey{
		Target:    target.ID,
		Tick:      now,
		Land:      map[string]int{},
		Resources: map[string]int{},
		Units:     map[string]int{},
		Accuracy:  accuracy,
	}
	for _, k := range landKeys {
		s.Land[k] = blur(target.Land[k])
	}
	for _, k := range resourceKeys {
		s.Resources[k] = blur(target.Resources[k])
	}
	for _, k := range unitKeys {
		s.Units[k] = blur(target.Units[k])
	}
	return s
}

// applyBenignPerks handles instant self and friendly effects.
func (r *Round) applyBenignPerks(target *Dominion, def catalogs.SpellDef, out *Outcome) {
	for _, p := range def.Perks {
		switch p.Key {
		case "increase_morale":
			amount := int(p.Float(0, 0))
			before := target.Morale
			target.Morale = min(100, target.Morale+amount)
			out.addDelta("morale", target.Morale-before)

		case "resource_conversion":
			from, to := p.Str(0), p.Str(1)
			ratioPct := p.Float(2, 0)
			rate := p.Float(3, 1)
			if !knownResource(from) || !knownResource(to) || ratioPct <= 0 {
				continue
			}
			spend := int(math.Ceil(float64(target.Resources[from]) * ratioPct / 100))
			if spend <= 0 {
				continue
			}
			gain := int(math.Floor(float64(spend) * rate))
			target.Resources[from] -= spend
			target.Resources[to] += gain
			out.addDelta(from, -spend)
			out.addDelta(to, gain)

		case "summon_units_from_land":
			slot := int(p.Float(0, 0))
			maxPerAcre := int(p.Float(1, 0))
			land := p.Str(2)
			key := unitSlotKey(slot)
			if key == "" || maxPerAcre <= 0 || !knownLand(land) {
				continue
			}
			acres := target.Land[land]
			if acres <= 0 {
				continue
			}
			summoned := 0
			for i := 0; i < acres; i++ {
				summoned += r.rng.Between(1, maxPerAcre)
			}
			target.Units[key] += summoned
			out.addDelta(key, summoned)
		}
	}
}

// applyHostilePerks deals instant damage from src's cast onto dst.
func (r *Round) applyHostilePerks(src, dst *Dominion, def catalogs.SpellDef, now uint64, out *Outcome) {
	mult := r.SpellDamageModifier(src)

	damage := func(attr int, basePct float64) int {
		if attr <= 0 || basePct <= 0 {
			return 0
		}
		d := int(math.Round(float64(attr) * basePct / 100 * mult))
		if d > attr {
			d = attr
		}
		if d < 0 {
			d = 0
		}
		return d
	}

	for _, p := range def.Perks {
		switch p.Key {
		case "kills_peasants":
			d := damage(dst.Peasants, p.Float(0, 0))
			dst.Peasants -= d
			out.addDelta("peasants", -d)

		case "kills_draftees":
			d := damage(dst.Units[UnitDraftees], p.Float(0, 0))
			dst.Units[UnitDraftees] -= d
			out.addDelta(UnitDraftees, -d)

		case "disband_spies":
			d := damage(dst.Units[UnitSpies], p.Float(0, 0))
			dst.Units[UnitSpies] -= d
			out.addDelta(UnitSpies, -d)

		case "decrease_morale":
			d := damage(dst.Morale, p.Float(0, 0))
			dst.Morale -= d
			out.addDelta("morale", -d)

		case "destroys_resource":
			res := p.Str(0)
			if !knownResource(res) {
				continue
			}
			d := damage(dst.Resources[res], p.Float(1, 0))
			dst.Resources[res] -= d
			out.addDelta(res, -d)

		case "improvements_damage":
			total := 0
			for _, k := range improvementKeys {
				total += dst.Improvements[k]
			}
			d := damage(total, p.Float(0, 0))
			if d <= 0 || total <= 0 {
				continue
			}
			// Spread proportionally; remainder comes off the largest pool.
			spent := 0
			largest := ""
			for _, k := range improvementKeys {
				if largest == "" || dst.Improvements[k] > dst.Improvements[largest] {
					largest = k
				}
				share := int(math.Floor(float64(d) * float64(dst.Improvements[k]) / float64(total)))
				dst.Improvements[k] -= share
				spent += share
			}
			if rest := d - spent; rest > 0 && largest != "" {
				take := min(rest, dst.Improvements[largest])
				dst.Improvements[largest] -= take
			}
			out.addDelta("improvements", -d)

		case "steals_land":
			ratio := p.Float(0, 0) / 100 * mult
			losses := LandLoss(dst.Land, ratio)
			totalTaken := 0
			for _, k := range landKeys {
				lost := losses[k]
				if lost <= 0 {
					continue
				}
				dst.Land[k] -= lost
				totalTaken += lost
				_ = src.QueueUp(SourceInvasion, landQueuePrefix+k, lost, r.tune.Contest.InvasionReturnTicks)
				out.addDelta(landQueuePrefix+k, lost)
			}
			if totalTaken > 0 {
				dst.recordInvasion(src.ID, now, 4*r.tune.Range.RetaliationTicks)
				src.addStat("stat_land_conquered", totalTaken)
				src.Prestige += 10 + totalTaken/10
				r.notifyInvaded(dst.ID, src.ID, now)
			}
		}
	}
}
