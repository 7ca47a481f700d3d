package round

import "ravenhold.gg/internal/protocol"

// rangeModifier is the band floor for a dominion: guard membership narrows
// the band it may act within.
func (r *Round) rangeModifier(d *Dominion) float64 {
	switch d.Guard.Member {
	case GuardElite:
		return r.tune.Range.EliteGuardRatio
	case GuardRoyal:
		return r.tune.Range.RoyalGuardRatio
	}
	return r.tune.Range.MinimumRatio
}

// InRange reports whether self may act against target. The band check is
// symmetric: both sides must sit inside each other's guard-modified band.
// A dominion recently invaded by the target may always retaliate.
func (r *Round) InRange(self, target *Dominion, now uint64) bool {
	if self == nil || target == nil || self == target {
		return false
	}
	if self.RecentlyInvadedBy(target.ID, now, r.tune.Range.RetaliationTicks) {
		return true
	}

	s := float64(self.TotalLand())
	t := float64(target.TotalLand())
	if s <= 0 || t <= 0 {
		return false
	}
	selfMod := r.rangeModifier(self)
	targetMod := r.rangeModifier(target)

	return t >= s*selfMod && t <= s/selfMod &&
		s >= t*targetMod && s <= t/targetMod
}

func (r *Round) guardRatio(level GuardLevel) float64 {
	switch level {
	case GuardElite:
		return r.tune.Range.EliteGuardRatio
	case GuardRoyal:
		return r.tune.Range.RoyalGuardRatio
	}
	return r.tune.Range.MinimumRatio
}

// inBand checks the target against one band floor, ignoring the
// retaliation override.
func (r *Round) inBand(self, target *Dominion, mod float64) bool {
	s := float64(self.TotalLand())
	t := float64(target.TotalLand())
	if s <= 0 || t <= 0 {
		return false
	}
	return t >= s*mod && t <= s/mod
}

// ApplyGuard starts (or restarts) an application to the given guard.
func (r *Round) ApplyGuard(d *Dominion, level GuardLevel, now uint64) error {
	if level != GuardRoyal && level != GuardElite {
		return ErrUnknownKey
	}
	if d.Locked {
		return ErrLocked
	}
	if d.Guard.Member == level {
		return ErrGuardDenied
	}
	d.Guard.Applicant = level
	d.Guard.ApplicantSinceTick = now
	return nil
}

// LeaveGuard withdraws an application or leaves a guard. Members must serve
// a minimum term before leaving.
func (r *Round) LeaveGuard(d *Dominion, now uint64) error {
	if d.Guard.Applicant != GuardNone {
		d.Guard.Applicant = GuardNone
		d.Guard.ApplicantSinceTick = 0
		return nil
	}
	if d.Guard.Member == GuardNone {
		return ErrGuardDenied
	}
	minTerm := uint64(r.tune.Range.GuardTicksBeforeLeave)
	if now < d.Guard.JoinedTick+minTerm {
		return ErrGuardDenied
	}
	d.Guard.Member = GuardNone
	d.Guard.JoinedTick = 0
	return nil
}

// checkGuardApplication restarts a pending application when the dominion
// acts on a target outside the band the guard it applied for would hold
// it to.
func (r *Round) checkGuardApplication(d, target *Dominion, now uint64) {
	if d.Guard.Applicant == GuardNone || target == nil {
		return
	}
	if r.inBand(d, target, r.guardRatio(d.Guard.Applicant)) {
		return
	}
	d.Guard.ApplicantSinceTick = now
	r.sendNotice(d.ID, protocol.NoticeMsg{
		Type:            protocol.TypeNotice,
		ProtocolVersion: protocol.Version,
		Kind:            protocol.NoticeGuardDropped,
		Tick:            now,
	})
}

// advanceGuard matures a pending application once it has aged past the
// join delay. Returns true when membership was granted this tick.
func (r *Round) advanceGuard(d *Dominion, now uint64) bool {
	if d.Guard.Applicant == GuardNone {
		return false
	}
	wait := uint64(r.tune.Range.GuardTicksToJoin)
	if now < d.Guard.ApplicantSinceTick+wait {
		return false
	}
	d.Guard.Member = d.Guard.Applicant
	d.Guard.Applicant = GuardNone
	d.Guard.ApplicantSinceTick = 0
	d.Guard.JoinedTick = now
	return true
}
