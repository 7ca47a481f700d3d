package round

import (
	"fmt"
	"math"
)

// Exchange converts one resource into another through the bank. The payout
// passes through a platinum-equivalent value so rate tables stay small:
// sell rate discounts the offered resource, buy rate prices the wanted one.
// The exchange bonus is multiplicative and clamped so stacked perks can
// never better than double a trade.
func (r *Round) Exchange(d *Dominion, from, to string, amount int) (Outcome, error) {
	var out Outcome
	if d.Locked {
		return out, ErrLocked
	}
	if !knownResource(from) || !knownResource(to) || from == to {
		return out, fmt.Errorf("%w: %s -> %s", ErrUnknownKey, from, to)
	}
	if amount <= 0 {
		return out, ErrBadAmount
	}
	if d.Resources[from] < amount {
		return out, ErrInsufficientResources
	}
	if d.Peasants < r.tune.Exchange.MinPeasants {
		return out, fmt.Errorf("%w: not enough peasants to run the bank", ErrInsufficientResources)
	}

	sell, okSell := r.tune.Exchange.SellRate[from]
	buyFrom, okBuy := r.tune.Exchange.BuyRate[from]
	if !okSell || !okBuy || buyFrom <= 0 {
		return out, fmt.Errorf("%w: %s is not traded", ErrUnknownKey, from)
	}
	buyTo, okTo := r.tune.Exchange.BuyRate[to]
	if !okTo {
		return out, fmt.Errorf("%w: %s is not traded", ErrUnknownKey, to)
	}

	platinum := float64(amount) * sell / buyFrom
	payout := int(math.Floor(platinum * buyTo * r.ExchangeBonus(d)))
	if payout <= 0 {
		return out, ErrBadAmount
	}

	d.Resources[from] -= amount
	d.Resources[to] += payout
	d.addStat("stat_bank_trades", 1)

	out.Success = true
	out.addDelta(from, -amount)
	out.addDelta(to, payout)
	return out, nil
}

// DailyLandBonus grants a once-per-day roll of bonus acres of the race's
// home terrain. The day is
// derived from the tick so the grant window resets on the same cadence for
// every dominion regardless of when they joined.
func (r *Round) DailyLandBonus(d *Dominion, now uint64) (Outcome, error) {
	var out Outcome
	if d.Locked {
		return out, ErrLocked
	}
	day := int(now) / r.tune.TicksPerDay
	if d.LastDailyLandDay == day {
		return out, ErrExhausted
	}

	dl := r.tune.DailyLand
	acres := r.rng.Between(dl.MinAcres, dl.MaxAcres)
	if dl.JackpotOneIn > 0 && r.rng.Intn(dl.JackpotOneIn) == 0 {
		acres = dl.JackpotAcres
	}

	home := r.raceOf(d).HomeLand
	if !knownLand(home) {
		home = LandPlain
	}
	d.Land[home] += acres
	d.LastDailyLandDay = day
	d.addStat("stat_daily_land_claimed", acres)

	out.Success = true
	out.addDelta(landQueuePrefix+home, acres)
	return out, nil
}
