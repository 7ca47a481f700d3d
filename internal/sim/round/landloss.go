package round

import (
	"math"
	"sort"
)

// LandLoss distributes a fractional land loss across land types. The total
// lost is floored on the whole holding; each type then gives up the ceiling
// of its own share, largest type first, until the total is covered. Small
// types are untouched when the big ones cover the loss.
func LandLoss(land map[string]int, ratio float64) map[string]int {
	if ratio <= 0 {
		return map[string]int{}
	}
	if ratio > 1 {
		ratio = 1
	}

	total := 0
	for _, k := range landKeys {
		total += land[k]
	}
	toLose := int(math.Floor(float64(total) * ratio))
	if toLose <= 0 {
		return map[string]int{}
	}

	type typeAcres struct {
		key   string
		acres int
	}
	types := make([]typeAcres, 0, len(landKeys))
	for _, k := range landKeys {
		if land[k] > 0 {
			types = append(types, typeAcres{key: k, acres: land[k]})
		}
	}
	sort.Slice(types, func(i, j int) bool {
		if types[i].acres != types[j].acres {
			return types[i].acres > types[j].acres
		}
		return types[i].key < types[j].key
	})

	losses := map[string]int{}
	remaining := toLose
	for _, ta := range types {
		if remaining <= 0 {
			break
		}
		lose := int(math.Ceil(float64(ta.acres) * ratio))
		if lose > remaining {
			lose = remaining
		}
		if lose > ta.acres {
			lose = ta.acres
		}
		if lose <= 0 {
			continue
		}
		losses[ta.key] = lose
		remaining -= lose
	}
	return losses
}
