package round

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// stateDigest is a canonical hash of the whole round: same seed plus same
// action stream must yield the same digest on every host. Maps are walked
// in sorted key order and zero entries are skipped so an untouched key and
// a missing key hash identically.
func (r *Round) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteStr(h, r.cfg.ID)
	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, uint64(r.cfg.Seed))

	for _, id := range r.sortedDominionIDs() {
		r.digestDominion(h, &tmp, r.dominions[id])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (r *Round) digestDominion(h hash.Hash, tmp *[8]byte, d *Dominion) {
	digestWriteStr(h, d.ID)
	digestWriteStr(h, d.Race)
	digestWriteI64(h, tmp, int64(d.Realm))
	digestWriteI64(h, tmp, int64(d.Peasants))
	digestWriteI64(h, tmp, int64(d.Morale))
	digestWriteI64(h, tmp, int64(d.Prestige))
	digestWriteI64(h, tmp, int64(d.Experience))
	digestWriteI64(h, tmp, int64(d.WizardStrength))
	digestWriteI64(h, tmp, int64(d.ProtectionTicks))
	digestWriteI64(h, tmp, int64(d.LastDailyLandDay))
	h.Write([]byte{boolByte(d.Locked), boolByte(d.NPC)})

	digestWriteIntMap(h, tmp, d.Resources)
	digestWriteIntMap(h, tmp, d.Units)
	digestWriteIntMap(h, tmp, d.Land)
	digestWriteIntMap(h, tmp, d.Improvements)
	digestWriteFloatMap(h, tmp, d.TechPerks)

	digestWriteStr(h, string(d.Guard.Member))
	digestWriteStr(h, string(d.Guard.Applicant))
	digestWriteU64(h, tmp, d.Guard.ApplicantSinceTick)
	digestWriteU64(h, tmp, d.Guard.JoinedTick)

	digestWriteU64(h, tmp, uint64(len(d.Queue)))
	for _, e := range d.Queue {
		digestWriteStr(h, e.Source)
		digestWriteStr(h, e.Key)
		digestWriteI64(h, tmp, int64(e.Amount))
		digestWriteI64(h, tmp, int64(e.TicksRemaining))
	}

	spells := make([]string, 0, len(d.Effects))
	for k := range d.Effects {
		spells = append(spells, k)
	}
	sort.Strings(spells)
	digestWriteU64(h, tmp, uint64(len(spells)))
	for _, k := range spells {
		e := d.Effects[k]
		digestWriteStr(h, e.Spell)
		digestWriteStr(h, e.CasterID)
		digestWriteI64(h, tmp, int64(e.TicksRemaining))
	}

	digestWriteU64(h, tmp, uint64(len(d.RecentInvasions)))
	for _, inv := range d.RecentInvasions {
		digestWriteStr(h, inv.AttackerID)
		digestWriteU64(h, tmp, inv.Tick)
	}
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteStr(h hash.Hash, s string) {
	var tmp [8]byte
	digestWriteU64(h, &tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func digestWriteIntMap(h hash.Hash, tmp *[8]byte, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteStr(h, k)
		digestWriteI64(h, tmp, int64(m[k]))
	}
}

func digestWriteFloatMap(h hash.Hash, tmp *[8]byte, m map[string]float64) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteStr(h, k)
		// Scaled to centipoints; perk values are percentages.
		digestWriteI64(h, tmp, int64(m[k]*100))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
