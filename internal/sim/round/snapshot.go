package round

// ExportedState is a deep copy of everything needed to resume a round. It
// is built on the loop goroutine and handed to the snapshot writer, so it
// must not share maps or slices with live state.
type ExportedState struct {
	RoundID string
	Tick    uint64
	Seed    int64

	// RngState is the splitmix64 counter position, so a resumed round
	// continues the same draw sequence the live round would have.
	RngState uint64

	SpellsDigest string
	RacesDigest  string
	TuningDigest string

	NextDominionNum uint64
	NextRealm       int

	Dominions []ExportedDominion
}

type ExportedDominion struct {
	ID          string
	Name        string
	Race        string
	Realm       int
	ResumeToken string

	Resources    map[string]int
	Units        map[string]int
	Land         map[string]int
	Improvements map[string]int

	Peasants       int
	Morale         int
	Prestige       int
	Experience     int
	WizardStrength int

	ProtectionTicks  int
	Locked           bool
	NPC              bool
	LastDailyLandDay int

	Guard           GuardState
	Queue           []QueueEntry
	Effects         []ActiveEffect
	TechPerks       map[string]float64
	RecentInvasions []InvasionRecord
	Stats           map[string]int

	CreatedTick uint64
}

// Export copies the round state at the given tick.
func (r *Round) Export(nowTick uint64) ExportedState {
	s := ExportedState{
		RoundID:         r.cfg.ID,
		Tick:            nowTick,
		Seed:            r.cfg.Seed,
		SpellsDigest:    r.catalogs.Spells.Digest,
		RacesDigest:     r.catalogs.Races.Digest,
		TuningDigest:    r.tune.Digest(),
		NextDominionNum: r.nextDominionNum.Load(),
		NextRealm:       r.nextRealm,
	}
	if sr, ok := r.rng.(*seqRand); ok {
		s.RngState = sr.state
	}
	for _, id := range r.sortedDominionIDs() {
		s.Dominions = append(s.Dominions, exportDominion(r.dominions[id]))
	}
	return s
}

// Import replaces the round's dominions with the snapshot's. The caller is
// expected to invoke it before Run; it is not safe once the loop is live.
func (r *Round) Import(s ExportedState) {
	r.tick.Store(s.Tick)
	r.nextDominionNum.Store(s.NextDominionNum)
	r.nextRealm = s.NextRealm
	if sr, ok := r.rng.(*seqRand); ok && s.RngState != 0 {
		sr.state = s.RngState
	}
	r.dominions = make(map[string]*Dominion, len(s.Dominions))
	for _, ed := range s.Dominions {
		d := importDominion(ed)
		r.dominions[d.ID] = d
	}
}

func exportDominion(d *Dominion) ExportedDominion {
	ed := ExportedDominion{
		ID:               d.ID,
		Name:             d.Name,
		Race:             d.Race,
		Realm:            d.Realm,
		ResumeToken:      d.ResumeToken,
		Resources:        copyIntMap(d.Resources),
		Units:            copyIntMap(d.Units),
		Land:             copyIntMap(d.Land),
		Improvements:     copyIntMap(d.Improvements),
		Peasants:         d.Peasants,
		Morale:           d.Morale,
		Prestige:         d.Prestige,
		Experience:       d.Experience,
		WizardStrength:   d.WizardStrength,
		ProtectionTicks:  d.ProtectionTicks,
		Locked:           d.Locked,
		NPC:              d.NPC,
		LastDailyLandDay: d.LastDailyLandDay,
		Guard:            d.Guard,
		Queue:            append([]QueueEntry(nil), d.Queue...),
		TechPerks:        copyFloatMap(d.TechPerks),
		RecentInvasions:  append([]InvasionRecord(nil), d.RecentInvasions...),
		Stats:            copyIntMap(d.Stats),
		CreatedTick:      d.CreatedTick,
	}
	for _, spell := range sortedEffectKeys(d.Effects) {
		ed.Effects = append(ed.Effects, *d.Effects[spell])
	}
	return ed
}

func importDominion(ed ExportedDominion) *Dominion {
	d := &Dominion{
		ID:               ed.ID,
		Name:             ed.Name,
		Race:             ed.Race,
		Realm:            ed.Realm,
		ResumeToken:      ed.ResumeToken,
		Resources:        copyIntMap(ed.Resources),
		Units:            copyIntMap(ed.Units),
		Land:             copyIntMap(ed.Land),
		Improvements:     copyIntMap(ed.Improvements),
		Peasants:         ed.Peasants,
		Morale:           ed.Morale,
		Prestige:         ed.Prestige,
		Experience:       ed.Experience,
		WizardStrength:   ed.WizardStrength,
		ProtectionTicks:  ed.ProtectionTicks,
		Locked:           ed.Locked,
		NPC:              ed.NPC,
		LastDailyLandDay: ed.LastDailyLandDay,
		Guard:            ed.Guard,
		Queue:            append([]QueueEntry(nil), ed.Queue...),
		TechPerks:        copyFloatMap(ed.TechPerks),
		RecentInvasions:  append([]InvasionRecord(nil), ed.RecentInvasions...),
		Stats:            copyIntMap(ed.Stats),
		CreatedTick:      ed.CreatedTick,
	}
	d.initDefaults()
	for _, e := range ed.Effects {
		e := e
		d.Effects[e.Spell] = &e
	}
	return d
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
