package round

// GuardLevel is a dominion's standing in the royal or elite guard.
type GuardLevel string

const (
	GuardNone  GuardLevel = ""
	GuardRoyal GuardLevel = "royal"
	GuardElite GuardLevel = "elite"
)

type GuardState struct {
	Member             GuardLevel `json:"member,omitempty"`
	Applicant          GuardLevel `json:"applicant,omitempty"`
	ApplicantSinceTick uint64     `json:"applicant_since_tick,omitempty"`
	JoinedTick         uint64     `json:"joined_tick,omitempty"`
}

type InvasionRecord struct {
	AttackerID string `json:"attacker_id"`
	Tick       uint64 `json:"tick"`
}

// Dominion is one actor in the round. All mutation happens on the round
// loop goroutine.
type Dominion struct {
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

	Guard   GuardState
	Queue   []QueueEntry
	Effects map[string]*ActiveEffect

	TechPerks map[string]float64

	RecentInvasions []InvasionRecord

	Stats map[string]int

	CreatedTick uint64
}

func (d *Dominion) initDefaults() {
	if d.Resources == nil {
		d.Resources = map[string]int{}
	}
	if d.Units == nil {
		d.Units = map[string]int{}
	}
	if d.Land == nil {
		d.Land = map[string]int{}
	}
	if d.Improvements == nil {
		d.Improvements = map[string]int{}
	}
	if d.Effects == nil {
		d.Effects = map[string]*ActiveEffect{}
	}
	if d.TechPerks == nil {
		d.TechPerks = map[string]float64{}
	}
	if d.Stats == nil {
		d.Stats = map[string]int{}
	}
	if d.Morale == 0 {
		d.Morale = 100
	}
	if d.WizardStrength == 0 {
		d.WizardStrength = 100
	}
	if d.LastDailyLandDay == 0 {
		d.LastDailyLandDay = -1
	}
}

func (d *Dominion) TotalLand() int {
	total := 0
	for _, k := range landKeys {
		total += d.Land[k]
	}
	return total
}

func (d *Dominion) Protected() bool { return d.ProtectionTicks > 0 }

func (d *Dominion) addStat(key string, v int) {
	if v == 0 {
		return
	}
	d.Stats[key] += v
}

// RecentlyInvadedBy reports whether attackerID hit this dominion within the
// last window ticks. Powers the retaliation range override.
func (d *Dominion) RecentlyInvadedBy(attackerID string, now uint64, window int) bool {
	if window <= 0 {
		return false
	}
	for _, rec := range d.RecentInvasions {
		if rec.AttackerID != attackerID {
			continue
		}
		if now >= rec.Tick && now-rec.Tick <= uint64(window) {
			return true
		}
	}
	return false
}

func (d *Dominion) recordInvasion(attackerID string, now uint64, keepWindow int) {
	d.RecentInvasions = append(d.RecentInvasions, InvasionRecord{AttackerID: attackerID, Tick: now})
	d.pruneInvasions(now, keepWindow)
}

func (d *Dominion) pruneInvasions(now uint64, keepWindow int) {
	if keepWindow <= 0 {
		return
	}
	kept := d.RecentInvasions[:0]
	for _, rec := range d.RecentInvasions {
		if now >= rec.Tick && now-rec.Tick > uint64(keepWindow) {
			continue
		}
		kept = append(kept, rec)
	}
	d.RecentInvasions = kept
}
