package round

import "errors"

// Closed key sets. Anything outside these is rejected at the boundary.
const (
	ResourceGold   = "gold"
	ResourceFood   = "food"
	ResourceLumber = "lumber"
	ResourceMana   = "mana"
	ResourceOre    = "ore"
	ResourceGems   = "gems"
	ResourceTech   = "tech"
	ResourceBoats  = "boats"
)

// Canonical iteration order for deterministic digests and payloads.
var resourceKeys = []string{
	ResourceGold, ResourceFood, ResourceLumber, ResourceMana,
	ResourceOre, ResourceGems, ResourceTech, ResourceBoats,
}

const (
	UnitDraftees  = "draftees"
	UnitSlot1     = "unit1"
	UnitSlot2     = "unit2"
	UnitSlot3     = "unit3"
	UnitSlot4     = "unit4"
	UnitSpies     = "spies"
	UnitWizards   = "wizards"
	UnitArchmages = "archmages"
)

var unitKeys = []string{
	UnitDraftees, UnitSlot1, UnitSlot2, UnitSlot3, UnitSlot4,
	UnitSpies, UnitWizards, UnitArchmages,
}

const (
	LandPlain    = "plain"
	LandMountain = "mountain"
	LandSwamp    = "swamp"
	LandForest   = "forest"
	LandHill     = "hill"
	LandWater    = "water"
)

var landKeys = []string{
	LandPlain, LandMountain, LandSwamp, LandForest, LandHill, LandWater,
}

const (
	ImpMarkets = "markets"
	ImpKeep    = "keep"
	ImpForges  = "forges"
	ImpWalls   = "walls"
	ImpTowers  = "towers"
	ImpHarbor  = "harbor"
)

var improvementKeys = []string{
	ImpMarkets, ImpKeep, ImpForges, ImpWalls, ImpTowers, ImpHarbor,
}

func knownResource(key string) bool {
	for _, k := range resourceKeys {
		if k == key {
			return true
		}
	}
	return false
}

func knownLand(key string) bool {
	for _, k := range landKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Deferred queue sources.
const (
	SourceTraining = "training"
	SourceInvasion = "invasion"
)

// Land keys inside the deferred queue are namespaced to keep one key space
// per queue entry.
const landQueuePrefix = "land_"

// Sentinel errors surfaced to the action layer. Each maps to a protocol code.
var (
	ErrLocked                = errors.New("dominion is locked")
	ErrProtected             = errors.New("dominion is under protection")
	ErrMoratorium            = errors.New("hostile actions are closed at this point of the round")
	ErrOutOfRange            = errors.New("target is out of range")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrExhausted             = errors.New("wizard strength too low")
	ErrAlreadyAtMaximum      = errors.New("already at maximum")
	ErrUnknownKey            = errors.New("unknown key")
	ErrInvalidTarget         = errors.New("invalid target")
	ErrGuardDenied           = errors.New("guard membership change not allowed")
	ErrBadAmount             = errors.New("amount must be positive")
)

// QueueEntry is one pending delivery: Amount of Key arriving when
// TicksRemaining reaches zero, tagged with the Source that created it.
type QueueEntry struct {
	Source         string `json:"source"`
	Key            string `json:"key"`
	Amount         int    `json:"amount"`
	TicksRemaining int    `json:"ticks_remaining"`
}

// ActiveEffect is one ledger row: a spell currently affecting a dominion.
type ActiveEffect struct {
	Spell          string `json:"spell"`
	TicksRemaining int    `json:"ticks_remaining"`
	CasterID       string `json:"caster_id"`
}

// Outcome reports the result of a resolved action.
type Outcome struct {
	Success   bool
	Reflected bool
	Message   string
	Deltas    map[string]int
	Survey    *Survey
}

// Survey is the payload of a successful info operation.
type Survey struct {
	Target    string
	Tick      uint64
	Land      map[string]int
	Resources map[string]int
	Units     map[string]int
	Accuracy  float64
}

func (o *Outcome) addDelta(key string, v int) {
	if v == 0 {
		return
	}
	if o.Deltas == nil {
		o.Deltas = map[string]int{}
	}
	o.Deltas[key] += v
}
