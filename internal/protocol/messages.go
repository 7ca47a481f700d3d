package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	DominionName    string     `json:"dominion_name"`
	Race            string     `json:"race,omitempty"`
	Realm           int        `json:"realm,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	DominionID      string         `json:"dominion_id"`
	ResumeToken     string         `json:"resume_token"`
	RoundParams     RoundParams    `json:"round_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type RoundParams struct {
	RoundID          string `json:"round_id"`
	Tick             uint64 `json:"tick"`
	TicksPerDay      int    `json:"ticks_per_day"`
	RoundLengthTicks int    `json:"round_length_ticks"`
	Seed             int64  `json:"seed"`
}

type CatalogDigests struct {
	SpellsDigest string `json:"spells_digest"`
	RacesDigest  string `json:"races_digest"`
	TuningDigest string `json:"tuning_digest,omitempty"`
}

// ACT (client -> server): a single action against the round.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	DominionID      string `json:"dominion_id"`
	Action          string `json:"action"`

	// cast_spell
	Spell  string `json:"spell,omitempty"`
	Target string `json:"target,omitempty"`

	// exchange
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount int    `json:"amount,omitempty"`

	// guard membership
	Guard string `json:"guard,omitempty"`
}

// Action kinds carried by ActMsg.
const (
	ActCastSpell  = "cast_spell"
	ActExchange   = "exchange"
	ActDailyLand  = "daily_land"
	ActJoinGuard  = "join_guard"
	ActLeaveGuard = "leave_guard"
)

// ACK (server -> client): result of an ACT.
type AckMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	AckFor          string         `json:"ack_for"`
	Accepted        bool           `json:"accepted"`
	Success         bool           `json:"success"`
	Code            string         `json:"code,omitempty"`
	Message         string         `json:"message,omitempty"`
	Tick            uint64         `json:"tick,omitempty"`
	Deltas          map[string]int `json:"deltas,omitempty"`
	Reflected       bool           `json:"reflected,omitempty"`
	Survey          *SurveyPayload `json:"survey,omitempty"`
}

// SURVEY: payload of a successful info operation.
type SurveyPayload struct {
	Target    string         `json:"target"`
	Tick      uint64         `json:"tick"`
	Land      map[string]int `json:"land"`
	Resources map[string]int `json:"resources"`
	Units     map[string]int `json:"units"`
	Accuracy  float64        `json:"accuracy"`
}

// NOTICE (server -> client): asynchronous event delivered to a dominion.
type NoticeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Kind            string `json:"kind"`
	Tick            uint64 `json:"tick"`
	Source          string `json:"source,omitempty"`
	Spell           string `json:"spell,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Notice kinds.
const (
	NoticeHostileSpell   = "received_hostile_spell"
	NoticeFriendlySpell  = "received_friendly_spell"
	NoticeReflectedSpell = "reflected_hostile_spell"
	NoticeRepelledSpell  = "repelled_hostile_spell"
	NoticeInvaded        = "invaded"
	NoticeGuardJoined    = "guard_joined"
	NoticeGuardDropped   = "guard_application_dropped"
	NoticeCogency        = "wizards_retrained"
)
