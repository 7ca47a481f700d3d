package round

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"ravenhold.gg/internal/protocol"
	"ravenhold.gg/internal/sim/catalogs"
	"ravenhold.gg/internal/sim/tuning"
)

type Config struct {
	ID   string
	Seed int64
}

type JoinRequest struct {
	Name  string
	Race  string
	Realm int
	Out   chan []byte
	Resp  chan JoinResponse
}

type AttachRequest struct {
	ResumeToken string
	Out         chan []byte
	Resp        chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	DominionID string
	Act        protocol.ActMsg
}

type RecordedJoin struct {
	DominionID string `json:"dominion_id"`
	Name       string `json:"name"`
	Race       string `json:"race"`
	Realm      int    `json:"realm"`
}

type RecordedAction struct {
	DominionID string          `json:"dominion_id"`
	Act        protocol.ActMsg `json:"act"`
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64         `json:"tick"`
	Actor  string         `json:"actor"`
	Action string         `json:"action"`
	Target string         `json:"target,omitempty"`
	Deltas map[string]int `json:"deltas,omitempty"`
	Code   string         `json:"code,omitempty"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type clientState struct {
	Out chan []byte
}

// Round is a single-threaded authoritative simulation. All dominion state
// must be accessed only from the round loop goroutine.
type Round struct {
	cfg      Config
	tune     tuning.Tuning
	catalogs *catalogs.Catalogs

	tick atomic.Uint64
	rng  Rand

	dominions map[string]*Dominion
	clients   map[string]*clientState

	inbox  chan ActionEnvelope
	join   chan JoinRequest
	attach chan AttachRequest
	leave  chan string
	stop   chan struct{}

	nextDominionNum atomic.Uint64
	nextRealm       int

	tickLogger   TickLogger
	auditLogger  AuditLogger
	snapshotSink chan<- SnapshotRequest

	metrics atomic.Value // RoundMetrics
}

// SnapshotRequest asks the snapshot writer for an export at a tick. The
// export itself happens on the round loop; only the write goes off-thread.
type SnapshotRequest struct {
	Tick  uint64
	State ExportedState
}

func New(cfg Config, tune tuning.Tuning, cats *catalogs.Catalogs) (*Round, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("empty round id")
	}
	if tune.TicksPerDay <= 0 || tune.RoundLengthTicks <= 0 {
		return nil, fmt.Errorf("bad tuning: ticks_per_day=%d round_length_ticks=%d", tune.TicksPerDay, tune.RoundLengthTicks)
	}
	r := &Round{
		cfg:       cfg,
		tune:      tune,
		catalogs:  cats,
		rng:       NewSeeded(cfg.Seed),
		dominions: map[string]*Dominion{},
		clients:   map[string]*clientState{},
		inbox:     make(chan ActionEnvelope, 1024),
		join:      make(chan JoinRequest, 64),
		attach:    make(chan AttachRequest, 64),
		leave:     make(chan string, 64),
		stop:      make(chan struct{}),
	}
	return r, nil
}

func (r *Round) SetTickLogger(l TickLogger)                { r.tickLogger = l }
func (r *Round) SetAuditLogger(l AuditLogger)              { r.auditLogger = l }
func (r *Round) SetSnapshotSink(ch chan<- SnapshotRequest) { r.snapshotSink = ch }

func (r *Round) Inbox() chan<- ActionEnvelope { return r.inbox }
func (r *Round) Join() chan<- JoinRequest     { return r.join }
func (r *Round) Attach() chan<- AttachRequest { return r.attach }
func (r *Round) Leave() chan<- string         { return r.leave }

func (r *Round) CurrentTick() uint64 { return r.tick.Load() }

func (r *Round) Run(ctx context.Context) error {
	interval := time.Duration(r.tune.TickDurationSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []RecordedJoin
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case req := <-r.join:
			// Joins resolve immediately so the client gets its WELCOME
			// without waiting out the tick interval. They are recorded
			// into the next tick's log entry, which replays them before
			// that tick's actions; the batched actions below are applied
			// at the same point either way, so digests agree.
			pendingJoins = append(pendingJoins, r.applyJoin(req))
		case req := <-r.attach:
			r.handleAttach(req)
		case id := <-r.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-r.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			r.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (r *Round) Stop() { close(r.stop) }

// StepOnce advances the round exactly one tick with the given batch. It is
// the entry point for replay tooling; the live server goes through Run.
func (r *Round) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) (tick uint64, digest string) {
	recs := make([]RecordedJoin, 0, len(joins))
	for _, req := range joins {
		recs = append(recs, r.applyJoin(req))
	}
	r.step(recs, leaves, actions)
	tick = r.tick.Load()
	return tick, r.stateDigest(tick)
}

// applyJoin admits a dominion to the round and returns the log record that
// lets a replay repeat the admission.
func (r *Round) applyJoin(req JoinRequest) RecordedJoin {
	resp := r.handleJoin(req, r.tick.Load())
	return RecordedJoin{
		DominionID: resp.Welcome.DominionID,
		Name:       req.Name,
		Race:       req.Race,
		Realm:      req.Realm,
	}
}

func (r *Round) step(joins []RecordedJoin, leaves []string, actions []ActionEnvelope) {
	start := time.Now()
	now := r.tick.Load()

	for _, id := range leaves {
		delete(r.clients, id)
	}

	var recActions []RecordedAction
	for _, env := range actions {
		ack := r.applyAction(env, now)
		recActions = append(recActions, RecordedAction{DominionID: env.DominionID, Act: env.Act})
		r.sendToClient(env.DominionID, ack)
	}

	r.advanceTick(now)

	newTick := now + 1
	r.tick.Store(newTick)

	digest := r.stateDigest(newTick)
	if r.tickLogger != nil {
		_ = r.tickLogger.WriteTick(TickLogEntry{
			Tick:    newTick,
			Joins:   joins,
			Leaves:  leaves,
			Actions: recActions,
			Digest:  digest,
		})
	}

	if r.snapshotSink != nil && r.tune.SnapshotEveryTicks > 0 && newTick%uint64(r.tune.SnapshotEveryTicks) == 0 {
		select {
		case r.snapshotSink <- SnapshotRequest{Tick: newTick, State: r.Export(newTick)}:
		default:
			// Writer is behind; skip this one rather than stall the loop.
		}
	}

	r.publishMetrics(float64(time.Since(start).Microseconds()) / 1000.0)
}

// advanceTick rolls every dominion forward one tick. A panic inside one
// dominion's advance is contained so the rest of the round still ticks.
func (r *Round) advanceTick(now uint64) {
	ids := r.sortedDominionIDs()
	for _, id := range ids {
		d := r.dominions[id]
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.audit(AuditEntry{Tick: now, Actor: id, Action: "tick_panic", Code: protocol.ErrInternal})
				}
			}()
			r.advanceDominion(d, now)
		}()
	}
}

func (r *Round) advanceDominion(d *Dominion, now uint64) {
	if d.ProtectionTicks > 0 {
		d.ProtectionTicks--
	}

	for _, e := range d.advanceQueue() {
		d.deliver(e)
	}

	d.advanceEffects()

	if r.advanceGuard(d, now) {
		r.sendNotice(d.ID, protocol.NoticeMsg{
			Type:            protocol.TypeNotice,
			ProtocolVersion: protocol.Version,
			Kind:            protocol.NoticeGuardJoined,
			Tick:            now,
			Message:         string(d.Guard.Member),
		})
	}

	if d.WizardStrength < 100 {
		d.WizardStrength += 4
		if d.WizardStrength > 100 {
			d.WizardStrength = 100
		}
	}
	if d.Morale < 100 {
		d.Morale++
	}

	d.pruneInvasions(now, 4*r.tune.Range.RetaliationTicks)

	if d.NPC {
		r.barbarianTick(d, now)
	}
}

func (r *Round) applyAction(env ActionEnvelope, now uint64) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          env.Act.ID,
		Tick:            now,
	}

	d, ok := r.dominions[env.DominionID]
	if !ok {
		ack.Code = protocol.ErrBadRequest
		ack.Message = "unknown dominion"
		return ack
	}

	var out Outcome
	var err error
	switch env.Act.Action {
	case protocol.ActCastSpell:
		out, err = r.CastSpell(d, env.Act.Spell, env.Act.Target, now)
	case protocol.ActExchange:
		out, err = r.Exchange(d, env.Act.From, env.Act.To, env.Act.Amount)
	case protocol.ActDailyLand:
		out, err = r.DailyLandBonus(d, now)
	case protocol.ActJoinGuard:
		err = r.ApplyGuard(d, GuardLevel(env.Act.Guard), now)
		out.Success = err == nil
	case protocol.ActLeaveGuard:
		err = r.LeaveGuard(d, now)
		out.Success = err == nil
	default:
		ack.Code = protocol.ErrBadRequest
		ack.Message = "unknown action"
		return ack
	}

	if err != nil {
		ack.Code = codeForError(err)
		ack.Message = err.Error()
		r.audit(AuditEntry{Tick: now, Actor: d.ID, Action: env.Act.Action, Target: env.Act.Target, Code: ack.Code})
		return ack
	}

	// A contested action can be accepted yet fail its roll.
	ack.Accepted = true
	ack.Success = out.Success
	ack.Deltas = out.Deltas
	ack.Reflected = out.Reflected
	ack.Message = out.Message
	if out.Survey != nil {
		ack.Survey = &protocol.SurveyPayload{
			Target:    out.Survey.Target,
			Tick:      out.Survey.Tick,
			Land:      out.Survey.Land,
			Resources: out.Survey.Resources,
			Units:     out.Survey.Units,
			Accuracy:  out.Survey.Accuracy,
		}
	}
	r.audit(AuditEntry{Tick: now, Actor: d.ID, Action: env.Act.Action, Target: env.Act.Target, Deltas: out.Deltas})
	return ack
}

func codeForError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLocked):
		return protocol.ErrLocked
	case errors.Is(err, ErrProtected):
		return protocol.ErrProtected
	case errors.Is(err, ErrMoratorium):
		return protocol.ErrMoratorium
	case errors.Is(err, ErrOutOfRange):
		return protocol.ErrOutOfRange
	case errors.Is(err, ErrInsufficientResources):
		return protocol.ErrNoResource
	case errors.Is(err, ErrExhausted):
		return protocol.ErrExhausted
	case errors.Is(err, ErrAlreadyAtMaximum):
		return protocol.ErrAtMaxDuration
	case errors.Is(err, ErrUnknownKey), errors.Is(err, ErrBadAmount):
		return protocol.ErrBadRequest
	case errors.Is(err, ErrInvalidTarget):
		return protocol.ErrInvalidTarget
	case errors.Is(err, ErrGuardDenied):
		return protocol.ErrGuardDenied
	}
	return protocol.ErrInternal
}

func (r *Round) handleJoin(req JoinRequest, now uint64) JoinResponse {
	name := req.Name
	if name == "" {
		name = "dominion"
	}
	race := req.Race
	if _, ok := r.catalogs.Races.ByKey[race]; !ok {
		race = "human"
	}
	realm := req.Realm
	if realm <= 0 {
		r.nextRealm++
		realm = (r.nextRealm-1)%8 + 1
	}

	idNum := r.nextDominionNum.Add(1)
	id := fmt.Sprintf("D%d", idNum)

	d := r.newDominion(id, name, race, realm, now)
	r.dominions[id] = d
	if req.Out != nil {
		r.clients[id] = &clientState{Out: req.Out}
	}

	token := fmt.Sprintf("resume_%s_%d", r.cfg.ID, idNum)
	d.ResumeToken = token

	resp := JoinResponse{Welcome: r.welcomeFor(d)}
	if req.Resp != nil {
		req.Resp <- resp
	}

	r.maybeSpawnBarbarian(now)
	return resp
}

// Barbarian hordes are spawned alongside players, one for every two joins,
// so there are always NPC targets inside everyone's range band. They live
// in realm 0, which no player realm maps to.
func (r *Round) maybeSpawnBarbarian(now uint64) {
	players, npcs := 0, 0
	for _, d := range r.dominions {
		if d.NPC {
			npcs++
		} else {
			players++
		}
	}
	if players < 2*(npcs+1) {
		return
	}

	idNum := r.nextDominionNum.Add(1)
	id := fmt.Sprintf("B%d", idNum)
	d := r.newDominion(id, fmt.Sprintf("Barbarian Horde %d", idNum), "barbarian", 0, now)
	d.NPC = true
	d.ProtectionTicks = 0
	d.Units[UnitSlot2] = 400
	d.Units[UnitSlot3] = 150
	r.dominions[id] = d
}

func (r *Round) newDominion(id, name, race string, realm int, now uint64) *Dominion {
	d := &Dominion{
		ID:          id,
		Name:        name,
		Race:        race,
		Realm:       realm,
		CreatedTick: now,
	}
	d.initDefaults()

	home := r.catalogs.Races.ByKey[race].HomeLand
	if home == "" {
		home = LandPlain
	}
	for _, k := range landKeys {
		d.Land[k] = 20
	}
	d.Land[LandPlain] += 40
	d.Land[home] += 90

	d.Resources[ResourceGold] = 100000
	d.Resources[ResourceFood] = 15000
	d.Resources[ResourceLumber] = 15000
	d.Resources[ResourceMana] = 10000
	d.Resources[ResourceGems] = 10000
	d.Resources[ResourceBoats] = 20

	d.Units[UnitDraftees] = 100
	d.Units[UnitSlot2] = 150
	d.Units[UnitSpies] = 25
	d.Units[UnitWizards] = 25

	d.Peasants = 1300
	d.ProtectionTicks = r.tune.ProtectionTicks
	return d
}

func (r *Round) welcomeFor(d *Dominion) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		DominionID:      d.ID,
		ResumeToken:     d.ResumeToken,
		RoundParams: protocol.RoundParams{
			RoundID:          r.cfg.ID,
			Tick:             r.tick.Load(),
			TicksPerDay:      r.tune.TicksPerDay,
			RoundLengthTicks: r.tune.RoundLengthTicks,
			Seed:             r.cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			SpellsDigest: r.catalogs.Spells.Digest,
			RacesDigest:  r.catalogs.Races.Digest,
			TuningDigest: r.tune.Digest(),
		},
	}
}

func (r *Round) handleAttach(req AttachRequest) {
	var resp JoinResponse
	if req.ResumeToken != "" {
		for _, id := range r.sortedDominionIDs() {
			d := r.dominions[id]
			if d.ResumeToken == req.ResumeToken {
				if req.Out != nil {
					r.clients[id] = &clientState{Out: req.Out}
				}
				resp = JoinResponse{Welcome: r.welcomeFor(d)}
				break
			}
		}
	}
	if req.Resp != nil {
		req.Resp <- resp
	}
}

func (r *Round) sortedDominionIDs() []string {
	ids := make([]string, 0, len(r.dominions))
	for id := range r.dominions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Round) audit(e AuditEntry) {
	if r.auditLogger != nil {
		_ = r.auditLogger.WriteAudit(e)
	}
}

func (r *Round) sendNotice(dominionID string, n protocol.NoticeMsg) {
	r.sendToClient(dominionID, n)
}

func (r *Round) sendToClient(dominionID string, v any) {
	c, ok := r.clients[dominionID]
	if !ok || c.Out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.Out <- b:
	default:
		// Slow client; drop rather than block the loop.
	}
}

