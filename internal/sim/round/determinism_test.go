package round

import (
	"testing"

	"ravenhold.gg/internal/protocol"
)

// Two rounds with the same seed fed the same join and action stream must
// walk through identical state digests.
func TestDeterministicReplay(t *testing.T) {
	script := func(r *Round) []string {
		var digests []string

		_, d := r.StepOnce([]JoinRequest{
			{Name: "alfa", Race: "human", Realm: 1},
			{Name: "bravo", Race: "sylvan", Realm: 2},
			{Name: "charlie", Race: "lich", Realm: 3},
		}, nil, nil)
		digests = append(digests, d)

		// Burn through protection and the opening moratorium.
		for r.tick.Load() < 80 {
			r.step(nil, nil, nil)
		}
		digests = append(digests, r.stateDigest(r.tick.Load()))

		acts := []ActionEnvelope{
			{DominionID: "D1", Act: protocol.ActMsg{ID: "A1", Action: protocol.ActCastSpell, Spell: "gaias_watch"}},
			{DominionID: "D2", Act: protocol.ActMsg{ID: "A2", Action: protocol.ActCastSpell, Spell: "fireball", Target: "D1"}},
			{DominionID: "D4", Act: protocol.ActMsg{ID: "A3", Action: protocol.ActExchange, From: "lumber", To: "food", Amount: 500}},
			{DominionID: "D1", Act: protocol.ActMsg{ID: "A4", Action: protocol.ActDailyLand}},
			{DominionID: "D2", Act: protocol.ActMsg{ID: "A5", Action: protocol.ActJoinGuard, Guard: "royal"}},
		}
		r.step(nil, nil, acts)
		digests = append(digests, r.stateDigest(r.tick.Load()))

		for i := 0; i < 40; i++ {
			r.step(nil, nil, nil)
		}
		digests = append(digests, r.stateDigest(r.tick.Load()))
		return digests
	}

	a := script(newTestRound(t, 42))
	b := script(newTestRound(t, 42))
	if len(a) != len(b) {
		t.Fatalf("digest counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest %d diverged:\n%s\n%s", i, a[i], b[i])
		}
	}

	c := script(newTestRound(t, 43))
	if c[len(c)-1] == a[len(a)-1] {
		t.Fatal("different seeds should diverge")
	}
}

func TestSnapshotRoundTripPreservesDigest(t *testing.T) {
	r := newTestRound(t, 7)
	r.StepOnce([]JoinRequest{
		{Name: "alfa", Race: "human", Realm: 1},
		{Name: "bravo", Race: "sylvan", Realm: 2},
	}, nil, nil)
	for i := 0; i < 30; i++ {
		r.step(nil, nil, nil)
	}
	d1 := r.dominions["D1"]
	_ = d1.ActivateEffect("ares_call", 10, d1.ID)
	_ = d1.QueueUp(SourceTraining, UnitWizards, 12, 6)

	tick := r.tick.Load()
	state := r.Export(tick)
	want := r.stateDigest(tick)

	r2 := newTestRound(t, 7)
	r2.Import(state)
	if got := r2.stateDigest(tick); got != want {
		t.Fatalf("digest changed across export/import:\n%s\n%s", got, want)
	}
}
