package snapshot

import (
	"testing"

	"ravenhold.gg/internal/sim/round"
)

func TestSnapshotRoundTrip(t *testing.T) {
	state := round.ExportedState{
		RoundID: "R9",
		Tick:    48,
		Seed:    1234,
		Dominions: []round.ExportedDominion{
			{
				ID:        "D1",
				Name:      "alfa",
				Race:      "human",
				Realm:     1,
				Resources: map[string]int{"gold": 5000, "mana": 120},
				Land:      map[string]int{"plain": 210, "forest": 40},
				Units:     map[string]int{"wizards": 25},
				Queue: []round.QueueEntry{
					{Source: "training", Key: "wizards", Amount: 10, TicksRemaining: 4},
				},
				Effects: []round.ActiveEffect{
					{Spell: "ares_call", TicksRemaining: 7, CasterID: "D1"},
				},
			},
		},
	}

	path := PathFor(t.TempDir(), state.RoundID, state.Tick)
	if err := WriteSnapshot(path, FromState(state)); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header.RoundID != "R9" || got.Header.Tick != 48 || got.Header.Version != 1 {
		t.Fatalf("header = %+v", got.Header)
	}
	d := got.State.Dominions[0]
	if d.ID != "D1" || d.Resources["gold"] != 5000 || d.Land["plain"] != 210 {
		t.Fatalf("dominion = %+v", d)
	}
	if len(d.Queue) != 1 || d.Queue[0].Amount != 10 {
		t.Fatalf("queue = %+v", d.Queue)
	}
	if len(d.Effects) != 1 || d.Effects[0].TicksRemaining != 7 {
		t.Fatalf("effects = %+v", d.Effects)
	}
}

func TestLatestPicksNewest(t *testing.T) {
	base := t.TempDir()
	for _, tick := range []uint64{24, 48, 12} {
		state := round.ExportedState{RoundID: "R9", Tick: tick}
		if err := WriteSnapshot(PathFor(base, "R9", tick), FromState(state)); err != nil {
			t.Fatalf("write %d: %v", tick, err)
		}
	}
	path, err := Latest(base, "R9")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if path != PathFor(base, "R9", 48) {
		t.Fatalf("latest = %s", path)
	}

	if path, err := Latest(base, "missing"); err != nil || path != "" {
		t.Fatalf("missing round: %s %v", path, err)
	}
}
