package archive

import (
	"os"
	"path/filepath"
	"testing"

	"ravenhold.gg/internal/persistence/snapshot"
	"ravenhold.gg/internal/sim/round"
)

func TestArchiveDaySnapshotCopiesDayBoundary(t *testing.T) {
	dir := t.TempDir()
	roundDir := filepath.Join(dir, "R1")
	src := filepath.Join(roundDir, "snapshots", "tick-000000000024.snap.zst")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("mkdir snapshots: %v", err)
	}
	want := []byte("dummy")
	if err := os.WriteFile(src, want, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, RoundID: "R1", Tick: 24},
		State:  round.ExportedState{RoundID: "R1", Tick: 24, Seed: 42},
	}

	day, archivedPath, ok, err := ArchiveDaySnapshot(roundDir, src, snap, 24)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok {
		t.Fatalf("expected archived=true")
	}
	if day != 1 {
		t.Fatalf("day=%d want 1", day)
	}

	got, err := os.ReadFile(archivedPath)
	if err != nil {
		t.Fatalf("read archived: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("archived content mismatch: got=%q want=%q", string(got), string(want))
	}

	metaPath := filepath.Join(filepath.Dir(archivedPath), "meta.json")
	if _, err := os.Stat(metaPath); err != nil {
		t.Fatalf("expected meta.json to exist: %v", err)
	}
}

func TestArchiveDaySnapshotSkipsMidDayTicks(t *testing.T) {
	snap := snapshot.SnapshotV1{Header: snapshot.Header{Version: 1, RoundID: "R1", Tick: 30}}
	_, _, ok, err := ArchiveDaySnapshot(t.TempDir(), "nope", snap, 24)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if ok {
		t.Fatalf("tick 30 is not a day boundary")
	}
}
