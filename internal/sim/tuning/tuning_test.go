package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreSane(t *testing.T) {
	d := Defaults()
	if d.TicksPerDay <= 0 || d.RoundLengthTicks <= 0 || d.TickDurationSeconds <= 0 {
		t.Fatalf("bad clock defaults: %+v", d)
	}
	if d.Range.MinimumRatio <= 0 || d.Range.MinimumRatio >= 1 {
		t.Fatalf("minimum range ratio out of (0,1): %v", d.Range.MinimumRatio)
	}
	if d.Range.RoyalGuardRatio < d.Range.MinimumRatio || d.Range.EliteGuardRatio < d.Range.RoyalGuardRatio {
		t.Fatalf("guard bands should narrow: %+v", d.Range)
	}
	if d.Contest.FailureCasualtyMinPct > d.Contest.FailureCasualtyMaxPct {
		t.Fatalf("casualty clamp inverted: %+v", d.Contest)
	}
	for res, sell := range d.Exchange.SellRate {
		if _, ok := d.Exchange.BuyRate[res]; !ok {
			t.Fatalf("resource %s has a sell rate but no buy rate", res)
		}
		if sell <= 0 || sell > 1 {
			t.Fatalf("sell rate for %s out of (0,1]: %v", res, sell)
		}
	}
	if d.Contest.MoratoriumTicks+d.Contest.CutoffTicksBeforeEnd >= d.RoundLengthTicks {
		t.Fatalf("hostile window empty: %+v", d.Contest)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := "round_length_ticks: 600\ncontest:\n  hostile_multiplier: 1.8\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RoundLengthTicks != 600 {
		t.Fatalf("override ignored: %d", got.RoundLengthTicks)
	}
	if got.Contest.HostileMultiplier != 1.8 {
		t.Fatalf("nested override ignored: %v", got.Contest.HostileMultiplier)
	}
	// Untouched fields keep their defaults.
	if got.TicksPerDay != Defaults().TicksPerDay {
		t.Fatalf("default clobbered: %d", got.TicksPerDay)
	}
	if got.Exchange.MinPeasants != Defaults().Exchange.MinPeasants {
		t.Fatalf("default clobbered: %d", got.Exchange.MinPeasants)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected IsNotExist, got %v", err)
	}
	if got.TicksPerDay != Defaults().TicksPerDay {
		t.Fatalf("missing file should still return defaults: %+v", got)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("round_length_ticks: [not an int\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDigestTracksValues(t *testing.T) {
	a := Defaults()
	b := Defaults()
	if a.Digest() != b.Digest() {
		t.Fatalf("equal tunings hash differently")
	}
	b.RoundLengthTicks++
	if a.Digest() == b.Digest() {
		t.Fatalf("changed tuning kept the same digest")
	}
	if len(a.Digest()) != 64 {
		t.Fatalf("digest length: %d", len(a.Digest()))
	}
}
