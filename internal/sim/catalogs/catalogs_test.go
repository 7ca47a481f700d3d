package catalogs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

func loadReal(t *testing.T) *Catalogs {
	t.Helper()
	root := findRepoRoot(t)
	c, err := Load(filepath.Join(root, "configs"), filepath.Join(root, "schemas"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLoadRealCatalogs(t *testing.T) {
	c := loadReal(t)

	if len(c.Spells.ByKey) == 0 || len(c.Races.ByKey) == 0 {
		t.Fatalf("empty catalogs: %d spells, %d races", len(c.Spells.ByKey), len(c.Races.ByKey))
	}
	if !sort.StringsAreSorted(c.Spells.Keys) || !sort.StringsAreSorted(c.Races.Keys) {
		t.Fatalf("catalog keys not sorted")
	}

	ares, ok := c.Spells.ByKey["ares_call"]
	if !ok {
		t.Fatalf("ares_call missing")
	}
	if ares.Class != ClassDuration || ares.DurationTicks <= 0 {
		t.Fatalf("ares_call: class=%s duration=%d", ares.Class, ares.DurationTicks)
	}
	rend, ok := c.Spells.ByKey["land_rend"]
	if !ok {
		t.Fatalf("land_rend missing")
	}
	if rend.Scope != ScopeHostile || rend.Class != ClassInvasion {
		t.Fatalf("land_rend: scope=%s class=%s", rend.Scope, rend.Class)
	}
	if _, ok := rend.Perk("steals_land"); !ok {
		t.Fatalf("land_rend has no steals_land perk")
	}

	human, ok := c.Races.ByKey["human"]
	if !ok {
		t.Fatalf("human missing")
	}
	if len(human.Units) != 4 {
		t.Fatalf("human units: %d", len(human.Units))
	}
	if human.Perk("exchange_bonus") == 0 {
		t.Fatalf("human exchange_bonus perk missing")
	}
}

func TestDigestsStable(t *testing.T) {
	a := loadReal(t)
	b := loadReal(t)
	if a.Spells.Digest != b.Spells.Digest || a.Races.Digest != b.Races.Digest {
		t.Fatalf("digests differ across loads")
	}
	if len(a.Spells.Digest) != 64 || len(a.Races.Digest) != 64 {
		t.Fatalf("unexpected digest length: %q %q", a.Spells.Digest, a.Races.Digest)
	}
}

func TestPerkAccessors(t *testing.T) {
	p := SpellPerk{Key: "x", Values: []string{"1.5", "gold"}}
	if got := p.Float(0, 0); got != 1.5 {
		t.Fatalf("Float(0): %v", got)
	}
	if got := p.Float(1, 7); got != 7 {
		t.Fatalf("Float on non-number should fall back: %v", got)
	}
	if got := p.Float(5, 3); got != 3 {
		t.Fatalf("Float out of range should fall back: %v", got)
	}
	if got := p.Str(1); got != "gold" {
		t.Fatalf("Str(1): %q", got)
	}
	if got := p.Str(9); got != "" {
		t.Fatalf("Str out of range: %q", got)
	}
}

// writeCatalogs stages a config dir pairing the given spells/races JSON with
// the repo's real schemas.
func writeCatalogs(t *testing.T, spells, races string) (configDir, schemaDir string) {
	t.Helper()
	root := findRepoRoot(t)
	configDir = t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, "spells.json"), []byte(spells), 0o644); err != nil {
		t.Fatalf("write spells: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "races.json"), []byte(races), 0o644); err != nil {
		t.Fatalf("write races: %v", err)
	}
	return configDir, filepath.Join(root, "schemas")
}

const validRaces = `[{"key":"human","name":"Human","home_land":"plain","units":[{"slot":1,"name":"Swordsman","offense":3,"defense":0}]}]`

func TestLoadRejectsBadCatalogs(t *testing.T) {
	cases := []struct {
		name    string
		spells  string
		races   string
		wantErr string
	}{
		{
			name:    "spell schema violation",
			spells:  `[{"key":"x","name":"X","scope":"galactic","class":"instant","mana_cost":1,"strength_cost":1}]`,
			races:   validRaces,
			wantErr: "spells.json",
		},
		{
			name: "duplicate spell key",
			spells: `[{"key":"x","name":"X","scope":"self","class":"instant","mana_cost":1,"strength_cost":1},
			          {"key":"x","name":"X2","scope":"self","class":"instant","mana_cost":1,"strength_cost":1}]`,
			races:   validRaces,
			wantErr: "duplicate key",
		},
		{
			name:    "duration spell without duration_ticks",
			spells:  `[{"key":"x","name":"X","scope":"self","class":"duration","mana_cost":1,"strength_cost":1}]`,
			races:   validRaces,
			wantErr: "duration_ticks",
		},
		{
			name:    "duplicate unit slot",
			spells:  `[]`,
			races:   `[{"key":"human","name":"Human","home_land":"plain","units":[{"slot":1,"name":"A","offense":1,"defense":0},{"slot":1,"name":"B","offense":0,"defense":1}]}]`,
			wantErr: "duplicate unit slot",
		},
		{
			name:    "race schema violation",
			spells:  `[]`,
			races:   `[{"key":"human","name":"Human","home_land":"ocean","units":[]}]`,
			wantErr: "races.json",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configDir, schemaDir := writeCatalogs(t, tc.spells, tc.races)
			_, err := Load(configDir, schemaDir)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
