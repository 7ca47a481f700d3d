package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Catalogs struct {
	Spells SpellCatalog
	Races  RaceCatalog
}

type SpellCatalog struct {
	ByKey  map[string]SpellDef
	Keys   []string
	Digest string
}

// Spell scopes and classes. Validated against the schema at load time.
const (
	ScopeSelf     = "self"
	ScopeFriendly = "friendly"
	ScopeHostile  = "hostile"

	ClassInstant  = "instant"
	ClassDuration = "duration"
	ClassInfo     = "info"
	ClassInvasion = "invasion"
)

type SpellDef struct {
	Key           string      `json:"key"`
	Name          string      `json:"name"`
	Scope         string      `json:"scope"`
	Class         string      `json:"class"`
	ManaCost      float64     `json:"mana_cost"`
	StrengthCost  int         `json:"strength_cost"`
	DurationTicks int         `json:"duration_ticks,omitempty"`
	Perks         []SpellPerk `json:"perks,omitempty"`
}

type SpellPerk struct {
	Key    string   `json:"key"`
	Values []string `json:"values,omitempty"`
}

// Perk returns the perk with the given key, if present.
func (d SpellDef) Perk(key string) (SpellPerk, bool) {
	for _, p := range d.Perks {
		if p.Key == key {
			return p, true
		}
	}
	return SpellPerk{}, false
}

// Float reads the i-th perk value as a float, or def when absent/invalid.
func (p SpellPerk) Float(i int, def float64) float64 {
	if i < 0 || i >= len(p.Values) {
		return def
	}
	v, err := strconv.ParseFloat(p.Values[i], 64)
	if err != nil {
		return def
	}
	return v
}

// Str reads the i-th perk value as a string, or "" when absent.
func (p SpellPerk) Str(i int) string {
	if i < 0 || i >= len(p.Values) {
		return ""
	}
	return p.Values[i]
}

type RaceCatalog struct {
	ByKey  map[string]RaceDef
	Keys   []string
	Digest string
}

type RaceDef struct {
	Key      string             `json:"key"`
	Name     string             `json:"name"`
	HomeLand string             `json:"home_land"`
	Perks    map[string]float64 `json:"perks,omitempty"`
	Units    []UnitDef          `json:"units"`
}

func (r RaceDef) Perk(key string) float64 { return r.Perks[key] }

type UnitDef struct {
	Slot    int                `json:"slot"`
	Name    string             `json:"name"`
	Offense float64            `json:"offense"`
	Defense float64            `json:"defense"`
	Perks   map[string]float64 `json:"perks,omitempty"`
}

func (u UnitDef) Perk(key string) float64 { return u.Perks[key] }

// Load reads spells.json and races.json from configDir, validating each file
// against its JSON Schema in schemaDir before decoding.
func Load(configDir, schemaDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadSpells(filepath.Join(configDir, "spells.json"), filepath.Join(schemaDir, "spells.schema.json"), &c.Spells); err != nil {
		return nil, err
	}
	if err := loadRaces(filepath.Join(configDir, "races.json"), filepath.Join(schemaDir, "races.schema.json"), &c.Races); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func validateAgainst(schemaPath string, raw []byte) error {
	s, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile %s: %w", filepath.Base(schemaPath), err)
	}
	var v any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &v); err != nil {
		return err
	}
	return s.Validate(v)
}

func loadSpells(path, schemaPath string, out *SpellCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := validateAgainst(schemaPath, raw); err != nil {
		return fmt.Errorf("spells.json: %w", err)
	}

	var defs []SpellDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("spells.json: %w", err)
	}
	out.ByKey = map[string]SpellDef{}
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("spells.json: empty key")
		}
		if _, dup := out.ByKey[d.Key]; dup {
			return fmt.Errorf("spells.json: duplicate key %s", d.Key)
		}
		if d.Class == ClassDuration && d.DurationTicks <= 0 {
			return fmt.Errorf("spells.json: %s: duration class needs duration_ticks", d.Key)
		}
		out.ByKey[d.Key] = d
	}

	keys := make([]string, 0, len(out.ByKey))
	for k := range out.ByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out.Keys = keys
	return nil
}

func loadRaces(path, schemaPath string, out *RaceCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	if err := validateAgainst(schemaPath, raw); err != nil {
		return fmt.Errorf("races.json: %w", err)
	}

	var defs []RaceDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("races.json: %w", err)
	}
	out.ByKey = map[string]RaceDef{}
	for _, d := range defs {
		if d.Key == "" {
			return fmt.Errorf("races.json: empty key")
		}
		if _, dup := out.ByKey[d.Key]; dup {
			return fmt.Errorf("races.json: duplicate key %s", d.Key)
		}
		seen := map[int]bool{}
		for _, u := range d.Units {
			if u.Slot < 1 || u.Slot > 4 {
				return fmt.Errorf("races.json: %s: unit slot out of range: %d", d.Key, u.Slot)
			}
			if seen[u.Slot] {
				return fmt.Errorf("races.json: %s: duplicate unit slot %d", d.Key, u.Slot)
			}
			seen[u.Slot] = true
		}
		out.ByKey[d.Key] = d
	}

	keys := make([]string, 0, len(out.ByKey))
	for k := range out.ByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out.Keys = keys
	return nil
}
