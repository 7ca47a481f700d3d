package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickDurationSeconds int `yaml:"tick_duration_seconds"`
	TicksPerDay         int `yaml:"ticks_per_day"`
	RoundLengthTicks    int `yaml:"round_length_ticks"`
	ProtectionTicks     int `yaml:"protection_ticks"`
	SnapshotEveryTicks  int `yaml:"snapshot_every_ticks"`

	Range     RangeTuning     `yaml:"range"`
	Contest   ContestTuning   `yaml:"contest"`
	Exchange  ExchangeTuning  `yaml:"exchange"`
	Barbarian BarbarianTuning `yaml:"barbarian"`
	DailyLand DailyLandTuning `yaml:"daily_land"`
}

type RangeTuning struct {
	MinimumRatio    float64 `yaml:"minimum_ratio"`
	RoyalGuardRatio float64 `yaml:"royal_guard_ratio"`
	EliteGuardRatio float64 `yaml:"elite_guard_ratio"`

	GuardTicksToJoin      int `yaml:"guard_ticks_to_join"`
	GuardTicksBeforeLeave int `yaml:"guard_ticks_before_leave"`
	RetaliationTicks      int `yaml:"retaliation_ticks"`
}

type ContestTuning struct {
	PowerRatioCap     float64 `yaml:"power_ratio_cap"`
	HostileMultiplier float64 `yaml:"hostile_multiplier"`
	InfoMultiplier    float64 `yaml:"info_multiplier"`

	FailureCasualtyBasePct float64 `yaml:"failure_casualty_base_pct"`
	FailureCasualtyMinPct  float64 `yaml:"failure_casualty_min_pct"`
	FailureCasualtyMaxPct  float64 `yaml:"failure_casualty_max_pct"`

	CogencyTrainingTicks int `yaml:"cogency_training_ticks"`
	MoratoriumTicks      int `yaml:"moratorium_ticks"`
	CutoffTicksBeforeEnd int `yaml:"cutoff_ticks_before_end"`

	InvasionReturnTicks int `yaml:"invasion_return_ticks"`

	ExperienceBase float64 `yaml:"experience_base"`
}

type ExchangeTuning struct {
	BonusCap float64 `yaml:"bonus_cap"`

	// Per-resource sell (fraction of face value kept when selling) and
	// buy (units of target per unit of platinum-equivalent) rates.
	SellRate map[string]float64 `yaml:"sell_rate"`
	BuyRate  map[string]float64 `yaml:"buy_rate"`

	MinPeasants int `yaml:"min_peasants"`
}

type BarbarianTuning struct {
	DpaConstant float64 `yaml:"dpa_constant"`
	DpaPerTick  float64 `yaml:"dpa_per_tick"`
	OpaRatio    float64 `yaml:"opa_ratio"`

	TrainingTicks       int `yaml:"training_ticks"`
	ReturnTicks         int `yaml:"return_ticks"`
	ActEveryTicks       int `yaml:"act_every_ticks"`
	InvasionCapPerMille int `yaml:"invasion_cap_per_mille"`
}

type DailyLandTuning struct {
	MinAcres     int `yaml:"min_acres"`
	MaxAcres     int `yaml:"max_acres"`
	JackpotAcres int `yaml:"jackpot_acres"`
	JackpotOneIn int `yaml:"jackpot_one_in"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		TickDurationSeconds: 3600,
		TicksPerDay:         24,
		RoundLengthTicks:    1200,
		ProtectionTicks:     72,
		SnapshotEveryTicks:  24,
		Range: RangeTuning{
			MinimumRatio:          0.4,
			RoyalGuardRatio:       0.6,
			EliteGuardRatio:       0.75,
			GuardTicksToJoin:      24,
			GuardTicksBeforeLeave: 48,
			RetaliationTicks:      3,
		},
		Contest: ContestTuning{
			PowerRatioCap:          10,
			HostileMultiplier:      2.0,
			InfoMultiplier:         1.4,
			FailureCasualtyBasePct: 1.0,
			FailureCasualtyMinPct:  0.5,
			FailureCasualtyMaxPct:  1.5,
			CogencyTrainingTicks:   6,
			MoratoriumTicks:        24,
			CutoffTicksBeforeEnd:   12,
			InvasionReturnTicks:    12,
			ExperienceBase:         30,
		},
		Exchange: ExchangeTuning{
			BonusCap: 2.0,
			SellRate: map[string]float64{
				"gold":   0.50,
				"food":   0.50,
				"lumber": 0.50,
				"ore":    0.50,
				"gems":   0.50,
				"mana":   0.50,
			},
			BuyRate: map[string]float64{
				"gold":   2.0,
				"food":   4.0,
				"lumber": 2.0,
				"ore":    2.0,
				"gems":   0.5,
				"mana":   1.0,
			},
			MinPeasants: 1000,
		},
		Barbarian: BarbarianTuning{
			DpaConstant:         25,
			DpaPerTick:          0.5,
			OpaRatio:            0.75,
			TrainingTicks:       4,
			ReturnTicks:         12,
			ActEveryTicks:       1,
			InvasionCapPerMille: 200,
		},
		DailyLand: DailyLandTuning{
			MinAcres:     10,
			MaxAcres:     40,
			JackpotAcres: 100,
			JackpotOneIn: 200,
		},
	}
}

// Digest is a stable hash of the effective tuning values, used to detect
// config drift between a snapshot and the server resuming from it.
func (t Tuning) Digest() string {
	raw, err := yaml.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
