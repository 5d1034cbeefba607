package params

import (
	"fmt"
	"math"
	"sync"

	"gopkg.in/yaml.v3"
)

// Set is one complete collection of tunable weights. Values were found by
// search and are defaults to be re-tuned, not load-bearing constants: higher
// generally means more preferred.
type Set struct {
	CargoMapNorm                       float64 `yaml:"cargo_map_norm"`
	CellScoreDanger                    float64 `yaml:"cell_score_danger"`
	CellScoreDominance                 float64 `yaml:"cell_score_dominance"`
	CellScoreEnemyCargo                float64 `yaml:"cell_score_enemy_cargo"`
	CellScoreFarming                   float64 `yaml:"cell_score_farming"`
	CellScoreMineFarming               float64 `yaml:"cell_score_mine_farming"`
	CellScoreNeighbourDiscount         float64 `yaml:"cell_score_neighbour_discount"`
	CellScoreOwnCargo                  float64 `yaml:"cell_score_own_cargo"`
	ConvertWhenAttackedThreshold       int     `yaml:"convert_when_attacked_threshold"`
	DisableHuntingTill                 int     `yaml:"disable_hunting_till"`
	DominanceCargoClip                 float64 `yaml:"dominance_cargo_clip"`
	DominanceMapMediumRadius           int     `yaml:"dominance_map_medium_radius"`
	DominanceMapMediumSigma            float64 `yaml:"dominance_map_medium_sigma"`
	DominanceMapSmallRadius            int     `yaml:"dominance_map_small_radius"`
	DominanceMapSmallSigma             float64 `yaml:"dominance_map_small_sigma"`
	EarlySecondShipyard                int     `yaml:"early_second_shipyard"`
	EndReturnExtraMoves                int     `yaml:"end_return_extra_moves"`
	EndStart                           int     `yaml:"end_start"`
	EndingCargoThreshold               int     `yaml:"ending_cargo_threshold"`
	FarmingEnd                         int     `yaml:"farming_end"`
	FarmingStart                       int     `yaml:"farming_start"`
	FarmingStartShipyards              int     `yaml:"farming_start_shipyards"`
	GreedMinMapDiff                    int     `yaml:"greed_min_map_diff"`
	GreedStop                          int     `yaml:"greed_stop"`
	GuardingAggressionRadius           int     `yaml:"guarding_aggression_radius"`
	GuardingEnd                        int     `yaml:"guarding_end"`
	GuardingMaxShipsPerShipyard        int     `yaml:"guarding_max_ships_per_shipyard"`
	GuardingNorm                       float64 `yaml:"guarding_norm"`
	GuardingProportion                 float64 `yaml:"guarding_proportion"`
	GuardingRadius                     int     `yaml:"guarding_radius"`
	GuardingRadius2                    int     `yaml:"guarding_radius2"`
	GuardingShipAdvantageNorm          float64 `yaml:"guarding_ship_advantage_norm"`
	GuardingStop                       int     `yaml:"guarding_stop"`
	HarvestThresholdAlpha              float64 `yaml:"harvest_threshold_alpha"`
	HarvestThresholdBeta               float64 `yaml:"harvest_threshold_beta"`
	HarvestThresholdHuntingNorm        float64 `yaml:"harvest_threshold_hunting_norm"`
	HarvestThresholdShipAdvantageNorm  float64 `yaml:"harvest_threshold_ship_advantage_norm"`
	HuntingMaxGroupDistance            int     `yaml:"hunting_max_group_distance"`
	HuntingMaxGroupSize                int     `yaml:"hunting_max_group_size"`
	HuntingMinShips                    int     `yaml:"hunting_min_ships"`
	HuntingProportion                  float64 `yaml:"hunting_proportion"`
	HuntingProportionAfterFarming      float64 `yaml:"hunting_proportion_after_farming"`
	HuntingScoreAlpha                  float64 `yaml:"hunting_score_alpha"`
	HuntingScoreBeta                   float64 `yaml:"hunting_score_beta"`
	HuntingScoreCargoClip              float64 `yaml:"hunting_score_cargo_clip"`
	HuntingScoreCargoNorm              float64 `yaml:"hunting_score_cargo_norm"`
	HuntingScoreDelta                  float64 `yaml:"hunting_score_delta"`
	HuntingScoreFarmingPositionPenalty float64 `yaml:"hunting_score_farming_position_penalty"`
	HuntingScoreGamma                  float64 `yaml:"hunting_score_gamma"`
	HuntingScoreHunt                   float64 `yaml:"hunting_score_hunt"`
	HuntingScoreIntercept              float64 `yaml:"hunting_score_intercept"`
	HuntingScoreIota                   float64 `yaml:"hunting_score_iota"`
	HuntingScoreKappa                  float64 `yaml:"hunting_score_kappa"`
	HuntingScoreRegion                 float64 `yaml:"hunting_score_region"`
	HuntingScoreShipBonus              float64 `yaml:"hunting_score_ship_bonus"`
	HuntingScoreYpsilon                float64 `yaml:"hunting_score_ypsilon"`
	HuntingScoreZeta                   float64 `yaml:"hunting_score_zeta"`
	HuntingThreshold                   float64 `yaml:"hunting_threshold"`
	MapBlurGamma                       float64 `yaml:"map_blur_gamma"`
	MapBlurSigma                       float64 `yaml:"map_blur_sigma"`
	MapUltraBlur                       float64 `yaml:"map_ultra_blur"`
	MaxCargoAttackShipyard             int     `yaml:"max_cargo_attack_shipyard"`
	MaxGuardingShipsPerTarget          int     `yaml:"max_guarding_ships_per_target"`
	MaxHuntingShipsPerDirection        int     `yaml:"max_hunting_ships_per_direction"`
	MaxIntrusionCount                  int     `yaml:"max_intrusion_count"`
	MaxShipAdvantage                   int     `yaml:"max_ship_advantage"`
	MaxShipyardDistance                int     `yaml:"max_shipyard_distance"`
	MaxShipyards                       int     `yaml:"max_shipyards"`
	MinEnemyShipyardDistance           int     `yaml:"min_enemy_shipyard_distance"`
	MinMiningResource                  float64 `yaml:"min_mining_resource"`
	MinShips                           int     `yaml:"min_ships"`
	MinShipyardDistance                int     `yaml:"min_shipyard_distance"`
	MiningScoreAlpha                   float64 `yaml:"mining_score_alpha"`
	MiningScoreAlphaMin                float64 `yaml:"mining_score_alpha_min"`
	MiningScoreBeta                    float64 `yaml:"mining_score_beta"`
	MiningScoreBetaEarly               float64 `yaml:"mining_score_beta_early"`
	MiningScoreBetaLate                float64 `yaml:"mining_score_beta_late"`
	MiningScoreBetaMin                 float64 `yaml:"mining_score_beta_min"`
	MiningScoreDominanceClip           float64 `yaml:"mining_score_dominance_clip"`
	MiningScoreDominanceNorm           float64 `yaml:"mining_score_dominance_norm"`
	MiningScoreFarmingPenalty          float64 `yaml:"mining_score_farming_penalty"`
	MiningScoreGamma                   float64 `yaml:"mining_score_gamma"`
	MiningScoreMinorFarmingPenalty     float64 `yaml:"mining_score_minor_farming_penalty"`
	MiningScoreStartReturning          int     `yaml:"mining_score_start_returning"`
	MinorHarvestThreshold              float64 `yaml:"minor_harvest_threshold"`
	MovePreferenceBase                 float64 `yaml:"move_preference_base"`
	MovePreferenceBlockShipyard        float64 `yaml:"move_preference_block_shipyard"`
	MovePreferenceConstructing         float64 `yaml:"move_preference_constructing"`
	MovePreferenceConstructionGuarding float64 `yaml:"move_preference_construction_guarding"`
	MovePreferenceGuarding             float64 `yaml:"move_preference_guarding"`
	MovePreferenceGuardingStay         float64 `yaml:"move_preference_guarding_stay"`
	MovePreferenceHunting              float64 `yaml:"move_preference_hunting"`
	MovePreferenceLongestAxis          float64 `yaml:"move_preference_longest_axis"`
	MovePreferenceMining               float64 `yaml:"move_preference_mining"`
	MovePreferenceReturn               float64 `yaml:"move_preference_return"`
	MovePreferenceStayOnShipyard       float64 `yaml:"move_preference_stay_on_shipyard"`
	ReturnCargo                        int     `yaml:"return_cargo"`
	SecondShipyardStep                 int     `yaml:"second_shipyard_step"`
	ShipSpawnThreshold                 float64 `yaml:"ship_spawn_threshold"`
	ShipsShipyardsThreshold            float64 `yaml:"ships_shipyards_threshold"`
	ShipyardAbandonDominance           float64 `yaml:"shipyard_abandon_dominance"`
	ShipyardConversionThreshold        float64 `yaml:"shipyard_conversion_threshold"`
	ShipyardGuardingAttackProbability  float64 `yaml:"shipyard_guarding_attack_probability"`
	ShipyardGuardingMinDominance       float64 `yaml:"shipyard_guarding_min_dominance"`
	ShipyardMinDominance               float64 `yaml:"shipyard_min_dominance"`
	ShipyardMinPopulation              float64 `yaml:"shipyard_min_population"`
	ShipyardMinShipAdvantage           int     `yaml:"shipyard_min_ship_advantage"`
	ShipyardStart                      int     `yaml:"shipyard_start"`
	ShipyardStop                       int     `yaml:"shipyard_stop"`
	SpawnMinDominance                  float64 `yaml:"spawn_min_dominance"`
	SpawnTill                          int     `yaml:"spawn_till"`
	ThirdShipyardStep                  int     `yaml:"third_shipyard_step"`

	index map[string]float64
}

// Validate clamps values that feed divisions, logarithms or loop bounds into
// ranges where the scoring functions stay finite.
func (s *Set) Validate() {
	s.CargoMapNorm = clamp(s.CargoMapNorm, 1, math.MaxFloat64)
	s.DominanceCargoClip = clamp(s.DominanceCargoClip, 1, math.MaxFloat64)
	s.DominanceMapSmallSigma = clamp(s.DominanceMapSmallSigma, 0.05, 10)
	s.DominanceMapMediumSigma = clamp(s.DominanceMapMediumSigma, 0.05, 10)
	s.MapBlurSigma = clamp(s.MapBlurSigma, 0.05, 10)
	s.MapUltraBlur = clamp(s.MapUltraBlur, 0.05, 10)
	s.MapBlurGamma = clamp(s.MapBlurGamma, 0, 1)
	s.MiningScoreGamma = clamp(s.MiningScoreGamma, 0.01, 1)
	s.HuntingScoreGamma = clamp(s.HuntingScoreGamma, 0.01, 1)
	s.HuntingScoreCargoNorm = clamp(s.HuntingScoreCargoNorm, 1, math.MaxFloat64)
	s.HuntingScoreCargoClip = clamp(s.HuntingScoreCargoClip, 0.01, math.MaxFloat64)
	s.MiningScoreDominanceClip = clamp(s.MiningScoreDominanceClip, 0.01, math.MaxFloat64)
	s.GuardingNorm = clamp(s.GuardingNorm, 0.01, math.MaxFloat64)
	s.GuardingShipAdvantageNorm = clamp(s.GuardingShipAdvantageNorm, 0.01, math.MaxFloat64)
	s.HarvestThresholdHuntingNorm = clamp(s.HarvestThresholdHuntingNorm, 0.01, math.MaxFloat64)
	s.HarvestThresholdShipAdvantageNorm = clamp(s.HarvestThresholdShipAdvantageNorm, 0.01, math.MaxFloat64)
	s.ShipyardGuardingAttackProbability = clamp(s.ShipyardGuardingAttackProbability, 0, 1)
	s.HuntingProportion = clamp(s.HuntingProportion, 0, 1)
	s.HuntingProportionAfterFarming = clamp(s.HuntingProportionAfterFarming, 0, 1)
	s.GuardingProportion = clamp(s.GuardingProportion, 0, 1)
	s.MiningScoreAlphaMin = clamp(s.MiningScoreAlphaMin, 0, 1)
	s.MiningScoreBetaMin = clamp(s.MiningScoreBetaMin, 0, 1)

	s.DominanceMapSmallRadius = clampInt(s.DominanceMapSmallRadius, 0, 10)
	s.DominanceMapMediumRadius = clampInt(s.DominanceMapMediumRadius, 0, 10)
	s.HuntingMaxGroupSize = clampInt(s.HuntingMaxGroupSize, 1, 10)
	s.MaxHuntingShipsPerDirection = clampInt(s.MaxHuntingShipsPerDirection, 1, 4)
	s.MaxGuardingShipsPerTarget = clampInt(s.MaxGuardingShipsPerTarget, 1, 4)
	s.MinShipyardDistance = clampInt(s.MinShipyardDistance, 1, math.MaxInt32)
	s.MaxShipyardDistance = clampInt(s.MaxShipyardDistance, s.MinShipyardDistance, math.MaxInt32)

	s.index, _ = s.buildIndex()
}

// Lookup returns the value stored under a YAML key, for callers that address
// parameters by name (rule conditions, diagnostics).
func (s *Set) Lookup(key string) (float64, bool) {
	if s.index == nil {
		idx, err := s.buildIndex()
		if err != nil {
			return 0, false
		}
		s.index = idx
	}
	v, ok := s.index[key]
	return v, ok
}

var knownKeys = sync.OnceValue(func() map[string]float64 {
	var s Set
	idx, _ := s.buildIndex()
	return idx
})

// HasKey reports whether key names a parameter of Set.
func HasKey(key string) bool {
	_, ok := knownKeys()[key]
	return ok
}

func (s *Set) buildIndex() (map[string]float64, error) {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal parameter set: %w", err)
	}
	var values map[string]float64
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("index parameter set: %w", err)
	}
	return values, nil
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// clamp restricts v to [min, max]. NaN maps to min.
func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) || v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
