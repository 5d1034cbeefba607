package influence

import (
	"context"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nstehr/flotilla/model"
	"github.com/nstehr/flotilla/params"
	"github.com/nstehr/flotilla/spatial"
)

// NoThreat is the danger value of a cell no ship can reach next turn.
const NoThreat = 99999

// Dominance contributions and scale factors.
const (
	ownShipyardWeight    = 1.5
	enemyShipyardWeight  = 1.8
	smallDominanceFactor = 22
	smallSafetyFactor    = 20
	mediumDominanceScale = 80
	regionFactor         = 50
	regionSigma          = 2.5
	regionThreshold      = 0.1
	cargoSigma           = 2.5
	cargoScale           = 30
	cargoShipyardValue   = 700
	minPlayerRows        = 4
)

// Maps is the full set of fields for one turn, from the point of view of
// Board.Me.
type Maps struct {
	Blurred      []float64
	UltraBlurred []float64
	MinUltra     float64
	MaxUltra     float64

	// SmallDominance and MediumDominance are Me's field minus the strongest
	// competitor at the same cell.
	SmallDominance  []float64
	MediumDominance []float64
	// SmallSafety is Me minus all opponents combined.
	SmallSafety []float64
	// Regions holds the owning player id per cell, or -1.
	Regions []int
	// Cargo is the blurred value of own cargo and shipyards.
	Cargo []float64

	// Danger is the smallest enemy cargo able to occupy each cell next turn.
	Danger []int
	// FriendlyReach is the same for Me's ships.
	FriendlyReach []int
}

// Build computes every field. Independent fields are computed concurrently;
// each goroutine writes only its own output.
func Build(ctx context.Context, b *model.Board, ix *spatial.Index, p *params.Set) (*Maps, error) {
	m := &Maps{}
	size := b.Size
	me := b.Self()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m.Blurred = Blur(b.Halite, size, p.MapBlurSigma)
		return nil
	})
	g.Go(func() error {
		m.UltraBlurred = Blur(b.Halite, size, p.MapUltraBlur)
		m.MinUltra = slices.Min(m.UltraBlurred)
		m.MaxUltra = slices.Max(m.UltraBlurred)
		return nil
	})
	g.Go(func() error {
		rel, err := RelativeDominance(ctx, b.Players, size, p.DominanceMapSmallSigma, smallDominanceFactor, p.DominanceCargoClip)
		if err != nil {
			return fmt.Errorf("small dominance: %w", err)
		}
		m.SmallDominance = rel[b.Me]
		return nil
	})
	g.Go(func() error {
		rel, err := RelativeDominance(ctx, b.Players, size, p.DominanceMapMediumSigma, mediumDominanceScale, p.DominanceCargoClip)
		if err != nil {
			return fmt.Errorf("medium dominance: %w", err)
		}
		m.MediumDominance = rel[b.Me]
		return nil
	})
	g.Go(func() error {
		m.SmallSafety = Safety(b, p.DominanceMapSmallSigma, smallSafetyFactor, p.DominanceCargoClip)
		return nil
	})
	g.Go(func() error {
		regions, err := Regions(ctx, b.Players, size, p.DominanceCargoClip)
		if err != nil {
			return fmt.Errorf("regions: %w", err)
		}
		m.Regions = regions
		return nil
	})
	g.Go(func() error {
		m.Cargo = CargoMap(me, size, p.CargoMapNorm)
		return nil
	})
	g.Go(func() error {
		m.Danger = MinCargoInReach(b.EnemyShips(), ix)
		m.FriendlyReach = MinCargoInReach(me.Ships, ix)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// shipStrength is the combat weight of a ship: 1 when empty, falling to 0 at
// the cargo clip.
func shipStrength(cargo int, cargoClip float64) float64 {
	return clip(cargoClip-float64(cargo), 0, cargoClip) / cargoClip
}

// RelativeDominance returns, per player id, that player's blurred presence
// minus the maximum of every other player's at the same cell. At least four
// rows are produced so missing seats count as empty players.
func RelativeDominance(ctx context.Context, players []model.Player, size int, sigma, factor, cargoClip float64) ([][]float64, error) {
	rows := max(len(players), minPlayerRows)
	raw := make([][]float64, rows)
	n := size * size

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < rows; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			field := make([]float64, n)
			if i < len(players) {
				for _, s := range players[i].Ships {
					field[s.Pos] = shipStrength(s.Cargo, cargoClip)
				}
				for _, y := range players[i].Shipyards {
					field[y.Pos] += ownShipyardWeight
				}
			}
			raw[i] = scale(Blur(field, size, sigma), factor)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, n)
		for c := 0; c < n; c++ {
			best := math.Inf(-1)
			for j := range raw {
				if j != i && raw[j][c] > best {
					best = raw[j][c]
				}
			}
			out[i][c] = raw[i][c] - best
		}
	}
	return out, nil
}

// Safety is Me's presence minus the combined presence of every opponent,
// with enemy shipyards weighted more heavily than own ones.
func Safety(b *model.Board, sigma, factor, cargoClip float64) []float64 {
	field := make([]float64, b.Cells())
	for i := range b.Players {
		sign := -1.0
		yard := -enemyShipyardWeight
		if i == b.Me {
			sign, yard = 1, ownShipyardWeight
		}
		for _, s := range b.Players[i].Ships {
			field[s.Pos] += sign * shipStrength(s.Cargo, cargoClip)
		}
		for _, y := range b.Players[i].Shipyards {
			field[y.Pos] += yard
		}
	}
	return scale(Blur(field, b.Size, sigma), factor)
}

// Regions assigns each cell to the player whose relative dominance there
// reaches the threshold, or -1.
func Regions(ctx context.Context, players []model.Player, size int, cargoClip float64) ([]int, error) {
	rel, err := RelativeDominance(ctx, players, size, regionSigma, regionFactor, cargoClip)
	if err != nil {
		return nil, err
	}
	out := make([]int, size*size)
	for c := range out {
		out[c] = -1
		for i := range rel {
			if rel[i][c] >= regionThreshold {
				out[c] = i
			}
		}
	}
	return out, nil
}

// CargoMap blurs own cargo plus a flat value per shipyard, normalized.
func CargoMap(me *model.Player, size int, norm float64) []float64 {
	field := make([]float64, size*size)
	for _, s := range me.Ships {
		field[s.Pos] += float64(s.Cargo) / norm
	}
	for _, y := range me.Shipyards {
		field[y.Pos] += cargoShipyardValue / norm
	}
	return scale(Blur(field, size, cargoSigma), cargoScale)
}

// MinCargoInReach returns, per cell, the smallest cargo among ships that can
// occupy it next turn, or NoThreat.
func MinCargoInReach(ships []model.Ship, ix *spatial.Index) []int {
	out := make([]int, ix.Cells())
	for i := range out {
		out[i] = NoThreat
	}
	for _, s := range ships {
		for _, c := range ix.Reach(s.Pos) {
			if s.Cargo < out[c] {
				out[c] = s.Cargo
			}
		}
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	if v <= lo {
		return lo
	}
	if v >= hi {
		return hi
	}
	return v
}
