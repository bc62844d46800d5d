// Package rank stands in for the external MMR formula. Spec §1 treats rank
// arithmetic as a pure function the pipeline only consumes the output of;
// this package is deliberately not a Glicko-2/Elo implementation (that math
// is explicitly out of scope), mirroring the teacher's
// glicko2_rating_service.go in shape only: a pure computation behind a thin
// wrapper type, not in content.
package rank

// Tier is one of the 17 ordered rank tiers in spec §3.
type Tier int

const (
	TierBronze1 Tier = iota
	TierBronze2
	TierBronze3
	TierSilver1
	TierSilver2
	TierSilver3
	TierGold1
	TierGold2
	TierGold3
	TierPlatinum1
	TierPlatinum2
	TierPlatinum3
	TierDiamond1
	TierDiamond2
	TierDiamond3
	TierMaster
	TierGrandmaster
)

// Outcome is everything the external formula would need to compute a
// delta; this core never inspects its internals, only forwards it.
type Outcome struct {
	MMR       int
	Tier      Tier
	RankPoints int
	Won       bool
	Abandoned bool
}

// Delta is the adjustment a settlement applies to a player's MMR/tier/points.
type Delta struct {
	MMRChange        int
	NewTier          Tier
	NewRankPoints    int
	PlacementBonus   int
}

// Apply computes the rank delta for one player's outcome. The formula body
// is a placeholder for the externally-owned MMR function spec §1 excludes
// from this core; callers must not depend on the exact numbers here, only
// on the fact that a delta comes back for every outcome.
func Apply(o Outcome) Delta {
	change := 15
	if !o.Won {
		change = -15
	}
	if o.Abandoned {
		change = -25
	}

	points := o.RankPoints + change
	tier := o.Tier
	for points >= 100 && tier < TierGrandmaster {
		points -= 100
		tier++
	}
	for points < 0 && tier > TierBronze1 {
		points += 100
		tier--
	}
	if points < 0 {
		points = 0
	}

	return Delta{
		MMRChange:     change,
		NewTier:       tier,
		NewRankPoints: points,
	}
}
