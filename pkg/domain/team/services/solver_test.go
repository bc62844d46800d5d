package services

import (
	"testing"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(id int64, mmr int, primary, secondary entities.Class) entities.Candidate {
	return entities.Candidate{
		PlayerID:  common.PlayerID(id),
		MMR:       mmr,
		Primary:   primary,
		Secondary: secondary,
		QueuedAt:  id,
	}
}

// S1: all-1500-MMR, exact primaries for every role, two each.
func TestBuild_S1_HappyPathStrictSolve(t *testing.T) {
	candidates := []entities.Candidate{
		candidate(1, 1500, entities.ClassSniper, entities.ClassT1),
		candidate(2, 1500, entities.ClassSniper, entities.ClassT2),
		candidate(3, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(4, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(5, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(6, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(7, 1500, entities.ClassT3, entities.ClassSMG),
		candidate(8, 1500, entities.ClassT3, entities.ClassSMG),
		candidate(9, 1500, entities.ClassT4, entities.ClassSMG),
		candidate(10, 1500, entities.ClassT4, entities.ClassSMG),
	}

	cohort, ok := Build(candidates)
	require.True(t, ok)

	require.Len(t, cohort.Alpha, 5)
	require.Len(t, cohort.Bravo, 5)

	byID := make(map[common.PlayerID]entities.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.PlayerID] = c
	}

	alphaSum := cohort.MMRSum(byID, cohort.Alpha)
	bravoSum := cohort.MMRSum(byID, cohort.Bravo)
	assert.Equal(t, alphaSum, bravoSum, "S1 expects |diff| == 0")

	assertRoleContract(t, cohort)
	for _, a := range append(append([]entities.Assignment{}, cohort.Alpha...), cohort.Bravo...) {
		assert.False(t, a.WasAutofill)
	}
}

// S2: one missing T3, two SMG players fill the gap as flex.
func TestBuild_S2_FlexNeeded(t *testing.T) {
	candidates := []entities.Candidate{
		candidate(1, 1500, entities.ClassSniper, entities.ClassT1),
		candidate(2, 1500, entities.ClassSniper, entities.ClassT2),
		candidate(3, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(4, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(5, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(6, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(7, 1500, entities.ClassSMG, entities.ClassT3),
		candidate(8, 1500, entities.ClassSMG, entities.ClassT3),
		candidate(9, 1500, entities.ClassT4, entities.ClassSMG),
		candidate(10, 1500, entities.ClassT4, entities.ClassSMG),
	}

	cohort, ok := Build(candidates)
	require.True(t, ok)

	assertRoleContract(t, cohort)

	flexCount := 0
	for _, a := range append(append([]entities.Assignment{}, cohort.Alpha...), cohort.Bravo...) {
		if a.Role == entities.RoleT3 && (a.PlayerID == 7 || a.PlayerID == 8) {
			flexCount++
		}
	}
	assert.Equal(t, 2, flexCount, "both SMG players should flex into T3, one per team")
}

func TestBuild_RejectsNonTenCandidates(t *testing.T) {
	_, ok := Build([]entities.Candidate{candidate(1, 1500, entities.ClassSniper, entities.ClassT1)})
	assert.False(t, ok)
}

func TestBuild_AutofillFallbackWhenStrictInfeasible(t *testing.T) {
	// No SNIPER-capable players at all: strict must fail, autofill must still
	// produce a complete ten-player cohort.
	candidates := []entities.Candidate{
		candidate(1, 1500, entities.ClassT1, entities.ClassT2),
		candidate(2, 1500, entities.ClassT1, entities.ClassT2),
		candidate(3, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(4, 1500, entities.ClassT1, entities.ClassSMG),
		candidate(5, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(6, 1500, entities.ClassT2, entities.ClassSMG),
		candidate(7, 1500, entities.ClassT3, entities.ClassSMG),
		candidate(8, 1500, entities.ClassT3, entities.ClassSMG),
		candidate(9, 1500, entities.ClassT4, entities.ClassSMG),
		candidate(10, 1500, entities.ClassT4, entities.ClassSMG),
	}

	cohort, ok := Build(candidates)
	require.True(t, ok)
	assertTenDistinctPlayers(t, cohort)
	for _, a := range append(append([]entities.Assignment{}, cohort.Alpha...), cohort.Bravo...) {
		assert.True(t, a.WasAutofill)
	}
}

func assertRoleContract(t *testing.T, cohort entities.Cohort) {
	t.Helper()
	assertTenDistinctPlayers(t, cohort)

	for _, team := range [][]entities.Assignment{cohort.Alpha, cohort.Bravo} {
		require.Len(t, team, 5)
		seen := make(map[entities.Role]bool)
		for _, a := range team {
			assert.False(t, seen[a.Role], "role %s repeated on a team", a.Role)
			seen[a.Role] = true
		}
		for _, r := range entities.Roles {
			assert.True(t, seen[r], "team missing role %s", r)
		}
	}
}

func assertTenDistinctPlayers(t *testing.T, cohort entities.Cohort) {
	t.Helper()
	all := append(append([]entities.Assignment{}, cohort.Alpha...), cohort.Bravo...)
	require.Len(t, all, 10)
	seen := make(map[common.PlayerID]bool)
	for _, a := range all {
		assert.False(t, seen[a.PlayerID], "player %d assigned twice", a.PlayerID)
		seen[a.PlayerID] = true
	}
}
