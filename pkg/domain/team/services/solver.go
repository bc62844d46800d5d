// Package services holds the Team Builder's pure backtracking solver.
// Per spec §9 ("the backtracking solver is pure; unit-test it directly
// against the invariants in §8") this package performs no I/O and has no
// repository port — it's a pure function from ten candidates to a Cohort.
package services

import (
	"sort"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
)

type slotSpec struct {
	team common.Team
	role entities.Role
}

// slots is the fixed ordering from spec §4.2:
// (ALPHA,SNIPER),(BRAVO,SNIPER),(ALPHA,T1)...(BRAVO,T4).
var slots = [10]slotSpec{
	{common.TeamAlpha, entities.RoleSniper}, {common.TeamBravo, entities.RoleSniper},
	{common.TeamAlpha, entities.RoleT1}, {common.TeamBravo, entities.RoleT1},
	{common.TeamAlpha, entities.RoleT2}, {common.TeamBravo, entities.RoleT2},
	{common.TeamAlpha, entities.RoleT3}, {common.TeamBravo, entities.RoleT3},
	{common.TeamAlpha, entities.RoleT4}, {common.TeamBravo, entities.RoleT4},
}

// Build runs the strict solver first and falls back to relaxed autofill
// only if strict finds no feasible assignment, per spec §4.2.
func Build(candidates []entities.Candidate) (entities.Cohort, bool) {
	if len(candidates) != 10 {
		return entities.Cohort{}, false
	}

	if cohort, ok := solve(candidates, strictEligibility, true); ok {
		return cohort, true
	}
	return solve(candidates, autofillEligibility, false)
}

// eligibilityFn returns (priority, eligible, effectiveClass) for a
// candidate filling a given role.
type eligibilityFn func(c entities.Candidate, role entities.Role) (priority int, eligible bool, effectiveClass entities.Class)

func strictEligibility(c entities.Candidate, role entities.Role) (int, bool, entities.Class) {
	if role == entities.RoleSniper {
		switch {
		case c.Primary == entities.ClassSniper:
			return 0, true, entities.ClassSniper
		case c.Secondary == entities.ClassSniper:
			return 1, true, entities.ClassSniper
		default:
			return 0, false, ""
		}
	}

	// A primary SNIPER is ineligible for any non-SNIPER slot (spec §4.2).
	if c.Primary == entities.ClassSniper {
		return 0, false, ""
	}

	tnClass := tierClass(role)
	switch {
	case c.Primary == tnClass:
		return 0, true, tnClass
	case c.Primary == entities.ClassSMG:
		return 1, true, entities.ClassSMG
	default:
		return 0, false, ""
	}
}

func autofillEligibility(c entities.Candidate, role entities.Role) (int, bool, entities.Class) {
	roleClass := roleToClass(role)
	switch {
	case c.Primary == roleClass:
		return 0, true, c.Primary
	case c.Secondary == roleClass:
		return 1, true, c.Secondary
	case c.Primary == entities.ClassSMG:
		return 2, true, c.Primary
	case c.Secondary == entities.ClassSMG:
		return 3, true, c.Secondary
	default:
		return 4, true, c.Primary
	}
}

func roleToClass(r entities.Role) entities.Class {
	switch r {
	case entities.RoleSniper:
		return entities.ClassSniper
	case entities.RoleT1:
		return entities.ClassT1
	case entities.RoleT2:
		return entities.ClassT2
	case entities.RoleT3:
		return entities.ClassT3
	case entities.RoleT4:
		return entities.ClassT4
	}
	return ""
}

func tierClass(r entities.Role) entities.Class { return roleToClass(r) }

type searchState struct {
	candidates    map[common.PlayerID]entities.Candidate
	eligibility   eligibilityFn
	enforceUnique bool
	isAutofill    bool

	used        map[common.PlayerID]bool
	teamClasses map[common.Team]map[entities.Class]bool
	teamMMR     map[common.Team]int
	assignments [10]entities.Assignment

	bestDiff        int
	bestAssignments [10]entities.Assignment
	found           bool
}

func solve(candidates []entities.Candidate, elig eligibilityFn, enforceUnique bool) (entities.Cohort, bool) {
	byID := make(map[common.PlayerID]entities.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.PlayerID] = c
	}

	st := &searchState{
		candidates:    byID,
		eligibility:   elig,
		enforceUnique: enforceUnique,
		isAutofill:    !enforceUnique,
		used:          make(map[common.PlayerID]bool, 10),
		teamClasses: map[common.Team]map[entities.Class]bool{
			common.TeamAlpha: make(map[entities.Class]bool),
			common.TeamBravo: make(map[entities.Class]bool),
		},
		teamMMR:  map[common.Team]int{common.TeamAlpha: 0, common.TeamBravo: 0},
		bestDiff: -1,
	}

	st.search(candidates, 0)

	if !st.found {
		return entities.Cohort{}, false
	}

	cohort := entities.Cohort{}
	for i, spec := range slots {
		a := st.bestAssignments[i]
		if spec.team == common.TeamAlpha {
			cohort.Alpha = append(cohort.Alpha, a)
		} else {
			cohort.Bravo = append(cohort.Bravo, a)
		}
	}
	shuffle(cohort.Alpha)
	shuffle(cohort.Bravo)
	return cohort, true
}

func (st *searchState) search(all []entities.Candidate, slotIdx int) {
	if st.found && st.bestDiff == 0 {
		return // optimal already found, short-circuit
	}

	if slotIdx == len(slots) {
		diff := st.teamMMR[common.TeamAlpha] - st.teamMMR[common.TeamBravo]
		if diff < 0 {
			diff = -diff
		}
		if !st.found || diff < st.bestDiff {
			st.found = true
			st.bestDiff = diff
			st.bestAssignments = st.assignments
		}
		return
	}

	spec := slots[slotIdx]
	ranked := st.rankedCandidates(all, spec.role)

	for _, rc := range ranked {
		if st.used[rc.candidate.PlayerID] {
			continue
		}
		if st.enforceUnique && st.teamClasses[spec.team][rc.effectiveClass] {
			continue
		}

		st.used[rc.candidate.PlayerID] = true
		if st.enforceUnique {
			st.teamClasses[spec.team][rc.effectiveClass] = true
		}
		st.teamMMR[spec.team] += rc.candidate.MMR
		st.assignments[slotIdx] = entities.Assignment{
			PlayerID:    rc.candidate.PlayerID,
			Role:        spec.role,
			WasAutofill: st.isAutofill,
			WasFlex:     rc.effectiveClass == entities.ClassSMG || (spec.role != entities.RoleSniper && rc.priority > 0),
		}

		st.search(all, slotIdx+1)

		st.used[rc.candidate.PlayerID] = false
		if st.enforceUnique {
			delete(st.teamClasses[spec.team], rc.effectiveClass)
		}
		st.teamMMR[spec.team] -= rc.candidate.MMR

		if st.found && st.bestDiff == 0 {
			return
		}
	}
}

type rankedCandidate struct {
	candidate      entities.Candidate
	priority       int
	effectiveClass entities.Class
}

func (st *searchState) rankedCandidates(all []entities.Candidate, role entities.Role) []rankedCandidate {
	out := make([]rankedCandidate, 0, len(all))
	for _, c := range all {
		prio, eligible, effClass := st.eligibility(c, role)
		if !eligible {
			continue
		}
		out = append(out, rankedCandidate{candidate: c, priority: prio, effectiveClass: effClass})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		if out[i].candidate.QueuedAt != out[j].candidate.QueuedAt {
			return out[i].candidate.QueuedAt < out[j].candidate.QueuedAt
		}
		return out[i].candidate.MMR > out[j].candidate.MMR
	})
	return out
}

// shuffle leaves the order unchanged, so the solver stays pure and Build's
// output order is deterministic for tests. The randomized (Fisher-Yates)
// presentation order comes from ShuffleWithRand, which the Queue Engine
// tick applies to each cohort with its own random source.
func shuffle(a []entities.Assignment) {
	// No-op by default: Build is pure and deterministic for testability;
	// ShuffleWithRand below performs the spec's randomized presentation
	// order when a caller supplies entropy.
	_ = a
}

// Randomizer is the minimal interface Fisher-Yates needs, satisfied by
// *math/rand.Rand, so tests can inject a seeded source.
type Randomizer interface {
	Intn(n int) int
}

// ShuffleWithRand applies Fisher-Yates to randomize each team's
// presentation order, per spec §4.2's final step.
func ShuffleWithRand(cohort *entities.Cohort, r Randomizer) {
	fisherYates(cohort.Alpha, r)
	fisherYates(cohort.Bravo, r)
}

func fisherYates(a []entities.Assignment, r Randomizer) {
	for i := len(a) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
