package services

import "github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"

type windowParams struct {
	base   int
	growth int
}

var windowByTier = map[entities.TierBucket]windowParams{
	entities.TierLow:  {base: 150, growth: 60},
	entities.TierMid:  {base: 100, growth: 40},
	entities.TierHigh: {base: 50, growth: 25},
}

const (
	maxWindow       = 500
	windowStepMs    = 30_000
	hardAutofillMs  = 120_000
	emergencyWaitMs = 5 * 60_000
)

// MMRWindow computes the dynamic MMR window around a reference player, per
// spec §4.1 step 2. It grows with wait time and is monotone non-decreasing
// for a fixed reference (spec §8 property 5).
func MMRWindow(tier entities.TierBucket, waitMs int64) int {
	p := windowByTier[tier]
	steps := int(waitMs / windowStepMs)
	window := p.base + steps*p.growth
	if window > maxWindow {
		window = maxWindow
	}
	return window
}

// AllowHardAutofill reports whether a single reference's role-contract pass
// may consider the flex tier (any remaining player), per spec §4.1 step 4
// ("the latter only when waitMs ≥ 120 s").
func AllowHardAutofill(waitMs int64) bool {
	return waitMs >= hardAutofillMs
}

// EmergencyPassDue reports whether the whole-tick emergency autofill pass
// should run because the oldest entry has waited long enough (spec §4.1
// step 5), a separate, coarser-grained gate from AllowHardAutofill (see
// SPEC_FULL.md's resolution of the two open-question thresholds).
func EmergencyPassDue(oldestWaitMs int64) bool {
	return oldestWaitMs >= emergencyWaitMs
}

// PoolWithin returns the subset of entries whose MMR falls within
// [ref-window, ref+window] of the reference entry's MMR.
func PoolWithin(all []entities.QueueEntry, ref entities.QueueEntry, window int) []entities.QueueEntry {
	lo, hi := ref.MMR-window, ref.MMR+window
	out := make([]entities.QueueEntry, 0, len(all))
	for _, e := range all {
		if e.MMR >= lo && e.MMR <= hi {
			out = append(out, e)
		}
	}
	return out
}
