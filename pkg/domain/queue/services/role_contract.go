package services

import (
	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
	"github.com/leetgaming/ranked-coordinator/pkg/domain/queue/entities"
	team "github.com/leetgaming/ranked-coordinator/pkg/domain/team/entities"
)

var contractRoles = [5]team.Class{team.ClassSniper, team.ClassT1, team.ClassT2, team.ClassT3, team.ClassT4}

// PickRoleContract selects ten players from pool satisfying spec §4.1 step
// 4: two players for each of {SNIPER,T1,T2,T3,T4}, filled greedily from
// primary-class matches, then secondary-class matches, then flex (SMG or,
// only when allowHardAutofill is set, any remaining player).
func PickRoleContract(pool []entities.QueueEntry, allowHardAutofill bool) ([]entities.QueueEntry, bool) {
	used := make(map[common.PlayerID]bool, len(pool))
	var selected []entities.QueueEntry

	for _, role := range contractRoles {
		picked := pickForRole(pool, used, role, allowHardAutofill)
		if len(picked) < 2 {
			return nil, false
		}
		for _, p := range picked {
			used[p.PlayerID] = true
		}
		selected = append(selected, picked...)
	}

	return selected, true
}

func pickForRole(pool []entities.QueueEntry, used map[common.PlayerID]bool, role team.Class, allowHardAutofill bool) []entities.QueueEntry {
	var picked []entities.QueueEntry

	appendMatching := func(pred func(e entities.QueueEntry) bool) {
		for _, e := range pool {
			if len(picked) >= 2 {
				return
			}
			if used[e.PlayerID] {
				continue
			}
			alreadyPicked := false
			for _, p := range picked {
				if p.PlayerID == e.PlayerID {
					alreadyPicked = true
					break
				}
			}
			if alreadyPicked {
				continue
			}
			if pred(e) {
				picked = append(picked, e)
			}
		}
	}

	appendMatching(func(e entities.QueueEntry) bool { return e.Classes.Primary == role })
	appendMatching(func(e entities.QueueEntry) bool { return e.Classes.Secondary == role })
	appendMatching(func(e entities.QueueEntry) bool { return e.Classes.Primary == team.ClassSMG })
	if allowHardAutofill {
		appendMatching(func(entities.QueueEntry) bool { return true })
	}

	return picked
}
