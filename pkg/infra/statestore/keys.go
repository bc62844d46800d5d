package statestore

import "github.com/leetgaming/ranked-coordinator/pkg/domain"

// Keys centralizes every well-known key pattern from spec §6 so no
// component builds a key by ad-hoc string concatenation.
func QueueKey(p common.PlayerID) string    { return "queue:ranked:" + itoa(int64(p)) }
func RequeueKey(p common.PlayerID) string  { return "requeue:ranked:" + itoa(int64(p)) }
func CooldownKey(p common.PlayerID) string { return "cooldown:" + itoa(int64(p)) }
func HostCooldownKey(p common.PlayerID) string {
	return "cooldown:host:" + itoa(int64(p))
}
func DeclineCountKey(p common.PlayerID) string {
	return "decline:count:" + itoa(int64(p))
}
func AbandonCountKey(p common.PlayerID) string {
	return "abandon:count:" + itoa(int64(p))
}

func MatchStatusKey(m common.MatchID) string       { return "match:" + string(m) + ":status" }
func MatchReadyKey(m common.MatchID) string         { return "match:" + string(m) + ":ready" }
func MatchClassesKey(m common.MatchID) string        { return "match:" + string(m) + ":classes" }
func MatchQueueSnapshotKey(m common.MatchID) string { return "match:" + string(m) + ":queueSnapshot" }
func MatchHostKey(m common.MatchID) string          { return "match:" + string(m) + ":host" }
func MatchHostPasswordKey(m common.MatchID) string  { return "match:" + string(m) + ":hostPassword" }
func MatchRoomKey(m common.MatchID) string          { return "match:" + string(m) + ":room" }

func LobbyTempKey(m common.MatchID) string     { return "lobby:temp:" + string(m) }
func LobbyStateKey(m common.MatchID) string    { return "lobby:" + string(m) + ":state" }
func LobbyVetosKey(m common.MatchID) string    { return "lobby:" + string(m) + ":vetos" }
func LobbySelectedMapKey(m common.MatchID) string { return "lobby:" + string(m) + ":selectedMap" }

// SessionMatchKey is not part of spec §6's literal key schema: it backs
// the Session Router's player->match lookup (spec §4.7's disconnect
// cascade needs to know which match, if any, to cancel into), written at
// cohort-publication time and left to the same 2h TTL as the match keys
// it tracks.
func SessionMatchKey(p common.PlayerID) string { return "session:match:" + itoa(int64(p)) }

const MatchCounterKey = "match:counter"

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
