package refs

import "github.com/Zeenat-Muzaffar/GHURLBot/internal/store"

// Policy is the debounce/history decision for reference expansion. The
// window is measured in observed chat lines, not wall-clock time: chat
// volume, not elapsed minutes, is what makes a repeated mention "new".
type Policy struct {
	Store *store.ChannelStore
}

// ShouldExpand decides whether a token gets expanded at currentLine, and
// records the expansion in history when it says yes.
//
// A message addressed directly at the bot always expands: direct address is
// an explicit request, and the suspend/delay heuristics exist only to reduce
// noise in ambient conversation. Otherwise the kind must be enabled and more
// than delay lines must have passed since the token's last expansion. A
// never-seen token has lastLine -delay, so its first mention always expands.
func (p *Policy) ShouldExpand(channel, token string, currentLine int, addressed, kindEnabled bool, delay int) bool {
	if addressed {
		p.Store.RecordSeen(channel, token, currentLine)
		return true
	}
	if !kindEnabled {
		return false
	}

	last, ok := p.Store.LastSeen(channel, token)
	if !ok {
		last = -delay
	}
	if currentLine > last+delay {
		p.Store.RecordSeen(channel, token, currentLine)
		return true
	}
	return false
}
