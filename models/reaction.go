package models

// Emojis is the fixed reaction set, in display order.
var Emojis = []string{"❤️", "😂", "😮", "😢", "😡"}

// IsReactionEmoji reports whether e belongs to the reaction set.
func IsReactionEmoji(e string) bool {
	for _, x := range Emojis {
		if x == e {
			return true
		}
	}
	return false
}

// ZeroReactions returns a count map with every emoji at zero.
// Posts created offline start with it.
func ZeroReactions() map[string]int {
	m := make(map[string]int, len(Emojis))
	for _, e := range Emojis {
		m[e] = 0
	}
	return m
}

// ReactionRequest is the body sent to the remote reaction endpoint.
type ReactionRequest struct {
	Reaction string `json:"reaction"`
	User     string `json:"user"`
}

// ReactionState is the canonical reaction data returned by the backend.
// UserReactions is nil when the backend only reports aggregates.
type ReactionState struct {
	Reactions     map[string]int    `json:"reactions"`
	UserReactions map[string]string `json:"userReactions,omitempty"`
}

// ToggleResult tells which of the three transitions ApplyToggle took.
type ToggleResult int

const (
	ToggleAdded ToggleResult = iota
	ToggleCancelled
	ToggleSwitched
)

// ApplyToggle applies a single-choice reaction toggle for userID:
//
//	same emoji as before -> cancel (count -1, choice cleared)
//	no previous choice   -> add    (count +1, choice recorded)
//	other emoji before   -> switch (old -1, new +1, choice replaced)
//
// Counts never drop below zero. Untouched emoji counts are left as they are.
func ApplyToggle(p *Post, userID, emoji string) ToggleResult {
	if p.Reactions == nil {
		p.Reactions = make(map[string]int)
	}
	if p.UserReactions == nil {
		p.UserReactions = make(map[string]string)
	}

	prev, hadPrev := p.UserReactions[userID]

	switch {
	case hadPrev && prev == emoji:
		p.Reactions[emoji] = max(0, p.Reactions[emoji]-1)
		delete(p.UserReactions, userID)
		return ToggleCancelled
	case !hadPrev:
		p.Reactions[emoji]++
		p.UserReactions[userID] = emoji
		return ToggleAdded
	default:
		p.Reactions[prev] = max(0, p.Reactions[prev]-1)
		p.Reactions[emoji]++
		p.UserReactions[userID] = emoji
		return ToggleSwitched
	}
}

// ApplyState replaces the post's reaction maps with the server's.
// UserReactions is only replaced when the server sent it.
func ApplyState(p *Post, st *ReactionState) {
	p.Reactions = make(map[string]int, len(st.Reactions))
	for k, v := range st.Reactions {
		p.Reactions[k] = max(0, v)
	}
	if st.UserReactions != nil {
		p.UserReactions = make(map[string]string, len(st.UserReactions))
		for k, v := range st.UserReactions {
			p.UserReactions[k] = v
		}
	}
}
