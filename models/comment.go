package models

// Comment is a local-only comment on a post. Comments of one post are
// stored together under CommentsKey(postID).
//
// UserReaction is a single slot shared by everyone on the device: comment
// reactions are aggregate counts and are not attributed per user.
type Comment struct {
	ID           string         `json:"id"`
	Author       string         `json:"author"`
	AuthorAvatar string         `json:"authorAvatar"`
	Text         string         `json:"text"`
	TS           int64          `json:"ts"`
	Reactions    map[string]int `json:"reactions"`
	UserReaction string         `json:"userReaction,omitempty"`
	Replies      []Reply        `json:"replies"`
}

// Reply is an append-only answer to a comment. Replies do not nest.
type Reply struct {
	ID           string `json:"id"`
	Author       string `json:"author"`
	AuthorAvatar string `json:"authorAvatar"`
	Text         string `json:"text"`
	TS           int64  `json:"ts"`
}

// ApplyCommentToggle runs the same cancel/add/switch transition as
// ApplyToggle against the comment's single reaction slot.
func ApplyCommentToggle(c *Comment, emoji string) ToggleResult {
	if c.Reactions == nil {
		c.Reactions = make(map[string]int)
	}

	prev := c.UserReaction
	switch {
	case prev == emoji:
		c.Reactions[emoji] = max(0, c.Reactions[emoji]-1)
		c.UserReaction = ""
		return ToggleCancelled
	case prev == "":
		c.Reactions[emoji]++
		c.UserReaction = emoji
		return ToggleAdded
	default:
		c.Reactions[prev] = max(0, c.Reactions[prev]-1)
		c.Reactions[emoji]++
		c.UserReaction = emoji
		return ToggleSwitched
	}
}

// SendCommentRequest is posted by the comment composer.
type SendCommentRequest struct {
	Text string `json:"text"`
}

// ReplyTargetRequest points the composer at a comment.
type ReplyTargetRequest struct {
	CommentID string `json:"commentId"`
	Author    string `json:"author"`
}
