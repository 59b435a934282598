// Package models defines the domain records of BlogMe.
//
// JSON tags use the camelCase names the web client always persisted, so a
// blob written by an older client still decodes into these structs.
package models

// DefaultAvatar is used when a post or profile has no picture.
const DefaultAvatar = "/static/images/avatar-placeholder.png"

// Post is a single feed entry.
//
// Author fields are a snapshot taken at creation time; later profile edits
// do not rewrite old posts.
type Post struct {
	ID            string            `json:"id"`
	Author        string            `json:"author"`
	AuthorID      string            `json:"authorId,omitempty"`
	AuthorAvatar  string            `json:"authorAvatar"`
	Content       string            `json:"content"` // sanitized HTML fragment
	Imgs          []string          `json:"imgs"`    // remote URLs or data: URIs
	TS            int64             `json:"ts"`      // epoch ms
	Category      string            `json:"category"`
	CommentsCount int               `json:"commentsCount"`
	Reactions     map[string]int    `json:"reactions"`
	UserReactions map[string]string `json:"userReactions"`
	Hidden        bool              `json:"hidden,omitempty"`
}

// Clone returns a deep copy, safe to read after the feed lock is released.
func (p *Post) Clone() *Post {
	c := *p
	c.Imgs = append([]string(nil), p.Imgs...)
	c.Reactions = make(map[string]int, len(p.Reactions))
	for k, v := range p.Reactions {
		c.Reactions[k] = v
	}
	c.UserReactions = make(map[string]string, len(p.UserReactions))
	for k, v := range p.UserReactions {
		c.UserReactions[k] = v
	}
	return &c
}

// ReactionOf returns the emoji chosen by userID, or "".
func (p *Post) ReactionOf(userID string) string {
	if p.UserReactions == nil {
		return ""
	}
	return p.UserReactions[userID]
}

// CreatePostPayload is what the composer sends to the remote backend.
type CreatePostPayload struct {
	Author       string `json:"author"`
	AuthorID     string `json:"authorId"`
	AuthorAvatar string `json:"authorAvatar"`
	Content      string `json:"content"`
	Category     string `json:"category"`
	TS           int64  `json:"ts"`
}

// UpdatePostRequest carries the fields changed by an edit.
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// ReportRequest is the body of a moderation report.
type ReportRequest struct {
	Reason   string `json:"reason"`
	Reporter string `json:"reporter"`
}
