// Package ws pushes live updates to open BlogMe pages.
//
// Layout:
//   - Hub: every open connection, keyed by page id (one id per loaded page)
//   - Client: one websocket connection and its read/write pumps
//   - Event: the JSON frame sent both ways
//
// Flow: a service changes state, calls a Hub method, the Hub queues the
// encoded frame on each matching client and the client's WritePump writes
// it. The page script swaps the fragment or re-renders the feed.
package ws

// Event is one frame.
//
// Seq increases with every outbound event so the page can notice gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client -> server operations.
const (
	OpHeartbeat = "heartbeat" // sent every 30s by the page
)

// Server -> client operations.
const (
	OpHeartbeatAck   = "heartbeat_ack"
	OpReactionPatch  = "reaction_patch"  // replace one reaction row
	OpFeedReset      = "feed_reset"      // re-render the feed from the top
	OpCommentsUpdate = "comments_update" // a comment thread changed
)

// ReactionPatchData replaces the element ElementID with HTML.
type ReactionPatchData struct {
	PostID    string `json:"post_id"`
	ElementID string `json:"element_id"`
	HTML      string `json:"html"`
}

// CommentsUpdateData names the post whose thread changed.
type CommentsUpdateData struct {
	PostID        string `json:"post_id"`
	CommentsCount int    `json:"comments_count"`
}
