package models

// Keys of the device-local store. The names match what the web client
// used in localStorage.
const (
	PostsKey         = "blogme_posts"
	SavedKey         = "blogme_saved"
	ActiveUserKey    = "usuarioActivo"
	PlanKey          = "blogme_plan"
	PrivilegesKey    = "blogme_privilegios"
	profileKeyPrefix = "blogme_profile_"
	commentKeyPrefix = "blogme_comments_"
)

// ProfileKey is where the profile of userID is stored.
func ProfileKey(userID string) string { return profileKeyPrefix + userID }

// CommentsKey is where the comments of postID are stored.
func CommentsKey(postID string) string { return commentKeyPrefix + postID }
