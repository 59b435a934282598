package services

// Message keys returned to handlers, either as the text of a wrapped
// domain error or as the toast of a successful action. Handlers translate
// them with pkg/i18n.
const (
	MsgEmptyPost        = "feed.empty_post"
	MsgEmptyEdit        = "feed.empty_edit"
	MsgPublished        = "feed.published"
	MsgPublishedOffline = "feed.published_offline"
	MsgEdited           = "feed.edited"
	MsgSaved            = "feed.saved"
	MsgUnsaved          = "feed.unsaved"
	MsgDeleted          = "feed.deleted"
	MsgHidden           = "feed.hidden"
	MsgVisible          = "feed.visible"
	MsgNoPosts          = "feed.no_posts"
	MsgReportCancelled  = "feed.report_cancelled"
	MsgReportSent       = "feed.report_sent"
	MsgReportOffline    = "feed.report_offline"
	MsgReportLimited    = "feed.report_limited"
	MsgImageAdded       = "feed.image_added"
	MsgImageInvalid     = "feed.image_invalid"
	MsgImageTooLarge    = "feed.image_too_large"
	MsgPostNotFound     = "feed.not_found"

	MsgCommentEmpty     = "comments.empty"
	MsgThreadMissing    = "comments.thread_missing"
	MsgReplySent        = "comments.reply_sent"
	MsgCommentPublished = "comments.published"
	MsgCommentUpdated   = "comments.updated"
	MsgCommentDeleted   = "comments.deleted"
	MsgCommentEditEmpty = "comments.edit_empty"
	MsgConfirmDelete    = "comments.confirm_delete"
	MsgLabelSave        = "comments.label_save"
	MsgLabelDelete      = "comments.label_delete"
	MsgLabelConfirm     = "comments.label_confirm"
	MsgNotAuthor        = "comments.not_author"
	MsgConfirmExpired   = "comments.confirm_expired"
	MsgCommentNotFound  = "comments.not_found"

	MsgMissingFields      = "auth.missing_fields"
	MsgInvalidUsername    = "auth.invalid_username"
	MsgInvalidUsernameReg = "auth.invalid_username_register"
	MsgInvalidEmail       = "auth.invalid_email"
	MsgShortPassword      = "auth.short_password"
	MsgBadCredentials     = "auth.bad_credentials"
	MsgUnreachable        = "auth.unreachable"
	MsgWelcome            = "auth.welcome"
	MsgWelcomeAdmin       = "auth.welcome_admin"
	MsgRegistered         = "auth.registered"
	MsgRegisteredOffline  = "auth.registered_offline"
	MsgRegisterFailed     = "auth.register_failed"
	MsgUsernameTaken      = "auth.username_taken"
	MsgLoggedOut          = "auth.logged_out"
	MsgSessionExpired     = "auth.session_expired"

	MsgNoteEmpty     = "profile.note_empty"
	MsgNoteAdded     = "profile.note_added"
	MsgNoteUpdated   = "profile.note_updated"
	MsgNoteDeleted   = "profile.note_deleted"
	MsgNoteNotFound  = "profile.note_not_found"
	MsgProfileSaved  = "profile.updated"
	MsgAvatarUpdated = "profile.avatar_updated"
	MsgPostUpdated   = "profile.post_updated"
	MsgPostDeleted   = "profile.post_deleted"
	MsgNotYourPost   = "profile.not_your_post"

	MsgPlanNameRequired = "plans.name_required"
	MsgPlanUnknown      = "plans.unknown"
	MsgSubscribed       = "plans.subscribed"

	MsgAdminUserDeleted  = "admin.user_deleted"
	MsgAdminPostDeleted  = "admin.post_deleted"
	MsgAdminUnavailable  = "admin.unavailable"
	MsgAdminDeleteFailed = "admin.delete_failed"
)

// Result is the outcome of an action that mutates state: the toast key and
// its placeholder values.
type Result struct {
	Message string
	Params  map[string]string
	Kind    string // success, info, warn
}

func success(key string) Result { return Result{Message: key, Kind: "success"} }
func info(key string) Result    { return Result{Message: key, Kind: "info"} }
