// Package render turns posts, comments and profiles into HTML fragments.
//
// Fragments are produced by html/template so everything except sanitized
// post content is escaped. Each card exposes stable element ids (see
// ReactionsElementID) that the page script swaps when a patch arrives.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/akinalp/blogme/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var safeImageSrc = regexp.MustCompile(`(?i)^(data:image/|https?://|/)`)

// ReactionsElementID is the id of a post's reaction row.
func ReactionsElementID(postID string) string {
	return "post-" + postID + "-reactions"
}

// PostElementID is the id of a post card.
func PostElementID(postID string) string {
	return "post-" + postID
}

// TimeAgo formats the age of ts (epoch ms) as 12s, 5m, 3h or 2d.
func TimeAgo(ts int64, now time.Time) string {
	if ts == 0 {
		return ""
	}
	s := (now.UnixMilli() - ts) / 1000
	if s < 60 {
		return fmt.Sprintf("%ds", max(0, s))
	}
	m := s / 60
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	h := m / 60
	if h < 24 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd", h/24)
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	r := &Renderer{now: time.Now}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"timeAgo": func(ts int64) string { return TimeAgo(ts, r.now()) },
		"imageURL": func(src string) template.URL {
			// data: URIs would be filtered by html/template otherwise
			if !safeImageSrc.MatchString(src) {
				return ""
			}
			return template.URL(src)
		},
		"content":     func(s string) template.HTML { return template.HTML(s) },
		"pathEscape":  url.PathEscape,
		"queryEscape": url.QueryEscape,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) exec(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ReactionButton is one emoji button of a reaction row.
type ReactionButton struct {
	Emoji   string
	Count   int
	Active  bool
	Encoded string
}

type reactionsView struct {
	PostID    string
	ElementID string
	Buttons   []ReactionButton
}

func newReactionsView(p *models.Post, viewerID string) reactionsView {
	choice := p.ReactionOf(viewerID)
	v := reactionsView{PostID: p.ID, ElementID: ReactionsElementID(p.ID)}
	for _, e := range models.Emojis {
		v.Buttons = append(v.Buttons, ReactionButton{
			Emoji:   e,
			Count:   p.Reactions[e],
			Active:  choice == e,
			Encoded: url.QueryEscape(e),
		})
	}
	return v
}

// Reactions renders the reaction row of p as seen by viewerID.
func (r *Renderer) Reactions(p *models.Post, viewerID string) (string, error) {
	return r.exec("reactions", newReactionsView(p, viewerID))
}

type cardView struct {
	Post      *models.Post
	ElementID string
	Reactions reactionsView
	Saved     bool
}

// PostCards renders one card per post. isSaved reports the viewer's
// bookmarks.
func (r *Renderer) PostCards(posts []*models.Post, viewerID string, isSaved func(string) bool) (string, error) {
	var b strings.Builder
	for _, p := range posts {
		html, err := r.exec("post_card", cardView{
			Post:      p,
			ElementID: PostElementID(p.ID),
			Reactions: newReactionsView(p, viewerID),
			Saved:     isSaved != nil && isSaved(p.ID),
		})
		if err != nil {
			return "", err
		}
		b.WriteString(html)
	}
	return b.String(), nil
}

// Hint renders the placeholder shown instead of an empty feed.
func (r *Renderer) Hint(text string) (string, error) {
	return r.exec("hint", text)
}

// Reader renders the read-mode overlay for one post.
func (r *Renderer) Reader(p *models.Post, labels ReaderLabels) (string, error) {
	return r.exec("reader", struct {
		Post   *models.Post
		Labels ReaderLabels
	}{p, labels})
}

// ReaderLabels are the overlay button captions.
type ReaderLabels struct {
	Comments string
	Save     string
}

// CommentsView is the data of a comment thread fragment.
type CommentsView struct {
	PostID      string
	Comments    []models.Comment
	ViewerName  string
	ReplyTarget string // comment id the composer replies to, if any
	ReplyAuthor string
}

// Comments renders the thread of a post.
func (r *Renderer) Comments(v CommentsView) (string, error) {
	return r.exec("comments", v)
}

// ProfileView is the data of the profile card.
type ProfileView struct {
	UserID  string
	Profile models.Profile
	Posts   []*models.Post
}

// Profile renders the profile card with the user's notes and posts.
func (r *Renderer) Profile(v ProfileView) (string, error) {
	return r.exec("profile", v)
}

// FeedView is the data of the home page body.
type FeedView struct {
	Viewer  models.Viewer
	Cards   template.HTML // first page of the feed
	Offset  int
	HasMore bool
}

// Feed renders the composer and the first page of cards.
func (r *Renderer) Feed(v FeedView) (string, error) {
	return r.exec("feed", v)
}

// PageView is the data of the page shell.
type PageView struct {
	Lang   string
	Title  string
	PageID string
	Body   template.HTML
	Script string // page script name under /static/
}

// Page renders a full HTML document.
func (r *Renderer) Page(v PageView) (string, error) {
	return r.exec("layout", v)
}
