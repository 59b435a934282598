package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrDecode is returned when a backend record does not have the shape of a
// post. Callers treat it like any other remote failure.
var ErrDecode = errors.New("decode error")

// record is a JSON object with its fields left raw, so each field can be
// mapped explicitly and checked for type.
type record map[string]json.RawMessage

func parseRecord(raw []byte) (record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrDecode)
	}
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return r, nil
}

// lookup returns the first present, non-null field among names.
func (r record) lookup(names ...string) (string, json.RawMessage, bool) {
	for _, n := range names {
		v, ok := r[n]
		if !ok || string(bytes.TrimSpace(v)) == "null" {
			continue
		}
		return n, v, true
	}
	return "", nil, false
}

func (r record) str(dst *string, names ...string) error {
	name, v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return fmt.Errorf("%w: field %q must be a string", ErrDecode, name)
	}
	if s != "" {
		*dst = s
	}
	return nil
}

// id accepts a string or a number; both shapes are seen on the backend.
func (r record) id() (string, error) {
	name, v, ok := r.lookup("id", "_id")
	if !ok {
		return "", fmt.Errorf("%w: missing id", ErrDecode)
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty id", ErrDecode)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: field %q must be a string or number", ErrDecode, name)
}

// ts accepts epoch milliseconds or an RFC 3339 date string. A missing ts
// becomes fallback, or now when fallback is zero.
func (r record) ts(fallback int64) (int64, error) {
	_, v, ok := r.lookup("ts")
	if !ok {
		if fallback > 0 {
			return fallback, nil
		}
		return time.Now().UnixMilli(), nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int64(math.Floor(f)), nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("%w: field \"ts\" must be a number or date string", ErrDecode)
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fmt.Errorf("%w: field \"ts\": %v", ErrDecode, err)
	}
	return t.UnixMilli(), nil
}

func (r record) imgs() ([]string, error) {
	if _, v, ok := r.lookup("imgs"); ok {
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			return nil, fmt.Errorf("%w: field \"imgs\" must be a list of strings", ErrDecode)
		}
		return list, nil
	}
	if _, v, ok := r.lookup("img"); ok {
		var one string
		if err := json.Unmarshal(v, &one); err != nil {
			return nil, fmt.Errorf("%w: field \"img\" must be a string", ErrDecode)
		}
		if one != "" {
			return []string{one}, nil
		}
	}
	return []string{}, nil
}

func (r record) commentsCount() (int, error) {
	if _, v, ok := r.lookup("commentsCount"); ok {
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return 0, fmt.Errorf("%w: field \"commentsCount\" must be an integer", ErrDecode)
		}
		return max(0, n), nil
	}
	if _, v, ok := r.lookup("comments"); ok {
		var list []json.RawMessage
		if err := json.Unmarshal(v, &list); err != nil {
			return 0, fmt.Errorf("%w: field \"comments\" must be a list", ErrDecode)
		}
		return len(list), nil
	}
	return 0, nil
}

func (r record) reactions() (map[string]int, error) {
	out := map[string]int{}
	if _, v, ok := r.lookup("reactions"); ok {
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("%w: field \"reactions\" must map emoji to counts", ErrDecode)
		}
	}
	for k, n := range out {
		out[k] = max(0, n)
	}
	return out, nil
}

func (r record) userReactions() (map[string]string, error) {
	out := map[string]string{}
	if _, v, ok := r.lookup("userReactions"); ok {
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, fmt.Errorf("%w: field \"userReactions\" must map user ids to emoji", ErrDecode)
		}
	}
	return out, nil
}

func (r record) hidden() (bool, error) {
	_, v, ok := r.lookup("hidden")
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, fmt.Errorf("%w: field \"hidden\" must be a boolean", ErrDecode)
	}
	return b, nil
}

// DecodePost maps one backend record onto a Post, field by field:
//
//	id | _id                 required, string or number
//	author | user            default "Anon"
//	authorId | userId
//	authorAvatar | avatar    default DefaultAvatar
//	imgs | img               list, or a single URL
//	ts                       epoch ms or date string, default now
//	commentsCount | comments counter, or length of the list
//
// A field of the wrong JSON type fails the whole record.
func DecodePost(raw []byte) (*Post, error) {
	return decodePost(raw, Post{Author: "Anon", AuthorAvatar: DefaultAvatar})
}

func decodePost(raw []byte, fallback Post) (*Post, error) {
	r, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}

	p := fallback
	if p.ID, err = r.id(); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst   *string
		names []string
	}{
		{&p.Author, []string{"author", "user"}},
		{&p.AuthorID, []string{"authorId", "userId"}},
		{&p.AuthorAvatar, []string{"authorAvatar", "avatar"}},
		{&p.Content, []string{"content"}},
		{&p.Category, []string{"category"}},
	} {
		if err := r.str(f.dst, f.names...); err != nil {
			return nil, err
		}
	}
	if p.Imgs, err = r.imgs(); err != nil {
		return nil, err
	}
	if p.TS, err = r.ts(fallback.TS); err != nil {
		return nil, err
	}
	if p.CommentsCount, err = r.commentsCount(); err != nil {
		return nil, err
	}
	if p.Reactions, err = r.reactions(); err != nil {
		return nil, err
	}
	if p.UserReactions, err = r.userReactions(); err != nil {
		return nil, err
	}
	if p.Hidden, err = r.hidden(); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeCreated decodes the response of a create call. The backend may
// answer with the post itself or wrap it as {"publicacion": {...}}. Fields
// the backend leaves out keep the values that were sent.
func DecodeCreated(raw []byte, sent CreatePostPayload) (*Post, error) {
	r, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	if _, inner, ok := r.lookup("publicacion"); ok {
		raw = inner
	}
	return decodePost(raw, Post{
		Author:       sent.Author,
		AuthorID:     sent.AuthorID,
		AuthorAvatar: sent.AuthorAvatar,
		Content:      sent.Content,
		Category:     sent.Category,
		TS:           sent.TS,
	})
}

// DecodePostList decodes a list response. Records that fail to decode are
// skipped and reported in errs; a body that is not a JSON array is an error.
func DecodePostList(raw []byte) (posts []Post, errs []error, err error) {
	var items []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, fmt.Errorf("%w: expected a JSON array", ErrDecode)
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	posts = make([]Post, 0, len(items))
	for i, item := range items {
		p, err := DecodePost(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		posts = append(posts, *p)
	}
	return posts, errs, nil
}

// DecodeReactionState decodes a reaction response. The reactions map is
// required; userReactions is optional.
func DecodeReactionState(raw []byte) (*ReactionState, error) {
	r, err := parseRecord(raw)
	if err != nil {
		return nil, err
	}
	if _, _, ok := r.lookup("reactions"); !ok {
		return nil, fmt.Errorf("%w: missing reactions", ErrDecode)
	}

	st := &ReactionState{}
	if st.Reactions, err = r.reactions(); err != nil {
		return nil, err
	}
	if _, _, ok := r.lookup("userReactions"); ok {
		if st.UserReactions, err = r.userReactions(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// DecodeImageURL extracts the stored image location from an upload
// response: {"url"}, {"imageUrl"}, {"img"} or a post whose last image is
// the new one.
func DecodeImageURL(raw []byte) (string, error) {
	r, err := parseRecord(raw)
	if err != nil {
		return "", err
	}
	var url string
	if err := r.str(&url, "url", "imageUrl", "img"); err != nil {
		return "", err
	}
	if url != "" {
		return url, nil
	}
	if _, v, ok := r.lookup("imgs"); ok {
		var list []string
		if err := json.Unmarshal(v, &list); err != nil {
			return "", fmt.Errorf("%w: field \"imgs\" must be a list of strings", ErrDecode)
		}
		if len(list) > 0 {
			return list[len(list)-1], nil
		}
	}
	return "", fmt.Errorf("%w: no image url in response", ErrDecode)
}
