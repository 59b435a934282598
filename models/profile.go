package models

// Profile is the editable public face of a user, keyed by user id.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
	Notes  []Note `json:"notes"`
}

// Note is a short timestamped snippet shown on the profile page.
type Note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// UpdateProfileRequest edits the profile. Empty fields keep their value.
type UpdateProfileRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// NoteRequest adds or edits a note.
type NoteRequest struct {
	Text string `json:"text"`
}
