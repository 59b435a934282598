package models

import "encoding/json"

// UnlimitedPosts marks a plan without a post limit.
const UnlimitedPosts = -1

// Privileges are the capabilities granted by a plan.
// The JSON names are the ones stored under PrivilegesKey.
type Privileges struct {
	Posts       int  `json:"publicaciones" yaml:"posts"`
	Comments    bool `json:"comentarios" yaml:"comments"`
	Favorites   bool `json:"favoritos" yaml:"favorites"`
	CustomCover bool `json:"portada" yaml:"custom_cover"`
	ExtraTools  bool `json:"herramientas" yaml:"extra_tools"`
}

// UnmarshalJSON decodes the stored blob. A null post limit means the plan
// has no limit and decodes to UnlimitedPosts; a missing one stays 0.
func (p *Privileges) UnmarshalJSON(data []byte) error {
	type plain Privileges
	aux := struct {
		*plain
		Posts json.RawMessage `json:"publicaciones"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch string(aux.Posts) {
	case "":
		return nil
	case "null":
		p.Posts = UnlimitedPosts
		return nil
	default:
		return json.Unmarshal(aux.Posts, &p.Posts)
	}
}

// Plan is one entry of the subscription catalog.
type Plan struct {
	Name       string     `json:"name" yaml:"name"`
	Price      string     `json:"price" yaml:"price"`
	Privileges Privileges `json:"privileges" yaml:"privileges"`
}

// Permission keys accepted by Privileges.Has.
const (
	PermPosts       = "publicaciones"
	PermComments    = "comentarios"
	PermFavorites   = "favoritos"
	PermCustomCover = "portada"
	PermExtraTools  = "herramientas"
)

// Has reports whether the capability named key is granted.
// Unknown keys are never granted.
func (p Privileges) Has(key string) bool {
	switch key {
	case PermComments:
		return p.Comments
	case PermFavorites:
		return p.Favorites
	case PermCustomCover:
		return p.CustomCover
	case PermExtraTools:
		return p.ExtraTools
	case PermPosts:
		return p.Posts != 0
	default:
		return false
	}
}

// AllowsAnotherPost reports whether a user with count posts may publish.
func (p Privileges) AllowsAnotherPost(count int) bool {
	if p.Posts == UnlimitedPosts {
		return true
	}
	if p.Posts <= 0 {
		return false
	}
	return count < p.Posts
}

// SubscribeRequest is posted by the plans page.
type SubscribeRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}
