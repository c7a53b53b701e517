package domain

// BandProfile is the band's identity and marketing content.
//
// JSON names match the record persisted by the original site so existing overrides
// keep loading.
type BandProfile struct {
	Name     string    `json:"name"`
	Tagline  string    `json:"tagline"`
	About    string    `json:"about"`
	Contact  Contact   `json:"contact"`
	Social   Social    `json:"social"`
	Members  []Member  `json:"members"`
	Projects []Project `json:"projects"`
}

type Contact struct {
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	AlternatePhone string `json:"alternatePhone,omitempty"`
	Address        string `json:"address"`
}

// Social holds optional outbound links; an empty string means unset.
type Social struct {
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Spotify   string `json:"spotify,omitempty"`
}

type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Bio  string `json:"bio"`
}

type Project struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	YouTubeID   string `json:"youtubeId"`
}

// Clone returns a deep copy. Slices are never shared with the receiver.
func (p BandProfile) Clone() BandProfile {
	out := p
	if p.Members != nil {
		out.Members = append([]Member(nil), p.Members...)
	}
	if p.Projects != nil {
		out.Projects = append([]Project(nil), p.Projects...)
	}
	return out
}

// MissingRequired lists the required fields that are empty, by JSON path.
func (p BandProfile) MissingRequired() []string {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Contact.Email == "" {
		missing = append(missing, "contact.email")
	}
	if p.Contact.Phone == "" {
		missing = append(missing, "contact.phone")
	}
	return missing
}
