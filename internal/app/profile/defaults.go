package profile

import "github.com/aashkara-band/site-api/internal/domain"

// Overrides are the environment-sourced identity fields. Empty fields keep the built-in
// default.
type Overrides struct {
	Name           string
	Tagline        string
	Email          string
	Phone          string
	AlternatePhone string
	Address        string
	Instagram      string
	YouTube        string
	Facebook       string
	Spotify        string
}

const defaultAbout = "Aashkara is a high-energy rock band that has been electrifying audiences for over a decade. " +
	"With powerful vocals, crushing guitar riffs, and thunderous drums, we bring an unforgettable experience to every stage. " +
	"Our passion for music and connection with our fans drives us to deliver performances that leave lasting memories."

// DefaultProfile builds the default band profile with o applied on top.
func DefaultProfile(o Overrides) domain.BandProfile {
	return domain.BandProfile{
		Name:    or(o.Name, "Aashkara"),
		Tagline: or(o.Tagline, "Rock the Night Away"),
		About:   defaultAbout,
		Contact: domain.Contact{
			Email:          or(o.Email, "aashkaraband@gmail.com"),
			Phone:          or(o.Phone, "+91 87688 42665"),
			AlternatePhone: or(o.AlternatePhone, "+91 86090301339"),
			Address:        or(o.Address, "Murshidabad, West Bengal, India"),
		},
		Social: domain.Social{
			Instagram: or(o.Instagram, "https://instagram.com/aashkaraband"),
			YouTube:   or(o.YouTube, "https://youtube.com/aashkaraband"),
			Facebook:  or(o.Facebook, "https://facebook.com/aashkaraband"),
			Spotify:   or(o.Spotify, "https://open.spotify.com/artist/aashkara"),
		},
		Members: []domain.Member{
			{
				Name: "Alex Thunder",
				Role: "Lead Vocalist & Rhythm Guitar",
				Bio:  "The voice and heart of Aashkara, Alex brings raw energy and emotional depth to every performance.",
			},
			{
				Name: "Jake Lightning",
				Role: "Lead Guitarist",
				Bio:  "Master of the six strings, Jake's guitar solos are legendary and his stage presence is electrifying.",
			},
			{
				Name: "Mike Storm",
				Role: "Bass Guitar & Backing Vocals",
				Bio:  "The foundation of our sound, Mike's bass lines drive the rhythm and his harmonies complete our vocal blend.",
			},
			{
				Name: "Danny Crash",
				Role: "Drummer",
				Bio:  "The powerhouse behind the kit, Danny's thunderous beats are the heartbeat of Aashkara.",
			},
		},
		Projects: []domain.Project{
			{
				Title:       "Live at Rock Festival 2023",
				Description: "Our electrifying performance at the biggest rock festival of the year",
				YouTubeID:   "dQw4w9WgXcQ",
			},
			{
				Title:       "Studio Session - New Album",
				Description: "Behind the scenes footage from our latest album recording",
				YouTubeID:   "dQw4w9WgXcQ",
			},
		},
	}
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
