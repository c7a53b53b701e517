package domain

// PlaceholderPicture is used when the identity provider returns no avatar.
const PlaceholderPicture = "/placeholder.svg"

// AdminIdentity is the signed-in operator as seen by the admin surface.
//
// IsAuthorized is derived from the allow-list at mapping time; holders of an
// AdminIdentity see a snapshot, not a live view.
type AdminIdentity struct {
	Subject      SubjectID `json:"uid"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	IsAuthorized bool      `json:"isAuthorized"`
}
