package models

// User is an assignable board member. Created only by the seed
// utility — the API exposes no create/update path for it.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
