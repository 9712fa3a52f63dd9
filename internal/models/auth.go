package models

// LoginRequest is posted to the platform's /user/login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID         string `json:"id,omitempty"`
	Email      string `json:"email,omitempty"`
	RootID     string `json:"root_id,omitempty"`
	Expiration int64  `json:"expiration,omitempty"` // epoch seconds
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}
