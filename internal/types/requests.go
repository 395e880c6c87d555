package types

// SignupRequest is the payload for account creation. Format validation
// beyond presence (email shape, password length) happens at the binding.
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"required,email"`
	ImageURL string `json:"image_url"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries a profile edit. Password is the user's
// current password and is re-verified before any change is applied.
// Pointer fields distinguish "leave unchanged" from "set to empty".
type UpdateProfileRequest struct {
	Password       string  `json:"password" binding:"required"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	ImageURL       *string `json:"image_url"`
	HeaderImageURL *string `json:"header_image_url"`
	Bio            *string `json:"bio"`
	Location       *string `json:"location"`
}

// MessageRequest is the payload for posting a message.
type MessageRequest struct {
	Text string `json:"text" binding:"required,max=140"`
}
