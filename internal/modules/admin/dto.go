package admin

import "museumbooking/internal/modules/auth"

// UpdateUserRequest is the self-service profile update plus the admin flag.
type UpdateUserRequest struct {
	auth.UpdateProfileRequest
	IsAdmin *bool `json:"is_admin"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}
