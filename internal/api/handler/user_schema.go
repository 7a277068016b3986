package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request types ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createUserRequest struct {
	Username  string `json:"username"   validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Password  string `json:"password"   validate:"required"`
	Address   string `json:"address"    validate:"required"`
	Phone     string `json:"phone"      validate:"required"`
	// Role is honored only when the caller is an authenticated admin.
	Role string `json:"role,omitempty" validate:"omitempty,oneof=member admin"`
}

type updateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"  validate:"required"`
	Address   string `json:"address"    validate:"required"`
	Phone     string `json:"phone"      validate:"required"`
}

type changePasswordRequest struct {
	// OldPassword is required for the self-service path only; the
	// admin reset path omits it.
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required"`
}
