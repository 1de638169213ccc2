package http

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"Invalid email or password"`
}

// MessageResponse is a plain success acknowledgement.
type MessageResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Password has been reset successfully"`
}

// RegisterRequest carries email registration fields.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" example:"Fit City"`
	Email    string `json:"email" form:"email" example:"user@example.com"`
	Password string `json:"password" form:"password" example:"secret1"`
}

// RegisterResponse is returned after an account is created.
type RegisterResponse struct {
	Status  string `json:"status" example:"success"`
	UserID  string `json:"user_id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Message string `json:"message" example:"Account created successfully"`
}

// LoginRequest carries email login fields.
type LoginRequest struct {
	Email    string `json:"email" form:"email" example:"user@example.com"`
	Password string `json:"password" form:"password" example:"secret1"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Status    string `json:"status" example:"success"`
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID    string `json:"user_id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	ExpiresAt string `json:"expires_at" example:"2024-01-08T09:30:00Z"`
	Message   string `json:"message" example:"Login successful"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" example:"user@example.com"`
}

// ResetPasswordRequest completes a reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" form:"token" example:"4f1c...e9"`
	Password string `json:"password" form:"password" example:"newsecret"`
}

// VerifyResetTokenRequest checks a reset token without using it.
type VerifyResetTokenRequest struct {
	Token string `json:"token" form:"token" example:"4f1c...e9"`
}

// VerifyResetTokenResponse reports whether a reset token is usable.
type VerifyResetTokenResponse struct {
	Status  string `json:"status" example:"success"`
	Valid   bool   `json:"valid" example:"true"`
	Message string `json:"message,omitempty"`
}
