package auth

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100,name"`
	LastName  string `json:"lastName" validate:"required,max=100,name"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"required,phone"`
	Password  string `json:"password" validate:"required,max=128"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token  string `json:"token"`
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
