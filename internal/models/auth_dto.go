package models

import "time"

type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangeRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=user editor admin"`
}

type AuthResponse struct {
	Message      string     `json:"message"`
	User         PublicUser `json:"user"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=3,max=15"`
}

type UpdateCategoryRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=3,max=15"`
	Published *bool   `json:"published"`
}

type CreatePostRequest struct {
	Title       string   `form:"title" validate:"required,min=5,max=100"`
	Description *string  `form:"description" validate:"omitempty,min=5,max=200"`
	Content     string   `form:"content" validate:"required,min=5"`
	Categories  []string `form:"categories" validate:"required,min=1,dive,uuid"`
}

type UpdatePostRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=5,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=10"`
	Content     *string  `json:"content" validate:"omitempty,min=5"`
	Categories  []string `json:"categories" validate:"omitempty,dive,uuid"`
	Published   *bool    `json:"published"`
}
