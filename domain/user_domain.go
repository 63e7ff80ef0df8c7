package domain

import (
	"errors"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetMe            = "success get profile"
	MessageSuccessUpdateUser       = "user updated successfully"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUserDetail    = "success get user detail"
	MessageSuccessForgotPassword   = "reset password email sent"
	MessageSuccessResetPassword    = "password reset successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetMe            = "failed to get profile"
	MessageFailedUpdateUser       = "failed to update user"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetUserDetail    = "failed to get user detail"
	MessageFailedForgotPassword   = "failed to send reset password email"
	MessageFailedResetPassword    = "failed to reset password"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrCredentialsInvalid    = errors.New("invalid email or password")
	ErrSelfSubscription      = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed     = errors.New("already subscribed to this author")
	ErrNotSubscribed         = errors.New("not subscribed to this author")
)

type (
	RegisterRequest struct {
		Username  string `json:"username" validate:"required,max=150"`
		Email     string `json:"email" validate:"required,email"`
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}

	UpdateUserRequest struct {
		FirstName string `json:"first_name" validate:"omitempty"`
		LastName  string `json:"last_name" validate:"omitempty"`
		Password  string `json:"password" validate:"omitempty,min=8"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}

	// UserResponse is the viewer-relative user projection: IsSubscribed is
	// computed against the requesting user and is always false for an
	// anonymous viewer.
	UserResponse struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	// SubscriptionResponse extends the user projection with the author's
	// recipes in short form, capped by the recipes_limit query parameter.
	SubscriptionResponse struct {
		UserResponse
		Recipes      []RecipeShortResponse `json:"recipes"`
		RecipesCount int64                 `json:"recipes_count"`
	}
)
