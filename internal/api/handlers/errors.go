package handlers

import (
	"errors"

	"feastly-backend/domain"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP statuses. Anything unrecognized is a
// 500 and the caller should not see storage internals beyond the sentinel
// message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrTagNotFound),
		errors.Is(err, domain.ErrIngredientNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotRecipeAuthor):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrEmptyTags),
		errors.Is(err, domain.ErrUnknownTag),
		errors.Is(err, domain.ErrEmptyIngredients),
		errors.Is(err, domain.ErrDuplicateIngredient),
		errors.Is(err, domain.ErrInvalidIngredientAmount),
		errors.Is(err, domain.ErrInvalidCookingTime),
		errors.Is(err, domain.ErrInvalidImageData),
		errors.Is(err, domain.ErrAlreadyInFavorites),
		errors.Is(err, domain.ErrNotInFavorites),
		errors.Is(err, domain.ErrAlreadyInShoppingCart),
		errors.Is(err, domain.ErrNotInShoppingCart),
		errors.Is(err, domain.ErrShoppingCartEmpty),
		errors.Is(err, domain.ErrSelfSubscription),
		errors.Is(err, domain.ErrAlreadySubscribed),
		errors.Is(err, domain.ErrNotSubscribed),
		errors.Is(err, domain.ErrEmailAlreadyExists),
		errors.Is(err, domain.ErrUsernameAlreadyExists),
		errors.Is(err, domain.ErrCredentialsInvalid),
		errors.Is(err, domain.ErrParseUUID),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// presentable swaps unclassified errors for an opaque one before they reach
// the response body.
func presentable(err error) error {
	if statusFor(err) == fiber.StatusInternalServerError {
		return domain.ErrInternalServer
	}
	return err
}
