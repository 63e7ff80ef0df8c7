package handlers

import (
	"feastly-backend/domain"
	"feastly-backend/internal/api/presenters"
	"feastly-backend/pkg/ingredient"

	"github.com/gofiber/fiber/v2"
)

type (
	IngredientHandler interface {
		GetIngredients(c *fiber.Ctx) error
		GetIngredientDetail(c *fiber.Ctx) error
	}

	ingredientHandler struct {
		ingredientService ingredient.IngredientService
	}
)

func NewIngredientHandler(ingredientService ingredient.IngredientService) IngredientHandler {
	return &ingredientHandler{ingredientService: ingredientService}
}

func (h *ingredientHandler) GetIngredients(c *fiber.Ctx) error {
	namePrefix := c.Query("name", "")

	ingredients, err := h.ingredientService.GetIngredients(c.Context(), namePrefix)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetIngredients, presentable(err))
	}

	return presenters.SuccessResponse(c, ingredients, fiber.StatusOK, domain.MessageSuccessGetIngredients)
}

func (h *ingredientHandler) GetIngredientDetail(c *fiber.Ctx) error {
	ingredientID := c.Params("id")

	res, err := h.ingredientService.GetIngredientByID(c.Context(), ingredientID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetIngredientDetail, presentable(err))
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetIngredientDetail)
}
