package handlers

import (
	"errors"
	"strconv"

	"campus_marketplace/internal/apperr"
	"campus_marketplace/internal/service"
	"campus_marketplace/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	errInvalidBody = apperr.New(apperr.InvalidInput, "invalid_body", "Invalid request body")
	errInvalidID   = apperr.New(apperr.InvalidInput, "invalid_id", "Invalid id")
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return fiber.StatusNotFound
	case apperr.Forbidden:
		return fiber.StatusForbidden
	case apperr.InvalidInput:
		return fiber.StatusBadRequest
	case apperr.Conflict:
		return fiber.StatusConflict
	case apperr.Unavailable:
		return fiber.StatusUnprocessableEntity
	case apperr.Unauthenticated:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler or middleware in
// the response envelope. Server faults are logged and hidden from callers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		return c.Status(statusFor(e.Kind)).JSON(models.ErrorResponse(e.Message, models.ErrorDetail{
			Code:    e.Code,
			Message: e.Message,
		}))
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse(fe.Message, models.ErrorDetail{
			Code:    strconv.Itoa(fe.Code),
			Message: fe.Message,
		}))
	}

	log.Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Interface("request_id", c.Locals("requestid")).
		Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error", models.ErrorDetail{
		Code:    apperr.ServerFault.String(),
		Message: "Internal server error",
	}))
}

func ok(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(models.SuccessResponse(message, data, nil))
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(message, data, nil))
}

func paged[T any](c *fiber.Ctx, message string, p models.Page[T]) error {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	meta := models.NewPaginationMeta(p.Page, p.Limit, len(items), p.Total)
	return c.JSON(models.SuccessResponse(message, items, meta))
}

// actor returns the caller placed in Locals by the auth middleware.
func actor(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals("user_id").(uint)
	role, _ := c.Locals("role").(string)
	return service.Actor{UserID: id, Role: role}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody
	}
	return nil
}
