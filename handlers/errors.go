package handlers

import (
	"errors"

	"github.com/KrampusTON/indyback/services"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps the service error taxonomy onto HTTP statuses:
// validation and state errors 400, conflicts 409, missing entities
// 404, upstream failures 502/504, anything unexpected 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrInvalidProof),
		errors.Is(err, services.ErrInvalidTransaction),
		errors.Is(err, services.ErrNothingToClaim),
		errors.Is(err, services.ErrUnverifiableProof):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrDuplicateTransaction),
		errors.Is(err, services.ErrTaskExists),
		errors.Is(err, services.ErrClaimInProgress):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrReferrerNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrUpstreamTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, services.ErrPayoutSubmission),
		errors.Is(err, services.ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
}
