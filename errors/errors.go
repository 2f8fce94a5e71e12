package errors

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Kinds of failure. Every error that should reach a caller wraps exactly one
// of these; anything else is reported as an internal error.
var (
	ErrUnauthenticated  = stderrors.New("unauthenticated")
	ErrForbidden        = stderrors.New("forbidden")
	ErrValidation       = stderrors.New("validation failed")
	ErrNotFound         = stderrors.New("not found")
	ErrConflict         = stderrors.New("conflict")
	ErrStoreUnavailable = stderrors.New("store unavailable")
)

// Error is a failure of a known kind with a message that is safe to show to
// the caller.
type Error struct {
	kind    error
	message string
}

func New(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }

func (e *Error) Message() string { return e.message }

// Validation builds a validation error for a single field.
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

// Status maps an error to the HTTP status of its kind.
func Status(err error) int {
	switch {
	case stderrors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case stderrors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case stderrors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case stderrors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case stderrors.Is(err, ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func RaiseError(context *fiber.Ctx, status int, message string) error {
	return context.Status(status).JSON(fiber.Map{"error": message})
}

// RaiseAuthError writes the payload shape used by the authorization gate.
func RaiseAuthError(context *fiber.Ctx, status int, message string) error {
	return context.Status(status).JSON(fiber.Map{"message": message})
}

func RaiseBadRequestError(context *fiber.Ctx, message string) error {
	return RaiseError(context, fiber.StatusBadRequest, message)
}

func RaiseNotFoundError(context *fiber.Ctx, message string) error {
	return RaiseError(context, fiber.StatusNotFound, message)
}

func RaiseInternalServerError(context *fiber.Ctx) error {
	return RaiseError(context, fiber.StatusInternalServerError, "Internal server error")
}

// Respond writes err to the client. Known kinds carry their own message;
// store and internal failures are logged and replaced by a generic message.
func Respond(context *fiber.Ctx, logger *zap.Logger, err error) error {
	status := Status(err)

	var known *Error
	hasMessage := stderrors.As(err, &known)

	switch {
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		message := "Permission denied!"
		if hasMessage {
			message = known.Message()
		}
		return RaiseAuthError(context, status, message)
	case status == fiber.StatusServiceUnavailable:
		logger.Error("store unavailable",
			zap.String("path", context.Path()),
			zap.Error(err))
		return RaiseError(context, status, "Service temporarily unavailable")
	case status == fiber.StatusInternalServerError:
		logger.Error("internal error",
			zap.String("path", context.Path()),
			zap.Error(err))
		return RaiseInternalServerError(context)
	case hasMessage:
		return RaiseError(context, status, known.Message())
	default:
		return RaiseError(context, status, err.Error())
	}
}
