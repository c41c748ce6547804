package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/validation"
	"go.uber.org/zap"
)

// Errors handlers return on purpose. Anything else that reaches ErrorHandler is treated
// as an unexpected failure and answered with a generic 500.
var (
	ErrDivisionNotFound = errors.New("division not found")
	ErrClubNotFound     = errors.New("club not found")
	ErrForwardNotFound  = errors.New("forward not found")

	ErrDivisionHasClubs = errors.New("division still has clubs")
	ErrMalformedBody    = errors.New("malformed request body")
)

// notFoundMessages are the client-facing texts for each not-found sentinel.
var notFoundMessages = map[error]string{
	ErrDivisionNotFound: "Division not found.",
	ErrClubNotFound:     "Club not found.",
	ErrForwardNotFound:  "Forward not found.",
}

// ErrorHandler converts errors returned by handlers into HTTP responses. It is installed
// as fiber.Config.ErrorHandler, so handlers just `return err`.
//
//   - validation.Errors          -> 422 {message, errors: {field: [messages]}}
//   - *NotFound sentinels        -> 404 {message}
//   - ErrDivisionHasClubs        -> 409 {message}
//   - ErrMalformedBody           -> 400 {message}
//   - auth.ErrInvalidCredentials -> 401 {message}
//   - *fiber.Error               -> its own code and message
//   - anything else              -> 500 {message: "Server Error"}; the cause is only logged
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": verrs.Error(),
				"errors":  verrs,
			})
		}

		for sentinel, message := range notFoundMessages {
			if errors.Is(err, sentinel) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": message})
			}
		}

		switch {
		case errors.Is(err, ErrDivisionHasClubs):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "The division cannot be deleted while it still has clubs.",
			})
		case errors.Is(err, ErrMalformedBody):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Malformed JSON body."})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials."})
		}

		// Fiber's own errors (unknown route, wrong content type, body too large...).
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		log.Errorw("unhandled error", "error", err, "method", c.Method(), "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server Error"})
	}
}

// parseBody decodes the JSON body into out and trims its string fields. A value of the
// wrong JSON type for a field becomes a field error (422) rather than a generic 400, so
// clients learn which field to fix.
func parseBody(c *fiber.Ctx, out any) error {
	err := c.BodyParser(out)
	if err == nil {
		validation.TrimStrings(out)
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validation.Errors{
			typeErr.Field: {fmt.Sprintf("The %s field must be %s.", validation.Label(typeErr.Field), describeKind(typeErr.Type))},
		}
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "true or false"
	default:
		return "a valid value"
	}
}

// pathID reads a positive integer path parameter. Anything else is reported as
// notFound: "/clubs/abc" names no club, exactly like "/clubs/999".
func pathID(c *fiber.Ctx, name string, notFound error) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return id, nil
}
