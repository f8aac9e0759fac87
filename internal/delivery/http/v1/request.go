package v1

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"bakery-backend/internal/domain"
	"bakery-backend/pkg/logger"
	"bakery-backend/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 16

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var (
	errMalformedBody = errors.New("invalid request payload")
	errBodyTooLarge  = errors.New("request payload too large")
)

// decodeAndValidate reads a JSON body into dst and runs struct validation,
// translating failures into domain errors.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%w: empty body", domain.ErrMissingParameter)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch {
	case fe.Tag() == "required":
		return fmt.Errorf("%w: %s is required", domain.ErrMissingParameter, field)
	case field == "customer_lat" || field == "customer_lon":
		return fmt.Errorf("%w: %s is out of range", domain.ErrInvalidCoordinate, field)
	case field == "order_amount":
		return fmt.Errorf("%w: %s must be greater than or equal to %s", domain.ErrInvalidOrderAmount, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", errMalformedBody, field)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingParameter),
		errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrInvalidOrderAmount),
		errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrBranchNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBranchCoordinatesMissing),
		errors.Is(err, domain.ErrNoBranchAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRepositoryFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := domain.ErrorCode(err)
	switch {
	case errors.Is(err, errMalformedBody):
		code = "INVALID_REQUEST"
	case errors.Is(err, errBodyTooLarge):
		code = "PAYLOAD_TOO_LARGE"
	}

	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).Str("code", code).Msg("Shipping request failed")
		// Infrastructure details stay in the logs
		message = http.StatusText(status)
	}
	utils.WriteErrorCode(w, status, message, code)
}
