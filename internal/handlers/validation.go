package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 16

var errTrailingData = errors.New("request body must contain a single JSON object")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json field names so messages match what clients sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeStrict decodes exactly one JSON object with no unknown fields into dst.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// fieldErrors flattens validator output into json-field -> message pairs.
// It returns nil when err is not a validation failure.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = describeFieldError(fe)
	}
	return out
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a UUID"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// normalizer is implemented by request bodies that canonicalize their fields
// (trimming, case folding) before validation.
type normalizer interface {
	normalize()
}

// bindJSON decodes, normalizes and validates a request body. On failure it
// writes the 400 response itself and returns false.
func bindJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()

	if err := decodeStrict(w, r, dst); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := validate.Struct(dst); err != nil {
		if fields := fieldErrors(err); fields != nil {
			respondJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "invalid input", Fields: fields})
			return false
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid input")
		return false
	}

	return true
}
