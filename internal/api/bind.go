package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const notBlankTag = "notblank"

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		if s, ok := fl.Field().Interface().(string); ok {
			return strings.TrimSpace(s) != ""
		}
		return false
	})
	return v
}

type validationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// decodeJSON reads and validates a request body into dst. On failure it has
// already written the response.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}

	err := validate.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	writeJSON(w, http.StatusBadRequest, validationError{Error: "validation failed", Fields: fields})
	return false
}

// maxBodyBytes leaves room for a base64 encoded image plus the envelope.
func (s *Server) maxBodyBytes() int64 {
	limit := int64(s.maxImageBytes)
	if limit <= 0 {
		limit = 5 << 20
	}
	return limit*4/3 + 64<<10
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", notBlankTag:
		return "this field is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
