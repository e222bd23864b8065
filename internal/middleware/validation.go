package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/ajg/form"
	"github.com/go-playground/validator/v10"

	apierrors "pcpsucata/internal/errors"
)

// ISODate is the layout of date query parameters.
const ISODate = "2006-01-02"

// QueryParamValidator decodes query strings into tagged structs and
// validates them. Fields are matched by their `form` tag.
//
//	type params struct {
//	    Month int    `form:"month" validate:"omitempty,min=1,max=12"`
//	    Start string `form:"start" validate:"omitempty,isodate"`
//	}
type QueryParamValidator struct {
	validator *validator.Validate
	logger    *slog.Logger
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger) *QueryParamValidator {
	v := validator.New()
	v.RegisterValidation("isodate", isISODate)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})

	if logger == nil {
		logger = slog.Default()
	}
	return &QueryParamValidator{
		validator: v,
		logger:    logger.With(slog.String("component", "query_validator")),
	}
}

// Bind fills dst, which must be a pointer to a struct, from r's query string
// and validates it. Blank parameters are skipped and only the first value of
// a repeated one is used. A value that does not decode is reported as an
// *APIError and a failed rule as validator.ValidationErrors; the error
// handler renders both as 400.
func (v *QueryParamValidator) Bind(r *http.Request, dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind query: destination must be a struct pointer, got %T", dst)
	}

	values := url.Values{}
	for key, vals := range r.URL.Query() {
		if len(vals) == 0 {
			continue
		}
		if raw := strings.TrimSpace(vals[0]); raw != "" {
			values.Set(key, raw)
		}
	}

	dec := form.NewDecoder(nil)
	dec.IgnoreUnknownKeys(true)
	if err := dec.DecodeValues(dst, values); err != nil {
		v.logger.DebugContext(r.Context(), "malformed query parameter",
			slog.String("query", values.Encode()),
			slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}

	return v.ValidateStruct(dst)
}

// ValidateStruct runs the validate tags of s.
func (v *QueryParamValidator) ValidateStruct(s interface{}) error {
	return v.validator.Struct(s)
}

// ParseISODate parses a validated date parameter. Empty gives the zero time.
func ParseISODate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isISODate accepts calendar dates in YYYY-MM-DD form.
func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(ISODate, fl.Field().String())
	return err == nil
}
