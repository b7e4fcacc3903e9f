// Package httpx holds the request-parsing helpers shared by domain handlers.
package httpx

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/apperr"
	"github.com/clinicops/clinic/pkg/date"
)

// BindAndValidate decodes the body into dst and runs the echo validator.
func BindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return apperr.InvalidInput("invalid request body")
		}
		return apperr.InvalidInput("invalid request body: %v", err)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}

// ParamUUID parses a path parameter as a UUID.
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.InvalidInput("invalid %s", name)
	}
	return id, nil
}

// QueryUUID parses an optional UUID query parameter. Absent yields nil.
func QueryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperr.InvalidInput("invalid %s", name)
	}
	return &id, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter.
func QueryDate(c echo.Context, name string) (*date.Date, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := date.Parse(v)
	if err != nil {
		return nil, apperr.InvalidInput("invalid %s: expected YYYY-MM-DD", name)
	}
	return &d, nil
}

// QueryBool reports whether the parameter is a true-ish value.
func QueryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(strings.ToLower(strings.TrimSpace(c.QueryParam(name))))
	return b
}

// QueryOptionalBool parses a boolean parameter that may be absent. Absent
// yields nil so callers can tell "false" from "not filtered".
func QueryOptionalBool(c echo.Context, name string) (*bool, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return nil, apperr.InvalidInput("invalid %s: expected true or false", name)
	}
	return &b, nil
}
