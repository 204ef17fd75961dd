package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

const headerRequestID = "X-Request-Id"

// RequestID tags every response with a request identifier, minting one
// when the client did not send its own.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			id := c.Request().Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(headerRequestID, id)
			return next(c)
		}
	}
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// parseRange reads the start and count query parameters and clamps
// them against total. A missing count means everything from start.
func parseRange(c *echo.Context, total int) (start, count int, err error) {
	start, err = queryInt(c, "start", 0)
	if err != nil {
		return 0, 0, err
	}
	if start < 0 || start > total {
		return 0, 0, newInvalidRequest(fmt.Sprintf("start %d out of range [0,%d]", start, total))
	}
	count, err = queryInt(c, "count", total-start)
	if err != nil {
		return 0, 0, err
	}
	if count < 0 {
		return 0, 0, newInvalidRequest(fmt.Sprintf("count %d is negative", count))
	}
	if start+count > total {
		count = total - start
	}
	return start, count, nil
}

func queryInt(c *echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newInvalidRequest(fmt.Sprintf("%s: %q is not an integer", name, raw))
	}
	return v, nil
}
