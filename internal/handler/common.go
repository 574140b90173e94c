package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errNoIdentity = errors.New("no authenticated member in context")

// currentMemberID returns the member id stored by the identity middleware.
func currentMemberID(c echo.Context) (uint64, error) {
	id, ok := c.Get("member_id").(uint64)
	if !ok || id == 0 {
		return 0, errNoIdentity
	}
	return id, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
