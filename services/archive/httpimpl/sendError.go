package httpimpl

import (
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/labstack/echo/v4"
)

// errorResponse is the body of every non event response.
type errorResponse struct {
	// Status is the HTTP status code
	Status int32 `json:"status"`

	// Code is the application error code, errors.ERR
	Code int32 `json:"code"`

	// Err is the error message, including the offending parameter on rejections
	Err string `json:"error"`
}

func sendError(c echo.Context, status int, err error) error {
	code := errors.ERR_UNKNOWN

	var tErr *errors.Error
	if errors.As(err, &tErr) {
		code = tErr.Code()
	}

	return c.JSON(status, &errorResponse{
		Status: int32(status),
		Code:   int32(code),
		Err:    err.Error(),
	})
}
