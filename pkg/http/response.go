package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the standard envelope with statusCode as HTTP status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// ValidationResponse writes a 400 with the field errors.
func ValidationResponse(c echo.Context, details interface{}) error {
	return c.JSON(http.StatusBadRequest, ErrorBody{
		Status:  "error",
		Code:    "ERR_VALIDATION",
		Message: "invalid request",
		Details: details,
	})
}

// AppErrorResponse writes an error body. Errors that are not *AppError become
// a generic 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("something went wrong")
	}
	body := ErrorBody{
		Status:  "error",
		Code:    appErr.Code,
		Message: appErr.Message,
	}
	if len(appErr.Params) > 0 {
		body.Details = appErr.Params
	}
	return c.JSON(appErr.Status, body)
}
