package response

import (
	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body returned by every endpoint.
// The HTTP status code always mirrors StatusCode.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success sends a success envelope with the given payload
func Success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// Error sends a failure envelope with an error detail string
func Error(c echo.Context, status int, message string, detail string) error {
	return c.JSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Error:      detail,
	})
}
