package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"hoarding-service/pkg/config"
)

var (
	uploadPath  string
	maxFileSize int64
)

// Initialize wires handler-level settings from configuration.
func Initialize(cfg *config.Config) {
	uploadPath = cfg.Upload.Path
	maxFileSize = cfg.Upload.MaxFileSize
}

// parseID parses the :id path parameter.
func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
