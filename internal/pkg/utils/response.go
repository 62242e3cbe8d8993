package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streetmap-tiles/internal/pkg/errors"
)

const ContentTypeMVT = "application/x-protobuf"

type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

type Meta struct {
	Total    int     `json:"total,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// SendTile отдает protobuf тайла. Пустой тайл тоже 200 с пустым телом.
func SendTile(c *fiber.Ctx, data []byte, cacheControl string) error {
	c.Set(fiber.HeaderContentType, ContentTypeMVT)
	if cacheControl != "" {
		c.Set(fiber.HeaderCacheControl, cacheControl)
	}
	return c.Status(fiber.StatusOK).Send(data)
}

func SendError(c *fiber.Ctx, err error) error {
	if appErr, ok := errors.As(err); ok {
		return c.Status(appErr.StatusCode).JSON(ErrorResponse{
			Error: appErr,
		})
	}

	// Unknown error - return 500
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: errors.ErrInternalServer,
	})
}
