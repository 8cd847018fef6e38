package preview

import (
	"errors"
	"log/slog"
	"path"
	"strings"

	"vote-preview/internal/domain"

	"github.com/gofiber/fiber/v2"
)

const imageCacheControl = "public, max-age=300"

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Image serves /og/{address}.{png,svg,jpg}.
func (h *Handler) Image(c *fiber.Ctx) error {
	file := c.Params("file")
	ext := path.Ext(file)
	f, ok := ParseFormat(ext)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown image format")
	}
	addr := strings.TrimSuffix(file, ext)

	art, err := h.svc.GetOrGenerate(c.UserContext(), addr, f)
	if err != nil {
		return imageError(addr, err)
	}
	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderCacheControl, imageCacheControl)
	return c.Send(art.Data)
}

func imageError(addr string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case domain.IsCapability(err):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	case domain.IsUpstream(err):
		slog.Warn("Preview upstream failure", slog.String("address", addr), slog.Any("error", err))
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	slog.Error("Preview generation failed", slog.String("address", addr), slog.Any("error", err))
	return fiber.NewError(fiber.StatusInternalServerError, "preview generation failed")
}
