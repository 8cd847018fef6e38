package tokens

import (
	"errors"
	"log/slog"

	"vote-preview/internal/dexscreener"
	"vote-preview/internal/domain"

	"github.com/gofiber/fiber/v2"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// GetOne proxies the cached market data for :address.
func (h *Handler) GetOne(c *fiber.Ctx) error {
	addr := c.Params("address")
	if err := domain.ValidateAddress(addr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: err.Error()})
	}
	doc, err := h.svc.Get(c.UserContext(), addr)
	if err != nil {
		return upstreamFailure(c, err)
	}
	return c.JSON(doc)
}

// Trending proxies the trending list, optionally narrowed with ?chain=.
func (h *Handler) Trending(c *fiber.Ctx) error {
	raw, err := h.svc.Trending(c.UserContext())
	if err != nil {
		return upstreamFailure(c, err)
	}
	if chain := c.Query("chain"); chain != "" {
		if filtered, ok := dexscreener.FilterByChain(raw, chain); ok {
			return c.Type("json").Send(filtered)
		}
	}
	return c.Type("json").Send(raw)
}

func upstreamFailure(c *fiber.Ctx, err error) error {
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		slog.Error("Token lookup failed", slog.String("path", c.Path()), slog.Any("error", err))
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: err.Error()})
	}
	slog.Warn("Upstream failure", slog.String("path", c.Path()), slog.Any("error", err))
	return c.Status(fiber.StatusBadGateway).JSON(errorBody{Error: ue.Error()})
}
