package page

import (
	"net/url"
	"regexp"

	"github.com/gofiber/fiber/v2"
)

// staticExt matches asset paths that must never fall through to the HTML shell.
var staticExt = regexp.MustCompile(`(?i)\.(js|mjs|css|map|png|jpe?g|gif|svg|webp|ico|json|txt|xml|woff2?|ttf|otf|eot)$`)

// Handler serves the HTML shell for every remaining GET path.
func Handler(r *Renderer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if staticExt.MatchString(c.Path()) {
			return fiber.NewError(fiber.StatusNotFound, "not found")
		}
		query, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
		body := r.Render(c.UserContext(), c.Path(), query, c.Hostname())
		c.Set(fiber.HeaderCacheControl, "public, max-age=60")
		c.Type("html", "utf-8")
		return c.Send(body)
	}
}
