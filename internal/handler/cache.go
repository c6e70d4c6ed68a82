package handler

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/echobrief/api/internal/cache"
	"github.com/echobrief/api/pkg/response"
)

type CacheHandler struct {
	cache      *cache.Service
	adminToken string
}

func NewCacheHandler(cacheService *cache.Service, adminToken string) *CacheHandler {
	return &CacheHandler{
		cache:      cacheService,
		adminToken: adminToken,
	}
}

// Stats handles GET /cache/stats. Unauthenticated; counts are best-effort.
func (h *CacheHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.cache.GetStats(c.Context())
	if err != nil {
		return response.OK(c, fiber.Map{"error": err.Error()})
	}
	return response.OK(c, stats)
}

// Clear handles DELETE /cache/clear. Requires the admin bearer token, which
// is separate from any API auth.
func (h *CacheHandler) Clear(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return response.Forbidden(c, "Admin access required")
	}

	deleted, err := h.cache.Clear(c.Context())
	if err != nil {
		return response.OK(c, fiber.Map{
			"success": false,
			"message": fmt.Sprintf("Cache clear failed: %v", err),
		})
	}
	return response.OK(c, fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
		"deleted": deleted,
	})
}

// Invalidate handles DELETE /cache/invalidate/:platform/:episodeId/:variant.
// Deliberately unauthenticated to match the reference behavior; whether that
// was intended is an open question recorded in DESIGN.md.
func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	platform := c.Params("platform")
	episodeID := c.Params("episodeId")
	variant := c.Params("variant")

	removed := h.cache.Invalidate(c.Context(), platform, episodeID, variant)
	return response.OK(c, fiber.Map{
		"success": removed,
		"message": fmt.Sprintf("Cache invalidated for %s:%s:%s", platform, episodeID, variant),
	})
}

func (h *CacheHandler) authorized(c *fiber.Ctx) bool {
	if h.adminToken == "" {
		return false
	}
	auth := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}
