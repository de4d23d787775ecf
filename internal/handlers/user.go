package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler serves author profile pages.
type UserHandler struct {
	listing services.Listing
}

func NewUserHandler(listing services.Listing) *UserHandler {
	return &UserHandler{listing: listing}
}

func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile/:username/", h.GetProfile)
}

// GetProfile returns the author, their posts and whether the principal follows them.
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.listing.Profile(c.Request().Context(), middleware.PrincipalFrom(c), c.Param("username"), pageParam(c))
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, profile)
}
