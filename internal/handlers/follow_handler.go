package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	mutation *services.MutationService
}

func NewFollowHandler(mutation *services.MutationService) *FollowHandler {
	return &FollowHandler{mutation: mutation}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/profile/:username/follow/", h.FollowUser, middleware.RequireLogin())
	g.POST("/profile/:username/unfollow/", h.UnfollowUser, middleware.RequireLogin())
}

// FollowUser subscribes the principal to the author and returns to their profile.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	username := c.Param("username")
	if err := h.mutation.Follow(c.Request().Context(), middleware.PrincipalFrom(c), username); err != nil {
		return serviceError(c, err, "")
	}
	return c.Redirect(http.StatusFound, profileURL(username))
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	username := c.Param("username")
	if err := h.mutation.Unfollow(c.Request().Context(), middleware.PrincipalFrom(c), username); err != nil {
		return serviceError(c, err, "")
	}
	return c.Redirect(http.StatusFound, profileURL(username))
}
