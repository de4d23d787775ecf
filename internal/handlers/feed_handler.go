package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the paginated post listings.
type FeedHandler struct {
	listing services.Listing
}

func NewFeedHandler(listing services.Listing) *FeedHandler {
	return &FeedHandler{listing: listing}
}

// RegisterFeedRoutes registers the public listings and the login-only following feed.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/", h.Index)
	g.GET("/group/:slug/", h.GroupPosts)
	g.GET("/follow/", h.FollowIndex, middleware.RequireLogin())
}

// Index is the home page: every post, newest first.
func (h *FeedHandler) Index(c echo.Context) error {
	page, err := h.listing.ListPosts(c.Request().Context(), middleware.PrincipalFrom(c), services.AllPosts(), pageParam(c))
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"page_obj": page})
}

func (h *FeedHandler) GroupPosts(c echo.Context) error {
	gp, err := h.listing.GroupPage(c.Request().Context(), c.Param("slug"), pageParam(c))
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, gp)
}

// FollowIndex lists posts by the authors the principal follows.
func (h *FeedHandler) FollowIndex(c echo.Context) error {
	page, err := h.listing.ListPosts(c.Request().Context(), middleware.PrincipalFrom(c), services.FollowedAuthors(), pageParam(c))
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"page_obj": page})
}
