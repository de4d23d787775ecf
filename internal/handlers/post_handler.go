package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	listing  services.Listing
	mutation *services.MutationService
	groups   repositories.GroupRepository
}

func NewPostHandler(listing services.Listing, mutation *services.MutationService, groups repositories.GroupRepository) *PostHandler {
	return &PostHandler{listing: listing, mutation: mutation, groups: groups}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts/:post_id/", h.GetPost)
	g.GET("/create/", h.NewPost, middleware.RequireLogin())
	g.POST("/create/", h.CreatePost, middleware.RequireLogin())
	g.GET("/posts/:post_id/edit/", h.EditPost, middleware.RequireLogin())
	g.POST("/posts/:post_id/edit/", h.UpdatePost, middleware.RequireLogin())
}

type postDetailBundle struct {
	*services.PostDetail
	Form models.CommentForm `json:"form"`
}

type postFormBundle struct {
	Form   models.PostForm   `json:"form"`
	Errors map[string]string `json:"errors,omitempty"`
	Groups []models.Group    `json:"groups"`
	Post   *models.Post      `json:"post,omitempty"`
	IsEdit bool              `json:"is_edit"`
}

// GetPost returns the post with its comments and an empty comment form.
func (h *PostHandler) GetPost(c echo.Context) error {
	detail, err := h.listing.PostDetail(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.JSON(http.StatusOK, postDetailBundle{PostDetail: detail})
}

func (h *PostHandler) NewPost(c echo.Context) error {
	return h.renderForm(c, postFormBundle{})
}

// CreatePost publishes a post and sends the author to their profile.
func (h *PostHandler) CreatePost(c echo.Context) error {
	form, in, release, err := bindPostForm(c)
	defer release()
	if err != nil {
		return err
	}

	p := middleware.PrincipalFrom(c)
	if _, err := h.mutation.CreatePost(c.Request().Context(), p, in); err != nil {
		if ve, ok := asValidation(err); ok {
			return h.renderForm(c, postFormBundle{Form: form, Errors: ve.Fields})
		}
		return serviceError(c, err, "")
	}
	return c.Redirect(http.StatusFound, profileURL(p.Username))
}

// EditPost shows the edit form to the author; everyone else is sent to the post.
func (h *PostHandler) EditPost(c echo.Context) error {
	postID := c.Param("post_id")
	detail, err := h.listing.PostDetail(c.Request().Context(), postID)
	if err != nil {
		return serviceError(c, err, "")
	}
	if !services.CanEdit(middleware.PrincipalFrom(c), detail.Post) {
		return c.Redirect(http.StatusFound, postURL(postID))
	}

	form := models.PostForm{Text: detail.Post.Text, Group: detail.Post.GroupID}
	return h.renderForm(c, postFormBundle{Form: form, Post: detail.Post, IsEdit: true})
}

func (h *PostHandler) UpdatePost(c echo.Context) error {
	postID := c.Param("post_id")
	form, in, release, err := bindPostForm(c)
	defer release()
	if err != nil {
		return err
	}

	post, err := h.mutation.UpdatePost(c.Request().Context(), middleware.PrincipalFrom(c), postID, in)
	if err != nil {
		if ve, ok := asValidation(err); ok {
			detail, err := h.listing.PostDetail(c.Request().Context(), postID)
			if err != nil {
				return serviceError(c, err, "")
			}
			return h.renderForm(c, postFormBundle{Form: form, Errors: ve.Fields, Post: detail.Post, IsEdit: true})
		}
		return serviceError(c, err, postURL(postID))
	}
	return c.Redirect(http.StatusFound, postURL(post.ID))
}

// renderForm fills in the group choices and writes the form bundle.
func (h *PostHandler) renderForm(c echo.Context, bundle postFormBundle) error {
	groups, err := h.groups.ListGroups(c.Request().Context())
	if err != nil {
		return err
	}
	if groups == nil {
		groups = []models.Group{}
	}
	bundle.Groups = groups
	return c.JSON(http.StatusOK, bundle)
}
