package handlers

import (
	"net/http"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	mutation *services.MutationService
}

func NewCommentHandler(mutation *services.MutationService) *CommentHandler {
	return &CommentHandler{mutation: mutation}
}

func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comment/", h.AddComment, middleware.RequireLogin())
}

// AddComment stores the comment and returns to the post. A blank comment is
// dropped for form posts and reported back to JSON clients.
func (h *CommentHandler) AddComment(c echo.Context) error {
	postID := c.Param("post_id")

	var form models.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	_, err := h.mutation.AddComment(c.Request().Context(), middleware.PrincipalFrom(c), postID, form.Text)
	if ve, ok := asValidation(err); ok {
		if isJSON(c) {
			return c.JSON(http.StatusOK, echo.Map{"form": form, "errors": ve.Fields})
		}
		return c.Redirect(http.StatusFound, postURL(postID))
	}
	if err != nil {
		return serviceError(c, err, "")
	}
	return c.Redirect(http.StatusFound, postURL(postID))
}
