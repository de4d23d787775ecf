package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/labstack/echo/v4"
)

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id string) string {
	return "/posts/" + url.PathEscape(id) + "/"
}

func pageParam(c echo.Context) int {
	return services.ParsePage(c.QueryParam("page"))
}

// serviceError turns a service failure into the matching response. Forbidden
// requests go back to forbiddenURL.
func serviceError(c echo.Context, err error, forbiddenURL string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUnauthenticated):
		return middleware.RedirectToLogin(c)
	case errors.Is(err, services.ErrForbidden) && forbiddenURL != "":
		return c.Redirect(http.StatusFound, forbiddenURL)
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	default:
		return err
	}
}

func asValidation(err error) (*validators.ValidationError, bool) {
	var ve *validators.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func isJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// bindPostForm reads a post form from JSON or from (multipart) form values.
// The returned closer releases the uploaded file, if any.
func bindPostForm(c echo.Context) (models.PostForm, services.PostInput, func(), error) {
	var form models.PostForm
	closer := func() {}

	if isJSON(c) {
		if err := c.Bind(&form); err != nil {
			return form, services.PostInput{}, closer, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		in := services.PostInput{Text: form.Text, GroupID: form.Group, ClearImage: form.ClearImage}
		return form, in, closer, nil
	}

	form.Text = c.FormValue("text")
	if raw := strings.TrimSpace(c.FormValue("group")); raw != "" {
		// unparsable ids fall through as 0, which no group has
		id, _ := strconv.ParseUint(raw, 10, 64)
		group := uint(id)
		form.Group = &group
	}
	switch strings.ToLower(c.FormValue("clear_image")) {
	case "on", "true", "1":
		form.ClearImage = true
	}
	in := services.PostInput{Text: form.Text, GroupID: form.Group, ClearImage: form.ClearImage}

	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return form, in, closer, echo.NewHTTPError(http.StatusBadRequest, "Unreadable upload")
		}
		in.Image = &services.ImageUpload{Filename: fh.Filename, Body: f}
		closer = func() { f.Close() }
	}
	return form, in, closer, nil
}
