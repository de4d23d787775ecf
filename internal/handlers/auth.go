package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/anonto42/yatube/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const badCredentialsMsg = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   firebase.TokenVerifier
	jwtSecret      string
	jwtTTL         time.Duration
	secureCookie   bool
	log            *zap.Logger
}

// AuthConfig carries the token settings of the auth handler.
type AuthConfig struct {
	JWTSecret    string
	JWTTTL       time.Duration
	SecureCookie bool
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth firebase.TokenVerifier, cfg AuthConfig, log *zap.Logger) *AuthHandler {
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 72 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      cfg.JWTSecret,
		jwtTTL:         cfg.JWTTTL,
		secureCookie:   cfg.SecureCookie,
		log:            log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup/", h.Signup)
	g.GET("/login/", h.LoginPage)
	g.POST("/login/", h.Login)
	g.POST("/logout/", h.Logout)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login/", h.FirebaseLogin)
	}
}

// Signup handles local user registration with username, email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validators.Struct(req); err != nil {
		return formError(c, req.Username, err)
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return formError(c, req.Username, validators.NewValidationError("username", "A user with that username already exists."))
	}
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return formError(c, req.Username, validators.NewValidationError("email", "A user with that email already exists."))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return formError(c, req.Username, validators.NewValidationError("username", "A user with that username already exists."))
		}
		return err
	}
	h.log.Info("user signed up", zap.Uint("user_id", user.ID), zap.String("username", user.Username))

	token, err := h.issue(c, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// LoginPage is where login-only pages send anonymous visitors.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"next": c.QueryParam("next")})
}

// Login checks the credentials and either follows next or returns the token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if req.Next == "" {
		req.Next = c.QueryParam("next")
	}
	if err := validators.Struct(req); err != nil {
		return formError(c, req.Username, err)
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return formError(c, req.Username, validators.NewValidationError("__all__", badCredentialsMsg))
	case err != nil:
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return formError(c, req.Username, validators.NewValidationError("__all__", badCredentialsMsg))
	}

	token, err := h.issue(c, user)
	if err != nil {
		return err
	}
	if isLocalPath(req.Next) {
		return c.Redirect(http.StatusFound, req.Next)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// FirebaseLogin handles Firebase ID token verification and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := validators.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	identity, err := h.firebaseAuth.Verify(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	if identity.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email address")
	}

	// known UID, then an existing account with the same email, then a new account
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, identity.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		// an unverified address must not claim or reserve a local account
		if !identity.EmailVerified {
			return echo.NewHTTPError(http.StatusForbidden, "Firebase email address is not verified")
		}
		user, err = h.userRepository.GetUserByEmail(ctx, identity.Email)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			user, err = h.createFirebaseUser(c, identity)
		case err == nil:
			user.FirebaseUID = &identity.UID
			err = h.userRepository.UpdateUser(ctx, user)
		}
	}
	if err != nil {
		return err
	}

	token, err := h.issue(c, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

var usernameJunk = regexp.MustCompile(`[^\w.@+-]+`)

func (h *AuthHandler) createFirebaseUser(c echo.Context, id *firebase.Identity) (*models.User, error) {
	ctx := c.Request().Context()

	base := id.Name
	if base == "" {
		base = strings.SplitN(id.Email, "@", 2)[0]
	}
	username := usernameJunk.ReplaceAllString(base, "")
	if username == "" {
		username = "user"
	}
	if _, err := h.userRepository.GetUserByUsername(ctx, username); err == nil {
		suffix := id.UID
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}
		username += "-" + suffix
	}

	user := &models.User{Username: username, Email: id.Email, FirebaseUID: &id.UID}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.Info("user created from firebase", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// issue signs a token for user and sets it as the session cookie.
func (h *AuthHandler) issue(c echo.Context, user *models.User) (string, error) {
	token, err := h.generateJWT(user)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.jwtTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

// formError re-renders an auth form with its field errors. Passwords are never echoed.
func formError(c echo.Context, username string, err error) error {
	ve, ok := asValidation(err)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"form":   echo.Map{"username": username},
		"errors": ve.Fields,
	})
}

// isLocalPath accepts same-site absolute paths only.
func isLocalPath(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\")
}
