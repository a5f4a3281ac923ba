package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/mellystark/visitormanagement/internal/auth"
	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/services"
	appErrors "github.com/mellystark/visitormanagement/pkg/errors"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type AuthHandler struct {
	admins *services.AdminService
	jwt    *iauth.JWTService
}

func NewAuthHandler(admins *services.AdminService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{admins: admins, jwt: jwt}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        any    `json:"user"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.admins.Authenticate(requestContext(c), req.Username, req.Password, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwt.TTL().Seconds()),
		User:        user,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.admins.Get(requestContext(c), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
