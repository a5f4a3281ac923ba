package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/middleware"
	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type AdminHandler struct {
	admins *services.AdminService
}

func NewAdminHandler(admins *services.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

type changeThemeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type updateProfileRequest struct {
	FullName string `json:"fullName" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=256"`
}

func (r *updateProfileRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
}

// GET /api/admin/profile
func (h *AdminHandler) Profile(c *gin.Context) {
	user, err := h.admins.Get(requestContext(c), middleware.UserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// POST /api/admin/change-password
func (h *AdminHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.admins.ChangePassword(requestContext(c), middleware.UserID(c), req.CurrentPassword, req.NewPassword, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// POST /api/admin/change-theme
func (h *AdminHandler) ChangeTheme(c *gin.Context) {
	var req changeThemeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.admins.ChangeTheme(requestContext(c), middleware.UserID(c), req.Theme)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PUT /api/admin/update-profile
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.admins.UpdateProfile(requestContext(c), middleware.UserID(c), services.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	}, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
