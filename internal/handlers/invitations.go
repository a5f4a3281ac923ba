package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mellystark/visitormanagement/internal/services"
	"github.com/mellystark/visitormanagement/pkg/response"
)

type InvitationHandler struct {
	svc *services.InvitationService
}

func NewInvitationHandler(svc *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{svc: svc}
}

type createInvitationRequest struct {
	Name        string    `json:"name" validate:"required,max=200"`
	EventDate   time.Time `json:"eventDate" validate:"required"`
	Slug        string    `json:"slug" validate:"required,max=32,slug"`
	Description string    `json:"description" validate:"max=2000"`
	IsActive    *bool     `json:"isActive"`
}

type updateInvitationRequest struct {
	Name        *string    `json:"name" validate:"omitempty,max=200"`
	EventDate   *time.Time `json:"eventDate"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool      `json:"isActive"`
}

type inviteRequestPayload struct {
	FullName    string `json:"fullName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=256"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Notes       string `json:"notes" validate:"max=2000"`
}

func (p *inviteRequestPayload) normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.Notes = strings.TrimSpace(p.Notes)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// GET /api/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	items, err := h.svc.List(requestContext(c), parseBoolQuery(c, "onlyActive"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// POST /api/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.svc.Create(requestContext(c), services.InvitationInput{
		Name:        req.Name,
		EventDate:   req.EventDate,
		Slug:        req.Slug,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, invitation)
}

// GET /api/invitations/:slug
//
// Routed as :id so the wildcard matches the admin sub-resources; the segment
// carries the public slug.
func (h *InvitationHandler) GetBySlug(c *gin.Context) {
	invitation, err := h.svc.GetActiveBySlug(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitation)
}

// PUT /api/invitations/:id
func (h *InvitationHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateInvitationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	invitation, err := h.svc.Update(requestContext(c), id, services.InvitationUpdate{
		Name:        req.Name,
		EventDate:   req.EventDate,
		Description: req.Description,
		IsActive:    req.IsActive,
	}, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invitation)
}

// DELETE /api/invitations/:id
func (h *InvitationHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(requestContext(c), id, actorFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/invitations/:id/visitors
func (h *InvitationHandler) Visitors(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	visitors, err := h.svc.Visitors(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, visitors)
}

// GET /api/invitations/:id/requests
func (h *InvitationHandler) Requests(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	requests, err := h.svc.Requests(requestContext(c), id, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, requests)
}

// POST /api/invitations/:slug/request
func (h *InvitationHandler) Submit(c *gin.Context) {
	var req inviteRequestPayload
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.svc.Submit(requestContext(c), strings.TrimSpace(c.Param("id")), services.InviteRequestInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"requestId": request.ID})
}

// POST /api/invitations/requests/:requestId/approve
func (h *InvitationHandler) Approve(c *gin.Context) {
	id, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}
	visitor, err := h.svc.Approve(requestContext(c), id, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, visitor)
}

// POST /api/invitations/requests/:requestId/reject
func (h *InvitationHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c, "requestId")
	if !ok {
		return
	}
	var req rejectRequest
	if !bindAndValidate(c, &req) {
		return
	}
	decision, err := h.svc.Reject(requestContext(c), id, req.Reason, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, decision)
}

// DELETE /api/invitations/:id/visitors/:visitorId
func (h *InvitationHandler) RemoveVisitor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	visitorID, ok := parseIDParam(c, "visitorId")
	if !ok {
		return
	}
	outcome, err := h.svc.RemoveVisitor(requestContext(c), id, visitorID, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

