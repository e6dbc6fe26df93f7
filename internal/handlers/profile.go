package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/AnshRaj112/profilefarm-backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// AddParentRequest represents the request to attach a parent to a profile
type AddParentRequest struct {
	ParentEmail    string `json:"parentEmail" validate:"required"`
	ParentPassword string `json:"parentPassword" validate:"required"`
	ParentPhone    string `json:"parentPhone" validate:"required"`
	ParentAddress  string `json:"parentAddress"`
}

// AccountRequest represents a child account appended to a family
type AccountRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email" validate:"required"`
	Password            string `json:"password" validate:"required"`
	Phone               string `json:"phone" validate:"required"`
	Address             string `json:"address"`
	ReferralLink        string `json:"referralLink"`
	MultiLoginProfileID string `json:"multiLoginProfileId"`
}

func (a AccountRequest) account() models.Account {
	return models.Account{
		Name:                a.Name,
		Email:               a.Email,
		Password:            a.Password,
		Phone:               a.Phone,
		Address:             a.Address,
		ReferralLink:        a.ReferralLink,
		MultiLoginProfileID: a.MultiLoginProfileID,
	}
}

// GenerateProfilesResponse reports a bulk generation run
type GenerateProfilesResponse struct {
	Message  string           `json:"message"`
	Error    string           `json:"error,omitempty"`
	Created  int              `json:"created"`
	Profiles []models.Profile `json:"profiles"`
}

type ProfileHandler struct {
	service *services.ProfileService
}

func NewProfileHandler(service *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Create handles generating, registering and persisting one profile
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), provisionTimeout)
	defer cancel()

	profile, err := h.service.Create(ctx)
	switch {
	case errors.Is(err, services.ErrNoAvailablePort):
		writeError(w, http.StatusNotFound, "No available port")
		return
	case err != nil:
		internalError(w, r, err, "Error creating profile")
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// GetAll returns every stored profile
func (h *ProfileHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profiles, err := h.service.List(ctx)
	if err != nil {
		internalError(w, r, err, "Error retrieving profiles")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// Generate bulk-creates profiles until count is reached or the pool runs dry
func (h *ProfileHandler) Generate(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil || count <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid count value")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), provisionTimeout)
	defer cancel()

	res, err := h.service.Generate(ctx, count)
	if err != nil {
		internalError(w, r, err, "Error generating profiles")
		return
	}

	if res.Exhausted {
		writeJSON(w, http.StatusOK, GenerateProfilesResponse{
			Message:  fmt.Sprintf("Profiles created: %d", len(res.Profiles)),
			Error:    "No new proxy found to create profile",
			Created:  len(res.Profiles),
			Profiles: res.Profiles,
		})
		return
	}

	writeJSON(w, http.StatusOK, GenerateProfilesResponse{
		Message:  fmt.Sprintf("%d profiles generated successfully", count),
		Created:  len(res.Profiles),
		Profiles: res.Profiles,
	})
}

// Get returns one profile by its external uuid
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profile, err := h.service.Get(ctx, chi.URLParam(r, "uuid"))
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found.")
		return
	case err != nil:
		internalError(w, r, err, "An error occurred while fetching the profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AddParent creates the profile's family with only a parent
func (h *ProfileHandler) AddParent(w http.ResponseWriter, r *http.Request) {
	var req AddParentRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, badRequestText(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profile, err := h.service.AttachParent(ctx, chi.URLParam(r, "uuid"), models.Account{
		Email:    req.ParentEmail,
		Password: req.ParentPassword,
		Phone:    req.ParentPhone,
		Address:  req.ParentAddress,
	})
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	case errors.Is(err, services.ErrFamilyExists):
		writeError(w, http.StatusBadRequest, "Family already exists for this profile")
		return
	case err != nil:
		internalError(w, r, err, "Error adding family with parent")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// AddChild appends a child account to the profile's existing family
func (h *ProfileHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, badRequestText(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// TODO: check parentId against family.parent once product confirms the rule
	profile, err := h.service.AddChild(ctx, chi.URLParam(r, "uuid"), req.account())
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	case errors.Is(err, services.ErrNoFamily):
		writeError(w, http.StatusBadRequest, "Family does not exist for this profile")
		return
	case err != nil:
		internalError(w, r, err, "Error adding child to profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// NoFamily lists profiles that have no family yet
func (h *ProfileHandler) NoFamily(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profiles, err := h.service.ListWithoutFamily(ctx)
	if err != nil {
		internalError(w, r, err, "Error retrieving profiles with no family")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// ParentNoChild lists profiles whose family has a parent and no children
func (h *ProfileHandler) ParentNoChild(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profiles, err := h.service.ListParentWithoutChildren(ctx)
	if err != nil {
		internalError(w, r, err, "Error retrieving profiles with parent and no child")
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}
