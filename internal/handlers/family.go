package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/AnshRaj112/profilefarm-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateFamilyRequest represents the request to create a standalone family
type CreateFamilyRequest struct {
	Name                string `json:"name"`
	Email               string `json:"email" validate:"required"`
	Password            string `json:"password" validate:"required"`
	Phone               string `json:"phone" validate:"required"`
	Address             string `json:"address"`
	SMSPoolOrderID      string `json:"smsPoolOrderId"`
	ReferralLink        string `json:"referralLink"`
	MultiLoginProfileID string `json:"multiLoginProfileId"`
}

type CreateFamilyResponse struct {
	Message string         `json:"message"`
	Family  *models.Family `json:"family"`
}

type AddFamilyChildResponse struct {
	Message string         `json:"message"`
	Child   models.Account `json:"child"`
}

type GetFamilyResponse struct {
	Family *models.Family `json:"family"`
}

type FamilyHandler struct {
	store services.FamilyStore
}

func NewFamilyHandler(store services.FamilyStore) *FamilyHandler {
	return &FamilyHandler{store: store}
}

// Create stores a parent-only family
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateFamilyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, badRequestText(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	family := &models.Family{
		CreatedAt: time.Now().UTC(),
		Name:      req.Name,
		Parent: models.NewAccount(models.Account{
			Name:                req.Name,
			Email:               req.Email,
			Password:            req.Password,
			Phone:               req.Phone,
			Address:             req.Address,
			ReferralLink:        req.ReferralLink,
			MultiLoginProfileID: req.MultiLoginProfileID,
		}),
		Children:            []models.Account{},
		SMSPoolOrderID:      req.SMSPoolOrderID,
		ReferralLink:        req.ReferralLink,
		MultiLoginProfileID: req.MultiLoginProfileID,
	}
	if err := h.store.Create(ctx, family); err != nil {
		internalError(w, r, err, "Error adding family")
		return
	}

	writeJSON(w, http.StatusCreated, CreateFamilyResponse{
		Message: "Family created successfully",
		Family:  family,
	})
}

// AddChild appends a child account to a standalone family
func (h *FamilyHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	id, ok := familyID(w, r)
	if !ok {
		return
	}

	var req AccountRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, badRequestText(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	child := models.NewAccount(req.account())
	err := h.store.AppendChild(ctx, id, child)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Family not found")
		return
	case err != nil:
		internalError(w, r, err, "Error adding child to family")
		return
	}

	writeJSON(w, http.StatusCreated, AddFamilyChildResponse{
		Message: "Child added to family successfully",
		Child:   child,
	})
}

// Get returns a standalone family with its children
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := familyID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	family, err := h.store.Get(ctx, id)
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "Family not found")
		return
	case err != nil:
		internalError(w, r, err, "Error getting family")
		return
	}
	writeJSON(w, http.StatusOK, GetFamilyResponse{Family: family})
}

func familyID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "familyId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid family id")
		return primitive.NilObjectID, false
	}
	return id, true
}
