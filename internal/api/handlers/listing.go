package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dom/account-market/internal/api/middleware"
	"github.com/dom/account-market/internal/api/response"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxListingBody = 1 << 20

type ListingHandler struct {
	listingService *service.ListingService
	log            *zap.Logger
}

func NewListingHandler(listingService *service.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{listingService: listingService, log: log}
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.List(r.Context())
	if err != nil {
		h.writeError(w, "list listings", err)
		return
	}

	docs := make([]map[string]interface{}, 0, len(listings))
	for _, l := range listings {
		docs = append(docs, l.Document())
	}

	response.JSON(w, http.StatusOK, docs)
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxListingBody))
	var body interface{}
	if err := dec.Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Exactly one JSON value; anything after it is malformed.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fields, ok := body.(map[string]interface{})
	if !ok {
		response.Error(w, http.StatusBadRequest, domain.ErrInvalidListing.Error())
		return
	}

	var actor *domain.Session
	if session, ok := middleware.GetSession(r.Context()); ok {
		actor = session
	}

	listing, err := h.listingService.Create(r.Context(), fields, actor)
	if err != nil {
		h.writeError(w, "create listing", err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageBody{
		Message: "Listing created",
		ID:      listing.ID.String(),
	})
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var actor *domain.Session
	if session, ok := middleware.GetSession(r.Context()); ok {
		actor = session
	}

	if err := h.listingService.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		h.writeError(w, "delete listing", err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageBody{Message: "Listing deleted"})
}

func (h *ListingHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier):
		response.Error(w, http.StatusBadRequest, "Invalid listing id")
	case errors.Is(err, domain.ErrInvalidListing):
		response.Error(w, http.StatusBadRequest, domain.ErrInvalidListing.Error())
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Listing not found")
	case errors.Is(err, domain.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.Error(op+": store unavailable", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "Database service unavailable")
	default:
		h.log.Error(op+" failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
