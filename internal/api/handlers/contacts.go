package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mwadhwa/touchbase/internal/api/dto"
	"github.com/mwadhwa/touchbase/internal/api/validation"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"github.com/mwadhwa/touchbase/internal/store"
)

type ContactHandler struct {
	contacts *store.ContactStore
	emails   *store.EmailStore
}

func NewContactHandler(contacts *store.ContactStore, emails *store.EmailStore) *ContactHandler {
	return &ContactHandler{contacts: contacts, emails: emails}
}

// ContactMethodPayload is the wire shape of one contact method.
type ContactMethodPayload struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// CreateContactRequest represents the request to create a contact
type CreateContactRequest struct {
	Name           string                 `json:"name"`
	ContactMethods []ContactMethodPayload `json:"contact_methods"`
	Company        string                 `json:"company,omitempty"`
	Position       string                 `json:"position,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	LastContacted  string                 `json:"last_contacted,omitempty"`
	FollowUpDate   string                 `json:"follow_up_date,omitempty"`
	Warm           bool                   `json:"warm,omitempty"`
	Reminder       *bool                  `json:"reminder,omitempty"`
}

func (r CreateContactRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if len(r.ContactMethods) == 0 {
		errors["contact_methods"] = "At least one contact method is required"
	}
	for _, m := range r.ContactMethods {
		if !models.MethodType(m.Type).Valid() {
			errors["contact_methods"] = "Contact method type must be one of email, phone, linkedin"
		} else if ok, msg := validation.ValidateMethodValue(m.Type, m.Value); !ok {
			errors["contact_methods"] = msg
		}
	}
	if _, err := parseDate(r.LastContacted); err != nil {
		errors["last_contacted"] = "Invalid date, expected YYYY-MM-DD"
	}
	if _, err := parseDate(r.FollowUpDate); err != nil {
		errors["follow_up_date"] = "Invalid date, expected YYYY-MM-DD"
	}
	return errors
}

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email,omitempty"`
	Company        string                 `json:"company,omitempty"`
	Position       string                 `json:"position,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	LastContacted  string                 `json:"last_contacted,omitempty"`
	FollowUpDate   string                 `json:"follow_up_date,omitempty"`
	Warm           bool                   `json:"warm"`
	Reminder       bool                   `json:"reminder"`
	ContactMethods []ContactMethodPayload `json:"contact_methods"`
}

func contactToResponse(c *models.Contact) ContactResponse {
	resp := ContactResponse{
		ID:            c.ID.String(),
		Name:          c.Name,
		Email:         c.PrimaryEmail(),
		Company:       c.Company,
		Position:      c.Position,
		Notes:         c.Notes,
		LastContacted: formatDate(c.LastContacted),
		FollowUpDate:  formatDate(c.FollowUpDate),
		Warm:          c.Warm,
		Reminder:      c.Reminder,
	}
	for _, m := range c.Methods {
		resp.ContactMethods = append(resp.ContactMethods, ContactMethodPayload{
			Type:      string(m.MethodType),
			Value:     m.Value,
			IsPrimary: m.IsPrimary,
		})
	}
	return resp
}

// List handles GET /api/v1/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ContactFilter{
		Name:    r.URL.Query().Get("name"),
		Email:   r.URL.Query().Get("email"),
		Company: r.URL.Query().Get("company"),
	}

	contacts, err := h.contacts.Find(r.Context(), filter)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	response := make([]ContactResponse, len(contacts))
	for i := range contacts {
		response[i] = contactToResponse(&contacts[i])
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	lastContacted, _ := parseDate(req.LastContacted)
	followUp, _ := parseDate(req.FollowUpDate)
	reminder := true
	if req.Reminder != nil {
		reminder = *req.Reminder
	}

	input := store.CreateContactInput{
		Name:          req.Name,
		Company:       req.Company,
		Position:      req.Position,
		Notes:         req.Notes,
		LastContacted: lastContacted,
		FollowUpDate:  followUp,
		Warm:          req.Warm,
		Reminder:      reminder,
	}
	for _, m := range req.ContactMethods {
		input.Methods = append(input.Methods, store.MethodInput{
			Type:      m.Type,
			Value:     m.Value,
			IsPrimary: m.IsPrimary,
		})
	}

	contact, err := h.contacts.Create(r.Context(), input)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, contactToResponse(contact))
}

// Delete handles DELETE /api/v1/contacts/{name}. When several contacts share
// the name, contact_info and company query parameters narrow the match; an
// ambiguous result is a 409 listing the candidates.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	contactInfo := r.URL.Query().Get("contact_info")
	company := r.URL.Query().Get("company")

	if err := h.contacts.DeleteByName(r.Context(), name, contactInfo, company); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Contact " + name + " deleted successfully"})
}

// DeleteByEmail handles DELETE /api/v1/contacts/by-email/{email}
func (h *ContactHandler) DeleteByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if err := h.contacts.DeleteByEmail(r.Context(), email); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Contact deleted successfully"})
}

// Stats handles GET /api/v1/contacts/{id}/stats
func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid contact ID"})
		return
	}

	stats, err := h.emails.Statistics(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
