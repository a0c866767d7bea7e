package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mwadhwa/touchbase/internal/api/dto"
	"github.com/mwadhwa/touchbase/internal/store"
)

type EmailHandler struct {
	emails *store.EmailStore
}

func NewEmailHandler(emails *store.EmailStore) *EmailHandler {
	return &EmailHandler{emails: emails}
}

// CreateEmailRequest represents the request to record an email
type CreateEmailRequest struct {
	Contacts  []string `json:"contacts"`
	Date      string   `json:"date"`
	Subject   string   `json:"subject,omitempty"`
	Content   string   `json:"content"`
	Summary   string   `json:"summary,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	Sender    string   `json:"sender,omitempty"`
}

func (r CreateEmailRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if len(r.Contacts) == 0 {
		errors["contacts"] = "At least one contact is required"
	}
	if r.Date == "" {
		errors["date"] = "Date is required"
	} else if _, err := parseDate(r.Date); err != nil {
		errors["date"] = "Invalid date, expected YYYY-MM-DD"
	}
	if r.Content == "" {
		errors["content"] = "Content is required"
	}
	return errors
}

// EmailResponse represents an email in API responses
type EmailResponse struct {
	ID       string                `json:"id"`
	Date     string                `json:"date"`
	Subject  string                `json:"subject"`
	Summary  string                `json:"summary,omitempty"`
	Content  string                `json:"content"`
	SenderID string                `json:"sender_id,omitempty"`
	Contacts []store.LinkedContact `json:"contacts"`
}

// List handles GET /api/v1/emails. The contacts query parameter may repeat;
// emails linked to any named contact are returned (OR semantics).
func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["contacts"]

	results, err := h.emails.FetchWithContacts(r.Context(), names)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	response := make([]EmailResponse, len(results))
	for i, rec := range results {
		resp := EmailResponse{
			ID:       rec.Email.ID.String(),
			Date:     rec.Email.Date.Format(dateLayout),
			Subject:  rec.Email.Subject,
			Summary:  rec.Email.Summary,
			Content:  rec.Email.Content,
			Contacts: rec.Contacts,
		}
		if rec.Email.SenderID != nil {
			resp.SenderID = rec.Email.SenderID.String()
		}
		response[i] = resp
	}
	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/emails
func (h *EmailHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	date, _ := parseDate(req.Date)

	email, err := h.emails.Create(r.Context(), store.CreateEmailInput{
		Contacts:  req.Contacts,
		Date:      *date,
		Subject:   req.Subject,
		Content:   req.Content,
		Summary:   req.Summary,
		MessageID: req.MessageID,
		Sender:    req.Sender,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Email added successfully",
		"email_id": email.ID.String(),
	})
}
