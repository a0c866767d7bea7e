package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/mwadhwa/touchbase/internal/api/dto"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"github.com/mwadhwa/touchbase/internal/tasks"
	"github.com/mwadhwa/touchbase/pkg/crypto"
	"gorm.io/gorm"
)

// SyncHandler stores the Gmail credential and enqueues sync runs.
type SyncHandler struct {
	db        *gorm.DB
	queue     *asynq.Client
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

func NewSyncHandler(db *gorm.DB, queue *asynq.Client, encryptor *crypto.Encryptor, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{db: db, queue: queue, encryptor: encryptor, logger: logger}
}

// PutCredentialRequest carries the OAuth token JSON produced by the Google
// consent flow. The token is encrypted before it is persisted.
type PutCredentialRequest struct {
	Label string          `json:"label"`
	Token json.RawMessage `json:"token"`
}

// PutCredential handles PUT /api/v1/gmail/credential. Touchbase syncs a
// single mailbox, so storing a credential deactivates any previous one.
func (h *SyncHandler) PutCredential(w http.ResponseWriter, r *http.Request) {
	var req PutCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.Token) == 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Token is required"})
		return
	}
	if req.Label == "" {
		req.Label = "gmail"
	}

	ciphertext, err := h.encryptor.EncryptString(string(req.Token))
	if err != nil {
		h.logger.Error("failed to encrypt credential", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store credential"})
		return
	}

	credential := models.GmailCredential{
		Label:           req.Label,
		TokenCiphertext: ciphertext,
		IsActive:        true,
	}
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GmailCredential{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&credential).Error
	})
	if err != nil {
		h.logger.Error("failed to store credential", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store credential"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":       "Credential stored",
		"credential_id": credential.ID.String(),
	})
}

// TriggerSyncRequest optionally narrows the sync to a Gmail search query.
type TriggerSyncRequest struct {
	Query string `json:"query,omitempty"`
}

// Trigger handles POST /api/v1/sync. The sync itself runs on the worker; the
// API only enqueues and returns 202.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	// The server starts without a queue client when Redis is unreachable;
	// the rest of the API keeps working but syncs cannot be enqueued.
	if h.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Sync unavailable"})
		return
	}

	var req TriggerSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
			return
		}
	}

	credential, err := h.activeCredential(r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No Gmail credential configured"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load credential"})
		return
	}

	task, err := tasks.NewEmailSyncTask(tasks.EmailSyncPayload{
		CredentialID: credential.ID,
		Query:        req.Query,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create sync task"})
		return
	}

	info, err := h.queue.EnqueueContext(r.Context(), task, asynq.Queue("default"))
	if err != nil {
		h.logger.Error("failed to enqueue sync", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue sync"})
		return
	}

	h.logger.Info("sync enqueued", "task_id", info.ID, "query", req.Query)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Sync started",
		"task_id": info.ID,
	})
}

func (h *SyncHandler) activeCredential(r *http.Request) (*models.GmailCredential, error) {
	var credential models.GmailCredential
	err := h.db.WithContext(r.Context()).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}
