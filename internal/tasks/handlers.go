package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"github.com/mwadhwa/touchbase/internal/ingest"
	"github.com/mwadhwa/touchbase/internal/store"
	"github.com/mwadhwa/touchbase/pkg/config"
	"github.com/mwadhwa/touchbase/pkg/crypto"
	"github.com/mwadhwa/touchbase/pkg/util"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	logger    *slog.Logger
	encryptor *crypto.Encryptor
	client    *asynq.Client
	cfg       *config.Config

	// Overridable in tests; nil means build the real Gmail source.
	newSource func(ctx context.Context, tokenJSON []byte) (ingest.MessageSource, error)
}

func NewHandler(db *gorm.DB, logger *slog.Logger, encryptor *crypto.Encryptor, client *asynq.Client, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		logger:    logger,
		encryptor: encryptor,
		client:    client,
		cfg:       cfg,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSync, h.HandleEmailSync)
	mux.HandleFunc(TypeSchedulerTick, h.HandleSchedulerTick)
}

// HandleEmailSync runs one Gmail sync: decrypt the stored token, pull the
// matching threads, and push them through the ingestion pipeline.
func (h *Handler) HandleEmailSync(ctx context.Context, t *asynq.Task) error {
	var payload EmailSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting email sync",
		"credential_id", payload.CredentialID,
		"query", payload.Query,
	)

	var credential models.GmailCredential
	if err := h.db.First(&credential, "id = ?", payload.CredentialID).Error; err != nil {
		return fmt.Errorf("loading credential %s: %w", payload.CredentialID, err)
	}

	tokenJSON, err := h.encryptor.DecryptString(credential.TokenCiphertext)
	if err != nil {
		return fmt.Errorf("decrypting credential: %w", err)
	}

	source, err := h.buildSource(ctx, []byte(tokenJSON))
	if err != nil {
		return err
	}

	ownerName := ""
	var owner models.User
	if err := h.db.WithContext(ctx).Order("created_at").First(&owner).Error; err != nil {
		h.logger.Warn("no owner account, summaries will not be personalized", "error", err)
	} else {
		ownerName = owner.Name
	}

	var summarizer ingest.Summarizer
	if h.cfg.OpenAI.APIKey != "" {
		summarizer = ingest.NewOpenAISummarizer(h.cfg.OpenAI.BaseURL, h.cfg.OpenAI.APIKey, h.cfg.OpenAI.Model)
	}

	pipeline := ingest.NewPipeline(
		source,
		summarizer,
		store.NewContactStore(h.db, h.logger),
		store.NewEmailStore(h.db, h.logger),
		ownerName,
		h.logger,
	)

	result, err := pipeline.Sync(ctx, payload.Query)
	if err != nil {
		h.logger.Error("email sync failed", "credential_id", payload.CredentialID, "error", err)
		return err
	}

	h.logger.Info("completed email sync",
		"credential_id", payload.CredentialID,
		"fetched", result.Fetched,
		"stored", result.Stored,
		"skipped", result.Skipped,
	)
	return nil
}

func (h *Handler) buildSource(ctx context.Context, tokenJSON []byte) (ingest.MessageSource, error) {
	if h.newSource != nil {
		return h.newSource(ctx, tokenJSON)
	}
	return ingest.NewGmailSource(ctx, h.cfg.Gmail.ClientID, h.cfg.Gmail.ClientSecret, tokenJSON)
}

// HandleSchedulerTick enqueues a sync for every enabled schedule that is due,
// then advances its next run time.
func (h *Handler) HandleSchedulerTick(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	var schedules []models.SyncSchedule
	if err := h.db.WithContext(ctx).
		Where("is_enabled = ? AND next_run_at > 0 AND next_run_at <= ?", true, now.Unix()).
		Find(&schedules).Error; err != nil {
		return fmt.Errorf("loading due schedules: %w", err)
	}

	var credential models.GmailCredential
	err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&credential).Error
	if err != nil {
		if len(schedules) > 0 {
			h.logger.Warn("schedules due but no active credential", "due", len(schedules))
		}
		return nil
	}

	for _, schedule := range schedules {
		task, err := NewEmailSyncTask(EmailSyncPayload{
			CredentialID: credential.ID,
			Query:        schedule.Query,
		})
		if err != nil {
			return err
		}
		if _, err := h.client.EnqueueContext(ctx, task, asynq.Queue("default")); err != nil {
			h.logger.Error("failed to enqueue scheduled sync", "schedule_id", schedule.ID, "error", err)
			continue
		}

		updates := map[string]interface{}{"last_run_at": now.Unix()}
		if next, err := util.NextCronTime(schedule.CronExpr, now); err == nil {
			updates["next_run_at"] = next.Unix()
		} else {
			h.logger.Error("invalid cron expression, disabling schedule",
				"schedule_id", schedule.ID, "error", err)
			updates["is_enabled"] = false
		}
		if err := h.db.WithContext(ctx).Model(&models.SyncSchedule{}).
			Where("id = ?", schedule.ID).
			Updates(updates).Error; err != nil {
			h.logger.Error("failed to update schedule", "schedule_id", schedule.ID, "error", err)
		}

		h.logger.Info("enqueued scheduled sync", "schedule_id", schedule.ID, "name", schedule.Name)
	}

	return nil
}
