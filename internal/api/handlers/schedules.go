package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mwadhwa/touchbase/internal/api/dto"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"github.com/mwadhwa/touchbase/pkg/util"
	"gorm.io/gorm"
)

// ScheduleHandler manages recurring Gmail syncs.
type ScheduleHandler struct {
	db *gorm.DB
}

func NewScheduleHandler(db *gorm.DB) *ScheduleHandler {
	return &ScheduleHandler{db: db}
}

// CreateScheduleRequest represents the request to create a sync schedule
type CreateScheduleRequest struct {
	Name      string `json:"name"`
	CronExpr  string `json:"cron_expr"`
	Query     string `json:"query,omitempty"`
	IsEnabled *bool  `json:"is_enabled,omitempty"`
}

func (r CreateScheduleRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Name == "" {
		errs["name"] = "Name is required"
	}
	if r.CronExpr == "" {
		errs["cron_expr"] = "Cron expression is required"
	} else if err := util.ValidateCronExpr(r.CronExpr); err != nil {
		errs["cron_expr"] = err.Error()
	}
	return errs
}

// List handles GET /api/v1/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	var schedules []models.SyncSchedule
	if err := h.db.WithContext(r.Context()).Order("created_at").Find(&schedules).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list schedules"})
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Create handles POST /api/v1/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}

	schedule := models.SyncSchedule{
		Name:      req.Name,
		CronExpr:  req.CronExpr,
		Query:     req.Query,
		IsEnabled: enabled,
	}
	if next, err := util.NextCronTime(req.CronExpr, time.Now()); err == nil {
		schedule.NextRunAt = next.Unix()
	}

	if err := h.db.WithContext(r.Context()).Create(&schedule).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create schedule"})
		return
	}
	writeJSON(w, http.StatusCreated, schedule)
}

// UpdateScheduleRequest represents a partial update to a sync schedule
type UpdateScheduleRequest struct {
	Name      *string `json:"name,omitempty"`
	CronExpr  *string `json:"cron_expr,omitempty"`
	Query     *string `json:"query,omitempty"`
	IsEnabled *bool   `json:"is_enabled,omitempty"`
}

// Update handles PATCH /api/v1/schedules/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid schedule ID"})
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.CronExpr != nil {
		if err := util.ValidateCronExpr(*req.CronExpr); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}

	var schedule models.SyncSchedule
	if err := h.db.WithContext(r.Context()).First(&schedule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Schedule not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load schedule"})
		return
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.Query != nil {
		schedule.Query = *req.Query
	}
	if req.IsEnabled != nil {
		schedule.IsEnabled = *req.IsEnabled
	}
	if req.CronExpr != nil {
		schedule.CronExpr = *req.CronExpr
		if next, err := util.NextCronTime(*req.CronExpr, time.Now()); err == nil {
			schedule.NextRunAt = next.Unix()
		}
	}

	if err := h.db.WithContext(r.Context()).Save(&schedule).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update schedule"})
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Delete handles DELETE /api/v1/schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid schedule ID"})
		return
	}

	result := h.db.WithContext(r.Context()).Delete(&models.SyncSchedule{}, "id = ?", id)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete schedule"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Schedule not found"})
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Schedule deleted"})
}
