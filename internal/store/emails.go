package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmailStore owns email records and their links to contacts.
type EmailStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewEmailStore(db *gorm.DB, logger *slog.Logger) *EmailStore {
	return &EmailStore{db: db, logger: logger}
}

type CreateEmailInput struct {
	// Contacts to link, each referenced by exact name or any contact
	// method value. Any unresolvable entry fails the whole call.
	Contacts []string

	Date    time.Time
	Subject string
	Content string
	Summary string

	// External message id, preferred dedup key when present.
	MessageID string

	// Optional sender reference (name or address); must resolve when set.
	Sender string
}

func (in *CreateEmailInput) validate() error {
	if len(in.Contacts) == 0 {
		return &ValidationError{Msg: "at least one contact is required"}
	}
	if in.Date.IsZero() {
		return &ValidationError{Msg: "date is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Msg: "content must be a non-empty string"}
	}
	return nil
}

// Create stores an email and links it to the given contacts in one
// transaction. An email with the same message id (or, lacking one, identical
// content) is not re-inserted; the existing row is reused and the link set
// becomes the union of old and new. Each linked contact's last_contacted
// advances to the email date only when that date is strictly newer.
func (s *EmailStore) Create(ctx context.Context, input CreateEmailInput) (*models.Email, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var email models.Email
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contactIDs := make([]uuid.UUID, 0, len(input.Contacts))
		seen := make(map[uuid.UUID]bool)
		for _, ref := range input.Contacts {
			contact, err := resolveContact(tx, ref)
			if errors.Is(err, ErrNotFound) {
				return &UnknownContactError{Ref: ref}
			}
			if err != nil {
				return err
			}
			if !seen[contact.ID] {
				seen[contact.ID] = true
				contactIDs = append(contactIDs, contact.ID)
			}
		}

		var senderID *uuid.UUID
		if input.Sender != "" {
			sender, err := resolveContact(tx, input.Sender)
			if errors.Is(err, ErrNotFound) {
				return &UnknownContactError{Ref: input.Sender}
			}
			if err != nil {
				return err
			}
			senderID = &sender.ID
		}

		hash := contentHash(input.Content)

		found, err := findExisting(tx, input.MessageID, hash, &email)
		if err != nil {
			return err
		}
		if !found {
			email = models.Email{
				Date:        input.Date,
				Subject:     input.Subject,
				Content:     input.Content,
				Summary:     input.Summary,
				ContentHash: hash,
				SenderID:    senderID,
			}
			if email.Subject == "" {
				email.Subject = models.DefaultSubject
			}
			if input.MessageID != "" {
				id := input.MessageID
				email.MessageID = &id
			}
			if err := tx.Create(&email).Error; err != nil {
				return err
			}
		}

		for _, cid := range contactIDs {
			link := models.ContactEmail{ContactID: cid, EmailID: email.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Contact{}).
				Where("id = ? AND (last_contacted IS NULL OR last_contacted < ?)", cid, input.Date).
				Update("last_contacted", input.Date).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("email stored", "id", email.ID, "date", email.Date, "contacts", len(input.Contacts))
	return &email, nil
}

// findExisting looks an email up by message id when given, falling back to
// the content hash otherwise.
func findExisting(tx *gorm.DB, messageID, hash string, out *models.Email) (bool, error) {
	var err error
	if messageID != "" {
		err = tx.Where("message_id = ?", messageID).First(out).Error
	} else {
		err = tx.Where("content_hash = ?", hash).First(out).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Fetch returns emails, newest first. With names, only emails linked to a
// contact whose name matches exactly (OR semantics across names).
func (s *EmailStore) Fetch(ctx context.Context, names []string) ([]models.Email, error) {
	q := s.db.WithContext(ctx).Model(&models.Email{})
	if len(names) > 0 {
		q = q.Joins("JOIN contact_emails ce ON ce.email_id = emails.id").
			Joins("JOIN contacts c ON c.id = ce.contact_id").
			Where("c.name IN ?", names).
			Distinct("emails.*")
	}

	var emails []models.Email
	if err := q.Order("date DESC").Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

// LinkedContact is the display pair for a contact attached to an email.
type LinkedContact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// EmailWithContacts pairs an email with the display list of its linked
// contacts.
type EmailWithContacts struct {
	Email    models.Email
	Contacts []LinkedContact
}

// FetchWithContacts behaves like Fetch but resolves each email's linked
// contacts (name plus primary-or-first email address) in a fixed number of
// queries, grouped in memory by email id.
func (s *EmailStore) FetchWithContacts(ctx context.Context, names []string) ([]EmailWithContacts, error) {
	emails, err := s.Fetch(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, nil
	}

	emailIDs := make([]uuid.UUID, len(emails))
	for i, e := range emails {
		emailIDs[i] = e.ID
	}

	var links []models.ContactEmail
	if err := s.db.WithContext(ctx).Where("email_id IN ?", emailIDs).Find(&links).Error; err != nil {
		return nil, err
	}

	contactIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		contactIDs = append(contactIDs, l.ContactID)
	}

	var contacts []models.Contact
	if len(contactIDs) > 0 {
		if err := s.db.WithContext(ctx).Preload("Methods").
			Where("id IN ?", contactIDs).Find(&contacts).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uuid.UUID]*models.Contact, len(contacts))
	for i := range contacts {
		byID[contacts[i].ID] = &contacts[i]
	}

	linked := make(map[uuid.UUID][]LinkedContact, len(emails))
	for _, l := range links {
		c, ok := byID[l.ContactID]
		if !ok {
			continue
		}
		linked[l.EmailID] = append(linked[l.EmailID], LinkedContact{
			Name:  c.Name,
			Email: c.PrimaryEmail(),
		})
	}

	result := make([]EmailWithContacts, len(emails))
	for i, e := range emails {
		result[i] = EmailWithContacts{Email: e, Contacts: linked[e.ID]}
	}
	return result, nil
}

// Counterparty is one contact ranked by email volume with another.
type Counterparty struct {
	ContactID uuid.UUID `json:"contact_id"`
	Name      string    `json:"name"`
	Count     int64     `json:"count"`
}

// MonthCount is one bucket of the per-month volume histogram.
type MonthCount struct {
	Month string `json:"month"` // "2006-01"
	Count int64  `json:"count"`
}

// ContactStats aggregates a contact's correspondence. Recomputed per call.
type ContactStats struct {
	TotalSent     int64          `json:"total_sent"`
	TotalReceived int64          `json:"total_received"`
	TopSenders    []Counterparty `json:"most_frequent_senders"`
	TopReceivers  []Counterparty `json:"most_frequent_receivers"`
	VolumeByMonth []MonthCount   `json:"volume_by_month"`
}

// Statistics computes aggregate email statistics for one contact.
func (s *EmailStore) Statistics(ctx context.Context, contactID uuid.UUID) (*ContactStats, error) {
	db := s.db.WithContext(ctx)

	var contact models.Contact
	if err := db.First(&contact, "id = ?", contactID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	stats := &ContactStats{}

	if err := db.Model(&models.Email{}).
		Where("sender_id = ?", contactID).
		Count(&stats.TotalSent).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Email{}).
		Joins("JOIN contact_emails ce ON ce.email_id = emails.id").
		Where("ce.contact_id = ? AND (emails.sender_id IS NULL OR emails.sender_id <> ?)", contactID, contactID).
		Count(&stats.TotalReceived).Error; err != nil {
		return nil, err
	}

	// Who sends this contact the most mail.
	if err := db.Model(&models.Email{}).
		Select("c.id AS contact_id, c.name AS name, COUNT(*) AS count").
		Joins("JOIN contact_emails ce ON ce.email_id = emails.id").
		Joins("JOIN contacts c ON c.id = emails.sender_id").
		Where("ce.contact_id = ? AND emails.sender_id IS NOT NULL AND emails.sender_id <> ?", contactID, contactID).
		Group("c.id, c.name").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopSenders).Error; err != nil {
		return nil, err
	}

	// Who this contact sends the most mail to.
	if err := db.Model(&models.Email{}).
		Select("c.id AS contact_id, c.name AS name, COUNT(*) AS count").
		Joins("JOIN contact_emails ce ON ce.email_id = emails.id").
		Joins("JOIN contacts c ON c.id = ce.contact_id").
		Where("emails.sender_id = ? AND ce.contact_id <> ?", contactID, contactID).
		Group("c.id, c.name").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopReceivers).Error; err != nil {
		return nil, err
	}

	// Month buckets are computed in Go so the same query runs on Postgres
	// and the sqlite test driver.
	var rows []struct {
		ID   uuid.UUID
		Date time.Time
	}
	if err := db.Model(&models.Email{}).
		Select("DISTINCT emails.id, emails.date").
		Joins("LEFT JOIN contact_emails ce ON ce.email_id = emails.id").
		Where("ce.contact_id = ? OR emails.sender_id = ?", contactID, contactID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	stats.VolumeByMonth = bucketByMonth(dates)

	return stats, nil
}

func bucketByMonth(dates []time.Time) []MonthCount {
	counts := make(map[string]int64)
	for _, d := range dates {
		counts[d.Format("2006-01")]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthCount, len(months))
	for i, m := range months {
		out[i] = MonthCount{Month: m, Count: counts[m]}
	}
	return out
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
