package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultSubject = "No Subject"

// Email is one stored piece of correspondence. Rows are deduplicated by the
// provider message id when present, otherwise by content hash, so re-running
// an ingest is idempotent.
type Email struct {
	Base
	Date    time.Time `gorm:"not null;index" json:"date"`
	Subject string    `gorm:"not null" json:"subject"`
	Content string    `gorm:"not null" json:"content"`
	Summary string    `json:"summary,omitempty"`

	// External message id (e.g. Gmail). Nullable so hand-entered emails
	// without one don't collide on the unique index.
	MessageID *string `gorm:"uniqueIndex" json:"message_id,omitempty"`

	// sha256 of Content, dedup fallback when MessageID is absent.
	ContentHash string `gorm:"index;not null" json:"-"`

	// Sender is a weak back-reference: deleting the contact nulls it out
	// but leaves the email.
	SenderID *uuid.UUID `gorm:"type:uuid;index" json:"sender_id,omitempty"`

	Sender   *Contact  `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL" json:"-"`
	Contacts []Contact `gorm:"many2many:contact_emails" json:"-"`
}

func (Email) TableName() string {
	return "emails"
}

// ContactEmail is the contacts<->emails join row. Deleting a contact removes
// its join rows; the email survives as long as any other contact references it.
type ContactEmail struct {
	ContactID uuid.UUID `gorm:"type:uuid;primaryKey" json:"contact_id"`
	EmailID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"email_id"`
}

func (ContactEmail) TableName() string {
	return "contact_emails"
}
