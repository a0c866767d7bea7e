package models

import (
	"time"

	"github.com/google/uuid"
)

type MethodType string

const (
	MethodEmail    MethodType = "email"
	MethodPhone    MethodType = "phone"
	MethodLinkedIn MethodType = "linkedin"
)

// Valid reports whether t is one of the supported contact method types.
func (t MethodType) Valid() bool {
	switch t {
	case MethodEmail, MethodPhone, MethodLinkedIn:
		return true
	}
	return false
}

// Contact is a person (or occasionally an org inbox) the owner keeps in touch with.
// Names are not unique; disambiguation on delete happens via company or a
// contact method value.
type Contact struct {
	Base
	Name     string `gorm:"not null;index" json:"name"`
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Notes    string `json:"notes,omitempty"`

	LastContacted *time.Time `json:"last_contacted,omitempty"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	Warm          bool       `gorm:"default:false" json:"warm"`
	Reminder      bool       `gorm:"default:true" json:"reminder"`

	// Relationships
	Methods []ContactMethod `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE" json:"contact_methods,omitempty"`
	Emails  []Email         `gorm:"many2many:contact_emails" json:"-"`
}

func (Contact) TableName() string {
	return "contacts"
}

// PrimaryEmail returns the contact's primary email method value, falling back
// to the first email method. Display-only; storage never depends on it.
func (c *Contact) PrimaryEmail() string {
	first := ""
	for _, m := range c.Methods {
		if m.MethodType != MethodEmail {
			continue
		}
		if m.IsPrimary {
			return m.Value
		}
		if first == "" {
			first = m.Value
		}
	}
	return first
}

// ContactMethod is one addressable channel belonging to a contact.
// Values are unique across the whole table, not just per contact: one
// address or handle identifies at most one person.
type ContactMethod struct {
	Base
	ContactID  uuid.UUID  `gorm:"type:uuid;index;not null" json:"-"`
	MethodType MethodType `gorm:"not null" json:"type"`
	Value      string     `gorm:"uniqueIndex;not null" json:"value"`
	IsPrimary  bool       `gorm:"default:false" json:"is_primary"`

	Contact *Contact `gorm:"foreignKey:ContactID" json:"-"`
}

func (ContactMethod) TableName() string {
	return "contact_methods"
}
