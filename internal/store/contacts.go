package store

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mwadhwa/touchbase/internal/database/models"
	"gorm.io/gorm"
)

// ContactStore owns contact records and their contact methods.
type ContactStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewContactStore(db *gorm.DB, logger *slog.Logger) *ContactStore {
	return &ContactStore{db: db, logger: logger}
}

type MethodInput struct {
	Type      string
	Value     string
	IsPrimary bool
}

type CreateContactInput struct {
	Name          string
	Methods       []MethodInput
	Company       string
	Position      string
	Notes         string
	LastContacted *time.Time
	FollowUpDate  *time.Time
	Warm          bool
	Reminder      bool
}

func (in *CreateContactInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Msg: "name must be a non-empty string"}
	}
	if len(in.Methods) == 0 {
		return &ValidationError{Msg: "at least one contact method is required"}
	}
	for i, m := range in.Methods {
		if !models.MethodType(m.Type).Valid() {
			return &ValidationError{Msg: "contact method at index " + strconv.Itoa(i) + " has invalid type; must be one of email, phone, linkedin"}
		}
		if strings.TrimSpace(m.Value) == "" {
			return &ValidationError{Msg: "contact method at index " + strconv.Itoa(i) + " has an empty value"}
		}
	}
	return nil
}

// Create inserts a contact and its methods as one transaction. Every method
// value is checked against the whole contact_methods table first; any
// collision aborts the create with a DuplicateValueError naming the existing
// owner, and no partial contact is ever persisted.
func (s *ContactStore) Create(ctx context.Context, input CreateContactInput) (*models.Contact, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	contact := models.Contact{
		Name:          strings.TrimSpace(input.Name),
		Company:       input.Company,
		Position:      input.Position,
		Notes:         input.Notes,
		LastContacted: input.LastContacted,
		FollowUpDate:  input.FollowUpDate,
		Warm:          input.Warm,
		Reminder:      input.Reminder,
	}
	for _, m := range input.Methods {
		contact.Methods = append(contact.Methods, models.ContactMethod{
			MethodType: models.MethodType(m.Type),
			Value:      strings.TrimSpace(m.Value),
			IsPrimary:  m.IsPrimary,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range contact.Methods {
			var existing models.ContactMethod
			err := tx.Preload("Contact").Where("value = ?", m.Value).First(&existing).Error
			if err == nil {
				dup := &DuplicateValueError{MethodType: m.MethodType, Value: m.Value}
				if existing.Contact != nil {
					dup.OwnerName = existing.Contact.Name
					dup.OwnerCompany = existing.Contact.Company
				}
				return dup
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return tx.Create(&contact).Error
	})
	if err != nil {
		// The pre-check can lose a race with a concurrent create; the
		// unique index on contact_methods.value is the backstop, and its
		// violation surfaces the same duplicate taxonomy.
		if isUniqueViolation(err) {
			return nil, s.duplicateMethodError(ctx, contact.Methods)
		}
		return nil, err
	}

	s.logger.Info("contact created", "id", contact.ID, "name", contact.Name, "methods", len(contact.Methods))
	return &contact, nil
}

// ContactFilter narrows a contact listing. Each field is an independent
// case-insensitive substring match; filters combine with AND.
type ContactFilter struct {
	Name    string
	Email   string
	Company string
}

// Find returns all contacts matching the filter, methods preloaded.
func (s *ContactStore) Find(ctx context.Context, filter ContactFilter) ([]models.Contact, error) {
	q := s.db.WithContext(ctx).Model(&models.Contact{}).Preload("Methods")

	if filter.Name != "" {
		q = q.Where("LOWER(contacts.name) LIKE ?", substring(filter.Name))
	}
	if filter.Company != "" {
		q = q.Where("LOWER(contacts.company) LIKE ?", substring(filter.Company))
	}
	if filter.Email != "" {
		q = q.Joins("JOIN contact_methods cm ON cm.contact_id = contacts.id").
			Where("cm.method_type = ? AND LOWER(cm.value) LIKE ?", models.MethodEmail, substring(filter.Email)).
			Distinct("contacts.*")
	}

	var contacts []models.Contact
	if err := q.Order("contacts.name").Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// GetByEmail looks a contact up by an exact email method value. This is the
// canonical "identify a contact by one of its addresses" operation.
func (s *ContactStore) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.WithContext(ctx).Preload("Methods").
		Joins("JOIN contact_methods cm ON cm.contact_id = contacts.id").
		Where("cm.method_type = ? AND cm.value = ?", models.MethodEmail, email).
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetByRef resolves a contact by exact name or by any contact method value.
func (s *ContactStore) GetByRef(ctx context.Context, ref string) (*models.Contact, error) {
	return resolveContact(s.db.WithContext(ctx), ref)
}

func resolveContact(db *gorm.DB, ref string) (*models.Contact, error) {
	var contact models.Contact
	err := db.Preload("Methods").
		Joins("LEFT JOIN contact_methods cm ON cm.contact_id = contacts.id").
		Where("contacts.name = ? OR cm.value = ?", ref, ref).
		Distinct("contacts.*").
		First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// DeleteByName deletes the single contact matching name, optionally narrowed
// by an exact company and/or an exact contact method value. Three outcomes:
// ErrNotFound when nothing matches, AmbiguousError when more than one contact
// remains after narrowing, or a full cascade delete of the unique match.
func (s *ContactStore) DeleteByName(ctx context.Context, name, contactInfo, company string) error {
	q := s.db.WithContext(ctx).Preload("Methods").Where("name = ?", name)
	if company != "" {
		q = q.Where("company = ?", company)
	}

	var matches []models.Contact
	if err := q.Find(&matches).Error; err != nil {
		return err
	}

	if contactInfo != "" {
		narrowed := matches[:0]
		for _, c := range matches {
			for _, m := range c.Methods {
				if m.Value == contactInfo {
					narrowed = append(narrowed, c)
					break
				}
			}
		}
		matches = narrowed
	}

	switch len(matches) {
	case 0:
		return ErrNotFound
	case 1:
		return s.deleteContact(ctx, &matches[0])
	default:
		amb := &AmbiguousError{Name: name}
		for _, c := range matches {
			cand := Candidate{Company: c.Company}
			for _, m := range c.Methods {
				cand.Methods = append(cand.Methods, string(m.MethodType)+":"+m.Value)
			}
			amb.Candidates = append(amb.Candidates, cand)
		}
		return amb
	}
}

// DeleteByEmail deletes the contact owning the given email address.
func (s *ContactStore) DeleteByEmail(ctx context.Context, email string) error {
	contact, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.deleteContact(ctx, contact)
}

// deleteContact removes the contact's methods, its email join rows, and the
// contact itself in one transaction. Emails stay; any sender reference to the
// contact is nulled.
func (s *ContactStore) deleteContact(ctx context.Context, contact *models.Contact) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contact_id = ?", contact.ID).Delete(&models.ContactMethod{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contact_id = ?", contact.ID).Delete(&models.ContactEmail{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Email{}).Where("sender_id = ?", contact.ID).
			Update("sender_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Contact{}, "id = ?", contact.ID).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("contact deleted", "id", contact.ID, "name", contact.Name)
	return nil
}

// duplicateMethodError rebuilds a DuplicateValueError after a unique-index
// violation, naming the owner of whichever submitted value already exists.
// The owner lookup runs outside the rolled-back transaction.
func (s *ContactStore) duplicateMethodError(ctx context.Context, methods []models.ContactMethod) *DuplicateValueError {
	for _, m := range methods {
		var existing models.ContactMethod
		err := s.db.WithContext(ctx).Preload("Contact").Where("value = ?", m.Value).First(&existing).Error
		if err != nil {
			continue
		}
		dup := &DuplicateValueError{MethodType: existing.MethodType, Value: existing.Value}
		if existing.Contact != nil {
			dup.OwnerName = existing.Contact.Name
			dup.OwnerCompany = existing.Contact.Company
		}
		return dup
	}
	// No owner row found, e.g. the same value submitted twice in one input.
	return &DuplicateValueError{MethodType: methods[0].MethodType, Value: methods[0].Value}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func substring(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
