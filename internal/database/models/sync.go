package models

// GmailCredential stores an OAuth token for the owner's mailbox. The token
// JSON is age-encrypted before it ever touches the database.
type GmailCredential struct {
	Base
	Label string `gorm:"not null" json:"label"`

	// Base64 age ciphertext of the oauth2 token JSON.
	TokenCiphertext string `gorm:"not null" json:"-"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`
}

func (GmailCredential) TableName() string {
	return "gmail_credentials"
}

// SyncSchedule enqueues a Gmail sync on a cron cadence via the worker's
// scheduler tick.
type SyncSchedule struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	CronExpr string `gorm:"not null" json:"cron_expr"`

	// Gmail search query, e.g. "label:networking" or "from:a@x.com".
	Query string `json:"query"`

	IsEnabled bool  `gorm:"default:true;index" json:"is_enabled"`
	LastRunAt int64 `json:"last_run_at,omitempty"`
	NextRunAt int64 `gorm:"index" json:"next_run_at,omitempty"`
}

func (SyncSchedule) TableName() string {
	return "sync_schedules"
}
