package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mwadhwa/touchbase/internal/store"
)

// Pipeline pulls messages from a mailbox, matches participants against known
// contacts, summarizes, and records the result.
type Pipeline struct {
	source     MessageSource
	summarizer Summarizer
	contacts   *store.ContactStore
	emails     *store.EmailStore
	owner      string
	logger     *slog.Logger
}

func NewPipeline(source MessageSource, summarizer Summarizer, contacts *store.ContactStore, emails *store.EmailStore, owner string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:     source,
		summarizer: summarizer,
		contacts:   contacts,
		emails:     emails,
		owner:      owner,
		logger:     logger,
	}
}

// SyncResult reports what one sync run did.
type SyncResult struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

// Sync fetches every message matching the query and records the ones that
// involve at least one known contact. Unlike the manual API, the pipeline is
// permissive: unknown addresses are dropped rather than failing the message,
// since most mail involves people who are not contacts. A summarizer failure
// downgrades to an empty summary, never a lost email.
func (p *Pipeline) Sync(ctx context.Context, query string) (*SyncResult, error) {
	messages, err := p.source.SearchThreads(ctx, query)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Fetched: len(messages)}
	for _, msg := range messages {
		env, err := ParseMessage(msg)
		if err != nil {
			p.logger.Warn("skipping unparsable message", "error", err)
			result.Skipped++
			continue
		}

		fromAddr := ExtractAddress(env.From)
		var linked []string
		var sender string
		seen := make(map[string]bool)
		for _, addr := range env.Addresses() {
			if seen[addr] {
				continue
			}
			seen[addr] = true

			if _, err := p.contacts.GetByEmail(ctx, addr); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return nil, err
			}
			linked = append(linked, addr)
			if addr == fromAddr {
				sender = addr
			}
		}
		if len(linked) == 0 {
			p.logger.Debug("no known contacts in message", "message_id", env.MessageID)
			result.Skipped++
			continue
		}

		summary := ""
		if p.summarizer != nil {
			summary, err = p.summarizer.Summarize(ctx, p.owner, env.String())
			if err != nil {
				p.logger.Warn("summarizer failed, storing without summary",
					"message_id", env.MessageID, "error", err)
				summary = ""
			}
		}

		_, err = p.emails.Create(ctx, store.CreateEmailInput{
			Contacts:  linked,
			Date:      env.Date,
			Subject:   env.Subject,
			Content:   env.Content,
			Summary:   summary,
			MessageID: env.MessageID,
			Sender:    sender,
		})
		if err != nil {
			p.logger.Error("failed to store email", "message_id", env.MessageID, "error", err)
			result.Skipped++
			continue
		}
		result.Stored++
	}

	p.logger.Info("sync finished", "query", query,
		"fetched", result.Fetched, "stored", result.Stored, "skipped", result.Skipped)
	return result, nil
}
