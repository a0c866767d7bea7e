package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// MessageSource yields full-format Gmail messages matching a search query.
type MessageSource interface {
	SearchThreads(ctx context.Context, query string) ([]*gmail.Message, error)
}

// GmailSource reads the owner's mailbox through the Gmail API.
type GmailSource struct {
	service *gmail.Service
}

// NewGmailSource builds a source from the OAuth client credentials and a
// previously stored token JSON.
func NewGmailSource(ctx context.Context, clientID, clientSecret string, tokenJSON []byte) (*GmailSource, error) {
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parsing stored token: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}

	service, err := gmail.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("building gmail service: %w", err)
	}
	return &GmailSource{service: service}, nil
}

// SearchThreads lists every thread matching the query and returns all
// messages in each thread, following pagination to the end.
func (g *GmailSource) SearchThreads(ctx context.Context, query string) ([]*gmail.Message, error) {
	var messages []*gmail.Message

	pageToken := ""
	for {
		call := g.service.Users.Threads.List("me").Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing threads: %w", err)
		}

		for _, t := range page.Threads {
			thread, err := g.service.Users.Threads.Get("me", t.Id).Format("full").Context(ctx).Do()
			if err != nil {
				return nil, fmt.Errorf("fetching thread %s: %w", t.Id, err)
			}
			messages = append(messages, thread.Messages...)
		}

		if page.NextPageToken == "" {
			return messages, nil
		}
		pageToken = page.NextPageToken
	}
}
