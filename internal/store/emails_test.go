package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mwadhwa/touchbase/internal/database/models"
	"github.com/mwadhwa/touchbase/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func setupEmailStores(t *testing.T) (*ContactStore, *EmailStore, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := testLogger()
	return NewContactStore(db, logger), NewEmailStore(db, logger), func() {
		testutil.CleanupTestDB(t, db)
	}
}

func TestEmailCreate(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)

	email, err := emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.May, 1),
		Content:  "hello there",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSubject, email.Subject)

	// The contact's last_contacted picks up the email date.
	alice, err := contacts.GetByRef(ctx, "Alice")
	require.NoError(t, err)
	require.NotNil(t, alice.LastContacted)
	assert.True(t, alice.LastContacted.Equal(date(2023, time.May, 1)))
}

func TestEmailCreateUnknownContact(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)

	// One unknown name fails the whole call; nothing is stored.
	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice", "Stranger"},
		Date:     date(2023, time.May, 1),
		Content:  "hello",
	})
	var unknown *UnknownContactError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Stranger", unknown.Ref)

	fetched, err := emails.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, fetched)
}

func TestEmailCreateUnknownSender(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.May, 1),
		Content:  "hello",
		Sender:   "ghost@example.com",
	})
	var unknown *UnknownContactError
	assert.ErrorAs(t, err, &unknown)
}

func TestEmailContentDedup(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = contacts.Create(ctx, newContactInput("Bob", "bob@example.com"))
	require.NoError(t, err)

	first, err := emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.May, 1),
		Content:  "identical body",
	})
	require.NoError(t, err)

	// Same content, different contact: the existing row is reused and the
	// link set becomes the union.
	second, err := emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Bob"},
		Date:     date(2023, time.May, 1),
		Content:  "identical body",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	withContacts, err := emails.FetchWithContacts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, withContacts, 1)
	assert.Len(t, withContacts[0].Contacts, 2)
}

func TestEmailMessageIDDedup(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)

	first, err := emails.Create(ctx, CreateEmailInput{
		Contacts:  []string{"Alice"},
		Date:      date(2023, time.May, 1),
		Content:   "original body",
		MessageID: "gmail-msg-1",
	})
	require.NoError(t, err)

	// Same message id wins over differing content.
	second, err := emails.Create(ctx, CreateEmailInput{
		Contacts:  []string{"Alice"},
		Date:      date(2023, time.May, 1),
		Content:   "edited body",
		MessageID: "gmail-msg-1",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := emails.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEmailLastContactedMonotonic(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.June, 15),
		Content:  "newer mail",
	})
	require.NoError(t, err)

	// An older email must not move last_contacted backwards.
	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.January, 1),
		Content:  "older mail",
	})
	require.NoError(t, err)

	alice, err := contacts.GetByRef(ctx, "Alice")
	require.NoError(t, err)
	require.NotNil(t, alice.LastContacted)
	assert.True(t, alice.LastContacted.Equal(date(2023, time.June, 15)))

	// A newer one advances it.
	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice"},
		Date:     date(2023, time.December, 25),
		Content:  "newest mail",
	})
	require.NoError(t, err)

	alice, err = contacts.GetByRef(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, alice.LastContacted.Equal(date(2023, time.December, 25)))
}

func TestEmailFetchByContacts(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = contacts.Create(ctx, newContactInput("Bob", "bob@example.com"))
	require.NoError(t, err)
	_, err = contacts.Create(ctx, newContactInput("Carol", "carol@example.com"))
	require.NoError(t, err)

	for _, e := range []CreateEmailInput{
		{Contacts: []string{"Alice"}, Date: date(2023, time.May, 1), Content: "to alice"},
		{Contacts: []string{"Bob"}, Date: date(2023, time.May, 2), Content: "to bob"},
		{Contacts: []string{"Alice", "Bob"}, Date: date(2023, time.May, 3), Content: "to both"},
		{Contacts: []string{"Carol"}, Date: date(2023, time.May, 4), Content: "to carol"},
	} {
		_, err := emails.Create(ctx, e)
		require.NoError(t, err)
	}

	// OR semantics across names, each email once, newest first.
	fetched, err := emails.Fetch(ctx, []string{"Alice", "Bob"})
	require.NoError(t, err)
	require.Len(t, fetched, 3)
	assert.Equal(t, "to both", fetched[0].Content)
	assert.Equal(t, "to bob", fetched[1].Content)
	assert.Equal(t, "to alice", fetched[2].Content)

	all, err := emails.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEmailFetchWithContacts(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = contacts.Create(ctx, newContactInput("Bob", "bob@example.com"))
	require.NoError(t, err)

	_, err = emails.Create(ctx, CreateEmailInput{
		Contacts: []string{"Alice", "Bob"},
		Date:     date(2023, time.May, 3),
		Subject:  "Plans",
		Content:  "dinner on friday",
	})
	require.NoError(t, err)

	withContacts, err := emails.FetchWithContacts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, withContacts, 1)
	require.Len(t, withContacts[0].Contacts, 2)

	names := map[string]string{}
	for _, lc := range withContacts[0].Contacts {
		names[lc.Name] = lc.Email
	}
	assert.Equal(t, "alice@example.com", names["Alice"])
	assert.Equal(t, "bob@example.com", names["Bob"])
}

func TestEmailStatistics(t *testing.T) {
	contacts, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	alice, err := contacts.Create(ctx, newContactInput("Alice", "alice@example.com"))
	require.NoError(t, err)
	_, err = contacts.Create(ctx, newContactInput("Bob", "bob@example.com"))
	require.NoError(t, err)

	// Two sent by Alice to Bob, one received from Bob, across two months.
	for _, e := range []CreateEmailInput{
		{Contacts: []string{"Bob"}, Sender: "alice@example.com", Date: date(2023, time.May, 1), Content: "a1"},
		{Contacts: []string{"Bob"}, Sender: "alice@example.com", Date: date(2023, time.May, 20), Content: "a2"},
		{Contacts: []string{"Alice"}, Sender: "bob@example.com", Date: date(2023, time.June, 2), Content: "b1"},
	} {
		_, err := emails.Create(ctx, e)
		require.NoError(t, err)
	}

	stats, err := emails.Statistics(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalSent)
	assert.Equal(t, int64(1), stats.TotalReceived)

	require.Len(t, stats.TopSenders, 1)
	assert.Equal(t, "Bob", stats.TopSenders[0].Name)
	assert.Equal(t, int64(1), stats.TopSenders[0].Count)

	require.Len(t, stats.TopReceivers, 1)
	assert.Equal(t, "Bob", stats.TopReceivers[0].Name)
	assert.Equal(t, int64(2), stats.TopReceivers[0].Count)

	require.Len(t, stats.VolumeByMonth, 2)
	assert.Equal(t, MonthCount{Month: "2023-05", Count: 2}, stats.VolumeByMonth[0])
	assert.Equal(t, MonthCount{Month: "2023-06", Count: 1}, stats.VolumeByMonth[1])
}

func TestEmailStatisticsUnknownContact(t *testing.T) {
	_, emails, cleanup := setupEmailStores(t)
	defer cleanup()
	ctx := testutil.TestContext(t)

	_, err := emails.Statistics(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
