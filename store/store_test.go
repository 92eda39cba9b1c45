package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/todoc/internal/profile"
	"github.com/hrygo/todoc/store"
	"github.com/hrygo/todoc/store/db"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	prof := &profile.Profile{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "store.db")}
	driver, err := db.NewDBDriver(prof)
	require.NoError(t, err)
	s := store.New(driver, prof)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestNewDBDriverUnknown(t *testing.T) {
	_, err := db.NewDBDriver(&profile.Profile{Driver: "mysql"})
	assert.Error(t, err)
}

func TestStoreKidHelpers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	kid, err := s.GetMostRecentKid(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, kid)

	clock := time.Unix(1000, 0)
	s.SetClock(func() time.Time { return clock })
	first, err := s.CreateKid(ctx, &store.Kid{UserID: 1, Name: "이서준"})
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	second, err := s.CreateKid(ctx, &store.Kid{UserID: 1, Name: "이서윤"})
	require.NoError(t, err)

	kid, err = s.GetMostRecentKid(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, kid)
	assert.Equal(t, second.ID, kid.ID)

	got, err := s.GetKid(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "이서준", got.Name)

	missing, err := s.GetKid(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreCreateRecordValidates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.SetClock(func() time.Time { return time.Date(2025, 5, 5, 9, 0, 0, 0, time.Local) })

	_, err := s.CreateRecord(ctx, &store.Record{KidID: 1, Type: store.RecordTypeMeal, Sleep: &store.SleepDetail{}})
	assert.Error(t, err)

	rec, err := s.CreateRecord(ctx, &store.Record{KidID: 1, Type: store.RecordTypeEtc, Etc: &store.EtcDetail{Title: "산책"}})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-05", rec.RecordDate)

	latest, err := s.GetLatestRecord(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "산책", latest.Etc.Title)

	none, err := s.GetLatestRecord(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestStoreChatSessionOwnership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateChatSession(ctx, &store.ChatSession{UID: "uid-1", UserID: 1, Persona: "parenting"})
	require.NoError(t, err)
	assert.Equal(t, session.CreatedTs, session.UpdatedTs)
	assert.Equal(t, store.DefaultChatTitle, session.DisplayTitle())

	got, err := s.GetChatSession(ctx, 1, session.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	other, err := s.GetChatSession(ctx, 2, session.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestStoreLatestInsightWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Unix(100_000, 0)
	s.SetClock(func() time.Time { return now })

	_, err := s.CreateUserInsight(ctx, &store.UserInsight{UserID: 1, KidID: 1, Category: "sleep", InsightText: "잘 자요"})
	require.NoError(t, err)

	got, err := s.GetLatestUserInsight(ctx, 1, 1, now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)

	stale, err := s.GetLatestUserInsight(ctx, 1, 1, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, stale)
}
