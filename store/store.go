package store

import (
	"context"
	"time"

	"github.com/hrygo/todoc/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
	now     func() time.Time
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		now:     time.Now,
	}
}

// SetClock replaces the timestamp source used for new rows.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateKid(ctx context.Context, create *Kid) (*Kid, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	return s.driver.CreateKid(ctx, create)
}

func (s *Store) ListKids(ctx context.Context, find *FindKid) ([]*Kid, error) {
	return s.driver.ListKids(ctx, find)
}

// GetKid returns the kid with id, or nil when none exists.
func (s *Store) GetKid(ctx context.Context, id int32) (*Kid, error) {
	list, err := s.driver.ListKids(ctx, &FindKid{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// GetMostRecentKid returns the user's most recently created kid, or nil.
func (s *Store) GetMostRecentKid(ctx context.Context, userID int32) (*Kid, error) {
	list, err := s.driver.ListKids(ctx, &FindKid{UserID: &userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateRecord(ctx context.Context, create *Record) (*Record, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	if create.RecordDate == "" {
		create.RecordDate = time.Unix(create.CreatedTs, 0).Format(BirthDateLayout)
	}
	return s.driver.CreateRecord(ctx, create)
}

func (s *Store) ListRecords(ctx context.Context, find *FindRecord) ([]*Record, error) {
	return s.driver.ListRecords(ctx, find)
}

// GetLatestRecord returns the kid's most recently created record, or nil.
func (s *Store) GetLatestRecord(ctx context.Context, kidID int32) (*Record, error) {
	list, err := s.driver.ListRecords(ctx, &FindRecord{KidID: kidID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListRecordsSince returns the kid's records created at or after since, newest first.
func (s *Store) ListRecordsSince(ctx context.Context, kidID int32, since time.Time, limit int) ([]*Record, error) {
	return s.driver.ListRecords(ctx, &FindRecord{
		KidID:        kidID,
		CreatedAfter: since.Unix(),
		Limit:        limit,
	})
}

func (s *Store) CreateChatSession(ctx context.Context, create *ChatSession) (*ChatSession, error) {
	now := s.now().Unix()
	if create.CreatedTs == 0 {
		create.CreatedTs = now
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	return s.driver.CreateChatSession(ctx, create)
}

func (s *Store) ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error) {
	return s.driver.ListChatSessions(ctx, find)
}

// GetChatSession returns the session with id owned by userID, or nil.
func (s *Store) GetChatSession(ctx context.Context, userID, id int32) (*ChatSession, error) {
	list, err := s.driver.ListChatSessions(ctx, &FindChatSession{ID: &id, UserID: &userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// TouchChatSession bumps the session's updated timestamp.
func (s *Store) TouchChatSession(ctx context.Context, id int32) error {
	return s.driver.TouchChatSession(ctx, id, s.now().Unix())
}

func (s *Store) AppendChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) CreateUserInsight(ctx context.Context, create *UserInsight) (*UserInsight, error) {
	if create.GeneratedTs == 0 {
		create.GeneratedTs = s.now().Unix()
	}
	return s.driver.CreateUserInsight(ctx, create)
}

// GetLatestUserInsight returns the newest insight generated at or after since, or nil.
func (s *Store) GetLatestUserInsight(ctx context.Context, userID, kidID int32, since time.Time) (*UserInsight, error) {
	return s.driver.GetLatestUserInsight(ctx, &FindUserInsight{
		UserID:         userID,
		KidID:          kidID,
		GeneratedAfter: since.Unix(),
	})
}

func (s *Store) CreateDocumentChunk(ctx context.Context, create *DocumentChunk) (*DocumentChunk, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = s.now().Unix()
	}
	return s.driver.CreateDocumentChunk(ctx, create)
}

func (s *Store) SearchDocumentChunks(ctx context.Context, opts *DocumentSearchOptions) ([]*DocumentChunkWithScore, error) {
	return s.driver.SearchDocumentChunks(ctx, opts)
}
