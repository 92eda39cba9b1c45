// Package diary renders a child's profile and recent diary entries as prompt
// context. Storage failures degrade to fixed sentinel strings and are never
// returned to the caller.
package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/todoc/store"
)

// Sentinel strings returned in place of real context.
const (
	NoKidSelected     = "No kid selected."
	LatestUnavailable = "No latest record available (DB not ready)."
	NoLatestRecord    = "No latest record."
	RecentUnavailable = "Recent diary digest unavailable (DB not ready)."
	NoRecentRecords   = "No diary records in the last 7 days."
)

const (
	// RecentWindow is the look-back window of RecentDigest.
	RecentWindow = 7 * 24 * time.Hour
	// RecentLimit caps the number of entries in RecentDigest.
	RecentLimit = 50
)

var sentinels = map[string]bool{
	NoKidSelected:     true,
	LatestUnavailable: true,
	NoLatestRecord:    true,
	RecentUnavailable: true,
	NoRecentRecords:   true,
}

// IsSentinel reports whether s is one of the placeholder strings.
func IsSentinel(s string) bool {
	return sentinels[s]
}

// Reader is the diary storage the builder reads from.
type Reader interface {
	GetLatestRecord(ctx context.Context, kidID int32) (*store.Record, error)
	ListRecordsSince(ctx context.Context, kidID int32, since time.Time, limit int) ([]*store.Record, error)
}

// Context is the rendered prompt context of one turn.
type Context struct {
	Profile string
	Latest  string
	Recent  string
}

// HasKid reports whether the profile block describes a real child.
func (c Context) HasKid() bool {
	return c.Profile != "" && c.Profile != NoKidSelected
}

// Builder renders diary context for one child. kid and reader may be nil.
type Builder struct {
	kid    *store.Kid
	reader Reader
	now    func() time.Time
}

// NewBuilder creates a builder. A nil now uses time.Now.
func NewBuilder(kid *store.Kid, reader Reader, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{kid: kid, reader: reader, now: now}
}

// Kid returns the bound child, or nil.
func (b *Builder) Kid() *store.Kid {
	return b.kid
}

// ProfileSnapshot renders the child's profile block.
func (b *Builder) ProfileSnapshot(_ context.Context) string {
	if b.kid == nil {
		return NoKidSelected
	}
	short := ShortName(b.kid.Name)
	age := "알 수 없음"
	if birth, ok := b.kid.Birth(); ok {
		age = fmt.Sprintf("%d개월", AgeMonths(birth, b.now()))
	}
	gender := "여아"
	if b.kid.Gender == store.GenderMale {
		gender = "남아"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "- 이름: %s\n", short)
	fmt.Fprintf(&sb, "- 호칭: %s\n", SubjectForm(short))
	fmt.Fprintf(&sb, "- 생년월일: %s\n", b.kid.BirthDate)
	fmt.Fprintf(&sb, "- 생후: %s\n", age)
	fmt.Fprintf(&sb, "- 성별: %s", gender)
	return sb.String()
}

// LatestEntry renders the most recently created entry.
func (b *Builder) LatestEntry(ctx context.Context) string {
	if b.reader == nil || b.kid == nil {
		return LatestUnavailable
	}
	record, err := b.reader.GetLatestRecord(ctx, b.kid.ID)
	if err != nil {
		slog.Warn("diary: latest record lookup failed", "kid_id", b.kid.ID, "error", err)
		return LatestUnavailable
	}
	if record == nil {
		return NoLatestRecord
	}
	return Describe(record, b.now().Location())
}

// RecentDigest renders entries of the last seven days, newest first.
func (b *Builder) RecentDigest(ctx context.Context) string {
	if b.reader == nil || b.kid == nil {
		return RecentUnavailable
	}
	now := b.now()
	records, err := b.reader.ListRecordsSince(ctx, b.kid.ID, now.Add(-RecentWindow), RecentLimit)
	if err != nil {
		slog.Warn("diary: recent records lookup failed", "kid_id", b.kid.ID, "error", err)
		return RecentUnavailable
	}
	if len(records) == 0 {
		return NoRecentRecords
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, Describe(r, now.Location()))
	}
	return strings.Join(lines, "\n")
}

// Snapshot builds the three views concurrently and joins before returning.
func (b *Builder) Snapshot(ctx context.Context) Context {
	var c Context
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Profile = b.ProfileSnapshot(gctx)
		return nil
	})
	g.Go(func() error {
		c.Latest = b.LatestEntry(gctx)
		return nil
	})
	g.Go(func() error {
		c.Recent = b.RecentDigest(gctx)
		return nil
	})
	_ = g.Wait()
	return c
}
