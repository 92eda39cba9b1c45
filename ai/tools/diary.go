package tools

import "context"

// DiaryView is the part of diary.Builder the diary tools read.
type DiaryView interface {
	LatestEntry(ctx context.Context) string
	RecentDigest(ctx context.Context) string
}

// DiaryRecent returns the seven-day digest. Input is ignored.
type DiaryRecent struct {
	view DiaryView
}

func NewDiaryRecent(view DiaryView) *DiaryRecent {
	return &DiaryRecent{view: view}
}

func (t *DiaryRecent) Name() string               { return DiaryRecentName }
func (t *DiaryRecent) Description() string        { return "최근 7일 일지 요약" }
func (t *DiaryRecent) Parameters() map[string]any { return noParameters() }

func (t *DiaryRecent) Run(ctx context.Context, _ string) (string, error) {
	return t.view.RecentDigest(ctx), nil
}

// DiaryLatest returns the most recent entry. Input is ignored.
type DiaryLatest struct {
	view DiaryView
}

func NewDiaryLatest(view DiaryView) *DiaryLatest {
	return &DiaryLatest{view: view}
}

func (t *DiaryLatest) Name() string               { return DiaryLatestName }
func (t *DiaryLatest) Description() string        { return "가장 최근 일지 1건" }
func (t *DiaryLatest) Parameters() map[string]any { return noParameters() }

func (t *DiaryLatest) Run(ctx context.Context, _ string) (string, error) {
	return t.view.LatestEntry(ctx), nil
}
