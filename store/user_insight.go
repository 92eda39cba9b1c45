package store

// UserInsight is a generated dashboard insight, cached per (user, kid).
type UserInsight struct {
	Category    string
	InsightText string
	GeneratedTs int64
	ID          int32
	UserID      int32
	KidID       int32
}

// FindUserInsight selects the newest insight generated at or after GeneratedAfter.
type FindUserInsight struct {
	UserID         int32
	KidID          int32
	GeneratedAfter int64
}
