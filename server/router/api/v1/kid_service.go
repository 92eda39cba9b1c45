package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/todoc/ai/diary"
	"github.com/hrygo/todoc/ai/insight"
	"github.com/hrygo/todoc/server/auth"
	"github.com/hrygo/todoc/store"
)

// KidService serves the per-child insight endpoints.
type KidService struct {
	Store     *store.Store
	Insights  *insight.Service
	Summaries *insight.Summarizer
}

// InsightResponse is the body of GET /kids/:id/insight.
type InsightResponse struct {
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	InsightText   string    `json:"insight_text"`
	GeneratedAt   time.Time `json:"generated_at"`
	ChildName     string    `json:"child_name,omitempty"`
}

// SummaryResponse is the body of GET /kids/:id/summary.
type SummaryResponse struct {
	ChildID   int32  `json:"child_id"`
	ChildName string `json:"child_name"`
	Summary   string `json:"summary"`
}

// ownedKid loads the path child and checks that the caller owns it.
// A false result means the response has been written.
func (s *KidService) ownedKid(c echo.Context) (*store.Kid, bool, error) {
	id, ok := pathID(c)
	if !ok {
		return nil, false, errorJSON(c, http.StatusNotFound, childNotFound)
	}
	ctx := c.Request().Context()
	kid, err := s.Store.GetKid(ctx, id)
	if err != nil {
		slog.Error("failed to get kid", "kid_id", id, "error", err)
		return nil, false, errorJSON(c, http.StatusInternalServerError, retryLater)
	}
	if kid == nil || kid.UserID != auth.GetUserID(ctx) {
		return nil, false, errorJSON(c, http.StatusNotFound, childNotFound)
	}
	return kid, true, nil
}

// GetInsight returns the cached or freshly generated insight, or 204 when
// the child has no recent records.
func (s *KidService) GetInsight(c echo.Context) error {
	kid, ok, err := s.ownedKid(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()
	in, err := s.Insights.GetOrCreate(ctx, auth.GetUserID(ctx), kid)
	if err != nil {
		slog.Error("failed to get insight", "kid_id", kid.ID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: retryLater, Retryable: true})
	}
	if in == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, InsightResponse{
		Category:      in.Category,
		CategoryLabel: diary.CategoryLabel(store.RecordType(in.Category)),
		InsightText:   in.InsightText,
		GeneratedAt:   time.Unix(in.GeneratedTs, 0).UTC(),
		ChildName:     kid.Name,
	})
}

// GetSummary returns the one-sentence weekly summary.
func (s *KidService) GetSummary(c echo.Context) error {
	kid, ok, err := s.ownedKid(c)
	if !ok {
		return err
	}
	summary, err := s.Summaries.Weekly(c.Request().Context(), kid)
	if err != nil {
		slog.Error("failed to summarize week", "kid_id", kid.ID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Detail: retryLater, Retryable: true})
	}
	return c.JSON(http.StatusOK, SummaryResponse{ChildID: kid.ID, ChildName: kid.Name, Summary: summary})
}
