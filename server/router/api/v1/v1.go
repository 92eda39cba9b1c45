// Package v1 serves the JSON API under /api/v1.
package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/todoc/ai"
	"github.com/hrygo/todoc/internal/profile"
	"github.com/hrygo/todoc/server/auth"
	"github.com/hrygo/todoc/store"
)

type APIV1Service struct {
	AIService  *AIService
	KidService *KidService

	Profile       *profile.Profile
	Store         *store.Store
	authenticator *auth.Authenticator
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, stack *ai.Stack) *APIV1Service {
	return &APIV1Service{
		AIService:     &AIService{Store: store, Chats: stack.Chat},
		KidService:    &KidService{Store: store, Insights: stack.Insights, Summaries: stack.Summaries},
		Profile:       profile,
		Store:         store,
		authenticator: auth.NewAuthenticator(secret),
	}
}

// RegisterRoutes mounts the authenticated API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}), s.authMiddleware)

	api.POST("/ai/chat", s.AIService.Chat)
	api.GET("/ai/sessions", s.AIService.ListSessions)
	api.GET("/ai/sessions/:id", s.AIService.GetSession)
	api.GET("/kids/:id/insight", s.KidService.GetInsight)
	api.GET("/kids/:id/summary", s.KidService.GetSummary)
}

// authMiddleware rejects requests without a valid bearer token and stores
// the user id in the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Method == http.MethodOptions {
			return next(c)
		}
		userID, err := s.authenticator.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			slog.Debug("request rejected", "path", c.Path(), "error", err)
			return errorJSON(c, http.StatusUnauthorized, "인증이 필요합니다")
		}
		req := c.Request()
		c.SetRequest(req.WithContext(auth.WithUserID(req.Context(), userID)))
		return next(c)
	}
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Detail    string `json:"detail"`
	Retryable bool   `json:"retryable,omitempty"`
}

func errorJSON(c echo.Context, status int, detail string) error {
	return c.JSON(status, errorResponse{Detail: detail})
}

func pathID(c echo.Context) (int32, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}
