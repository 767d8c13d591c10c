package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/journeyos/backend/api/middleware"
	"github.com/journeyos/backend/internal/notifications"
	"github.com/journeyos/backend/pkg/db/models"
	"github.com/journeyos/backend/pkg/enums"
	pkgerrors "github.com/journeyos/backend/pkg/errors"
	"github.com/journeyos/backend/pkg/logger"
	"github.com/journeyos/backend/pkg/pagination"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	unreadCountFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	markReadFn    func(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error)
	markAllReadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error) {
	return nil, nil
}

func (s *testNotificationsService) CreateBatch(ctx context.Context, userIDs []uuid.UUID, shared notifications.SharedFields) ([]models.Notification, error) {
	return nil, nil
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.unreadCountFn != nil {
		return s.unreadCountFn(ctx, userID)
	}
	return 0, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, notificationID, requestingUserID uuid.UUID) (*models.Notification, error) {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID, requestingUserID)
	}
	return &models.Notification{}, nil
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.markAllReadFn != nil {
		return s.markAllReadFn(ctx, userID)
	}
	return 0, nil
}

func (s *testNotificationsService) ExistsByEventID(ctx context.Context, eventID, triggerType string) (bool, error) {
	return false, nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
}

func TestListNotificationsForwardsFilters(t *testing.T) {
	userID := uuid.New()
	var seen notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			seen = params
			return &notifications.ListResult{
				Items: []models.Notification{},
				Meta:  pagination.NewMeta(params.Page, params.Limit, 0),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?page=2&limit=10&unread_only=true&type=alert", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	ListNotifications(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if seen.UserID != userID {
		t.Fatalf("unexpected user %s", seen.UserID)
	}
	if seen.Page != 2 || seen.Limit != 10 {
		t.Fatalf("unexpected pagination %+v", seen)
	}
	if !seen.UnreadOnly {
		t.Fatal("expected unread_only to be set")
	}
	if seen.Type == nil || *seen.Type != enums.NotificationTypeAlert {
		t.Fatalf("unexpected type filter %v", seen.Type)
	}
}

func TestListNotificationsRejectsBadQuery(t *testing.T) {
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}

	cases := []string{
		"/api/v1/notifications?limit=abc",
		"/api/v1/notifications?limit=0",
		"/api/v1/notifications?limit=101",
		"/api/v1/notifications?page=0",
		"/api/v1/notifications?unread_only=banana",
		"/api/v1/notifications?type=unknown_type",
	}
	for _, target := range cases {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
		resp := httptest.NewRecorder()
		ListNotifications(svc, controllerTestLogger())(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestListNotificationsMissingUser(t *testing.T) {
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, controllerTestLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestUnreadNotificationCount(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		unreadCountFn: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return 7, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	UnreadNotificationCount(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["unread_count"] != 7 {
		t.Fatalf("unexpected count %v", envelope.Data)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	now := time.Now().UTC()
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid, uid uuid.UUID) (*models.Notification, error) {
			if nid != notificationID {
				t.Fatalf("unexpected notification %s", nid)
			}
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return &models.Notification{ID: notificationID, UserID: userID, IsRead: true, ReadAt: &now}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", notificationID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMarkNotificationReadForeignNotification(t *testing.T) {
	notificationID := uuid.New()
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid, uid uuid.UUID) (*models.Notification, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "notification belongs to another user")
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/"+notificationID.String()+"/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", notificationID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestMarkNotificationReadBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/not-a-uuid/read", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("notificationId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, uid uuid.UUID) (int64, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return 3, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/read-all", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] != 3 {
		t.Fatalf("unexpected updated count %v", envelope.Data)
	}
}
