package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/journeyos/backend/api/middleware"
	"github.com/journeyos/backend/internal/preferences"
)

type testPreferencesService struct {
	getFn    func(ctx context.Context, userID uuid.UUID) (preferences.Matrix, error)
	updateFn func(ctx context.Context, userID uuid.UUID, patch map[preferences.PreferenceType]preferences.ChannelPatch) (preferences.Matrix, error)
	resetFn  func(ctx context.Context, userID uuid.UUID) (preferences.Matrix, error)
}

func (s *testPreferencesService) GetForUser(ctx context.Context, userID uuid.UUID) (preferences.Matrix, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return preferences.DefaultMatrix(), nil
}

func (s *testPreferencesService) UpdateForUser(ctx context.Context, userID uuid.UUID, patch map[preferences.PreferenceType]preferences.ChannelPatch) (preferences.Matrix, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, userID, patch)
	}
	return preferences.DefaultMatrix(), nil
}

func (s *testPreferencesService) ResetForUser(ctx context.Context, userID uuid.UUID) (preferences.Matrix, error) {
	if s.resetFn != nil {
		return s.resetFn(ctx, userID)
	}
	return preferences.DefaultMatrix(), nil
}

func TestGetNotificationPreferences(t *testing.T) {
	userID := uuid.New()
	svc := &testPreferencesService{
		getFn: func(ctx context.Context, uid uuid.UUID) (preferences.Matrix, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return preferences.DefaultMatrix(), nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me/notification-preferences", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	GetNotificationPreferences(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data preferences.Matrix `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	pref, ok := envelope.Data[preferences.PrefReviewRequest]
	if !ok {
		t.Fatal("expected review_request entry in defaults")
	}
	if !pref.InApp || pref.Email {
		t.Fatalf("unexpected default channels %+v", pref)
	}
}

func TestGetNotificationPreferencesMissingUser(t *testing.T) {
	resp := httptest.NewRecorder()
	GetNotificationPreferences(&testPreferencesService{}, controllerTestLogger())(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestUpdateNotificationPreferences(t *testing.T) {
	userID := uuid.New()
	var seen map[preferences.PreferenceType]preferences.ChannelPatch
	svc := &testPreferencesService{
		updateFn: func(ctx context.Context, uid uuid.UUID, patch map[preferences.PreferenceType]preferences.ChannelPatch) (preferences.Matrix, error) {
			seen = patch
			return preferences.DefaultMatrix(), nil
		},
	}

	body := bytes.NewBufferString(`{"preferences":{"lint_alert":{"email":true}}}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/me/notification-preferences", body)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	UpdateNotificationPreferences(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	patch, ok := seen[preferences.PrefLintAlert]
	if !ok {
		t.Fatal("expected lint_alert patch to be forwarded")
	}
	if patch.Email == nil || !*patch.Email {
		t.Fatalf("unexpected patch %+v", patch)
	}
	if patch.InApp != nil {
		t.Fatal("in_app must stay nil when not sent")
	}
}

func TestUpdateNotificationPreferencesRejectsEmptyBody(t *testing.T) {
	svc := &testPreferencesService{
		updateFn: func(ctx context.Context, uid uuid.UUID, patch map[preferences.PreferenceType]preferences.ChannelPatch) (preferences.Matrix, error) {
			t.Fatal("service must not be called on invalid input")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/me/notification-preferences", bytes.NewBufferString(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.New()))
	resp := httptest.NewRecorder()
	UpdateNotificationPreferences(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestResetNotificationPreferences(t *testing.T) {
	userID := uuid.New()
	called := false
	svc := &testPreferencesService{
		resetFn: func(ctx context.Context, uid uuid.UUID) (preferences.Matrix, error) {
			called = true
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			return preferences.DefaultMatrix(), nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/me/notification-preferences", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	resp := httptest.NewRecorder()
	ResetNotificationPreferences(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected reset to be called")
	}
}
