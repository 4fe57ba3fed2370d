package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resqnowserver/internal/auth"
	"resqnowserver/internal/domain"
	"resqnowserver/internal/service"
)

type stubUsersStore struct {
	t *testing.T

	getFunc           func(context.Context, string) (domain.UserAccount, error)
	markSuspendedFunc func(context.Context, string, string, string) error
}

func (s *stubUsersStore) GetUser(ctx context.Context, uid string) (domain.UserAccount, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, uid)
	}
	s.t.Fatalf("GetUser called unexpectedly")
	return domain.UserAccount{}, context.Canceled
}

func (s *stubUsersStore) MarkSuspended(ctx context.Context, uid, reason, denied string) error {
	if s.markSuspendedFunc != nil {
		return s.markSuspendedFunc(ctx, uid, reason, denied)
	}
	s.t.Fatalf("MarkSuspended called unexpectedly")
	return context.Canceled
}

func (s *stubUsersStore) MarkActive(context.Context, string) error {
	s.t.Fatalf("MarkActive called unexpectedly")
	return context.Canceled
}

func (s *stubUsersStore) DeleteUser(context.Context, string) error {
	s.t.Fatalf("DeleteUser called unexpectedly")
	return context.Canceled
}

func (s *stubUsersStore) ListSuspended(context.Context) ([]domain.UserAccount, error) {
	s.t.Fatalf("ListSuspended called unexpectedly")
	return nil, context.Canceled
}

type stubBlockedStore struct{}

func (stubBlockedStore) Get(context.Context, string) (domain.BlockedEmail, error) {
	return domain.BlockedEmail{}, domain.ErrNotFound
}
func (stubBlockedStore) Upsert(context.Context, domain.BlockedEmail) error { return nil }

func (stubBlockedStore) UpsertBatch(context.Context, []domain.BlockedEmail) error { return nil }

func (stubBlockedStore) Delete(context.Context, string) error { return nil }

type stubIdentityService struct{}

func (stubIdentityService) DeleteAccount(context.Context, string) error { return nil }

func (stubIdentityService) RevokeSessions(context.Context, string) error { return nil }

func authedRequest(method, target, body, uid string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), authClaimsKey, &auth.IDTokenClaims{UID: uid})
	return req.WithContext(ctx)
}

func TestAdminSuspendRejectsBadJSON(t *testing.T) {
	api := &api{logger: discardLogger(), lifecycleSvc: &service.LifecycleService{}}

	req := authedRequest(http.MethodPost, "/v1/admin/users/suspend", `{"uid":`, "admin-1")
	rr := httptest.NewRecorder()

	api.handleAdminSuspend(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestAdminSuspendForbiddenForNonAdmin(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getFunc: func(ctx context.Context, uid string) (domain.UserAccount, error) {
			return domain.UserAccount{UID: uid, Role: "donor"}, nil
		},
	}
	api := &api{
		logger: discardLogger(),
		lifecycleSvc: &service.LifecycleService{
			Users:    users,
			Blocked:  stubBlockedStore{},
			Identity: stubIdentityService{},
			Logger:   discardLogger(),
		},
	}

	req := authedRequest(http.MethodPost, "/v1/admin/users/suspend", `{"uid":"target-1"}`, "user-1")
	rr := httptest.NewRecorder()

	api.handleAdminSuspend(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	var resp errorEnvelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "permission_denied" {
		t.Fatalf("error code = %s", resp.Error.Code)
	}
}

func TestAdminSuspendReturnsResult(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getFunc: func(ctx context.Context, uid string) (domain.UserAccount, error) {
			if uid == "admin-1" {
				return domain.UserAccount{UID: uid, Role: "admin"}, nil
			}
			return domain.UserAccount{UID: uid, Email: "t@example.com", Role: "donor"}, nil
		},
		markSuspendedFunc: func(ctx context.Context, uid, reason, denied string) error {
			if uid != "target-1" {
				t.Fatalf("suspended uid = %q", uid)
			}
			return nil
		},
	}
	api := &api{
		logger: discardLogger(),
		lifecycleSvc: &service.LifecycleService{
			Users:    users,
			Blocked:  stubBlockedStore{},
			Identity: stubIdentityService{},
			Logger:   discardLogger(),
		},
	}

	req := authedRequest(http.MethodPost, "/v1/admin/users/suspend", `{"uid":"target-1","reason":"fraud"}`, "admin-1")
	rr := httptest.NewRecorder()

	api.handleAdminSuspend(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var res service.SuspendResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || res.UID != "target-1" || res.Status != "suspended" {
		t.Fatalf("result = %+v", res)
	}
	if res.Email != "t@example.com" {
		t.Fatalf("email = %q", res.Email)
	}
}

func TestAdminDeleteMapsTargetNotFound(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getFunc: func(ctx context.Context, uid string) (domain.UserAccount, error) {
			if uid == "admin-1" {
				return domain.UserAccount{UID: uid, Role: "admin"}, nil
			}
			return domain.UserAccount{}, domain.ErrNotFound
		},
	}
	api := &api{
		logger: discardLogger(),
		lifecycleSvc: &service.LifecycleService{
			Users:    users,
			Blocked:  stubBlockedStore{},
			Identity: stubIdentityService{},
			Logger:   discardLogger(),
		},
	}

	req := authedRequest(http.MethodPost, "/v1/admin/users/delete", `{"uid":"ghost"}`, "admin-1")
	rr := httptest.NewRecorder()

	api.handleAdminDelete(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
