package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func classroomProbe(t *testing.T, allowed []string, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	t.Helper()
	var reached bool
	handler := Classroom(allowed, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/loans/checkout", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusNoContent && !reached {
		t.Fatal("handler not reached despite pass-through status")
	}
	return rec
}

func TestClassroomEmptyListAllowsEveryone(t *testing.T) {
	rec := classroomProbe(t, nil, "203.0.113.9:51234", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
	rec = classroomProbe(t, []string{"  ", ""}, "203.0.113.9:51234", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("blank entries must not enable the guard, got %d", rec.Code)
	}
}

func TestClassroomExactMatch(t *testing.T) {
	allowed := []string{"10.0.1.15"}

	rec := classroomProbe(t, allowed, "10.0.1.15:40000", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected allow, got %d", rec.Code)
	}

	rec = classroomProbe(t, allowed, "10.0.1.16:40000", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestClassroomPrefixMatch(t *testing.T) {
	allowed := []string{"10.0.1."}

	rec := classroomProbe(t, allowed, "10.0.1.200:40000", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected allow in subnet, got %d", rec.Code)
	}

	// "10.0.1." must not admit 10.0.10.x addresses.
	rec = classroomProbe(t, allowed, "10.0.10.5:40000", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 outside subnet, got %d", rec.Code)
	}
}

func TestClassroomUsesFirstForwardedFor(t *testing.T) {
	allowed := []string{"10.0.1."}

	rec := classroomProbe(t, allowed, "192.0.2.1:443", "10.0.1.33, 198.51.100.7")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected allow via forwarded header, got %d", rec.Code)
	}

	rec = classroomProbe(t, allowed, "10.0.1.33:443", "198.51.100.7")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("forwarded header must win over remote addr, got %d", rec.Code)
	}
}
