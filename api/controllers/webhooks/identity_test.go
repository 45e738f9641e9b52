package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	identitywebhook "github.com/usxc/classroom-library-backend/internal/webhooks/identity"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type testIdentityService struct {
	events []identitywebhook.Event
	err    error
}

func (s *testIdentityService) HandleEvent(_ context.Context, event *identitywebhook.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, *event)
	return nil
}

type testGuard struct {
	seen      map[string]bool
	forgotten []string
}

func newTestGuard() *testGuard {
	return &testGuard{seen: map[string]bool{}}
}

func (g *testGuard) CheckAndMark(_ context.Context, messageID string) (bool, error) {
	if g.seen[messageID] {
		return true, nil
	}
	g.seen[messageID] = true
	return false, nil
}

func (g *testGuard) Forget(_ context.Context, messageID string) error {
	g.forgotten = append(g.forgotten, messageID)
	delete(g.seen, messageID)
	return nil
}

func signedRequest(t *testing.T, verifier *svix.Webhook, messageID, payload string) *http.Request {
	t.Helper()
	now := time.Now()
	signature, err := verifier.Sign(messageID, now, []byte(payload))
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", strings.NewReader(payload))
	req.Header.Set("svix-id", messageID)
	req.Header.Set("svix-timestamp", fmt.Sprintf("%d", now.Unix()))
	req.Header.Set("svix-signature", signature)
	return req
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestIdentityWebhookProcessesSignedEvent(t *testing.T) {
	verifier, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	svc := &testIdentityService{}
	guard := newTestGuard()

	payload := `{"type":"user.created","data":{"id":"user_wh"}}`
	req := signedRequest(t, verifier, "msg_1", payload)
	resp := httptest.NewRecorder()
	IdentityWebhook(svc, verifier, guard, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].Data.ID != "user_wh" {
		t.Fatalf("unexpected events %+v", svc.events)
	}
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	verifier, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	svc := &testIdentityService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/identity", strings.NewReader(`{}`))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("svix-signature", "v1,forged")
	resp := httptest.NewRecorder()
	IdentityWebhook(svc, verifier, newTestGuard(), testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if len(svc.events) != 0 {
		t.Fatal("unsigned payload must not reach the service")
	}
}

func TestIdentityWebhookDeduplicatesDeliveries(t *testing.T) {
	verifier, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	svc := &testIdentityService{}
	guard := newTestGuard()
	payload := `{"type":"user.created","data":{"id":"user_wh"}}`

	for i := 0; i < 2; i++ {
		req := signedRequest(t, verifier, "msg_dup", payload)
		resp := httptest.NewRecorder()
		IdentityWebhook(svc, verifier, guard, testLogger())(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("delivery %d: unexpected status %d", i, resp.Code)
		}
	}

	if len(svc.events) != 1 {
		t.Fatalf("replay must be dropped, processed %d events", len(svc.events))
	}
}

func TestIdentityWebhookReleasesGuardOnFailure(t *testing.T) {
	verifier, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("new webhook: %v", err)
	}
	svc := &testIdentityService{err: context.DeadlineExceeded}
	guard := newTestGuard()

	payload := `{"type":"user.created","data":{"id":"user_wh"}}`
	req := signedRequest(t, verifier, "msg_fail", payload)
	resp := httptest.NewRecorder()
	IdentityWebhook(svc, verifier, guard, testLogger())(resp, req)

	if resp.Code == http.StatusOK {
		t.Fatal("handler failure must not be acknowledged")
	}
	if len(guard.forgotten) != 1 || guard.forgotten[0] != "msg_fail" {
		t.Fatalf("expected guard release, got %v", guard.forgotten)
	}
}
