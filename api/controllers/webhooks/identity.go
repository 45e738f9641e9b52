package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/usxc/classroom-library-backend/api/responses"
	identitywebhook "github.com/usxc/classroom-library-backend/internal/webhooks/identity"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

const svixIDHeader = "svix-id"

type IdentityWebhookService interface {
	HandleEvent(ctx context.Context, event *identitywebhook.Event) error
}

type identityReplayGuard interface {
	CheckAndMark(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

// IdentityWebhook ingests identity-provider user events. Deliveries are
// svix-signed; a failed signature is rejected before the body is parsed.
func IdentityWebhook(svc IdentityWebhookService, verifier *svix.Webhook, guard identityReplayGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook verifier unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "replay guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := verifier.Verify(payload, r.Header); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature"))
			return
		}

		messageID := strings.TrimSpace(r.Header.Get(svixIDHeader))
		if messageID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook message id missing"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, messageID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check replay guard"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		var event identitywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			_ = guard.Forget(ctx, messageID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("identity event %s processed", messageID))
		}
		responses.WriteSuccess(w, nil)
	}
}
