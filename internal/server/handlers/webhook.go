package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/invalidate"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
	"git.home.luguber.info/inful/docmirror/internal/server/responses"
)

// maxWebhookBody bounds the push payload read from the request.
const maxWebhookBody = 5 << 20

// PushHandler processes a verified or unverified push payload.
type PushHandler interface {
	Handle(ctx context.Context, payload []byte, signature string) (invalidate.Result, error)
}

// WebhookHandlers contains the push webhook handler.
type WebhookHandlers struct {
	trigger      PushHandler
	errorAdapter *errors.HTTPErrorAdapter
}

// NewWebhookHandlers constructs a new WebhookHandlers.
func NewWebhookHandlers(trigger PushHandler) *WebhookHandlers {
	return &WebhookHandlers{
		trigger:      trigger,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandlePush acknowledges every delivery with 200 {"status":"ok"} unless the
// signature check fails.
func (h *WebhookHandlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.errorAdapter.WriteErrorResponse(w, r, methodNotAllowed(r, http.MethodPost))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		slog.Warn("Failed to read webhook body", logfields.Error(err))
		payload = nil
	}

	event := r.Header.Get("X-GitHub-Event")
	res, err := h.trigger.Handle(r.Context(), payload, r.Header.Get(forge.SignatureHeader))
	if err != nil {
		if stderrors.Is(err, invalidate.ErrInvalidSignature) {
			slog.Warn("Rejected webhook with invalid signature",
				logfields.Event(event),
				logfields.RemoteAddr(r.RemoteAddr))
			h.errorAdapter.WriteErrorResponse(w, r, err)
			return
		}
		slog.Error("Webhook processing failed", logfields.Event(event), logfields.Error(err))
	} else {
		slog.Debug("Webhook processed",
			logfields.Event(event),
			logfields.Ref(res.Ref),
			slog.Bool("invalidated", res.Invalidated))
	}

	if err := writeJSON(w, http.StatusOK, responses.AckResponse{Status: "ok"}); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			errors.WrapError(err, errors.CategoryInternal, "failed to write webhook response").Build())
	}
}
