package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/scentlane/storefront-backend/api/responses"
	"github.com/scentlane/storefront-backend/internal/catalog"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
	"github.com/scentlane/storefront-backend/pkg/logger"
)

const webhookSignatureHeader = "X-Webhook-Signature"

type revalidatePayload struct {
	Type string `json:"_type"`
	ID   string `json:"_id"`
}

type cacheBuster interface {
	Bust(tags ...string)
}

// RevalidateWebhook busts catalog cache tags when the CMS publishes a
// document. The signature covers the raw body with the shared secret.
func RevalidateWebhook(gw cacheBuster, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if gw == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog gateway unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := strings.TrimSpace(r.Header.Get(webhookSignatureHeader))
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
			return
		}
		if !validateWebhookSignature(payload, secret, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event revalidatePayload
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		docType := strings.TrimSpace(event.Type)
		if docType == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "_type is required"))
			return
		}

		tags := catalog.TagsForDocumentType(docType)
		gw.Bust(tags...)

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"document_type": docType,
				"document_id":   event.ID,
				"tags":          tags,
			})
			logg.Info(ctx, "catalog cache revalidated")
		}

		responses.WriteSuccess(w, map[string]any{"revalidated": tags})
	}
}

// validateWebhookSignature expects "sha256=<hex>" over the raw body.
func validateWebhookSignature(payload []byte, secret, header string) bool {
	if secret == "" {
		return false
	}
	hexSig := strings.TrimPrefix(header, "sha256=")
	if hexSig == header {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(hexSig))
}
