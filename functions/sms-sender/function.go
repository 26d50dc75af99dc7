package smssender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/integrations/twilio"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("SMSSender", SMSSender)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

// SMSSender is the entry point
func SMSSender(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("sms-sender", svc, sendHandler(nil))(w, r)
}

type sendRequest struct {
	AgencyID string `json:"agency_id"`
	To       string `json:"to"`
	Body     string `json:"body"`
}

// smsSender is the slice of the Twilio client the handler uses.
type smsSender interface {
	SendSMS(ctx context.Context, to, body string) (*twilio.Message, error)
}

// sendHandler sends one caregiver SMS through Twilio, ledgering the round
// trip. sender can be injected for testing; if nil, a Twilio client is
// built from the stored credentials.
func sendHandler(sender smsSender) framework.HandlerFunc {
	return func(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if req.AgencyID == "" || req.To == "" || req.Body == "" {
			return nil, fmt.Errorf("agency_id, to and body are required")
		}

		if sender == nil {
			accountSID, err := fwCtx.Service.Secrets.GetSecret(ctx, "TWILIO_ACCOUNT_SID")
			if err != nil {
				return nil, fmt.Errorf("twilio account sid: %w", err)
			}
			authToken, err := fwCtx.Service.Secrets.GetSecret(ctx, "TWILIO_AUTH_TOKEN")
			if err != nil {
				return nil, fmt.Errorf("twilio auth token: %w", err)
			}
			fromNumber, err := fwCtx.Service.Secrets.GetSecret(ctx, "TWILIO_FROM_NUMBER")
			if err != nil {
				return nil, fmt.Errorf("twilio from number: %w", err)
			}
			sender = twilio.NewClient(accountSID, authToken, fromNumber)
		}

		outbound := &ingest.Outbound{
			DB:          fwCtx.Service.DB,
			ServiceName: "sms-sender",
			Logger:      fwCtx.Logger,
		}

		var sent *twilio.Message
		ledgerID, err := outbound.Run(ctx, ingest.OutboundCall{
			Provider:    shared.ProviderTwilio,
			AgencyID:    req.AgencyID,
			RequestType: shared.RequestTypeOutboundSMS,
			ExternalID:  req.To,
			// The message text stays out of the ledger; only routing
			// fields are recorded.
			Payload: map[string]string{"to": req.To},
		}, func(ctx context.Context) (interface{}, error) {
			msg, err := sender.SendSMS(ctx, req.To, req.Body)
			if err != nil {
				return nil, err
			}
			sent = msg
			return map[string]string{"sid": msg.SID, "status": msg.Status}, nil
		})
		if err != nil {
			return nil, err
		}

		fwCtx.Logger.Info("SMS sent", "sid", sent.SID, "ledger_id", ledgerID)

		return map[string]interface{}{
			"success":     true,
			"provider":    shared.ProviderTwilio,
			"message_sid": sent.SID,
			"status":      sent.Status,
			"ledger_id":   ledgerID,
		}, nil
	}
}
