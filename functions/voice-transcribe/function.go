package voicetranscribe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/integrations/whisper"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("VoiceTranscribe", VoiceTranscribe)
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

// VoiceTranscribe is the entry point
func VoiceTranscribe(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("voice-transcribe", svc, transcribeHandler(nil))(w, r)
}

type transcribeRequest struct {
	AgencyID   string `json:"agency_id"`
	ResidentID string `json:"resident_id"`
	AudioURI   string `json:"audio_uri"`
}

// transcriber is the slice of the Whisper client the handler uses.
type transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (*whisper.Transcription, error)
}

// transcribeHandler downloads a recorded voice note, transcribes it
// through Whisper inside a ledger window, and stores the transcript as a
// device data event. t can be injected for testing; if nil, a Whisper
// client is built from the stored API key.
func transcribeHandler(t transcriber) framework.HandlerFunc {
	return func(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
		var req transcribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if req.AgencyID == "" || req.ResidentID == "" || req.AudioURI == "" {
			return nil, fmt.Errorf("agency_id, resident_id and audio_uri are required")
		}

		bucket, object, err := parseAudioURI(req.AudioURI, fwCtx.Service.Config.AudioBucket)
		if err != nil {
			return nil, err
		}

		audio, err := fwCtx.Service.Store.Read(ctx, bucket, object)
		if err != nil {
			return nil, fmt.Errorf("download audio: %w", err)
		}

		if t == nil {
			apiKey, err := fwCtx.Service.Secrets.GetSecret(ctx, "OPENAI_API_KEY")
			if err != nil {
				return nil, fmt.Errorf("openai api key: %w", err)
			}
			t = whisper.NewClient(apiKey)
		}

		outbound := &ingest.Outbound{
			DB:          fwCtx.Service.DB,
			ServiceName: "voice-transcribe",
			Logger:      fwCtx.Logger,
		}

		var transcript string
		ledgerID, err := outbound.Run(ctx, ingest.OutboundCall{
			Provider:    shared.ProviderOpenAI,
			AgencyID:    req.AgencyID,
			RequestType: shared.RequestTypeTranscription,
			ExternalID:  object,
			Payload:     map[string]string{"audio_uri": req.AudioURI},
		}, func(ctx context.Context) (interface{}, error) {
			result, err := t.Transcribe(ctx, path.Base(object), audio)
			if err != nil {
				return nil, err
			}
			transcript = result.Text
			return map[string]int{"transcript_length": len(result.Text)}, nil
		})
		if err != nil {
			return nil, err
		}

		// Keep a durable copy of the transcript beside the audio object.
		// Best effort: the event below is the system of record.
		transcriptObject := object + ".txt"
		if err := fwCtx.Service.Store.Write(ctx, bucket, transcriptObject, []byte(transcript)); err != nil {
			fwCtx.Logger.Warn("Failed to store transcript artifact", "object", transcriptObject, "error", err)
			transcriptObject = ""
		}

		occurredAt := time.Now()
		event := &types.DeviceDataEvent{
			EventID:    ingest.EventDocID(shared.ProviderOpenAI, object, "voice_note_transcribed", occurredAt),
			AgencyID:   req.AgencyID,
			ResidentID: req.ResidentID,
			EventType:  "voice_note_transcribed",
			Detail: map[string]string{
				"audio_uri":  req.AudioURI,
				"transcript": transcript,
			},
			OccurredAt: occurredAt,
		}
		if transcriptObject != "" {
			event.Detail["transcript_uri"] = fmt.Sprintf("gs://%s/%s", bucket, transcriptObject)
		}
		if err := fwCtx.Service.DB.WriteTelemetryBatch(ctx, req.AgencyID, nil, []*types.DeviceDataEvent{event}); err != nil {
			return nil, fmt.Errorf("store transcript event: %w", err)
		}

		fwCtx.Logger.Info("Voice note transcribed",
			"resident_id", req.ResidentID,
			"transcript_length", len(transcript),
			"ledger_id", ledgerID)

		return map[string]interface{}{
			"success":    true,
			"provider":   shared.ProviderOpenAI,
			"transcript": transcript,
			"ledger_id":  ledgerID,
		}, nil
	}
}

// parseAudioURI splits a gs://bucket/object URI. A bare object path is
// resolved against the configured audio bucket.
func parseAudioURI(uri, defaultBucket string) (string, string, error) {
	if rest, ok := strings.CutPrefix(uri, "gs://"); ok {
		bucket, object, found := strings.Cut(rest, "/")
		if !found || object == "" {
			return "", "", fmt.Errorf("invalid audio_uri %q", uri)
		}
		return bucket, object, nil
	}
	if defaultBucket == "" {
		return "", "", fmt.Errorf("audio_uri must be a gs:// URI when no audio bucket is configured")
	}
	return defaultBucket, uri, nil
}
