package transcribe

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/status"
)

// GoogleRecognizer calls Google Cloud Speech-to-Text v1.
// Implements the Recognizer interface.
type GoogleRecognizer struct {
	client *speech.Client
}

// NewGoogleRecognizer wraps a shared speech client.
func NewGoogleRecognizer(client *speech.Client) *GoogleRecognizer {
	return &GoogleRecognizer{client: client}
}

// Name returns the provider name.
func (g *GoogleRecognizer) Name() string { return "google-speech" }

func (g *GoogleRecognizer) Recognize(ctx context.Context, audio []byte, cfg RecognitionConfig) ([]Result, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: toProtoConfig(cfg),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recognize (%s): %w", status.Code(err), err)
	}
	return fromProtoResults(resp.GetResults()), nil
}

func (g *GoogleRecognizer) LongRunningRecognize(ctx context.Context, uri string, cfg RecognitionConfig) (Operation, error) {
	op, err := g.client.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: toProtoConfig(cfg),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("long-running recognize (%s): %w", status.Code(err), err)
	}
	return &googleOperation{op: op}, nil
}

type googleOperation struct {
	op *speech.LongRunningRecognizeOperation
}

func (o *googleOperation) Name() string { return o.op.Name() }

// Poll maps the client's contract: a nil response with a nil error means
// still running; an error after Done means the operation itself failed.
func (o *googleOperation) Poll(ctx context.Context) (bool, []Result, error) {
	resp, err := o.op.Poll(ctx)
	if err != nil {
		if o.op.Done() {
			return true, nil, fmt.Errorf("operation failed (%s): %w", status.Code(err), err)
		}
		return false, nil, fmt.Errorf("poll (%s): %w", status.Code(err), err)
	}
	if !o.op.Done() {
		return false, nil, nil
	}
	return true, fromProtoResults(resp.GetResults()), nil
}

func toProtoConfig(cfg RecognitionConfig) *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:        toProtoEncoding(cfg.Encoding),
		SampleRateHertz: cfg.SampleRateHertz,
		LanguageCode:    cfg.LanguageCode,
	}
}

func toProtoEncoding(e Encoding) speechpb.RecognitionConfig_AudioEncoding {
	switch e {
	case EncodingLinear16:
		return speechpb.RecognitionConfig_LINEAR16
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func fromProtoResults(in []*speechpb.SpeechRecognitionResult) []Result {
	out := make([]Result, 0, len(in))
	for _, r := range in {
		alts := make([]Alternative, 0, len(r.GetAlternatives()))
		for _, a := range r.GetAlternatives() {
			alts = append(alts, Alternative{Transcript: a.GetTranscript(), Confidence: a.GetConfidence()})
		}
		out = append(out, Result{Alternatives: alts})
	}
	return out
}
