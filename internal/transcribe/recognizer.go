package transcribe

import "context"

// Encoding names the audio encoding sent to the speech service.
type Encoding string

const EncodingLinear16 Encoding = "LINEAR16"

// RecognitionConfig describes the audio produced by the extractor.
// It is the same for every job.
type RecognitionConfig struct {
	Encoding        Encoding
	SampleRateHertz int32
	LanguageCode    string
}

// DefaultRecognitionConfig returns 16-bit PCM at 16kHz for languageCode
// (en-US when empty).
func DefaultRecognitionConfig(languageCode string) RecognitionConfig {
	if languageCode == "" {
		languageCode = "en-US"
	}
	return RecognitionConfig{
		Encoding:        EncodingLinear16,
		SampleRateHertz: 16000,
		LanguageCode:    languageCode,
	}
}

// Alternative is one hypothesis for a recognized segment.
type Alternative struct {
	Transcript string
	Confidence float32
}

// Result is one recognized segment; Alternatives are ordered best first.
type Result struct {
	Alternatives []Alternative
}

// Recognizer is the interface for speech-to-text backends.
type Recognizer interface {
	// Recognize transcribes inline audio in one blocking call.
	Recognize(ctx context.Context, audio []byte, cfg RecognitionConfig) ([]Result, error)

	// LongRunningRecognize starts recognition of audio at uri and returns
	// a handle to poll.
	LongRunningRecognize(ctx context.Context, uri string, cfg RecognitionConfig) (Operation, error)

	Name() string // "google-speech"
}

// Operation is a started long-running recognition.
type Operation interface {
	Name() string

	// Poll fetches the latest state. Results are only set once done is true.
	Poll(ctx context.Context) (done bool, results []Result, err error)
}
