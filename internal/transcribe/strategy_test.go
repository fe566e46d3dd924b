package transcribe

import "testing"

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want Strategy
	}{
		{"empty", 0, Sync},
		{"small", 320 * 1024, Sync},
		{"one_below_limit", SyncPayloadLimit - 1, Sync},
		{"exactly_limit", 10 * 1024 * 1024, Sync},
		{"one_above_limit", 10*1024*1024 + 1, Async},
		{"large", 200 * 1024 * 1024, Async},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectStrategy(tt.size); got != tt.want {
				t.Errorf("SelectStrategy(%d) = %v, want %v", tt.size, got, tt.want)
			}
			if again := SelectStrategy(tt.size); again != tt.want {
				t.Errorf("second SelectStrategy(%d) = %v, want %v", tt.size, again, tt.want)
			}
		})
	}
}

func TestStrategyString(t *testing.T) {
	if Sync.String() != "sync" || Async.String() != "async" {
		t.Errorf("String() = %q/%q", Sync, Async)
	}
	if Strategy(7).String() != "unknown" {
		t.Errorf("Strategy(7).String() = %q", Strategy(7))
	}
}

func results(texts ...string) []Result {
	out := make([]Result, len(texts))
	for i, s := range texts {
		out[i] = Result{Alternatives: []Alternative{{Transcript: s, Confidence: 0.9}, {Transcript: "ignored"}}}
	}
	return out
}

func TestJoinTranscript(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    string
	}{
		{"trailing_space_kept", results("hello ", "world"), "hello world"},
		{"no_separator_added", results("foo", "bar"), "foobar"},
		{"single", results("only one"), "only one"},
		{"none", nil, ""},
		{"empty_alternatives_skipped", append(results("a"), Result{}, results("b")[0]), "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinTranscript(tt.results); got != tt.want {
				t.Errorf("JoinTranscript = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultRecognitionConfig(t *testing.T) {
	cfg := DefaultRecognitionConfig("")
	if cfg.Encoding != EncodingLinear16 || cfg.SampleRateHertz != 16000 || cfg.LanguageCode != "en-US" {
		t.Errorf("DefaultRecognitionConfig(\"\") = %+v", cfg)
	}
	if got := DefaultRecognitionConfig("de-DE").LanguageCode; got != "de-DE" {
		t.Errorf("LanguageCode = %q, want de-DE", got)
	}
}
