package notify

import "encoding/json"

// Outcome is the terminal result of one job. Exactly one of the two
// payload shapes is produced.
type Outcome struct {
	Transcript string
	Error      string
}

// Success builds a transcript outcome. An empty transcript is valid.
func Success(transcript string) Outcome {
	return Outcome{Transcript: transcript}
}

// Failure builds an error outcome from err.
func Failure(err error) Outcome {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Outcome{Error: msg}
}

func (o Outcome) Failed() bool { return o.Error != "" }

// MarshalJSON renders {"transcript": ...} or {"error": ...}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{o.Error})
	}
	return json.Marshal(struct {
		Transcript string `json:"transcript"`
	}{o.Transcript})
}
