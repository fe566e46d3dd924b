package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"
	"github.com/snarg/drive-transcriber/internal/jobs"
	"github.com/snarg/drive-transcriber/internal/notify"
)

const errNoJSON = "No JSON data found"

// JobService accepts transcription jobs.
type JobService interface {
	Submit(req jobs.Request) (jobs.JobAccepted, error)
	Stats() jobs.Stats
}

type TranscribeHandler struct {
	jobs JobService
}

func NewTranscribeHandler(js JobService) *TranscribeHandler {
	return &TranscribeHandler{jobs: js}
}

// Submit handles POST /transcribe. The job runs in the background; the
// result is delivered to the request's callback destination.
func (h *TranscribeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJobRequest(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, errNoJSON)
		return
	}
	if err := notify.CheckRemote(req.CallbackURL); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("callback_url", req.CallbackURL).Msg("callback rejected")
		WriteError(w, http.StatusBadRequest, "callback_url not allowed")
		return
	}

	ack, err := h.jobs.Submit(req)
	if errors.Is(err, jobs.ErrStopped) {
		WriteError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("submit job failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	hlog.FromRequest(r).Info().Str("job_id", ack.JobID).Msg("job accepted")
	WriteJSON(w, http.StatusAccepted, ack)
}

// decodeJobRequest accepts only a non-empty JSON object.
func decodeJobRequest(r *http.Request) (jobs.Request, bool) {
	var req jobs.Request
	var fields map[string]json.RawMessage
	if err := DecodeJSON(r, &fields); err != nil || len(fields) == 0 {
		return req, false
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return req, false
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, false
	}
	return req, true
}
