package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mgpai22/subsync/internal/logging"
	"github.com/mgpai22/subsync/internal/resync"
	"github.com/mgpai22/subsync/internal/subtitle"
)

const (
	ratioHeader   = "X-Subsync-Ratio"
	entriesHeader = "X-Subsync-Entries"
)

type handler struct {
	maxBodyBytes int64
	logger       *logging.Logger
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// resync rewrites the SRT request body. The response keeps the body's
// encoding and byte order mark.
func (h *handler) resync(w http.ResponseWriter, r *http.Request) {
	t, err := transformFromQuery(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text, enc, err := subtitle.Decode(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	rendered, entries, err := t.ApplyText(text)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	out, err := subtitle.Encode(rendered, enc)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logger.Debugw("Resynced upload",
		"ratio", t.Ratio(),
		"entries", entries,
		"encoding", enc.Name,
	)

	w.Header().Set("Content-Type", "application/x-subrip")
	w.Header().Set(ratioHeader, strconv.FormatFloat(t.Ratio(), 'f', -1, 64))
	w.Header().Set(entriesHeader, strconv.Itoa(entries))
	w.Write(out)
}

func transformFromQuery(r *http.Request) (resync.Transform, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		return resync.Transform{}, errors.New("from and to query parameters are required")
	}

	from2, to2 := q.Get("from2"), q.Get("to2")
	if from2 == "" && to2 == "" {
		return resync.ParseReference(from, to)
	}
	if from2 == "" || to2 == "" {
		return resync.Transform{}, errors.New("from2 and to2 must be given together")
	}

	names := []string{"from", "to", "from2", "to2"}
	var times [4]time.Duration
	for i, s := range []string{from, to, from2, to2} {
		d, err := subtitle.ParseTimecode(s)
		if err != nil {
			return resync.Transform{}, fmt.Errorf("invalid %s reference: %w", names[i], err)
		}
		times[i] = d
	}
	return resync.DeriveTwoPoint(times[0], times[1], times[2], times[3])
}

// statusFor maps domain errors to client errors; anything else is ours.
func statusFor(err error) int {
	var (
		formatErr     *subtitle.FormatError
		rangeErr      *subtitle.RangeError
		degenerateErr *resync.DegenerateReferenceError
	)
	switch {
	case errors.Is(err, resync.ErrNoEntries),
		errors.As(err, &formatErr),
		errors.As(err, &rangeErr),
		errors.As(err, &degenerateErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
