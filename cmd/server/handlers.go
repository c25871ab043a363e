package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/youtube-transcript-mcp/internal/acquisition"
	"github.com/youtube-transcript-mcp/internal/comment"
	"github.com/youtube-transcript-mcp/internal/transcript"
)

// transcriptHandler serves GET /transcript per CORE SPEC §6.
type transcriptHandler struct {
	engine *transcript.Engine
	logger *slog.Logger
}

func (h *transcriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing videoId")
		return
	}

	var languages []string
	if csv := r.URL.Query().Get("languages"); csv != "" {
		languages = strings.Split(csv, ",")
	}

	opts := acquisition.Options{
		PreferOriginal:  queryBool(r, "preferOriginal", true),
		StrictLanguages: queryBool(r, "strictLanguages", false),
		AllowTranslate:  queryBool(r, "allowTranslate", false),
	}

	payload, err := h.engine.FetchTranscript(r.Context(), videoID, languages, r.Header.Get("Accept-Language"), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	json.NewEncoder(w).Encode(payload)
}

func (h *transcriptHandler) writeError(w http.ResponseWriter, err error) {
	if _, ok := err.(*acquisition.ErrInvalidID); ok {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if adapterErr, ok := err.(*acquisition.AdapterError); ok {
		switch adapterErr.Kind {
		case acquisition.KindNoContent, acquisition.KindUpstreamBlocked:
			w.Header().Set("Cache-Control", "public, max-age=60")
			writeJSONError(w, http.StatusNotFound, "Transcript not available")
			return
		case acquisition.KindOrchestratorTimeout:
			writeJSONError(w, http.StatusGatewayTimeout, "Acquisition timed out")
			return
		}
	}
	h.logger.Error("transcript acquisition failed", slog.Any("error", err))
	writeJSONError(w, http.StatusInternalServerError, "Internal error")
}

// commentsHandler serves GET /comments per CORE SPEC §6.
type commentsHandler struct {
	engine *comment.Engine
	logger *slog.Logger
}

func (h *commentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing videoId")
		return
	}

	list, err := h.engine.FetchComments(r.Context(), videoID)
	if err != nil {
		if _, ok := err.(*acquisition.ErrInvalidID); ok {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("comment acquisition failed", slog.Any("error", err))
		writeJSONError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func queryBool(r *http.Request, key string, def bool) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
