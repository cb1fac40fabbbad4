package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"snipbin/cfg"
	"snipbin/pkg/domain"
	"snipbin/svc/session"
	"snipbin/svc/svc"
	"snipbin/svc/util"
)

type Hdl struct {
	paste    *svc.Paste
	sessions *session.Manager
	cfg      *cfg.Cfg
}

// errBody is the uniform error responder's shape. stack carries the
// wrapped error chain outside production and the literal "err" inside it.
type errBody struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Stack   string `json:"stack"`
}

type pasteResp struct {
	Status string `json:"status"`
	domain.Paste
}

type listResp struct {
	Status string         `json:"status"`
	Pastes []domain.Paste `json:"pastes"`
}

// CreatePaste resolves (or lazily establishes) the creator identity,
// validates the body and persists a new paste, answering with the full
// created record.
func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())

	var in domain.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn().Err(err).Msg("malformed create body")
		h.writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}

	creatorID, ok := h.sessions.Resolve(r.Context(), r)
	if !ok {
		var err error
		creatorID, err = h.sessions.Establish(r.Context(), w)
		if err != nil {
			log.Error().Err(err).Msg("failed to establish session")
			h.writeErr(w, err, requestID)
			return
		}
	}

	paste, err := h.paste.Create(r.Context(), creatorID, in)
	if err != nil {
		log.Warn().Err(err).Msg("create paste failed")
		if errors.Is(err, domain.ErrPasteRequired) || errors.Is(err, domain.ErrInvalidSlug) ||
			errors.Is(err, domain.ErrSlugTaken) {
			h.writeErr(w, err, requestID)
			return
		}
		h.writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	log.Info().
		Str("slug", paste.Slug).
		Str("creator_id", creatorID).
		Msg("paste created")
	json.NewEncoder(w).Encode(paste)
}

// GetPaste answers with the paste for the slug, or with the expired
// message. "Never existed", "swept" and "store failure" deliberately read
// the same from outside.
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	slug := chi.URLParam(r, "id")

	paste, err := h.paste.Get(r.Context(), slug)
	if err != nil {
		if !errors.Is(err, domain.ErrPasteNotFound) {
			log.Error().Err(err).Str("slug", slug).Msg("paste lookup failed")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"message": fmt.Sprintf("Link with id %s expired", slug),
		})
		return
	}
	log.Info().Str("slug", slug).Msg("paste retrieved")
	json.NewEncoder(w).Encode(pasteResp{Status: "success", Paste: *paste})
}

// ListPastes returns every paste of the requesting session's creator.
// Without a resolvable session there is nothing to list, only an
// invitation to create.
func (h *Hdl) ListPastes(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	creatorID, ok := h.sessions.Resolve(r.Context(), r)
	if !ok {
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "Create new",
		})
		return
	}

	pastes, err := h.paste.ListByCreator(r.Context(), creatorID)
	if err != nil {
		log.Error().Err(err).Str("creator_id", creatorID).Msg("list pastes failed")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "Create new",
		})
		return
	}
	if pastes == nil {
		pastes = []domain.Paste{}
	}
	json.NewEncoder(w).Encode(listResp{Status: "success", Pastes: pastes})
}

func (h *Hdl) writeErr(w http.ResponseWriter, err error, requestID string) {
	status := domain.Status(err)
	if status >= 500 {
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error")
	}
	stack := "err"
	if h.cfg.Environment != "production" {
		stack = fmt.Sprintf("%+v", err)
	}
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errBody{
		Message: domain.Message(err),
		Status:  "error",
		Stack:   stack,
	})
}
