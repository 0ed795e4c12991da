// internal/httpserver/routes_round.go
//
// HTTP routes for playing a round.
//   - POST /round/new  → sample a round, start a session, present its items
//   - POST /round/drop → report one drop outcome, get back the events it caused
//   - GET  /round/{id} → current state
//
// Modes: "random" (default) draws a fresh round; "daily" draws the same
// round for everyone on the current UTC date.
// Drops and reads need the round token issued by /round/new, either as a
// Bearer header or the round cookie.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/recycle-sort/internal/catalog"
	"github.com/robalobadob/recycle-sort/internal/game"
	"github.com/robalobadob/recycle-sort/internal/round"
	"github.com/robalobadob/recycle-sort/internal/store"
)

const (
	modeRandom = "random"
	modeDaily  = "daily"
)

// mountRounds registers all /round routes.
func (s *Server) mountRounds(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Post("/new", s.handleNewRound)
		r.Post("/drop", s.handleDrop)
		r.Get("/{id}", s.handleGetRound)
	})
}

// collector is the per-request renderer and subscriber for a session.
type collector struct {
	presented []itemRes
	hidden    []string
	events    []eventRes
}

func (c *collector) PresentItems(items []catalog.Item) {
	for _, it := range items {
		c.presented = append(c.presented, itemRes{Name: it.Name, Path: it.AssetPath})
	}
}

func (c *collector) HideItem(name string) { c.hidden = append(c.hidden, name) }

func (c *collector) handle(e game.Event) {
	c.events = append(c.events, eventRes{Type: e.Kind(), Data: e})
}

// eventRes is a session event tagged with its kind.
type eventRes struct {
	Type string     `json:"type"`
	Data game.Event `json:"data"`
}

// -----------------------------------------------------------------------------
// /round/new

type newRoundReq struct {
	Mode string `json:"mode"` // "random" | "daily"
	Size int    `json:"size"` // optional; defaults to the configured round size
}

type newRoundRes struct {
	RoundID     string    `json:"roundId"`
	Token       string    `json:"token"`
	Mode        string    `json:"mode"`
	Date        string    `json:"date,omitempty"`
	MaxAttempts int       `json:"maxAttempts"`
	Items       []itemRes `json:"items"`
}

// handleNewRound samples a round, creates its session and returns the items
// the browser should present as drag sources.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = modeRandom
	}
	if req.Size == 0 {
		req.Size = s.opts.RoundSize
	}

	sampler, date := s.sampler, ""
	switch req.Mode {
	case modeRandom:
	case modeDaily:
		now := s.opts.Now()
		sampler, date = round.NewDailySampler(now, s.opts.DailySalt), round.DateKey(now)
	default:
		writeError(w, http.StatusBadRequest, "bad_mode", req.Mode)
		return
	}

	set, err := sampler.Sample(s.cat.Bins(), req.Size)
	if err != nil {
		var ie *round.InsufficientItemsError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusUnprocessableEntity, "insufficient_items", err.Error())
		case errors.Is(err, round.ErrInvalidCount):
			writeError(w, http.StatusBadRequest, "bad_size", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "sample_failed", err.Error())
		}
		return
	}

	id := store.NewID()
	sess := game.New(s.cat, game.Config{ID: id, MaxAttempts: s.opts.MaxAttempts, Round: set})
	col := &collector{}
	if err := sess.Start(col); err != nil {
		log.Error().Err(err).Str("round", id).Msg("start round")
		writeError(w, http.StatusInternalServerError, "start_failed", "")
		return
	}
	sess.SetRenderer(nil)

	rd := store.NewRound(id, req.Mode, sess)
	if err := s.store.Save(r.Context(), rd); err != nil {
		log.Error().Err(err).Str("round", id).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}
	tok, exp, err := s.signRoundToken(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	s.setRoundCookie(w, tok, exp)

	log.Info().Str("round", id).Str("mode", req.Mode).Int("size", len(set)).Msg("round started")
	writeJSON(w, http.StatusOK, newRoundRes{
		RoundID:     id,
		Token:       tok,
		Mode:        req.Mode,
		Date:        date,
		MaxAttempts: sess.Snapshot().MaxAttempts,
		Items:       col.presented,
	})
}

// -----------------------------------------------------------------------------
// /round/drop

type dropReq struct {
	RoundID string `json:"roundId"`
	Item    string `json:"item"`
	Bin     string `json:"bin"`
}

type dropRes struct {
	Events []eventRes `json:"events"`
	Hide   []string   `json:"hide"`
	State  game.State `json:"state"`
}

// handleDrop applies one drop outcome to the round's session.
// Events emitted by the session during the call are returned in order.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	req.Item = strings.TrimSpace(req.Item)
	if req.RoundID == "" || req.Item == "" || req.Bin == "" {
		writeError(w, http.StatusBadRequest, "invalid", "roundId, item and bin are required")
		return
	}

	rd, ok := s.authorizedRound(w, r, req.RoundID)
	if !ok {
		return
	}

	rd.Lock()
	defer rd.Unlock()

	col := &collector{}
	sess := rd.Session
	sess.SetRenderer(col)
	unsubscribe := sess.Subscribe(col.handle)
	err := sess.ComputeResult(game.DropOutcome{ItemName: req.Item, Bin: catalog.CategoryID(strings.TrimSpace(req.Bin))})
	unsubscribe()
	sess.SetRenderer(nil)

	if err != nil && !errors.Is(err, game.ErrSessionEnded) {
		writeDropError(w, err)
		return
	}
	res := dropRes{Events: col.events, Hide: col.hidden, State: sess.Snapshot()}
	if res.Events == nil {
		res.Events = []eventRes{}
	}
	if res.Hide == nil {
		res.Hide = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

// writeDropError maps a rejected drop to a status code.
func writeDropError(w http.ResponseWriter, err error) {
	var (
		unknownItem *catalog.UnknownItemError
		unknownBin  *catalog.UnknownCategoryError
		notInRound  *game.NotInRoundError
	)
	switch {
	case errors.As(err, &unknownItem):
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown_item", Message: err.Error(), Suggestion: unknownItem.Suggestion})
	case errors.As(err, &unknownBin):
		writeError(w, http.StatusBadRequest, "unknown_bin", err.Error())
	case errors.As(err, &notInRound):
		writeError(w, http.StatusConflict, "not_in_round", err.Error())
	case errors.Is(err, game.ErrAlreadySorted):
		writeError(w, http.StatusConflict, "already_sorted", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "drop_failed", err.Error())
	}
}

// -----------------------------------------------------------------------------
// /round/{id}

type roundRes struct {
	RoundID string     `json:"roundId"`
	Mode    string     `json:"mode"`
	Items   []string   `json:"items"`
	State   game.State `json:"state"`
}

// handleGetRound returns the current state of a round.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rd, ok := s.authorizedRound(w, r, id)
	if !ok {
		return
	}
	rd.Lock()
	res := roundRes{RoundID: rd.ID, Mode: rd.Mode, Items: rd.Session.Round(), State: rd.Session.Snapshot()}
	rd.Unlock()
	writeJSON(w, http.StatusOK, res)
}

// authorizedRound loads a round and checks the caller's token for it.
// On failure it writes the response and returns false.
func (s *Server) authorizedRound(w http.ResponseWriter, r *http.Request, id string) (*store.Round, bool) {
	if err := s.checkRoundToken(r, id); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token", "")
		return nil, false
	}
	rd, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", id)
		} else {
			writeError(w, http.StatusInternalServerError, "store_failed", "")
		}
		return nil, false
	}
	return rd, true
}
