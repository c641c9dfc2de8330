package api

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/betting/gateway"
	"github.com/phenomenon0/betpool/pkg/betting/pager"
)

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	info, err := s.board.Account(r.Context())
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// ==================== Lists ====================

// listResponse renders a cursor view. On error the previous items are still
// returned with the error attached; filter names the list they belong to.
func listResponse[F comparable, T any](s *Server, w http.ResponseWriter, v pager.View[F, T], err error) {
	body := jsonResponse{
		"filter":  v.Filter,
		"items":   v.Items,
		"page":    v.Page,
		"hasMore": v.HasMore,
		"state":   v.State,
		"loading": v.Loading(),
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		body["error"] = err.Error()
	}
	s.writeJSON(w, status, body)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	team := r.URL.Query().Get("team")
	if wantsMore(r) {
		v, err := s.board.MoreMatches(r.Context(), team)
		listResponse(s, w, v, err)
		return
	}
	v, err := s.board.Matches(r.Context(), team)
	listResponse(s, w, v, err)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		s.badRequest(w, err)
		return
	}

	if wantsMore(r) {
		v, err := s.board.MorePosts(r.Context(), matchID)
		listResponse(s, w, v, err)
		return
	}
	v, err := s.board.PostsForMatch(r.Context(), matchID)
	listResponse(s, w, v, err)
}

func (s *Server) handleMyBets(w http.ResponseWriter, r *http.Request) {
	v, err := s.board.MyBets(r.Context(), wantsMore(r))
	listResponse(s, w, v, err)
}

func (s *Server) handleHosted(w http.ResponseWriter, r *http.Request) {
	v, err := s.board.Hosted(r.Context(), wantsMore(r))
	listResponse(s, w, v, err)
}

func (s *Server) handleUserStake(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	addr := chi.URLParam(r, "address")
	if !common.IsHexAddress(addr) {
		s.badRequest(w, fmt.Errorf("invalid address %q", addr))
		return
	}

	stake, err := s.board.UserStake(r.Context(), postID, common.HexToAddress(addr))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jsonResponse{"postId": postID, "address": common.HexToAddress(addr), "stake": stake})
}

// ==================== Writes ====================

// txResponse renders a write. A submitted transaction that reverted or was
// never confirmed still carries what is known of it.
func (s *Server) txResponse(w http.ResponseWriter, res *gateway.TxResult, err error) {
	if err == nil {
		s.writeJSON(w, http.StatusOK, jsonResponse{"tx": res})
		return
	}
	if res == nil {
		s.mapError(w, err)
		return
	}

	status := statusFor(err)
	body := jsonResponse{"error": err.Error(), "tx": res}
	if status == http.StatusInternalServerError {
		s.logger.Error("transaction not confirmed", zap.String("tx", res.Hash.Hex()), zap.Error(err))
		body["error"] = "transaction submitted but not confirmed"
	}
	s.writeJSON(w, status, body)
}

type createMatchRequest struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.CreateMatch(r.Context(), req.Home, req.Away)
	s.txResponse(w, res, err)
}

type finishMatchRequest struct {
	HomeScore uint64 `json:"homeScore"`
	AwayScore uint64 `json:"awayScore"`
}

func (s *Server) handleFinishMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := idParam(r, "matchID")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req finishMatchRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.FinishMatch(r.Context(), matchID, req.HomeScore, req.AwayScore)
	s.txResponse(w, res, err)
}

type createPostRequest struct {
	MatchID      uint64 `json:"matchId"`
	HomeHandicap int64  `json:"homeHandicapScore"`
	AwayHandicap int64  `json:"awayHandicapScore"`
	Stake        string `json:"stake"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.CreateBettingPost(r.Context(), req.MatchID, req.HomeHandicap, req.AwayHandicap, req.Stake)
	s.txResponse(w, res, err)
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req amountRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.ContributeStake(r.Context(), postID, req.Amount)
	s.txResponse(w, res, err)
}

type betRequest struct {
	Side   string `json:"side"`
	Amount string `json:"amount"`
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	var req betRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, err)
		return
	}
	side, err := betting.ParseSide(req.Side)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.PlaceBet(r.Context(), postID, side, req.Amount)
	s.txResponse(w, res, err)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		s.badRequest(w, err)
		return
	}
	role, err := betting.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		s.badRequest(w, err)
		return
	}

	res, err := s.board.ClaimReward(r.Context(), postID, role)
	s.txResponse(w, res, err)
}
