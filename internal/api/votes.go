package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/internal/utils/logging"
	"github.com/tcfw/votechain/pkg/ledger"
	"github.com/tcfw/votechain/pkg/query"
	"github.com/tcfw/votechain/pkg/vote"
)

func init() {
	reg = append(reg, &votesApi{})
}

type votesApi struct {
	BaseHandler
}

type CastRequest struct {
	PollID    string `json:"poll_id"`
	VoterHash string `json:"voter_hash"`
	Choice    string `json:"choice"`
}

type CastResponse struct {
	Success bool               `json:"success"`
	Block   query.BlockSummary `json:"block"`
}

func (v *votesApi) Setup(a *Api, r *mux.Router) error {
	v.a = a

	r.HandleFunc("/votes", v.cast).Methods(http.MethodPost)
	r.HandleFunc("/polls/{poll}/results", v.results).Methods(http.MethodGet)
	r.HandleFunc("/polls/{poll}/blocks", v.pollBlocks).Methods(http.MethodGet)

	return nil
}

func (v *votesApi) cast(w http.ResponseWriter, r *http.Request) {
	req := &CastRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed ballot")
		return
	}

	b, err := v.a.n.Votes().Cast(r.Context(), vote.Ballot{
		PollID:    req.PollID,
		VoterHash: req.VoterHash,
		Choice:    req.Choice,
	})
	if err != nil {
		switch {
		case errors.Is(err, vote.ErrInvalidBallot):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, vote.ErrAlreadyVoted):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ledger.ErrConcurrentAppendConflict):
			writeError(w, http.StatusServiceUnavailable, "ballot could not be recorded, try again")
		default:
			logging.WithError(err).Error("casting ballot")
			writeError(w, http.StatusInternalServerError, "ballot could not be recorded")
		}
		return
	}

	writeJSON(w, http.StatusCreated, CastResponse{Success: true, Block: query.Summarize(b, true)})
}

func pollID(r *http.Request) (string, error) {
	return url.PathUnescape(mux.Vars(r)["poll"])
}

func (v *votesApi) results(w http.ResponseWriter, r *http.Request) {
	poll, err := pollID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poll id")
		return
	}

	writeJSON(w, http.StatusOK, v.a.n.View().Tally(poll))
}

func (v *votesApi) pollBlocks(w http.ResponseWriter, r *http.Request) {
	poll, err := pollID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid poll id")
		return
	}

	writeJSON(w, http.StatusOK, v.a.n.View().PollBlocks(poll))
}
