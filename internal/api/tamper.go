package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/pkg/ledger"
)

func init() {
	reg = append(reg, &tamperApi{})
}

// tamperApi exposes the demonstration tamper path. Its route only exists
// when the node was configured with ledger.demo.allowTamper.
type tamperApi struct {
	BaseHandler
}

type TamperRequest struct {
	Records []ledger.Record `json:"records"`
	Text    string          `json:"text"`
}

type TamperDetails struct {
	BeforeTampering bool `json:"before_tampering"`
	AfterTampering  bool `json:"after_tampering"`
	TamperedBlock   int  `json:"tampered_block"`
	IntegrityBroken bool `json:"integrity_broken"`
}

type TamperResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Index   int           `json:"index"`
	Details TamperDetails `json:"details"`
}

func (t *tamperApi) Setup(a *Api, r *mux.Router) error {
	t.a = a

	if !a.n.Config().Ledger().AllowTamper {
		return nil
	}

	r.HandleFunc("/blockchain/tamper/{index:[0-9]+}", t.tamper).Methods(http.MethodPost)

	return nil
}

func forgedPayload() ledger.Payload {
	return ledger.NewPayload(ledger.Record{
		PollID:    "MODIFIED_POLL",
		VoterHash: strings.Repeat("HACKED_HASH_", 4),
		Choice:    "DUMMY_CHOICE",
		CastAt:    time.Now().UnixNano(),
	})
}

func readTamperPayload(r *http.Request) (ledger.Payload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ledger.Payload{}, err
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return forgedPayload(), nil
	}

	req := &TamperRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		return ledger.Payload{}, errors.Wrap(err, "decoding tamper request")
	}

	switch {
	case len(req.Records) > 0:
		return ledger.NewPayload(req.Records...), nil
	case req.Text != "":
		return ledger.TextPayload(req.Text), nil
	default:
		return forgedPayload(), nil
	}
}

func (t *tamperApi) tamper(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block index")
		return
	}

	if idx == 0 {
		writeError(w, http.StatusBadRequest, "the genesis block cannot be tampered with")
		return
	}

	payload, err := readTamperPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tm, err := t.a.n.Tamperer()
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	before := t.a.n.View().Report().IsValid

	if _, err := tm.Corrupt(r.Context(), idx, payload); err != nil {
		if errors.Is(err, ledger.ErrIndexOutOfRange) {
			writeError(w, http.StatusBadRequest, "invalid block index")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	after := t.a.n.View().Report().IsValid

	resp := TamperResponse{
		Success: true,
		Message: "block tampered",
		Index:   idx,
		Details: TamperDetails{
			BeforeTampering: before,
			AfterTampering:  after,
			TamperedBlock:   idx,
			IntegrityBroken: before && !after,
		},
	}

	if resp.Details.IntegrityBroken {
		resp.Message = "block tampered; chain integrity is now broken"
	}

	writeJSON(w, http.StatusOK, resp)
}
