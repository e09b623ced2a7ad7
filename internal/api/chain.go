package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/pkg/ledger"
	"github.com/tcfw/votechain/pkg/query"
)

func init() {
	reg = append(reg, &chainApi{})
}

type chainApi struct {
	BaseHandler
}

type ValidateResponse struct {
	Success bool `json:"success"`
	query.ValidityReport
}

type BlocksResponse struct {
	Blocks []query.BlockSummary `json:"blocks"`
	Report query.ValidityReport `json:"report"`
}

func (c *chainApi) Setup(a *Api, r *mux.Router) error {
	c.a = a

	r.HandleFunc("/blockchain/validate", c.validate).Methods(http.MethodGet)
	r.HandleFunc("/blockchain/is_valid", c.validate).Methods(http.MethodGet)
	r.HandleFunc("/blockchain/info", c.info).Methods(http.MethodGet)
	r.HandleFunc("/blockchain/blocks", c.blocks).Methods(http.MethodGet)
	r.HandleFunc("/blockchain/blocks/{index:[0-9]+}", c.block).Methods(http.MethodGet)

	return nil
}

func (c *chainApi) validate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ValidateResponse{
		Success:        true,
		ValidityReport: c.a.n.View().Report(),
	})
}

func (c *chainApi) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.a.n.View().Info())
}

func (c *chainApi) blocks(w http.ResponseWriter, _ *http.Request) {
	blocks, report := c.a.n.View().Blocks()
	writeJSON(w, http.StatusOK, BlocksResponse{Blocks: blocks, Report: report})
}

func (c *chainApi) block(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block index")
		return
	}

	b, err := c.a.n.View().Block(idx)
	if err != nil {
		if errors.Is(err, ledger.ErrIndexOutOfRange) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, b)
}
