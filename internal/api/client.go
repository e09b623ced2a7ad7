package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/pkg/query"
)

// Client talks to a running daemon's HTTP API.
type Client struct {
	rc *resty.Client
}

func NewClient(addr string) (*Client, error) {
	if addr == "" {
		return nil, errors.New("no daemon address")
	}

	return &Client{rc: resty.New().SetBaseURL(addr)}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	e := &errorResponse{}

	req := c.rc.R().
		SetContext(ctx).
		SetResult(out).
		SetError(e)

	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrap(err, "calling daemon")
	}

	if resp.IsError() {
		if e.Message != "" {
			return fmt.Errorf("daemon: %s (%d)", e.Message, resp.StatusCode())
		}
		return fmt.Errorf("daemon: unexpected status %d", resp.StatusCode())
	}

	return nil
}

func (c *Client) Validate(ctx context.Context) (*ValidateResponse, error) {
	out := &ValidateResponse{}
	return out, c.do(ctx, resty.MethodGet, "/api/blockchain/validate", nil, out)
}

func (c *Client) Info(ctx context.Context) (*query.ChainInfo, error) {
	out := &query.ChainInfo{}
	return out, c.do(ctx, resty.MethodGet, "/api/blockchain/info", nil, out)
}

func (c *Client) Blocks(ctx context.Context) (*BlocksResponse, error) {
	out := &BlocksResponse{}
	return out, c.do(ctx, resty.MethodGet, "/api/blockchain/blocks", nil, out)
}

func (c *Client) Block(ctx context.Context, index int) (*query.BlockSummary, error) {
	out := &query.BlockSummary{}
	return out, c.do(ctx, resty.MethodGet, "/api/blockchain/blocks/"+strconv.Itoa(index), nil, out)
}

func (c *Client) Tamper(ctx context.Context, index int, req *TamperRequest) (*TamperResponse, error) {
	var body interface{}
	if req != nil {
		body = req
	}

	out := &TamperResponse{}
	return out, c.do(ctx, resty.MethodPost, "/api/blockchain/tamper/"+strconv.Itoa(index), body, out)
}

func (c *Client) Cast(ctx context.Context, req *CastRequest) (*CastResponse, error) {
	out := &CastResponse{}
	return out, c.do(ctx, resty.MethodPost, "/api/votes", req, out)
}

func (c *Client) Results(ctx context.Context, poll string) (*query.PollResult, error) {
	out := &query.PollResult{}
	return out, c.do(ctx, resty.MethodGet, "/api/polls/"+url.PathEscape(poll)+"/results", nil, out)
}
