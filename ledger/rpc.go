package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RPC error codes that no amount of retrying will fix.
const (
	rpcCodeUnauthorized  = -32001
	rpcCodeRevert        = -32015
	rpcCodeInvalidParams = -32602
)

// RPCClient talks JSON-RPC to the ledger node that fronts the contract.
// Each call is a single request with a per-attempt timeout; retry policy
// lives in the mirror, not here.
type RPCClient struct {
	endpoint string
	contract string
	wallet   string
	http     *http.Client
}

// NewRPCClient builds a client for the given node endpoint and contract
// address. attemptTimeout bounds every individual call.
func NewRPCClient(endpoint, contract, wallet string, attemptTimeout time.Duration) *RPCClient {
	if attemptTimeout <= 0 {
		attemptTimeout = 10 * time.Second
	}
	return &RPCClient{
		endpoint: endpoint,
		contract: contract,
		wallet:   wallet,
		http:     &http.Client{Timeout: attemptTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Error *rpcError `json:"error"`
}

func (c *RPCClient) call(ctx context.Context, method string, params ...interface{}) error {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params: append([]interface{}{map[string]string{
			"from": c.wallet,
			"to":   c.contract,
		}}, params...),
		ID: 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Fatal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Fatal(fmt.Errorf("ledger node rejected credentials: %s", resp.Status))
	case resp.StatusCode >= 500:
		return Transient(fmt.Errorf("ledger node unavailable: %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return Fatal(fmt.Errorf("unexpected ledger response: %s", resp.Status))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Transient(err)
	}
	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Transient(fmt.Errorf("malformed ledger response: %w", err))
	}
	if parsed.Error != nil {
		rpcErr := fmt.Errorf("rpc %d: %s", parsed.Error.Code, parsed.Error.Message)
		switch parsed.Error.Code {
		case rpcCodeUnauthorized, rpcCodeRevert, rpcCodeInvalidParams:
			return Fatal(rpcErr)
		}
		return Transient(rpcErr)
	}
	return nil
}

func (c *RPCClient) WriteBasic(ctx context.Context, identity string, fields BasicFields) error {
	return c.call(ctx, "ledger_storeUserBasic", identity, fields)
}

func (c *RPCClient) WriteAdditional(ctx context.Context, identity string, fields AdditionalFields) error {
	return c.call(ctx, "ledger_storeUserAdditional", identity, fields)
}

func (c *RPCClient) AppendRewardEntry(ctx context.Context, identity string, entry RewardEntry) error {
	return c.call(ctx, "ledger_addRewardHistory", identity, entry)
}

func (c *RPCClient) UpdateOtp(ctx context.Context, identity string, code string, expiry int64) error {
	return c.call(ctx, "ledger_updateOtp", identity, code, expiry)
}
