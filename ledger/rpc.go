/*
rpc.go - JSON-RPC transport to the ledger endpoint

PURPOSE:
  Implements Client over the ledger's JSON-RPC 2.0 HTTP endpoint. Account
  payloads travel base64-encoded; addresses and scan filters travel base58.

RETRY POLICY:
  Read-only calls retry transport failures with exponential backoff; an
  error the endpoint itself returned is final. SendTransaction is NEVER
  retried here - only the submit state machine may re-send, and only the
  identical signed payload.

ERROR MAPPING:
  endpoint unreachable            -> TransportError
  endpoint error on a read        -> surfaced as-is
  endpoint error on sendTransaction -> RejectionError (the endpoint saw the
                                       payload and refused it)
*/
package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"github.com/cenkalti/backoff/v4"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// RPCClient talks JSON-RPC 2.0 to a ledger endpoint.
type RPCClient struct {
	Endpoint   string
	Commitment Commitment
	Log        *zap.Logger
	jsonrpc2.Client
}

// NewRPCClient creates a client for the given endpoint. Reads default to
// the "confirmed" durability level.
func NewRPCClient(endpoint string, log *zap.Logger) *RPCClient {
	c := &RPCClient{Endpoint: endpoint, Commitment: CommitmentConfirmed, Log: log}
	c.Timeout = 30 * time.Second
	return c
}

// call issues one request, wrapping connectivity failures as TransportError.
func (c *RPCClient) call(ctx context.Context, method string, params, result interface{}) error {
	err := c.Client.Request(ctx, c.Endpoint, method, params, result)
	if err == nil {
		return nil
	}
	var rpcErr jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		// The endpoint answered; this is not a connectivity problem.
		return err
	}
	return &TransportError{Method: method, Err: err}
}

// callRead wraps call with the read retry policy.
func (c *RPCClient) callRead(ctx context.Context, method string, params, result interface{}) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	return backoff.Retry(func() error {
		err := c.call(ctx, method, params, result)
		if err == nil {
			return nil
		}
		if IsRetryableRead(err) {
			c.Log.Debug("read retry", zap.String("method", method), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, policy)
}

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type rpcAccount struct {
	Data     []string `json:"data"`
	Owner    string   `json:"owner"`
	Lamports uint64   `json:"lamports"`
}

func (a *rpcAccount) decode(addr PublicKey) (*Account, error) {
	owner, err := ParsePublicKey(a.Owner)
	if err != nil {
		return nil, fmt.Errorf("account owner: %w", err)
	}
	var data []byte
	if len(a.Data) > 0 && a.Data[0] != "" {
		data, err = base64.StdEncoding.DecodeString(a.Data[0])
		if err != nil {
			return nil, fmt.Errorf("account data: %w", err)
		}
	}
	return &Account{Address: addr, Owner: owner, Lamports: a.Lamports, Data: data}, nil
}

// GetAccountInfo implements Client. Absent accounts return (nil, nil).
func (c *RPCClient) GetAccountInfo(ctx context.Context, addr PublicKey) (*Account, error) {
	var resp struct {
		Context rpcContext  `json:"context"`
		Value   *rpcAccount `json:"value"`
	}
	params := []interface{}{addr.String(), map[string]interface{}{
		"encoding":   "base64",
		"commitment": string(c.Commitment),
	}}
	if err := c.callRead(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, nil
	}
	return resp.Value.decode(addr)
}

// ScanAccounts implements Client. The discriminator filter is pushed to the
// endpoint so one scan returns exactly one entity kind.
func (c *RPCClient) ScanAccounts(ctx context.Context, programID PublicKey, discriminator [8]byte) (*AccountSeq, error) {
	var resp []struct {
		Pubkey  string     `json:"pubkey"`
		Account rpcAccount `json:"account"`
	}
	params := []interface{}{programID.String(), map[string]interface{}{
		"encoding":   "base64",
		"commitment": string(c.Commitment),
		"filters": []interface{}{
			map[string]interface{}{"memcmp": map[string]interface{}{
				"offset": 0,
				"bytes":  base58.Encode(discriminator[:]),
			}},
		},
	}}
	if err := c.callRead(ctx, "getProgramAccounts", params, &resp); err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(resp))
	for _, entry := range resp {
		addr, err := ParsePublicKey(entry.Pubkey)
		if err != nil {
			return nil, err
		}
		acct, err := entry.Account.decode(addr)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	c.Log.Debug("bulk scan", zap.String("program", programID.String()), zap.Int("accounts", len(accounts)))
	return NewAccountSeq(accounts), nil
}

// GetTokenAccountBalance implements Client.
func (c *RPCClient) GetTokenAccountBalance(ctx context.Context, addr PublicKey) (uint64, uint8, error) {
	var resp struct {
		Value struct {
			Amount   string `json:"amount"`
			Decimals uint8  `json:"decimals"`
		} `json:"value"`
	}
	params := []interface{}{addr.String(), map[string]interface{}{"commitment": string(c.Commitment)}}
	if err := c.callRead(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return 0, 0, err
	}
	amount, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("token balance %q: %w", resp.Value.Amount, err)
	}
	return amount, resp.Value.Decimals, nil
}

// GetLatestBlockhash implements Client.
func (c *RPCClient) GetLatestBlockhash(ctx context.Context) ([32]byte, error) {
	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []interface{}{map[string]interface{}{"commitment": string(c.Commitment)}}
	if err := c.callRead(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return [32]byte{}, err
	}
	raw, err := base58.Decode(resp.Value.Blockhash)
	if err != nil || len(raw) != 32 {
		return [32]byte{}, fmt.Errorf("malformed blockhash %q", resp.Value.Blockhash)
	}
	var bh [32]byte
	copy(bh[:], raw)
	return bh, nil
}

// SendTransaction implements Client. An error the endpoint returns here
// means it saw and refused the payload, which is a rejection, not a
// transport failure.
func (c *RPCClient) SendTransaction(ctx context.Context, wire []byte) (Signature, error) {
	var sig string
	params := []interface{}{base64.StdEncoding.EncodeToString(wire), map[string]interface{}{
		"encoding":            "base64",
		"preflightCommitment": string(c.Commitment),
	}}
	err := c.call(ctx, "sendTransaction", params, &sig)
	if err != nil {
		var rpcErr jsonrpc2.Error
		if errors.As(err, &rpcErr) {
			return "", &RejectionError{Reason: rpcErr.Message}
		}
		return "", err
	}
	return Signature(sig), nil
}

// GetSignatureStatus implements Client. Unknown handles return (nil, nil).
func (c *RPCClient) GetSignatureStatus(ctx context.Context, sig Signature) (*SignatureStatus, error) {
	var resp struct {
		Value []*struct {
			Slot               uint64      `json:"slot"`
			ConfirmationStatus string      `json:"confirmationStatus"`
			Err                interface{} `json:"err"`
		} `json:"value"`
	}
	params := []interface{}{[]string{string(sig)}, map[string]interface{}{"searchTransactionHistory": true}}
	if err := c.callRead(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Value) == 0 || resp.Value[0] == nil {
		return nil, nil
	}
	v := resp.Value[0]
	status := &SignatureStatus{Slot: v.Slot, Confirmation: Commitment(v.ConfirmationStatus)}
	if v.Err != nil {
		text := fmt.Sprintf("%v", v.Err)
		status.Err = &text
	}
	return status, nil
}

var _ Client = (*RPCClient)(nil)
