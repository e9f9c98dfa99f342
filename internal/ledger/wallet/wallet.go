// Package wallet is a Ledger backed by a wallet service's JSON API.
package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"certifier/internal/ledger"
	"certifier/internal/revocation/models"
	"certifier/pkg/platform/circuit"
)

const (
	createActionPath = "/createAction"
	maxResponseBytes = 4 << 20

	codeInsufficientFunds = "ERR_INSUFFICIENT_FUNDS"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// Client talks to the wallet's createAction endpoint for both output
// creation and spending.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("wallet base url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		logger := c.logger
		c.breaker = circuit.New("wallet",
			circuit.WithIsSuccessful(countsAsHealthy),
			circuit.WithOnStateChange(func(name string, from, to circuit.State) {
				logger.Warn("circuit state changed",
					"breaker", name,
					"from", from.String(),
					"to", to.String(),
				)
			}),
		)
	}
	return c, nil
}

var _ ledger.Ledger = (*Client)(nil)

// countsAsHealthy keeps business rejections from opening the circuit.
func countsAsHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, ledger.ErrInsufficientFunds) ||
		errors.Is(err, ledger.ErrRejected) ||
		errors.Is(err, context.Canceled)
}

type actionOutput struct {
	LockingScript     string   `json:"lockingScript"`
	Satoshis          uint64   `json:"satoshis"`
	OutputDescription string   `json:"outputDescription"`
	Basket            string   `json:"basket,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

type actionInput struct {
	Outpoint         string `json:"outpoint"`
	UnlockingScript  string `json:"unlockingScript"`
	InputDescription string `json:"inputDescription"`
}

type actionOptions struct {
	RandomizeOutputs bool `json:"randomizeOutputs"`
}

type createActionRequest struct {
	Description string           `json:"description"`
	InputBEEF   models.ByteArray `json:"inputBEEF,omitempty"`
	Inputs      []actionInput    `json:"inputs,omitempty"`
	Outputs     []actionOutput   `json:"outputs"`
	Options     actionOptions    `json:"options"`
}

type createActionResponse struct {
	TxID string           `json:"txid"`
	Tx   models.ByteArray `json:"tx"`
}

type walletError struct {
	Status      string `json:"status"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (c *Client) CreateOutputs(ctx context.Context, outputs []ledger.Output, opts ledger.CreateOptions) (*ledger.CreateResult, error) {
	req := createActionRequest{
		Description: opts.Description,
		Outputs:     toActionOutputs(outputs),
		Options:     actionOptions{RandomizeOutputs: !opts.StableOrdering},
	}
	if req.Description == "" && len(outputs) > 0 {
		req.Description = outputs[0].Description
	}

	resp, err := c.createAction(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ledger.CreateResult{TxID: resp.TxID, TransactionBytes: resp.Tx}, nil
}

func (c *Client) SpendInputs(ctx context.Context, inputs []ledger.Input, outputs []ledger.Output) (*ledger.SpendResult, error) {
	req := createActionRequest{
		Outputs: toActionOutputs(outputs),
	}
	for _, in := range inputs {
		req.Inputs = append(req.Inputs, actionInput{
			Outpoint:         in.Outpoint,
			UnlockingScript:  hex.EncodeToString(in.UnlockingScript),
			InputDescription: in.Description,
		})
		if len(in.SupportingTransaction) == 0 {
			continue
		}
		if len(req.InputBEEF) > 0 && !bytes.Equal(req.InputBEEF, in.SupportingTransaction) {
			return nil, fmt.Errorf("%w: inputs carry different supporting transactions", ledger.ErrRejected)
		}
		req.InputBEEF = in.SupportingTransaction
	}
	if len(inputs) > 0 {
		req.Description = inputs[0].Description
	}

	resp, err := c.createAction(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ledger.SpendResult{TxID: resp.TxID}, nil
}

func (c *Client) createAction(ctx context.Context, body createActionRequest) (*createActionResponse, error) {
	return circuit.Do(c.breaker, func() (*createActionResponse, error) {
		return c.post(ctx, body)
	})
}

func (c *Client) post(ctx context.Context, body createActionRequest) (*createActionResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode createAction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createActionPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build createAction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("call wallet: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read wallet response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.classify(ctx, resp.StatusCode, raw)
	}

	var out createActionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode wallet response: %w", err)
	}
	return &out, nil
}

func (c *Client) classify(ctx context.Context, status int, raw []byte) error {
	var werr walletError
	_ = json.Unmarshal(raw, &werr)

	c.logger.WarnContext(ctx, "wallet rejected action",
		"status", status,
		"wallet_code", werr.Code,
		"description", werr.Description,
	)

	switch {
	case werr.Code == codeInsufficientFunds:
		return ledger.ErrInsufficientFunds
	case status < http.StatusInternalServerError:
		return fmt.Errorf("%w: %s %s", ledger.ErrRejected, werr.Code, werr.Description)
	default:
		return fmt.Errorf("wallet returned status %d: %s", status, werr.Code)
	}
}

func toActionOutputs(outputs []ledger.Output) []actionOutput {
	out := make([]actionOutput, 0, len(outputs))
	for _, o := range outputs {
		out = append(out, actionOutput{
			LockingScript:     hex.EncodeToString(o.LockingScript),
			Satoshis:          o.Satoshis,
			OutputDescription: o.Description,
			Basket:            o.Basket,
			Tags:              o.Tags,
		})
	}
	return out
}
