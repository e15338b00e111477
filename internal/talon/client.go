// Package talon is the gateway to the Talon.One customer session and loyalty
// balance APIs. Every operation is a single fire-and-forget request: no
// retries, no caching, no deadline beyond what the caller's context carries.
package talon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/pbalakri/vendure-plugin-talonOne/internal/domain"
	"github.com/pbalakri/vendure-plugin-talonOne/internal/session"
)

type Config struct {
	// BaseURL of the Talon.One deployment, e.g. https://acme.europe-west1.talon.one.
	BaseURL string
	// APIKey is sent verbatim as the Authorization header.
	APIKey string
	// ProgramID selects the loyalty program for balance lookups.
	ProgramID int
}

// Gateway performs the remote calls and composes the storefront-facing
// loyalty operations on top of them.
type Gateway struct {
	cfg    Config
	users  domain.UserService
	client *http.Client
	log    *zap.Logger

	// lastQuoted is the fallback returned by QuotePointsForOrder when no
	// acting user can be resolved.
	mu         sync.Mutex
	lastQuoted float64
}

func New(cfg Config, users domain.UserService, log *zap.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		users:  users,
		client: &http.Client{},
		log:    log,
	}
}

// updateSession sends PUT {base}/v2/customer_sessions/{profileId}. With dry
// set, Talon.One computes effects without committing them server-side.
func (g *Gateway) updateSession(ctx context.Context, s *session.Session, dry bool) (*SessionResult, error) {
	body, err := json.Marshal(s.Payload())
	if err != nil {
		return nil, fmt.Errorf("encoding customer session: %w", err)
	}

	url := fmt.Sprintf("%s/v2/customer_sessions/%s", g.cfg.BaseURL, s.ProfileID())
	if dry {
		url += "?dry=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building session request: %w", err)
	}
	req.Header.Set("Authorization", g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var result SessionResult
	if err := g.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// getUserPoints sends GET {base}/v1/loyalty_programs/{program}/profile/{id}/balances.
func (g *Gateway) getUserPoints(ctx context.Context, identifier string) (*BalanceResult, error) {
	url := fmt.Sprintf("%s/v1/loyalty_programs/%d/profile/%s/balances",
		g.cfg.BaseURL, g.cfg.ProgramID, identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building balance request: %w", err)
	}
	req.Header.Set("Authorization", g.cfg.APIKey)

	var result BalanceResult
	if err := g.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do executes one request, buffers the full response body and decodes it
// into out. Transport and parse failures propagate unchanged to the caller.
func (g *Gateway) do(req *http.Request, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("talon.one request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading talon.one response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding talon.one response: %w", err)
	}
	return nil
}
