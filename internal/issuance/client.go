// Package issuance talks to the external reward-issuance collaborator
// (mint-by-email) and runs the award saga around it.
package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/TheoAsp/happybox-go/internal/models"
)

const (
	stagingHost    = "https://staging.crossmint.com"
	productionHost = "https://www.crossmint.com"
)

// MintRequest is the post-commit contract with the issuance collaborator.
// Its own duplicate protection is its concern; the mint lock is ours.
type MintRequest struct {
	IdentityKey string
	Rarity      models.RarityTier
	Stage       int
	Completed   int
}

// MintResult is the collaborator's answer
type MintResult struct {
	TemplateID string `json:"template_id"`
	ProviderID string `json:"provider_id,omitempty"`
}

// Minter abstracts the collaborator for the awarder and tests
type Minter interface {
	Mint(ctx context.Context, req MintRequest) (MintResult, error)
}

// Client calls the mint-by-email endpoint. Template ids are configured per
// rarity tier; a tier with no templates is a configuration error reported at
// mint time.
type Client struct {
	apiKey       string
	collectionID string
	host         string
	pools        map[models.RarityTier][]string
	httpClient   *http.Client
	pick         func(n int) int
}

// NewClient builds an issuance client. env is "staging" or "production".
func NewClient(apiKey, collectionID, env string, pools map[models.RarityTier][]string) *Client {
	host := stagingHost
	if env == "production" {
		host = productionHost
	}
	return &Client{
		apiKey:       apiKey,
		collectionID: collectionID,
		host:         host,
		pools:        pools,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pick:         rand.Intn,
	}
}

type mintPayload struct {
	Recipient      string       `json:"recipient"`
	TemplateID     string       `json:"templateId"`
	Metadata       mintMetadata `json:"metadata"`
	AllowDuplicate bool         `json:"allowDuplicate"`
}

type mintMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Attributes  []mintAttribute `json:"attributes"`
}

type mintAttribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

func (c *Client) Mint(ctx context.Context, req MintRequest) (MintResult, error) {
	pool := c.pools[req.Rarity]
	if len(pool) == 0 {
		return MintResult{}, fmt.Errorf("no templates configured for tier %s", req.Rarity)
	}
	templateID := pool[c.pick(len(pool))]

	payload := mintPayload{
		Recipient:  "email:" + req.IdentityKey,
		TemplateID: templateID,
		Metadata: mintMetadata{
			Name:        fmt.Sprintf("my Happy Box — %s", req.Rarity),
			Description: fmt.Sprintf("Kalavryta Edition • Tier %s", req.Rarity),
			Attributes: []mintAttribute{
				{TraitType: "tier", Value: req.Rarity.String()},
				{TraitType: "stage", Value: req.Stage},
				{TraitType: "tasks_completed", Value: req.Completed},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return MintResult{}, fmt.Errorf("failed to encode mint payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/2022-06-09/collections/%s/nfts",
		c.host, url.PathEscape(c.collectionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return MintResult{}, fmt.Errorf("failed to build mint request: %w", err)
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return MintResult{}, fmt.Errorf("mint request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = apiErr.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("issuance error (%d)", resp.StatusCode)
		}
		return MintResult{}, fmt.Errorf("mint rejected: %s", msg)
	}

	var provider struct {
		ID string `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&provider)
	return MintResult{TemplateID: templateID, ProviderID: provider.ID}, nil
}
