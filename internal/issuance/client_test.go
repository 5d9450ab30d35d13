package issuance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheoAsp/happybox-go/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "col-1", "staging", map[models.RarityTier][]string{
		models.RarityUncommon: {"TPL_UNCOMMON_1", "TPL_UNCOMMON_2"},
	})
	c.host = srv.URL
	c.httpClient = srv.Client()
	c.pick = func(int) int { return 0 }
	return c
}

func TestClientMint(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"id": "mint-123"})
	})

	result, err := c.Mint(context.Background(), MintRequest{
		IdentityKey: "alice@example.com",
		Rarity:      models.RarityUncommon,
		Stage:       2,
		Completed:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/2022-06-09/collections/col-1/nfts", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "email:alice@example.com", gotBody["recipient"])
	assert.Equal(t, "TPL_UNCOMMON_1", gotBody["templateId"])
	assert.Equal(t, false, gotBody["allowDuplicate"])
	assert.Equal(t, "TPL_UNCOMMON_1", result.TemplateID)
	assert.Equal(t, "mint-123", result.ProviderID)
}

func TestClientMintProviderError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad template"})
	})

	_, err := c.Mint(context.Background(), MintRequest{
		IdentityKey: "alice@example.com",
		Rarity:      models.RarityUncommon,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad template")
}

func TestClientMintNoTemplates(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.Mint(context.Background(), MintRequest{
		IdentityKey: "alice@example.com",
		Rarity:      models.RarityLegendary,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no templates configured")
}
