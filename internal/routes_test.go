package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkdrop/internal"
	"linkdrop/internal/catalog"
	"linkdrop/internal/config"
	"linkdrop/internal/dispense"
	httphandlers "linkdrop/internal/http"
	"linkdrop/internal/ledger"
	"linkdrop/internal/pkg/testsupport"
	"linkdrop/internal/policy"
	"linkdrop/internal/stats"
)

const adminToken = "test-admin-token"

type passChecker struct{}

func (passChecker) Check(ctx context.Context, link string) bool { return true }

type recordingDeliverer struct {
	delivered []dispense.Delivery
}

func (r *recordingDeliverer) Deliver(ctx context.Context, d dispense.Delivery) error {
	r.delivered = append(r.delivered, d)
	return nil
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		Environment:        config.EnvironmentTest,
		AdminToken:         adminToken,
		RoleLimits:         "verified:3,burning:20,booster:20",
		ClaimRatePerMinute: 30,
	}
	log := zap.NewNop()
	store := testsupport.SetupStore(t)

	cat, err := catalog.Load(store, passChecker{}, log)
	require.NoError(t, err)
	ldg, err := ledger.Load(store, log)
	require.NoError(t, err)
	st, err := stats.Load(store, log)
	require.NoError(t, err)

	roleLimits, err := config.ParseRoleLimits(cfg.RoleLimits)
	require.NoError(t, err)

	dispenser := dispense.New(policy.New(roleLimits), ldg, cat, st, &recordingDeliverer{}, log)
	api := httphandlers.NewAPI(cfg, log, dispenser, cat, ldg, st)

	app := fiber.New()
	internal.MountRoutes(app, api, cfg)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestHealthEndpoint(t *testing.T) {
	app := setupApp(t)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		req := httptest.NewRequest(method, "/_health", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/v1/admin/links", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/v1/admin/links", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/v1/admin/links", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAddLinksNormalizesAndReportsRejections(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/v1/admin/links", adminToken, fiber.Map{
		"links": []string{"example.com/a", "https://example.com/a", "  "},
	})
	require.Equal(t, http.StatusOK, status)

	added := body["added"].([]any)
	require.Len(t, added, 1)
	assert.Equal(t, "https://example.com/a", added[0])

	rejected := body["rejected"].([]any)
	require.Len(t, rejected, 2)
	assert.Equal(t, float64(1), body["total"])
}

func TestClaimFlowThroughTheAPI(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/v1/admin/links", adminToken, fiber.Map{
		"links": []string{"https://example.com/a", "https://example.com/b"},
	})
	require.Equal(t, http.StatusOK, status)

	claim := fiber.Map{"identity_id": "alice", "role_ids": []string{"verified"}}

	// verified allows three claims per period
	for i := 0; i < 3; i++ {
		status, body := doJSON(t, app, http.MethodPost, "/v1/claims", "", claim)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, string(dispense.OutcomeDelivered), body["outcome"])
		assert.NotEmpty(t, body["receipt_id"])
		assert.NotEmpty(t, body["link"])
	}

	status, body := doJSON(t, app, http.MethodPost, "/v1/claims", "", claim)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, string(dispense.OutcomeQuotaExceeded), body["outcome"])

	status, body = doJSON(t, app, http.MethodGet, "/v1/identities/alice/remaining?role_ids=verified", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", body["remaining"])

	// an admin reset restores the allowance
	status, body = doJSON(t, app, http.MethodPost, "/v1/admin/usage/reset", adminToken, fiber.Map{"identity_id": "alice"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["reset"])

	status, body = doJSON(t, app, http.MethodPost, "/v1/claims", "", claim)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(dispense.OutcomeDelivered), body["outcome"])
}

func TestClaimWithoutEligibleRole(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/v1/claims", "", fiber.Map{
		"identity_id": "bob",
		"role_ids":    []string{"lurker"},
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, string(dispense.OutcomeNoRoleEligible), body["outcome"])
}

func TestClaimAgainstEmptyCatalog(t *testing.T) {
	app := setupApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/v1/claims", "", fiber.Map{
		"identity_id": "alice",
		"role_ids":    []string{"verified"},
	})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, string(dispense.OutcomeCatalogEmpty), body["outcome"])
}

func TestClaimValidation(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/v1/claims", "", fiber.Map{"identity_id": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestResetAllRequiresConfirmation(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/v1/admin/usage/reset", adminToken, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/v1/admin/usage/reset", adminToken, fiber.Map{"confirm": "confirm"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["reset_all"])
}

func TestUsageAndStatsEndpoints(t *testing.T) {
	app := setupApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/v1/admin/links", adminToken, fiber.Map{
		"links": []string{"https://example.com/a"},
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, app, http.MethodPost, "/v1/claims", "", fiber.Map{
		"identity_id": "alice",
		"role_ids":    []string{"booster"},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodGet, "/v1/admin/usage", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	identities := body["identities"].([]any)
	require.Len(t, identities, 1)
	entry := identities[0].(map[string]any)
	assert.Equal(t, "alice", entry["identity_id"])
	assert.Equal(t, float64(1), entry["claims_used"])
	assert.Equal(t, float64(0), entry["days_since_last_claim"])

	status, body = doJSON(t, app, http.MethodGet, "/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_links_sent"])
	topLinks := body["top_links"].([]any)
	require.Len(t, topLinks, 1)
	period := body["current_period"].(map[string]any)
	assert.Equal(t, float64(1), period["links_used"])
	assert.Equal(t, float64(1), period["active_identities"])
}
