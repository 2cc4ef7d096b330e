package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushnetwork/token-factory/internal/api/middleware"
	"github.com/hushnetwork/token-factory/internal/api/rest"
	"github.com/hushnetwork/token-factory/internal/api/rest/dto"
	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/domain"
	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

var (
	factoryAddr = common.HexToAddress("0xfac0000000000000000000000000000000000001")
	adminAddr   = common.HexToAddress("0xad00000000000000000000000000000000000001")
	creatorAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	holderAddr  = common.HexToAddress("0x2000000000000000000000000000000000000002")

	templateCode = []byte{0x0a, 0x0b, 0x0c}
)

const (
	apiKey      = "test-api-key"
	creationFee = int64(domain.DefaultMinCreationFee)
)

// newTestServer boots a router over a fresh ledger with the factory
// bootstrapped, the template installed, and the creator funded
func newTestServer(t *testing.T) (*gin.Engine, *ledger.Env, *factory.Factory) {
	t.Helper()

	env := ledger.NewEnv(ledger.Options{})
	f := factory.At(factoryAddr)
	env.RegisterPaymentHandler(factoryAddr, f)

	require.NoError(t, env.Transact(context.Background(), []common.Address{adminAddr}, func(tx *ledger.TxContext) error {
		if err := f.Bootstrap(tx, adminAddr); err != nil {
			return err
		}
		return f.SetTemplate(tx, templateCode)
	}))
	require.NoError(t, env.Credit(context.Background(), creatorAddr, big.NewInt(100*creationFee)))

	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(env, f, adminAddr), middleware.AuthConfig{
		APIKeys: []string{apiKey},
	})
	return router, env, f
}

// doRequest performs a request against the router and returns the recorder.
// A non-empty auth value is sent as the Authorization header.
func doRequest(t *testing.T, router *gin.Engine, method, path string, body any, auth string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeJSON[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &value))
	return value
}

func createRequest(payment int64) dto.CreateTokenRequest {
	return dto.CreateTokenRequest{
		Creator:        creatorAddr.Hex(),
		Payment:        fmt.Sprintf("%d", payment),
		Name:           "Test Token",
		Symbol:         "TST",
		InitialSupply:  "1000000",
		Decimals:       8,
		Mode:           "community",
		ImageURL:       "https://img.example/t.png",
		CreatorFeeRate: 300,
	}
}

// createToken creates a token through the API and returns its state
func createToken(t *testing.T, router *gin.Engine) dto.TokenResponse {
	t.Helper()
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens", createRequest(creationFee), "")
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	return decodeJSON[dto.TokenResponse](t, recorder)
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestCreateToken(t *testing.T) {
	router, _, _ := newTestServer(t)

	created := createToken(t, router)

	assert.Equal(t, "Test Token", created.Name)
	assert.Equal(t, "TST", created.Symbol)
	assert.Equal(t, "1000000", created.Supply)
	assert.Equal(t, uint8(8), created.Decimals)
	assert.Equal(t, domain.ModeCommunity, created.Mode)
	assert.Equal(t, domain.TierBasic, created.Tier)
	assert.Equal(t, creatorAddr.Hex(), created.Creator)
	assert.Equal(t, creatorAddr.Hex(), created.Owner)
	assert.Equal(t, factoryAddr.Hex(), created.AuthorizedFactory)
	assert.Equal(t, int64(domain.DefaultPlatformFeeRate), created.PlatformFeeRate)
	assert.Equal(t, int64(300), created.CreatorFeeRate)
	assert.True(t, created.Mintable)
	assert.False(t, created.Locked)
}

func TestCreateToken_InsufficientPayment(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens", createRequest(creationFee-1), "")

	assert.Equal(t, http.StatusPaymentRequired, recorder.Code)
}

func TestCreateToken_InvalidMode(t *testing.T) {
	router, _, _ := newTestServer(t)

	req := createRequest(creationFee)
	req.Mode = "ponzi"
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens", req, "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetToken(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+created.Address, nil, "")

	require.Equal(t, http.StatusOK, recorder.Code)
	fetched := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, created, fetched)
}

func TestGetToken_NotFound(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+holderAddr.Hex(), nil, "")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListTokens(t *testing.T) {
	router, _, _ := newTestServer(t)
	first := createToken(t, router)
	second := createToken(t, router)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/tokens", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page := decodeJSON[dto.TokenListResponse](t, recorder)
	require.Len(t, page.Tokens, 2)
	assert.Equal(t, uint64(2), page.Total)
	assert.Equal(t, first.Address, page.Tokens[0].Address)
	assert.Equal(t, second.Address, page.Tokens[1].Address)

	// Second page of size one
	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens?offset=1&limit=1", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page = decodeJSON[dto.TokenListResponse](t, recorder)
	require.Len(t, page.Tokens, 1)
	assert.Equal(t, second.Address, page.Tokens[0].Address)

	// Creator filter
	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens?creator="+creatorAddr.Hex(), nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page = decodeJSON[dto.TokenListResponse](t, recorder)
	assert.Len(t, page.Tokens, 2)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens?creator="+holderAddr.Hex(), nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	page = decodeJSON[dto.TokenListResponse](t, recorder)
	assert.Empty(t, page.Tokens)
}

func TestTransferAndBalances(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/transfer", dto.TransferRequest{
		From:   creatorAddr.Hex(),
		To:     holderAddr.Hex(),
		Amount: "1000",
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+created.Address+"/balances/"+holderAddr.Hex(), nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	balance := decodeJSON[dto.BalanceResponse](t, recorder)
	assert.Equal(t, "1000", balance.Balance)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+created.Address+"/balances/"+creatorAddr.Hex(), nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	balance = decodeJSON[dto.BalanceResponse](t, recorder)
	assert.Equal(t, "999000", balance.Balance)
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/transfer", dto.TransferRequest{
		From:   holderAddr.Hex(),
		To:     creatorAddr.Hex(),
		Amount: "1",
	}, "")

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestMint(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/mint", dto.MintRequest{
		Creator: creatorAddr.Hex(),
		To:      holderAddr.Hex(),
		Amount:  "5000",
	}, "")

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, "1005000", updated.Supply)
}

func TestLifecycle_RequiresCreator(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/burn-rate", dto.SetBurnRateRequest{
		Creator:     holderAddr.Hex(),
		BurnRateBps: 100,
	}, "")

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestSetBurnRate(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/burn-rate", dto.SetBurnRateRequest{
		Creator:     creatorAddr.Hex(),
		BurnRateBps: 250,
	}, "")

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, int64(250), updated.BurnRateBps)
}

func TestApplyChanges(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	burnRate := int64(100)
	imageURL := "https://img.example/v2.png"
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/changes", dto.ApplyChangesRequest{
		Creator:     creatorAddr.Hex(),
		ImageURL:    &imageURL,
		BurnRateBps: &burnRate,
		Lock:        true,
	}, "")

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, burnRate, updated.BurnRateBps)
	assert.Equal(t, imageURL, updated.ImageURL)
	assert.True(t, updated.Locked)
}

func TestApplyChanges_NoOp(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/changes", dto.ApplyChangesRequest{
		Creator: creatorAddr.Hex(),
	}, "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestApplyChanges_MintAndCapExclusive(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	maxSupply := "2000000"
	mintTo := holderAddr.Hex()
	mintAmount := "1000"
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/changes", dto.ApplyChangesRequest{
		Creator:      creatorAddr.Hex(),
		NewMaxSupply: &maxSupply,
		MintTo:       &mintTo,
		MintAmount:   &mintAmount,
	}, "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdmin_RequiresAuth(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/admin/pause", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/admin/pause", nil, "ApiKey wrong-key")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAdmin_PauseFactory(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/admin/pause", nil, "ApiKey "+apiKey)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	info := decodeJSON[dto.FactoryInfoResponse](t, recorder)
	assert.True(t, info.Paused)

	// Creation is rejected while paused
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens", createRequest(creationFee), "")
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/admin/unpause", nil, "ApiKey "+apiKey)
	require.Equal(t, http.StatusOK, recorder.Code)
	info = decodeJSON[dto.FactoryInfoResponse](t, recorder)
	assert.False(t, info.Paused)
}

func TestAdmin_SetAllPlatformFee(t *testing.T) {
	router, _, _ := newTestServer(t)
	first := createToken(t, router)
	_ = createToken(t, router)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/admin/tokens/platform-fee", dto.SetAllPlatformFeeRequest{
		Rate:      2_000_000,
		BatchSize: 50,
	}, "ApiKey "+apiKey)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	batch := decodeJSON[dto.BatchResponse](t, recorder)
	assert.Equal(t, uint64(2), batch.Processed)
	assert.Equal(t, uint64(0), batch.Skipped)
	assert.Equal(t, uint64(2), batch.Next)
	assert.Equal(t, uint64(2), batch.Total)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+first.Address, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	fetched := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, int64(2_000_000), fetched.PlatformFeeRate)

	// The factory default follows the migration
	recorder = doRequest(t, router, http.MethodGet, "/api/v1/factory", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	info := decodeJSON[dto.FactoryInfoResponse](t, recorder)
	assert.Equal(t, int64(2_000_000), info.DefaultPlatformFee)
}

func TestAdmin_Credit(t *testing.T) {
	router, _, _ := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/admin/credit", dto.CreditRequest{
		Account: holderAddr.Hex(),
		Amount:  "12345",
	}, "ApiKey "+apiKey)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	balance := decodeJSON[dto.BalanceResponse](t, recorder)
	assert.Equal(t, "12345", balance.Balance)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/accounts/"+holderAddr.Hex()+"/balance", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	balance = decodeJSON[dto.BalanceResponse](t, recorder)
	assert.Equal(t, "12345", balance.Balance)
}

func TestGetModeParams(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	// No params stored yet
	recorder := doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+created.Address+"/mode-params", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	params := decodeJSON[dto.ModeParamsResponse](t, recorder)
	assert.Empty(t, params.Params)

	// A mode change with params stores them
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/mode", dto.ChangeModeRequest{
		Creator:    creatorAddr.Hex(),
		Mode:       "speculation",
		ModeParams: []any{"curve", float64(42)},
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/tokens/"+created.Address+"/mode-params", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	params = decodeJSON[dto.ModeParamsResponse](t, recorder)
	assert.Equal(t, domain.ModeParams{"curve", float64(42)}, params.Params)
}

func TestTokenPauseOps(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	// Created tokens are not pausable until the creator flips the flag
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/pause", dto.PauseTokenRequest{
		Creator: creatorAddr.Hex(),
	}, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/pausable", dto.SetPausableRequest{
		Creator:  creatorAddr.Hex(),
		Pausable: true,
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.True(t, updated.Pausable)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/pause", dto.PauseTokenRequest{
		Creator: creatorAddr.Hex(),
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated = decodeJSON[dto.TokenResponse](t, recorder)
	assert.True(t, updated.Paused)

	// Pause state answers to the creator only
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/unpause", dto.PauseTokenRequest{
		Creator: holderAddr.Hex(),
	}, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/unpause", dto.PauseTokenRequest{
		Creator: creatorAddr.Hex(),
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated = decodeJSON[dto.TokenResponse](t, recorder)
	assert.False(t, updated.Paused)
}

func TestAuthorizeTokenFactory(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)
	newFactory := common.HexToAddress("0xfac0000000000000000000000000000000000002")

	// The handoff is a factory-owner operation
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/factory", dto.AuthorizeFactoryRequest{
		Owner:   creatorAddr.Hex(),
		Factory: newFactory.Hex(),
	}, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/factory", dto.AuthorizeFactoryRequest{
		Owner:   adminAddr.Hex(),
		Factory: newFactory.Hex(),
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, newFactory.Hex(), updated.AuthorizedFactory)

	// The token now ignores this factory's lifecycle calls
	recorder = doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/burn-rate", dto.SetBurnRateRequest{
		Creator:     creatorAddr.Hex(),
		BurnRateBps: 100,
	}, "")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestTokenOwnerOps(t *testing.T) {
	router, _, _ := newTestServer(t)
	created := createToken(t, router)

	// Ownership transfer
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/tokens/"+created.Address+"/owner", dto.SetTokenOwnerRequest{
		Owner:    creatorAddr.Hex(),
		NewOwner: holderAddr.Hex(),
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	updated := decodeJSON[dto.TokenResponse](t, recorder)
	assert.Equal(t, holderAddr.Hex(), updated.Owner)
}
