package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deposit-core/internal/handler"
	"deposit-core/internal/model"
	"deposit-core/internal/server"
	"deposit-core/internal/service/deposit"
	"deposit-core/internal/service/registry"
	"deposit-core/pkg/errno"
	"deposit-core/pkg/ethtext"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry mirrors the Admin store's checks in memory.
type fakeRegistry struct {
	users    map[uint64]model.User
	networks map[uint64]model.BlockchainNetwork
	wallets  map[string]model.Wallet
	nextID   uint64
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		users:    make(map[uint64]model.User),
		networks: make(map[uint64]model.BlockchainNetwork),
		wallets:  make(map[string]model.Wallet),
	}
}

func (r *fakeRegistry) id() uint64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRegistry) CreateUser(ctx context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return registry.ErrUserExists
		}
	}
	u.ID = r.id()
	r.users[u.ID] = *u
	return nil
}

func (r *fakeRegistry) ListUsers(ctx context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeRegistry) CreateNetwork(ctx context.Context, n *model.BlockchainNetwork) error {
	n.ID = r.id()
	r.networks[n.ID] = *n
	return nil
}

func (r *fakeRegistry) ListNetworks(ctx context.Context) ([]model.BlockchainNetwork, error) {
	var out []model.BlockchainNetwork
	for _, n := range r.networks {
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeRegistry) RegisterWallet(ctx context.Context, w *model.Wallet) error {
	w.Address = ethtext.NormalizeAddress(w.Address)
	if !ethtext.IsValidAddress(w.Address) {
		return registry.ErrInvalidAddress
	}
	if _, ok := r.users[w.UserID]; !ok {
		return registry.ErrUserNotFound
	}
	if _, ok := r.networks[w.BlockchainNetworkID]; !ok {
		return registry.ErrNetworkNotFound
	}
	if _, ok := r.wallets[w.Address]; ok {
		return registry.ErrWalletExists
	}
	w.ID = r.id()
	r.wallets[w.Address] = *w
	return nil
}

func (r *fakeRegistry) ListWallets(ctx context.Context, userID uint64) ([]model.Wallet, error) {
	var out []model.Wallet
	for _, w := range r.wallets {
		if userID == 0 || w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeRegistry) GetWallet(ctx context.Context, id uint64) (*model.Wallet, error) {
	for _, w := range r.wallets {
		if w.ID == id {
			cp := w
			return &cp, nil
		}
	}
	return nil, registry.ErrWalletNotFound
}

// fakeDeposits serves canned ledger reads.
type fakeDeposits struct {
	byHash map[string]model.Deposit
}

func (f *fakeDeposits) GetByTxHash(ctx context.Context, txHash string) (*model.Deposit, error) {
	d, ok := f.byHash[ethtext.NormalizeTxHash(txHash)]
	if !ok {
		return nil, deposit.ErrNotFound
	}
	return &d, nil
}

func (f *fakeDeposits) ListByWallet(ctx context.Context, walletID uint64, offset, limit int) ([]model.Deposit, error) {
	var out []model.Deposit
	for _, d := range f.byHash {
		if d.WalletID == walletID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	reg := newFakeRegistry()
	return server.NewHTTPRouter(
		handler.NewUserHandler(reg),
		handler.NewWalletHandler(reg),
		handler.NewNetworkHandler(reg),
		handler.NewDepositHandler(&fakeDeposits{byHash: map[string]model.Deposit{}}),
	)
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w.Code, parsed
}

func dataField(t *testing.T, body map[string]interface{}, key string) float64 {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", body)
	v, ok := data[key].(float64)
	require.True(t, ok, "data[%s] missing: %v", key, data)
	return v
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter()
	status, body := doRequest(t, r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, errno.OK.Code, body["code"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "UP", data["status"])
}

// The full registration flow: user, then network, then wallet. Each step
// feeds the ids the next one references.
func TestWalletRegistrationFlow(t *testing.T) {
	r := newTestRouter()

	_, body := doRequest(t, r, http.MethodPost, "/api/v1/users",
		`{"email":"sam@example.com","first_name":"Sam","last_name":"Doe"}`)
	require.EqualValues(t, errno.OK.Code, body["code"], "msg: %v", body["msg"])
	userID := dataField(t, body, "id")

	_, body = doRequest(t, r, http.MethodPost, "/api/v1/networks",
		`{"name":"sepolia","chain_id":11155111,"rpc_url":"http://localhost:8545","ws_url":"ws://localhost:8546"}`)
	require.EqualValues(t, errno.OK.Code, body["code"], "msg: %v", body["msg"])
	networkID := dataField(t, body, "id")

	payload := fmt.Sprintf(`{"user_id":%d,"address":"0x40CeEede9FA9EE09E594AFFB63CFC4994AF5b14E","blockchain_network_id":%d}`,
		int(userID), int(networkID))
	_, body = doRequest(t, r, http.MethodPost, "/api/v1/wallets", payload)
	require.EqualValues(t, errno.OK.Code, body["code"], "msg: %v", body["msg"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "0x40ceeede9fa9ee09e594affb63cfc4994af5b14e", data["address"], "stored canonical")

	// Same address again is rejected.
	_, body = doRequest(t, r, http.MethodPost, "/api/v1/wallets", payload)
	assert.EqualValues(t, errno.ErrWalletExists.Code, body["code"])
}

func TestRegisterWalletUnknownUser(t *testing.T) {
	r := newTestRouter()

	_, body := doRequest(t, r, http.MethodPost, "/api/v1/networks",
		`{"name":"sepolia","chain_id":11155111,"rpc_url":"http://localhost:8545","ws_url":"ws://localhost:8546"}`)
	require.EqualValues(t, errno.OK.Code, body["code"])
	networkID := dataField(t, body, "id")

	payload := fmt.Sprintf(`{"user_id":999,"address":"0x40ceeede9fa9ee09e594affb63cfc4994af5b14e","blockchain_network_id":%d}`,
		int(networkID))
	_, body = doRequest(t, r, http.MethodPost, "/api/v1/wallets", payload)
	assert.EqualValues(t, errno.ErrUserNotFound.Code, body["code"])
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	r := newTestRouter()
	payload := `{"email":"sam@example.com","first_name":"Sam","last_name":"Doe"}`

	_, body := doRequest(t, r, http.MethodPost, "/api/v1/users", payload)
	require.EqualValues(t, errno.OK.Code, body["code"])

	_, body = doRequest(t, r, http.MethodPost, "/api/v1/users", payload)
	assert.EqualValues(t, errno.ErrUserExists.Code, body["code"])
}

func TestCreateUserRejectsBadEmail(t *testing.T) {
	r := newTestRouter()
	_, body := doRequest(t, r, http.MethodPost, "/api/v1/users",
		`{"email":"not-an-email","first_name":"Sam","last_name":"Doe"}`)

	assert.EqualValues(t, errno.ErrBind.Code, body["code"])
}

func TestRegisterWalletRejectsMissingFields(t *testing.T) {
	r := newTestRouter()
	_, body := doRequest(t, r, http.MethodPost, "/api/v1/wallets", `{"address":"0xabc"}`)

	assert.EqualValues(t, errno.ErrBind.Code, body["code"])
	assert.Contains(t, body["msg"], "required")
}

func TestCreateNetworkRejectsBadURL(t *testing.T) {
	r := newTestRouter()
	payload := `{"name":"sepolia","chain_id":11155111,"rpc_url":"not-a-url","ws_url":"wss://x"}`
	_, body := doRequest(t, r, http.MethodPost, "/api/v1/networks", payload)

	assert.EqualValues(t, errno.ErrBind.Code, body["code"])
}

func TestGetDepositRejectsMalformedHash(t *testing.T) {
	r := newTestRouter()
	_, body := doRequest(t, r, http.MethodGet, "/api/v1/deposits/0x123", "")

	assert.EqualValues(t, errno.ErrInvalidTxHash.Code, body["code"])
}

func TestListDepositsRejectsBadWalletID(t *testing.T) {
	r := newTestRouter()
	_, body := doRequest(t, r, http.MethodGet, "/api/v1/wallets/abc/deposits", "")

	assert.EqualValues(t, errno.ErrBind.Code, body["code"])
}

func TestListWalletsRejectsBadUserID(t *testing.T) {
	r := newTestRouter()
	_, body := doRequest(t, r, http.MethodGet, "/api/v1/wallets?user_id=abc", "")

	assert.EqualValues(t, errno.ErrBind.Code, body["code"])
}
