package escrow

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	escrowsvc "estate-backend/internal/application/escrow"
	"estate-backend/internal/application/funds"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	owner  = domain.MustAccount("0x1000000000000000000000000000000000000001")
	buyer  = domain.MustAccount("0x2000000000000000000000000000000000000002")
	seller = domain.MustAccount("0x3000000000000000000000000000000000000003")
)

func setupEscrowTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	_, err = funds.Credit(db, buyer, decimal.NewFromInt(5))
	require.NoError(t, err)
	return &Handlers{Service: &escrowsvc.Service{DB: db, Exec: txn.New(db)}}, db
}

func newApp(h *Handlers, caller domain.Account) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetCaller(c, caller)
		return c.Next()
	})
	app.Post("/create-vault", h.CreateVault)
	app.Get("/vaults/:vault_id", h.GetVault)
	app.Post("/vaults/:vault_id/set-buyer", h.SetBuyer)
	app.Post("/vaults/:vault_id/set-seller", h.SetSeller)
	app.Post("/vaults/:vault_id/deposit", h.Deposit)
	app.Post("/vaults/:vault_id/withdraw", h.Withdraw)
	return app
}

func send(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	method := "GET"
	if body != nil {
		method = "POST"
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func errorKind(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	k, _ := d["kind"].(string)
	return k
}

func createVault(t *testing.T, h *Handlers) string {
	code, out := send(t, newApp(h, owner), "/create-vault", map[string]interface{}{})
	require.Equal(t, 201, code)
	vault := out["data"].(map[string]interface{})["vault"].(map[string]interface{})
	assert.Equal(t, "uninitialized", vault["state"])
	return vault["vault_id"].(string)
}

func TestEscrow_RejectScenario(t *testing.T) {
	h, _ := setupEscrowTest(t)
	id := createVault(t, h)
	base := "/vaults/" + id

	code, _ := send(t, newApp(h, owner), base+"/set-buyer", map[string]string{"account": buyer.String()})
	require.Equal(t, 200, code)

	code, out := send(t, newApp(h, buyer), base+"/deposit", map[string]string{"amount": "1"})
	require.Equal(t, 200, code)
	vault := out["data"].(map[string]interface{})["vault"].(map[string]interface{})
	assert.Equal(t, "1", vault["balance"])
	assert.Equal(t, "funded", vault["state"])

	code, out = send(t, newApp(h, buyer), base+"/withdraw", map[string]string{})
	assert.Equal(t, 409, code)
	assert.Equal(t, "SellerNotSet", errorKind(out))
	assert.Equal(t, "Seller not set", out["error"].(map[string]interface{})["message"])

	code, out = send(t, newApp(h, owner), base, nil)
	assert.Equal(t, 200, code)
	assert.Equal(t, "1", out["data"].(map[string]interface{})["balance"])
}

func TestEscrow_FullCycle(t *testing.T) {
	h, _ := setupEscrowTest(t)
	id := createVault(t, h)
	base := "/vaults/" + id

	code, out := send(t, newApp(h, seller), base+"/deposit", map[string]string{"amount": "1"})
	assert.Equal(t, 403, code)
	assert.Equal(t, "NotBuyer", errorKind(out))

	code, out = send(t, newApp(h, buyer), base+"/set-seller", map[string]string{"account": seller.String()})
	assert.Equal(t, 403, code)
	assert.Equal(t, "Unauthorized", errorKind(out))

	for _, step := range []struct{ path, account string }{
		{"/set-buyer", buyer.String()},
		{"/set-seller", seller.Checksum()},
	} {
		code, _ = send(t, newApp(h, owner), base+step.path, map[string]string{"account": step.account})
		require.Equal(t, 200, code)
	}

	code, _ = send(t, newApp(h, buyer), base+"/deposit", map[string]string{"amount": "2.5"})
	require.Equal(t, 200, code)

	code, out = send(t, newApp(h, buyer), base+"/withdraw", map[string]string{})
	assert.Equal(t, 403, code)
	assert.Equal(t, "Unauthorized", errorKind(out))

	code, out = send(t, newApp(h, seller), base+"/withdraw", map[string]string{})
	require.Equal(t, 200, code)
	vault := out["data"].(map[string]interface{})["vault"].(map[string]interface{})
	assert.Equal(t, "0", vault["balance"])
	assert.Equal(t, "withdrawn", vault["state"])

	code, out = send(t, newApp(h, seller), base+"/withdraw", map[string]string{})
	assert.Equal(t, 409, code)
	assert.Equal(t, "NothingToWithdraw", errorKind(out))
}

func TestEscrow_BadInput(t *testing.T) {
	h, _ := setupEscrowTest(t)

	code, out := send(t, newApp(h, owner), "/vaults/not-a-uuid", nil)
	assert.Equal(t, 400, code)
	assert.Equal(t, "InvalidArgument", errorKind(out))

	id := createVault(t, h)
	code, out = send(t, newApp(h, owner), "/vaults/"+id+"/set-buyer", map[string]string{"account": "0x123"})
	assert.Equal(t, 400, code)
	assert.Equal(t, "InvalidArgument", errorKind(out))

	code, out = send(t, newApp(h, owner), "/vaults/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "NotFound", errorKind(out))
}
