package marketplace

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"estate-backend/internal/application/funds"
	mktsvc "estate-backend/internal/application/marketplace"
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
	admin = domain.MustAccount("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	buyer = domain.MustAccount("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func setupMarketTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	svc := &mktsvc.Service{DB: db, Exec: txn.New(db), Admin: admin}
	return &Handlers{Service: svc}, db
}

func newApp(h *Handlers, caller domain.Account) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetCaller(c, caller)
		return c.Next()
	})
	app.Get("/owner", h.Owner)
	app.Post("/add-property", h.AddProperty)
	app.Post("/list-property", h.ListProperty)
	app.Post("/unlist-property", h.UnlistProperty)
	app.Post("/purchase-property", h.PurchaseProperty)
	app.Get("/properties/:id", h.GetListing)
	app.Get("/listed", h.ListedProperties)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
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

func TestOwner(t *testing.T) {
	h, _ := setupMarketTest(t)
	code, out := send(t, newApp(h, buyer), "GET", "/owner", nil)
	assert.Equal(t, 200, code)
	assert.Equal(t, admin.Checksum(), out["data"].(map[string]interface{})["owner"])
}

func TestAddProperty_NonAdminRejected(t *testing.T) {
	h, _ := setupMarketTest(t)
	code, out := send(t, newApp(h, buyer), "POST", "/add-property", map[string]interface{}{"property_id": 1, "price": "1"})
	assert.Equal(t, 403, code)
	assert.Equal(t, "Unauthorized", errorKind(out))
}

func TestPurchaseFlow(t *testing.T) {
	h, db := setupMarketTest(t)
	_, err := funds.Credit(db, buyer, decimal.NewFromInt(10))
	require.NoError(t, err)

	code, _ := send(t, newApp(h, admin), "POST", "/add-property", map[string]interface{}{"property_id": 1, "price": "1.0"})
	require.Equal(t, 201, code)
	code, _ = send(t, newApp(h, admin), "POST", "/list-property", map[string]interface{}{"property_id": 1, "price": "2"})
	require.Equal(t, 200, code)

	code, out := send(t, newApp(h, buyer), "POST", "/purchase-property", map[string]interface{}{"property_id": 1, "payment": "1"})
	assert.Equal(t, 400, code)
	assert.Equal(t, "WrongAmount", errorKind(out))

	code, out = send(t, newApp(h, buyer), "POST", "/purchase-property", map[string]interface{}{"property_id": 1, "payment": "2"})
	require.Equal(t, 200, code)
	listing := out["data"].(map[string]interface{})["listing"].(map[string]interface{})
	assert.Equal(t, buyer.Checksum(), listing["seller"])
	assert.Equal(t, false, listing["is_listed"])

	code, out = send(t, newApp(h, buyer), "POST", "/purchase-property", map[string]interface{}{"property_id": 1, "payment": "2"})
	assert.Equal(t, 409, code)
	assert.Equal(t, "NotListed", errorKind(out))

	code, out = send(t, newApp(h, buyer), "GET", "/listed", nil)
	assert.Equal(t, 200, code)
	assert.Empty(t, out["data"])
}

func TestGetListing(t *testing.T) {
	h, _ := setupMarketTest(t)
	code, out := send(t, newApp(h, buyer), "GET", "/properties/9", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "NotFound", errorKind(out))

	code, _ = send(t, newApp(h, admin), "POST", "/add-property", map[string]interface{}{"property_id": 9, "price": 3})
	require.Equal(t, 201, code)
	code, out = send(t, newApp(h, buyer), "GET", "/properties/9", nil)
	assert.Equal(t, 200, code)
	assert.Equal(t, "3", out["data"].(map[string]interface{})["price"])
}

func TestUnlistProperty(t *testing.T) {
	h, _ := setupMarketTest(t)
	code, _ := send(t, newApp(h, admin), "POST", "/add-property", map[string]interface{}{"property_id": 4, "price": "5"})
	require.Equal(t, 201, code)

	code, out := send(t, newApp(h, buyer), "POST", "/unlist-property", map[string]interface{}{"property_id": 4})
	assert.Equal(t, 403, code)
	assert.Equal(t, "Unauthorized", errorKind(out))

	code, _ = send(t, newApp(h, admin), "POST", "/unlist-property", map[string]interface{}{"property_id": 4})
	assert.Equal(t, 200, code)
}
