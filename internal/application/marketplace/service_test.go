package marketplace

import (
	"context"
	"errors"
	"testing"

	"estate-backend/internal/application/funds"
	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin  = domain.MustAccount("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	buyer  = domain.MustAccount("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	other  = domain.MustAccount("0xcccccccccccccccccccccccccccccccccccccccc")
	one    = decimal.RequireFromString("1.0")
	twoEth = decimal.RequireFromString("2")
)

func setupMarketplaceTest(t *testing.T) (*Service, *funds.Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	exec := txn.New(db)
	return &Service{DB: db, Exec: exec, Admin: admin}, &funds.Service{DB: db, Exec: exec}, db
}

func fund(t *testing.T, db *gorm.DB, account domain.Account, amount string) {
	t.Helper()
	_, err := funds.Credit(db, account, decimal.RequireFromString(amount))
	require.NoError(t, err)
}

func TestAddProperty_AdminOnly(t *testing.T) {
	svc, _, _ := setupMarketplaceTest(t)
	ctx := context.Background()

	_, _, err := svc.AddProperty(ctx, other, 1, one)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Equal(t, "Ownable: caller is not the owner", err.Error())

	l, receipt, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)
	assert.Equal(t, admin, l.Seller)
	assert.True(t, l.IsListed)
	assert.Equal(t, domain.ListingListed, l.Status)
	assert.True(t, l.Price.Equal(one))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, domain.EventListingAdded, receipt.Events[0].Name)
	assert.Equal(t, admin, svc.Owner())
}

func TestAddProperty_DuplicateAndInvalidPrice(t *testing.T) {
	svc, _, _ := setupMarketplaceTest(t)
	ctx := context.Background()

	_, _, err := svc.AddProperty(ctx, admin, 1, decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	_, _, err = svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)
	_, _, err = svc.AddProperty(ctx, admin, 1, twoEth)
	assert.True(t, errors.Is(err, domain.ErrDuplicateID))

	l, err := svc.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.True(t, l.Price.Equal(one))
}

func TestAddProperty_RejectsUnstorablePrecision(t *testing.T) {
	svc, _, db := setupMarketplaceTest(t)
	ctx := context.Background()

	_, _, err := svc.AddProperty(ctx, admin, 3, decimal.RequireFromString("1.0000000000000000001"))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	var count int64
	require.NoError(t, db.Model(&domain.MarketListing{}).Count(&count).Error)
	assert.Zero(t, count)

	_, _, err = svc.AddProperty(ctx, admin, 3, one)
	require.NoError(t, err)
	_, _, err = svc.ListProperty(ctx, admin, 3, decimal.RequireFromString("0.0000000000000000001"))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestListProperty_SellerOnly(t *testing.T) {
	svc, _, _ := setupMarketplaceTest(t)
	ctx := context.Background()
	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)

	_, _, err = svc.ListProperty(ctx, other, 1, twoEth)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Equal(t, "Only the owner can list the property", err.Error())

	l, receipt, err := svc.ListProperty(ctx, admin, 1, twoEth)
	require.NoError(t, err)
	assert.True(t, l.Price.Equal(twoEth))
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, domain.EventPropertyListed, receipt.Events[0].Name)
	assert.JSONEq(t, `{"property_id":1,"price":"2"}`, string(receipt.Events[0].Payload))
}

func TestListProperty_NotFound(t *testing.T) {
	svc, _, _ := setupMarketplaceTest(t)
	_, _, err := svc.ListProperty(context.Background(), admin, 7, one)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPurchaseProperty_Scenario(t *testing.T) {
	svc, wallets, db := setupMarketplaceTest(t)
	ctx := context.Background()
	fund(t, db, buyer, "5")

	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)
	_, _, err = svc.ListProperty(ctx, admin, 1, one)
	require.NoError(t, err)

	l, receipt, err := svc.PurchaseProperty(ctx, buyer, 1, one)
	require.NoError(t, err)
	assert.False(t, l.IsListed)
	assert.Equal(t, domain.ListingSold, l.Status)
	assert.Equal(t, buyer, l.Seller)
	require.NotNil(t, l.LastBuyer)
	assert.Equal(t, buyer, *l.LastBuyer)

	require.Len(t, receipt.Events, 1)
	evt := receipt.Events[0]
	assert.Equal(t, domain.EventPropertyPurchased, evt.Name)
	assert.Equal(t, "1", evt.Subject)
	assert.Contains(t, string(evt.Payload), buyer.Checksum())

	sellerBal, err := wallets.BalanceOf(ctx, admin)
	require.NoError(t, err)
	assert.True(t, sellerBal.Equal(one), "seller balance %s", sellerBal)
	buyerBal, err := wallets.BalanceOf(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, buyerBal.Equal(decimal.NewFromInt(4)), "buyer balance %s", buyerBal)

	stored, err := svc.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, stored.IsListed)

	_, _, err = svc.PurchaseProperty(ctx, other, 1, one)
	assert.True(t, errors.Is(err, domain.ErrNotListed))
}

func TestPurchaseProperty_WrongAmountLeavesStateUnchanged(t *testing.T) {
	svc, wallets, db := setupMarketplaceTest(t)
	ctx := context.Background()
	fund(t, db, buyer, "5")
	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)

	_, _, err = svc.PurchaseProperty(ctx, buyer, 1, decimal.RequireFromString("0.5"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWrongAmount))

	_, _, err = svc.PurchaseProperty(ctx, buyer, 1, twoEth)
	assert.True(t, errors.Is(err, domain.ErrWrongAmount))

	l, err := svc.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.True(t, l.IsListed)
	bal, err := wallets.BalanceOf(ctx, buyer)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(5)))
}

func TestPurchaseProperty_InsufficientFundsRollsBack(t *testing.T) {
	svc, wallets, db := setupMarketplaceTest(t)
	ctx := context.Background()
	fund(t, db, buyer, "0.5")
	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)

	_, _, err = svc.PurchaseProperty(ctx, buyer, 1, one)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	l, err := svc.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.True(t, l.IsListed)
	assert.Equal(t, admin, l.Seller)
	sellerBal, err := wallets.BalanceOf(ctx, admin)
	require.NoError(t, err)
	assert.True(t, sellerBal.IsZero())

	var events int64
	db.Model(&domain.LedgerEvent{}).Where("name = ?", domain.EventPropertyPurchased).Count(&events)
	assert.Equal(t, int64(0), events)
}

func TestPurchaseProperty_NotListedAfterUnlist(t *testing.T) {
	svc, _, db := setupMarketplaceTest(t)
	ctx := context.Background()
	fund(t, db, buyer, "5")
	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)

	_, _, err = svc.UnlistProperty(ctx, other, 1)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	l, _, err := svc.UnlistProperty(ctx, admin, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingUnlisted, l.Status)

	_, _, err = svc.PurchaseProperty(ctx, buyer, 1, one)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotListed))
	assert.Equal(t, "Property is not listed for sale", err.Error())

	_, _, err = svc.UnlistProperty(ctx, admin, 1)
	assert.True(t, errors.Is(err, domain.ErrNotListed))
}

func TestRelistAfterPurchase_NewSellerOnly(t *testing.T) {
	svc, _, db := setupMarketplaceTest(t)
	ctx := context.Background()
	fund(t, db, buyer, "1")
	_, _, err := svc.AddProperty(ctx, admin, 1, one)
	require.NoError(t, err)
	_, _, err = svc.PurchaseProperty(ctx, buyer, 1, one)
	require.NoError(t, err)

	_, _, err = svc.ListProperty(ctx, admin, 1, twoEth)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	l, _, err := svc.ListProperty(ctx, buyer, 1, twoEth)
	require.NoError(t, err)
	assert.True(t, l.IsListed)
}

func TestListedProperties(t *testing.T) {
	svc, _, _ := setupMarketplaceTest(t)
	ctx := context.Background()
	for _, id := range []int64{3, 1, 2} {
		_, _, err := svc.AddProperty(ctx, admin, id, one)
		require.NoError(t, err)
	}
	_, _, err := svc.UnlistProperty(ctx, admin, 2)
	require.NoError(t, err)

	listed, err := svc.ListedProperties(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, int64(1), listed[0].PropertyID)
	assert.Equal(t, int64(3), listed[1].PropertyID)
}
