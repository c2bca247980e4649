package property

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate-backend/internal/application/txn"
	"estate-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	owner    = domain.MustAccount("0x1111111111111111111111111111111111111111")
	stranger = domain.MustAccount("0x2222222222222222222222222222222222222222")
)

func setupPropertyTest(t *testing.T, cacheTTL time.Duration) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return NewService(db, txn.New(db), cacheTTL), db
}

func TestAddProperty_CallerBecomesOwner(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	ctx := context.Background()

	p, receipt, err := svc.AddProperty(ctx, owner, 1, "Beautiful house in the city center")
	require.NoError(t, err)
	assert.Equal(t, owner, p.Owner)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, domain.EventPropertyAdded, receipt.Events[0].Name)
	assert.JSONEq(t, `{"property_id":1,"details":"Beautiful house in the city center","owner":"`+owner.Checksum()+`"}`, string(receipt.Events[0].Payload))

	got, err := svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Beautiful house in the city center", got.Details)
	assert.Equal(t, owner, got.Owner)
}

func TestAddProperty_DuplicateRejected(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	ctx := context.Background()

	_, _, err := svc.AddProperty(ctx, owner, 1, "first")
	require.NoError(t, err)
	_, _, err = svc.AddProperty(ctx, stranger, 1, "second")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateID))

	got, err := svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Details)
	assert.Equal(t, owner, got.Owner)
}

func TestAddProperty_InvalidID(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	_, _, err := svc.AddProperty(context.Background(), owner, 0, "x")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestUpdateProperty_OwnerOnly(t *testing.T) {
	svc, db := setupPropertyTest(t, 0)
	ctx := context.Background()
	_, _, err := svc.AddProperty(ctx, owner, 1, "Initial details")
	require.NoError(t, err)

	_, _, err = svc.UpdateProperty(ctx, stranger, 1, "Hijacked")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Equal(t, "Not authorized to update property", err.Error())

	var events int64
	db.Model(&domain.LedgerEvent{}).Where("name = ?", domain.EventPropertyUpdated).Count(&events)
	assert.Equal(t, int64(0), events)

	p, receipt, err := svc.UpdateProperty(ctx, owner, 1, "Updated details")
	require.NoError(t, err)
	assert.Equal(t, "Updated details", p.Details)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, domain.EventPropertyUpdated, receipt.Events[0].Name)
}

func TestUpdateProperty_NotFound(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	_, _, err := svc.UpdateProperty(context.Background(), owner, 42, "x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetProperty_NotFound(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	_, err := svc.GetProperty(context.Background(), 9)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetProperty_CacheInvalidatedOnUpdate(t *testing.T) {
	svc, _ := setupPropertyTest(t, time.Minute)
	ctx := context.Background()
	_, _, err := svc.AddProperty(ctx, owner, 1, "v1")
	require.NoError(t, err)

	got, err := svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Details)
	_, cached := svc.Cache.Get(cacheKey(1))
	assert.True(t, cached)

	_, _, err = svc.UpdateProperty(ctx, owner, 1, "v2")
	require.NoError(t, err)
	got, err = svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Details)
}

func TestGetProperty_ReadRacingUpdateIsNotCached(t *testing.T) {
	svc, db := setupPropertyTest(t, time.Minute)
	ctx := context.Background()
	_, _, err := svc.AddProperty(ctx, owner, 1, "v1")
	require.NoError(t, err)

	// a reader queries before the update commits and stores after it
	gen := svc.cacheGen(1)
	stale, err := findProperty(db, 1)
	require.NoError(t, err)
	_, _, err = svc.UpdateProperty(ctx, owner, 1, "v2")
	require.NoError(t, err)
	svc.remember(1, gen, *stale)

	_, cached := svc.Cache.Get(cacheKey(1))
	assert.False(t, cached)
	got, err := svc.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Details)
}

func TestAuthorizeDocumentUpload(t *testing.T) {
	svc, _ := setupPropertyTest(t, 0)
	ctx := context.Background()
	_, _, err := svc.AddProperty(ctx, owner, 5, "flat")
	require.NoError(t, err)

	_, err = svc.AuthorizeDocumentUpload(ctx, owner, 5)
	assert.NoError(t, err)
	_, err = svc.AuthorizeDocumentUpload(ctx, stranger, 5)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
