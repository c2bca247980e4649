package txn

import (
	"context"
	"errors"
	"testing"

	"estate-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	calls  int
	events []domain.LedgerEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, evts []domain.LedgerEvent) error {
	r.calls++
	r.events = append(r.events, evts...)
	return r.err
}

func setupExecutorTest(t *testing.T) (*Executor, *gorm.DB, *recordingPublisher) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Models()...))

	pub := &recordingPublisher{}
	exec := New(db)
	exec.Publisher = pub
	return exec, db, pub
}

var actor = domain.MustAccount("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

func TestRun_CommitsStateAndEvents(t *testing.T) {
	exec, db, pub := setupExecutorTest(t)

	receipt, err := exec.Run(context.Background(), actor, "add", func(tx *Tx) error {
		if err := tx.Create(&domain.Property{PropertyID: 1, Details: "d", Owner: actor}).Error; err != nil {
			return err
		}
		return tx.Emit(domain.LedgerProperty, domain.EventPropertyAdded, 1, map[string]interface{}{"id": 1})
	})
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, receipt.TxID, receipt.Events[0].TxID)
	assert.Equal(t, actor, receipt.Events[0].Actor)
	assert.Equal(t, "1", receipt.Events[0].Subject)
	assert.NotZero(t, receipt.Events[0].Seq)

	var count int64
	db.Model(&domain.Property{}).Count(&count)
	assert.Equal(t, int64(1), count)
	db.Model(&domain.LedgerEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, domain.EventPropertyAdded, pub.events[0].Name)
}

func TestRun_FailureRollsBackEverything(t *testing.T) {
	exec, db, pub := setupExecutorTest(t)

	_, err := exec.Run(context.Background(), actor, "add", func(tx *Tx) error {
		if err := tx.Create(&domain.Property{PropertyID: 1, Details: "d", Owner: actor}).Error; err != nil {
			return err
		}
		if err := tx.Emit(domain.LedgerProperty, domain.EventPropertyAdded, 1, nil); err != nil {
			return err
		}
		return domain.ErrWrongAmount
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrWrongAmount))

	var count int64
	db.Model(&domain.Property{}).Count(&count)
	assert.Equal(t, int64(0), count)
	db.Model(&domain.LedgerEvent{}).Count(&count)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 0, pub.calls)
}

func TestRun_PublishFailureDoesNotUndoCommit(t *testing.T) {
	exec, db, pub := setupExecutorTest(t)
	pub.err = errors.New("broker down")

	receipt, err := exec.Run(context.Background(), actor, "add", func(tx *Tx) error {
		return tx.Emit(domain.LedgerFunds, domain.EventWalletCredited, actor, map[string]interface{}{"amount": "1"})
	})
	require.NoError(t, err)
	assert.Len(t, receipt.Events, 1)

	var count int64
	db.Model(&domain.LedgerEvent{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRun_NoEventsSkipsPublish(t *testing.T) {
	exec, _, pub := setupExecutorTest(t)
	receipt, err := exec.Run(context.Background(), actor, "noop", func(tx *Tx) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, receipt.Events)
	assert.Equal(t, 0, pub.calls)
}

func TestForUpdate_LocksRowsOnPostgresOnly(t *testing.T) {
	pg, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=estate dbname=estate sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	var l domain.MarketListing
	stmt := pg.Scopes(ForUpdate).Where("property_id = ?", 7).First(&l).Statement
	assert.Contains(t, stmt.SQL.String(), "FOR UPDATE")

	_, db, _ := setupExecutorTest(t)
	stmt = db.Session(&gorm.Session{DryRun: true}).Scopes(ForUpdate).Where("property_id = ?", 7).First(&l).Statement
	assert.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestLocked_ReadsInsideRun(t *testing.T) {
	exec, db, _ := setupExecutorTest(t)
	require.NoError(t, db.Create(&domain.Wallet{Account: actor, Balance: decimal.NewFromInt(3)}).Error)

	var w domain.Wallet
	_, err := exec.Run(context.Background(), actor, "test.locked_read", func(tx *Tx) error {
		return tx.Locked().Where("account = ?", actor).First(&w).Error
	})
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(3)))
}
