package txn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"estate-backend/internal/domain"
	"estate-backend/internal/infrastructure/events"
	"estate-backend/internal/infrastructure/lock"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLockKey serializes every ledger mutation.
const DefaultLockKey = "lock:estate:ledgers"

// Tx is the handle an operation body uses: the open gorm transaction plus
// the events it stages. Staged events are only written if the body succeeds.
type Tx struct {
	*gorm.DB
	id     uuid.UUID
	actor  domain.Account
	staged []domain.LedgerEvent
}

// ID returns the transaction id shared by every event it emits.
func (t *Tx) ID() uuid.UUID {
	return t.id
}

// Emit stages an event.
func (t *Tx) Emit(ledger domain.Ledger, name string, subject interface{}, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("txn: encode %s payload: %w", name, err)
	}
	t.staged = append(t.staged, domain.LedgerEvent{
		EventID: uuid.New(),
		TxID:    t.id,
		Ledger:  ledger,
		Name:    name,
		Subject: fmt.Sprint(subject),
		Actor:   t.actor,
		Payload: datatypes.JSON(b),
	})
	return nil
}

// Locked returns the transaction with a row lock on the next read. Use it for
// rows the operation checks and then writes.
func (t *Tx) Locked() *gorm.DB {
	return t.DB.Scopes(ForUpdate)
}

// ForUpdate is a gorm scope adding SELECT ... FOR UPDATE on Postgres, so
// replicas sharing a database without the Redis lock still serialize on the
// rows they settle. SQLite has no row locks and is left as is.
func ForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Receipt describes a committed mutation.
type Receipt struct {
	TxID   uuid.UUID            `json:"tx_id"`
	Events []domain.LedgerEvent `json:"events"`
}

// Executor runs ledger operations as single serialized transactions.
type Executor struct {
	DB        *gorm.DB
	Locker    lock.Locker
	Publisher events.Publisher
	LockKey   string
}

// New builds an executor with an in-process lock and no event sinks.
func New(db *gorm.DB) *Executor {
	return &Executor{DB: db, Locker: lock.NewLocalLocker(), Publisher: events.Nop{}}
}

// Run executes fn under the ledger lock inside one database transaction.
// If fn returns an error nothing is written and no event is published.
// Events are persisted with the mutation and published after commit.
func (e *Executor) Run(ctx context.Context, actor domain.Account, op string, fn func(tx *Tx) error) (*Receipt, error) {
	key := e.LockKey
	if key == "" {
		key = DefaultLockKey
	}
	txID := uuid.New()
	start := time.Now()

	var committed []domain.LedgerEvent
	err := e.Locker.WithLock(ctx, key, func(ctx context.Context) error {
		var staged []domain.LedgerEvent
		err := e.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
			tx := &Tx{DB: db, id: txID, actor: actor}
			if err := fn(tx); err != nil {
				return err
			}
			for i := range tx.staged {
				if err := db.Create(&tx.staged[i]).Error; err != nil {
					return fmt.Errorf("txn: persist event %s: %w", tx.staged[i].Name, err)
				}
			}
			staged = tx.staged
			return nil
		})
		if err != nil {
			return err
		}
		committed = staged
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("op", op).Str("tx_id", txID.String()).Str("actor", actor.String()).Msg("ledger operation rolled back")
		return nil, err
	}

	log.Debug().Str("op", op).Str("tx_id", txID.String()).Int("events", len(committed)).Dur("took", time.Since(start)).Msg("ledger operation committed")

	if len(committed) > 0 && e.Publisher != nil {
		if perr := e.Publisher.Publish(ctx, committed); perr != nil {
			log.Warn().Err(perr).Str("op", op).Str("tx_id", txID.String()).Msg("publish events failed; events remain in the event log")
		}
	}
	if committed == nil {
		committed = []domain.LedgerEvent{}
	}
	return &Receipt{TxID: txID, Events: committed}, nil
}
