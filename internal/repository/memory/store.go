// Package memory provides an in-process RepositoryFactory with the same
// transactional and uniqueness guarantees as the SQL schema. It backs
// DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"errors"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateKey and ErrNotFound alias gorm's sentinels so callers match
// them the same way for either backend.
var (
	ErrDuplicateKey   = gorm.ErrDuplicatedKey
	ErrNotFound       = gorm.ErrRecordNotFound
	ErrCheckViolation = errors.New("new row violates check constraint")
)

type state struct {
	users         map[uuid.UUID]entity.User
	wallets       map[uuid.UUID]entity.Wallet          // by user id
	subscriptions map[uuid.UUID]entity.VipSubscription // by user id
	transactions  map[string]entity.Transaction        // by transaction id
	txSeq         map[string]int64
	orders        map[string]entity.PayPalOrder // by provider order id
	seq           int64
}

func newState() *state {
	return &state{
		users:         map[uuid.UUID]entity.User{},
		wallets:       map[uuid.UUID]entity.Wallet{},
		subscriptions: map[uuid.UUID]entity.VipSubscription{},
		transactions:  map[string]entity.Transaction{},
		txSeq:         map[string]int64{},
		orders:        map[string]entity.PayPalOrder{},
	}
}

// clone copies the maps. Values are replaced, never mutated in place, so a
// shallow copy is a valid snapshot.
func (s *state) clone() *state {
	c := &state{
		users:         make(map[uuid.UUID]entity.User, len(s.users)),
		wallets:       make(map[uuid.UUID]entity.Wallet, len(s.wallets)),
		subscriptions: make(map[uuid.UUID]entity.VipSubscription, len(s.subscriptions)),
		transactions:  make(map[string]entity.Transaction, len(s.transactions)),
		txSeq:         make(map[string]int64, len(s.txSeq)),
		orders:        make(map[string]entity.PayPalOrder, len(s.orders)),
		seq:           s.seq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.subscriptions {
		c.subscriptions[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.txSeq {
		c.txSeq[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

// Store serializes every transaction; one unit of work holds it from Begin
// until Commit or Rollback.
type Store struct {
	sem  chan struct{}
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		sem:  make(chan struct{}, 1),
		data: newState(),
		now:  time.Now,
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

type Factory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &Factory{store: store}
}

func (f *Factory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: f.store}
}

func (f *Factory) Ping(ctx context.Context) error {
	return ctx.Err()
}
