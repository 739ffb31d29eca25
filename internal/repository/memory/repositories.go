package memory

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type userRepository struct{ uow *unitOfWork }

func userRow(u entity.User) row {
	r := row{id: u.Id, userID: u.Id, createdAt: u.CreatedAt}
	if u.Email != nil {
		r.email = *u.Email
	}
	return r
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.uow.run(ctx, func(d *state) error {
		if user.Id == uuid.Nil {
			user.Id = uuid.New()
		}
		if _, ok := d.users[user.Id]; ok {
			return ErrDuplicateKey
		}
		if user.Email != nil {
			for _, existing := range d.users {
				if existing.Email != nil && *existing.Email == *user.Email {
					return ErrDuplicateKey
				}
			}
		}
		now := r.uow.store.now()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.Id] = *user
		return nil
	})
}

func (r *userRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	var found *entity.User
	err := r.uow.run(ctx, func(d *state) error {
		for _, u := range d.users {
			ok, err := matches(userRow(u), specs)
			if err != nil {
				return err
			}
			if ok {
				u := u
				found = &u
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entity.UserRole) error {
	return r.uow.run(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return nil
		}
		u.Role = role
		u.UpdatedAt = r.uow.store.now()
		d.users[id] = u
		return nil
	})
}

func (r *userRepository) SwapRole(ctx context.Context, id uuid.UUID, from, to entity.UserRole) (bool, error) {
	swapped := false
	err := r.uow.run(ctx, func(d *state) error {
		u, ok := d.users[id]
		if !ok || u.Role != from {
			return nil
		}
		u.Role = to
		u.UpdatedAt = r.uow.store.now()
		d.users[id] = u
		swapped = true
		return nil
	})
	return swapped, err
}

type walletRepository struct{ uow *unitOfWork }

func walletRow(w entity.Wallet) row {
	return row{id: w.Id, userID: w.UserId, createdAt: w.CreatedAt}
}

func (r *walletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	return r.uow.run(ctx, func(d *state) error {
		if _, ok := d.wallets[wallet.UserId]; ok {
			return ErrDuplicateKey
		}
		if wallet.Id == uuid.Nil {
			wallet.Id = uuid.New()
		}
		if wallet.Balance.IsNegative() {
			return ErrCheckViolation
		}
		now := r.uow.store.now()
		wallet.CreatedAt, wallet.UpdatedAt = now, now
		d.wallets[wallet.UserId] = *wallet
		return nil
	})
}

func (r *walletRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Wallet, error) {
	var found *entity.Wallet
	err := r.uow.run(ctx, func(d *state) error {
		for _, w := range d.wallets {
			ok, err := matches(walletRow(w), specs)
			if err != nil {
				return err
			}
			if ok {
				w := w
				found = &w
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *walletRepository) EnsureExists(ctx context.Context, userId uuid.UUID) error {
	return r.uow.run(ctx, func(d *state) error {
		if _, ok := d.wallets[userId]; ok {
			return nil
		}
		now := r.uow.store.now()
		d.wallets[userId] = entity.Wallet{Id: uuid.New(), UserId: userId, Balance: decimal.Zero, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (r *walletRepository) Increment(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.uow.run(ctx, func(d *state) error {
		w, ok := d.wallets[userId]
		if !ok {
			return ErrNotFound
		}
		w.Balance = w.Balance.Add(amount)
		if w.Balance.IsNegative() {
			return ErrCheckViolation
		}
		w.UpdatedAt = r.uow.store.now()
		d.wallets[userId] = w
		balance = w.Balance
		return nil
	})
	return balance, err
}

func (r *walletRepository) DecrementIfSufficient(ctx context.Context, userId uuid.UUID, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	var balance decimal.Decimal
	applied := false
	err := r.uow.run(ctx, func(d *state) error {
		w, ok := d.wallets[userId]
		if !ok || w.Balance.LessThan(amount) {
			return nil
		}
		w.Balance = w.Balance.Sub(amount)
		w.UpdatedAt = r.uow.store.now()
		d.wallets[userId] = w
		balance = w.Balance
		applied = true
		return nil
	})
	return balance, applied, err
}

type subscriptionRepository struct{ uow *unitOfWork }

func subscriptionRow(s entity.VipSubscription) row {
	return row{id: s.Id, userID: s.UserId, createdAt: s.CreatedAt}
}

func (r *subscriptionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.VipSubscription, error) {
	var found *entity.VipSubscription
	err := r.uow.run(ctx, func(d *state) error {
		for _, s := range d.subscriptions {
			ok, err := matches(subscriptionRow(s), specs)
			if err != nil {
				return err
			}
			if ok {
				s := s
				found = &s
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *entity.VipSubscription) error {
	return r.uow.run(ctx, func(d *state) error {
		now := r.uow.store.now()
		existing, ok := d.subscriptions[sub.UserId]
		if ok {
			existing.IsActive = sub.IsActive
			existing.PlanType = sub.PlanType
			existing.ExpiresAt = sub.ExpiresAt
			existing.AutoRenew = sub.AutoRenew
			existing.UpdatedAt = now
			d.subscriptions[sub.UserId] = existing
			*sub = existing
			return nil
		}
		if sub.Id == uuid.Nil {
			sub.Id = uuid.New()
		}
		sub.CreatedAt, sub.UpdatedAt = now, now
		d.subscriptions[sub.UserId] = *sub
		return nil
	})
}

func (r *subscriptionRepository) Deactivate(ctx context.Context, userId uuid.UUID) error {
	return r.uow.run(ctx, func(d *state) error {
		s, ok := d.subscriptions[userId]
		if !ok {
			return nil
		}
		s.IsActive = false
		s.AutoRenew = false
		s.UpdatedAt = r.uow.store.now()
		d.subscriptions[userId] = s
		return nil
	})
}

func (r *subscriptionRepository) SetAutoRenew(ctx context.Context, userId uuid.UUID, autoRenew bool) error {
	return r.uow.run(ctx, func(d *state) error {
		s, ok := d.subscriptions[userId]
		if !ok {
			return nil
		}
		s.AutoRenew = autoRenew
		s.UpdatedAt = r.uow.store.now()
		d.subscriptions[userId] = s
		return nil
	})
}

type transactionRepository struct{ uow *unitOfWork }

func transactionRow(t entity.Transaction, seq int64) row {
	r := row{
		id:              t.Id,
		userID:          t.UserId,
		transactionID:   t.TransactionId,
		transactionType: string(t.TransactionType),
		status:          string(t.Status),
		createdAt:       t.CreatedAt,
		seq:             seq,
	}
	if t.OrderId != nil {
		r.orderID = *t.OrderId
	}
	return r
}

func (r *transactionRepository) Record(ctx context.Context, entry *entity.Transaction) (bool, *entity.Transaction, error) {
	created := false
	var stored *entity.Transaction
	err := r.uow.run(ctx, func(d *state) error {
		if existing, ok := d.transactions[entry.TransactionId]; ok {
			stored = &existing
			return nil
		}
		if entry.Id == uuid.Nil {
			entry.Id = uuid.New()
		}
		now := r.uow.store.now()
		entry.CreatedAt, entry.UpdatedAt = now, now
		d.seq++
		d.transactions[entry.TransactionId] = *entry
		d.txSeq[entry.TransactionId] = d.seq
		created = true
		stored = entry
		return nil
	})
	return created, stored, err
}

func (r *transactionRepository) filter(d *state, specs []specification.Specification) ([]row, error) {
	var rows []row
	for token, t := range d.transactions {
		rw := transactionRow(t, d.txSeq[token])
		ok, err := matches(rw, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, rw)
		}
	}
	return rows, nil
}

func (r *transactionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Transaction, error) {
	var found *entity.Transaction
	err := r.uow.run(ctx, func(d *state) error {
		rows, err := r.filter(d, specs)
		if err != nil {
			return err
		}
		rows = sortAndPage(rows, options(specs))
		if len(rows) > 0 {
			t := d.transactions[rows[0].transactionID]
			found = &t
		}
		return nil
	})
	return found, err
}

func (r *transactionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	err := r.uow.run(ctx, func(d *state) error {
		rows, err := r.filter(d, specs)
		if err != nil {
			return err
		}
		for _, rw := range sortAndPage(rows, options(specs)) {
			t := d.transactions[rw.transactionID]
			out = append(out, &t)
		}
		return nil
	})
	return out, err
}

func (r *transactionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := r.uow.run(ctx, func(d *state) error {
		rows, err := r.filter(d, specs)
		if err != nil {
			return err
		}
		count = int64(len(rows))
		return nil
	})
	return count, err
}

func (r *transactionRepository) MarkCompleted(ctx context.Context, transactionId string, at time.Time) (bool, error) {
	return r.transition(ctx, transactionId, func(t *entity.Transaction) {
		t.Status = entity.TransactionStatusCompleted
		t.CompletedAt = &at
	})
}

func (r *transactionRepository) MarkFailed(ctx context.Context, transactionId string, reason string) (bool, error) {
	return r.transition(ctx, transactionId, func(t *entity.Transaction) {
		t.Status = entity.TransactionStatusFailed
		t.FailureReason = &reason
	})
}

func (r *transactionRepository) transition(ctx context.Context, transactionId string, apply func(t *entity.Transaction)) (bool, error) {
	moved := false
	err := r.uow.run(ctx, func(d *state) error {
		t, ok := d.transactions[transactionId]
		if !ok || t.Status != entity.TransactionStatusPending {
			return nil
		}
		apply(&t)
		t.UpdatedAt = r.uow.store.now()
		d.transactions[transactionId] = t
		moved = true
		return nil
	})
	return moved, err
}

type payPalOrderRepository struct{ uow *unitOfWork }

func orderRow(o entity.PayPalOrder) row {
	return row{id: o.Id, userID: o.UserId, orderID: o.OrderId, status: string(o.Status), createdAt: o.CreatedAt}
}

func (r *payPalOrderRepository) Create(ctx context.Context, order *entity.PayPalOrder) error {
	return r.uow.run(ctx, func(d *state) error {
		if _, ok := d.orders[order.OrderId]; ok {
			return ErrDuplicateKey
		}
		if order.Id == uuid.Nil {
			order.Id = uuid.New()
		}
		now := r.uow.store.now()
		order.CreatedAt, order.UpdatedAt = now, now
		d.orders[order.OrderId] = *order
		return nil
	})
}

func (r *payPalOrderRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PayPalOrder, error) {
	var found *entity.PayPalOrder
	err := r.uow.run(ctx, func(d *state) error {
		for _, o := range d.orders {
			ok, err := matches(orderRow(o), specs)
			if err != nil {
				return err
			}
			if ok {
				o := o
				found = &o
				return nil
			}
		}
		return nil
	})
	return found, err
}

// FindForUpdate needs no row lock: the store lock already serializes
// transactions.
func (r *payPalOrderRepository) FindForUpdate(ctx context.Context, orderId string) (*entity.PayPalOrder, error) {
	return r.FindOne(ctx, specification.ByOrderID{OrderID: orderId})
}

func (r *payPalOrderRepository) update(ctx context.Context, orderId string, apply func(o *entity.PayPalOrder) bool) (bool, error) {
	changed := false
	err := r.uow.run(ctx, func(d *state) error {
		o, ok := d.orders[orderId]
		if !ok {
			return nil
		}
		if apply(&o) {
			o.UpdatedAt = r.uow.store.now()
			d.orders[orderId] = o
			changed = true
		}
		return nil
	})
	return changed, err
}

func (r *payPalOrderRepository) MarkApproved(ctx context.Context, orderId string, payerEmail, payerId, payerName *string) error {
	_, err := r.update(ctx, orderId, func(o *entity.PayPalOrder) bool {
		if o.Status != entity.PayPalOrderStatusCreated {
			return false
		}
		o.Status = entity.PayPalOrderStatusApproved
		o.PayerEmail, o.PayerId, o.PayerName = payerEmail, payerId, payerName
		return true
	})
	return err
}

func (r *payPalOrderRepository) MarkCompleted(ctx context.Context, orderId string, rawWebhook []byte, at time.Time) error {
	changed, err := r.update(ctx, orderId, func(o *entity.PayPalOrder) bool {
		o.Status = entity.PayPalOrderStatusCompleted
		o.WebhookVerified = true
		o.RawWebhookData = append([]byte(nil), rawWebhook...)
		o.CompletedAt = &at
		return true
	})
	if err != nil {
		return err
	}
	if !changed {
		return ErrNotFound
	}
	return nil
}

func (r *payPalOrderRepository) MarkFailed(ctx context.Context, orderId string) error {
	_, err := r.update(ctx, orderId, func(o *entity.PayPalOrder) bool {
		if o.Status == entity.PayPalOrderStatusCompleted {
			return false
		}
		o.Status = entity.PayPalOrderStatusFailed
		return true
	})
	return err
}
