package service

import (
	"context"
	"errors"
	"time"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/metrics"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const vipTokenPrefix = "vip"

// errTokenRaced means a concurrent unit recorded the same token first.
var errTokenRaced = errors.New("activation token recorded concurrently")

type VipStatus struct {
	IsActive  bool
	ExpiresAt *time.Time
	PlanType  *entity.PlanType
	AutoRenew bool
}

type VipActivation struct {
	UserId        uuid.UUID
	Plan          entity.PlanType
	Token         string
	OrderRef      *string
	Amount        decimal.Decimal
	PaymentMethod string
}

type VipResult struct {
	UserId    uuid.UUID
	ExpiresAt time.Time
	PlanType  entity.PlanType
	Token     string
	Applied   bool
}

type IVipService interface {
	GetStatus(ctx context.Context, userId uuid.UUID) (*VipStatus, error)
	Activate(ctx context.Context, a VipActivation) (*VipResult, error)
	// ApplyActivation runs an activation inside a unit of work owned by the caller.
	ApplyActivation(ctx context.Context, uow unitofwork.UnitOfWork, a VipActivation) (*VipResult, error)
	Deactivate(ctx context.Context, userId uuid.UUID) error
	SetAutoRenew(ctx context.Context, userId uuid.UUID, autoRenew bool) (*VipStatus, error)
	GenerateToken() string
}

type vipService struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
	txTimeout  time.Duration
	now        Clock
}

func NewVipService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger, txTimeout time.Duration, now Clock) IVipService {
	if now == nil {
		now = time.Now
	}
	return &vipService{
		uowFactory: uowFactory,
		log:        log,
		txTimeout:  txTimeout,
		now:        now,
	}
}

func (s *vipService) GenerateToken() string {
	return newToken(vipTokenPrefix)
}

func (s *vipService) statusOf(sub *entity.VipSubscription) *VipStatus {
	if sub == nil {
		return &VipStatus{}
	}
	expiresAt := sub.ExpiresAt
	plan := sub.PlanType
	return &VipStatus{
		IsActive:  sub.EffectivelyActive(s.now()),
		ExpiresAt: &expiresAt,
		PlanType:  &plan,
		AutoRenew: sub.AutoRenew,
	}
}

// GetStatus never writes. Expiry is derived on every read.
func (s *vipService) GetStatus(ctx context.Context, userId uuid.UUID) (*VipStatus, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, storageError(err)
	}
	return s.statusOf(sub), nil
}

func validateActivation(a VipActivation) error {
	if a.Token == "" {
		return apperror.Validation(apperror.CodeValidation, "transaction token is required")
	}
	if _, ok := entity.ParsePlanType(string(a.Plan)); !ok {
		return apperror.Validation(apperror.CodeInvalidPlan, "plan must be MONTHLY, QUARTERLY or ANNUAL")
	}
	if a.Amount.IsNegative() {
		return apperror.Validation(apperror.CodeInvalidAmount, "amount must not be negative")
	}
	return nil
}

func (s *vipService) Activate(ctx context.Context, a VipActivation) (*VipResult, error) {
	if err := validateActivation(a); err != nil {
		return nil, err
	}

	var res *VipResult
	err := inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		var err error
		res, err = s.applyActivation(ctx, uow, a)
		return err
	})
	if errors.Is(err, errTokenRaced) {
		// The other unit has committed by now; answer with its result.
		err = inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
			var err error
			res, err = s.replay(ctx, uow, a)
			return err
		})
	}
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			s.log.Error("VIP", "Activation failed", map[string]interface{}{
				"user_id": a.UserId.String(), "token": a.Token, "error": err,
			})
		}
		return nil, err
	}

	if res.Applied {
		metrics.VipActivationsTotal.WithLabelValues(string(res.PlanType)).Inc()
		s.log.Info("VIP", "Subscription activated", map[string]interface{}{
			"user_id": a.UserId.String(), "plan": string(res.PlanType), "expires_at": res.ExpiresAt,
		})
	}
	return res, nil
}

func (s *vipService) ApplyActivation(ctx context.Context, uow unitofwork.UnitOfWork, a VipActivation) (*VipResult, error) {
	if err := validateActivation(a); err != nil {
		return nil, err
	}
	return s.applyActivation(ctx, uow, a)
}

func (s *vipService) applyActivation(ctx context.Context, uow unitofwork.UnitOfWork, a VipActivation) (*VipResult, error) {
	plan, _ := entity.ParsePlanType(string(a.Plan))
	a.Plan = plan
	if a.PaymentMethod == "" {
		a.PaymentMethod = entity.PaymentMethodInternal
	}

	// 1. Token replay check
	existing, err := uow.TransactionRepository().FindOne(ctx, specification.ByTransactionID{TransactionID: a.Token})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.UserId != a.UserId || existing.TransactionType != entity.TransactionTypeVipSubscription {
			return nil, apperror.Conflict(apperror.CodeTokenConflict, "transaction token already used for a different operation")
		}
		switch existing.Status {
		case entity.TransactionStatusCompleted:
			return s.replay(ctx, uow, a)
		case entity.TransactionStatusPending:
		default:
			return nil, apperror.Conflict(apperror.CodeTransactionNotPending, "transaction already settled as "+string(existing.Status))
		}
	}

	// 2. Owner must exist
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: a.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
	}

	// 3. Upsert the subscription; renewal replaces the expiry
	now := s.now()
	sub := &entity.VipSubscription{
		Id:        uuid.New(),
		UserId:    a.UserId,
		IsActive:  true,
		PlanType:  plan,
		StartDate: now,
		ExpiresAt: plan.ExpiryFrom(now),
		AutoRenew: true,
	}
	if err := uow.SubscriptionRepository().Upsert(ctx, sub); err != nil {
		return nil, err
	}

	// 4. Promote USER to VIP; other roles are left alone
	if _, err := uow.UserRepository().SwapRole(ctx, a.UserId, entity.UserRoleUser, entity.UserRoleVIP); err != nil {
		return nil, err
	}

	// 5. Ledger entry
	if existing != nil {
		if _, err := uow.TransactionRepository().MarkCompleted(ctx, a.Token, now); err != nil {
			return nil, err
		}
	} else {
		subId := sub.Id
		created, _, err := uow.TransactionRepository().Record(ctx, &entity.Transaction{
			Id:              uuid.New(),
			TransactionId:   a.Token,
			UserId:          a.UserId,
			TransactionType: entity.TransactionTypeVipSubscription,
			Amount:          a.Amount,
			Status:          entity.TransactionStatusCompleted,
			PaymentMethod:   a.PaymentMethod,
			Description:     "VIP " + string(plan) + " activation",
			OrderId:         a.OrderRef,
			SubscriptionId:  &subId,
			Metadata:        map[string]interface{}{"plan": string(plan), "expiresAt": sub.ExpiresAt},
			CompletedAt:     &now,
		})
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, errTokenRaced
		}
	}

	return &VipResult{UserId: a.UserId, ExpiresAt: sub.ExpiresAt, PlanType: plan, Token: a.Token, Applied: true}, nil
}

func (s *vipService) replay(ctx context.Context, uow unitofwork.UnitOfWork, a VipActivation) (*VipResult, error) {
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.UserOwnedBy{UserID: a.UserId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NotFound(apperror.CodeSubscriptionNotFound, "subscription not found")
	}
	return &VipResult{UserId: a.UserId, ExpiresAt: sub.ExpiresAt, PlanType: sub.PlanType, Token: a.Token, Applied: false}, nil
}

func (s *vipService) Deactivate(ctx context.Context, userId uuid.UUID) error {
	err := inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
		if err != nil {
			return err
		}
		if sub == nil {
			return apperror.NotFound(apperror.CodeSubscriptionNotFound, "subscription not found")
		}
		if err := uow.SubscriptionRepository().Deactivate(ctx, userId); err != nil {
			return err
		}
		// Only a VIP role is demoted; ADMIN and others keep theirs.
		_, err = uow.UserRepository().SwapRole(ctx, userId, entity.UserRoleVIP, entity.UserRoleUser)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("VIP", "Subscription deactivated", map[string]interface{}{"user_id": userId.String()})
	return nil
}

func (s *vipService) SetAutoRenew(ctx context.Context, userId uuid.UUID, autoRenew bool) (*VipStatus, error) {
	var status *VipStatus
	err := inTransaction(ctx, s.uowFactory, s.txTimeout, func(ctx context.Context, uow unitofwork.UnitOfWork) error {
		sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
		if err != nil {
			return err
		}
		if sub == nil {
			return apperror.NotFound(apperror.CodeSubscriptionNotFound, "subscription not found")
		}
		if !sub.EffectivelyActive(s.now()) {
			return apperror.Validation(apperror.CodeSubscriptionInactive, "subscription is not active")
		}
		if err := uow.SubscriptionRepository().SetAutoRenew(ctx, userId, autoRenew); err != nil {
			return err
		}
		sub.AutoRenew = autoRenew
		status = s.statusOf(sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}
