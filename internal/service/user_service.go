package service

import (
	"context"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/repository/specification"
	"jeezy-monetization-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	RoleOf(ctx context.Context, userId uuid.UUID) (entity.UserRole, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	vip        IVipService
	jeez       IJeezService
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, vip IVipService, jeez IJeezService) IUserService {
	return &userService{
		uowFactory: uowFactory,
		vip:        vip,
		jeez:       jeez,
	}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, storageError(err)
	}
	if user == nil {
		return nil, apperror.NotFound(apperror.CodeUserNotFound, "user not found")
	}

	status, err := s.vip.GetStatus(ctx, userId)
	if err != nil {
		return nil, err
	}
	balance, err := s.jeez.GetBalance(ctx, userId)
	if apperror.Is(err, apperror.CodeBalanceNotFound) {
		balance, err = decimal.Zero, nil
	}
	if err != nil {
		return nil, err
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	return &dto.UserProfileResponse{
		Id:          user.Id,
		Email:       email,
		FullName:    user.FullName,
		Role:        string(user.Role),
		Vip:         ToVipStatusResponse(status),
		JeezBalance: balance,
	}, nil
}

// RoleOf reads the stored role. Inactive or missing users have none.
func (s *userService) RoleOf(ctx context.Context, userId uuid.UUID) (entity.UserRole, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return "", storageError(err)
	}
	if user == nil || !user.IsActive {
		return "", apperror.Unauthenticated(apperror.CodeUnauthorized, "account no longer exists")
	}
	return user.Role, nil
}

// ToVipStatusResponse renders a status for the API.
func ToVipStatusResponse(s *VipStatus) dto.VipStatusResponse {
	resp := dto.VipStatusResponse{IsActive: s.IsActive, ExpiresAt: s.ExpiresAt, AutoRenew: s.AutoRenew}
	if s.PlanType != nil {
		plan := string(*s.PlanType)
		resp.PlanType = &plan
	}
	return resp
}
