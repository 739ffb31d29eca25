package service

import (
	"context"
	"time"

	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/repository/unitofwork"
)

type IHealthService interface {
	Ping(ctx context.Context) error
}

type healthService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewHealthService(uowFactory unitofwork.RepositoryFactory) IHealthService {
	return &healthService{uowFactory: uowFactory}
}

func (s *healthService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.uowFactory.Ping(ctx); err != nil {
		return apperror.Transient(apperror.CodeDatabase, "database unreachable", err)
	}
	return nil
}
