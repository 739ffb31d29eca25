package mapper

import (
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/model"
)

type WalletMapper struct{}

func NewWalletMapper() *WalletMapper {
	return &WalletMapper{}
}

func (m *WalletMapper) ToEntity(w *model.Wallet) *entity.Wallet {
	if w == nil {
		return nil
	}
	return &entity.Wallet{
		Id:        w.Id,
		UserId:    w.UserId,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (m *WalletMapper) ToModel(w *entity.Wallet) *model.Wallet {
	if w == nil {
		return nil
	}
	return &model.Wallet{
		Id:        w.Id,
		UserId:    w.UserId,
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
