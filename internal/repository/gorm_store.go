package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore implements Store on top of a gorm connection or transaction.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository                 { return &userRepo{db: s.db} }
func (s *GormStore) Products() ProductRepository           { return &productRepo{db: s.db} }
func (s *GormStore) Carts() CartRepository                 { return &cartRepo{db: s.db} }
func (s *GormStore) Orders() OrderRepository               { return &orderRepo{db: s.db} }
func (s *GormStore) Conversations() ConversationRepository { return &conversationRepo{db: s.db} }
func (s *GormStore) Reviews() ReviewRepository             { return &reviewRepo{db: s.db} }
func (s *GormStore) Reports() ReportRepository             { return &reportRepo{db: s.db} }
func (s *GormStore) Settings() SettingRepository           { return &settingRepo{db: s.db} }
func (s *GormStore) Categories() CategoryRepository        { return &categoryRepo{db: s.db} }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps driver level errors onto the package sentinels.
// The gorm connection must be opened with TranslateError enabled.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
