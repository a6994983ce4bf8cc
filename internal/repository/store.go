package repository

import (
	"context"
	"errors"
	"time"

	"campus_marketplace/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Conversations() ConversationRepository
	Reviews() ReviewRepository
	Reports() ReportRepository
	Settings() SettingRepository
	Categories() CategoryRepository

	// WithinTx runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, page, limit int) (models.Page[models.User], error)
	IncrementTotalSales(ctx context.Context, ids []uint) error
	UpdateRating(ctx context.Context, id uint, rating decimal.Decimal) error
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) (models.Page[models.Product], error)
	ListRelated(ctx context.Context, p *models.Product, limit int) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	SetStatus(ctx context.Context, id uint, status models.ProductStatus) error
	// MarkSold flips an active product to sold. It reports false when the
	// product was no longer active.
	MarkSold(ctx context.Context, id uint) (bool, error)
	IncrementViews(ctx context.Context, id uint) error
	IncrementInterested(ctx context.Context, id uint) error
}

type CartRepository interface {
	Lines(ctx context.Context, userID uint) ([]models.CartLine, error)
	// Upsert adds quantity to the (user, product) row, creating it if needed.
	Upsert(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error)
	GetItem(ctx context.Context, id uint) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, id uint, quantity int) error
	Delete(ctx context.Context, id uint) (bool, error)
	DeleteItems(ctx context.Context, ids []uint) (int64, error)
	DeleteByProduct(ctx context.Context, productID uint) (int64, error)
	Clear(ctx context.Context, userID uint) (int64, error)
}

type OrderRepository interface {
	// Create inserts the order row and its items.
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID uint, page, limit int) (models.Page[models.Order], error)
	List(ctx context.Context, f models.OrderFilter) (models.Page[models.Order], error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	UpdatePayment(ctx context.Context, id uuid.UUID, payment models.PaymentStatus, status models.OrderStatus) error
	SellerIDs(ctx context.Context, id uuid.UUID) ([]uint, error)
	HasCompletedPurchase(ctx context.Context, buyerID, productID uint) (bool, error)
}

type ConversationRepository interface {
	FindByBuyerAndProduct(ctx context.Context, buyerID, productID uint) (*models.Conversation, error)
	// Create inserts the conversation together with its participants.
	Create(ctx context.Context, c *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	Participants(ctx context.Context, id uint) ([]models.ConversationParticipant, error)
	IsParticipant(ctx context.Context, id, userID uint) (bool, error)
	AddMessage(ctx context.Context, m *models.Message) error
	Touch(ctx context.Context, id uint, at time.Time) error
	IncrementUnread(ctx context.Context, id, exceptUserID uint) error
	MarkMessagesRead(ctx context.Context, id, readerID uint) (int64, error)
	ResetUnread(ctx context.Context, id, userID uint) error
	Messages(ctx context.Context, id uint, limit, offset int) ([]models.Message, error)
	ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error)
	UnreadTotal(ctx context.Context, userID uint) (int, error)
	Delete(ctx context.Context, id uint) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	GetByID(ctx context.Context, id uint) (*models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, reviewerID, productID uint) (bool, error)
	ListBySeller(ctx context.Context, sellerID uint, page, limit int) (models.Page[models.Review], error)
	ListByProduct(ctx context.Context, productID uint) ([]models.Review, error)
	// SellerRatingCounts returns the number of reviews per rating value.
	SellerRatingCounts(ctx context.Context, sellerID uint) (map[int]int, error)
	// RecomputeSellerRating writes the mean rating onto the seller row.
	RecomputeSellerRating(ctx context.Context, sellerID uint) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, status models.ReportStatus, page, limit int) (models.Page[models.Report], error)
	UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, note string) error
}

type SettingRepository interface {
	Get(ctx context.Context) (*models.Setting, error)
	Save(ctx context.Context, s *models.Setting) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
}

// StatsRepository serves the admin aggregates.
type StatsRepository interface {
	OrderStats(ctx context.Context) (models.OrderStats, error)
	MonthlySales(ctx context.Context, months int) ([]models.MonthlySales, error)
}
