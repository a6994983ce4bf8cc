// Package repotest provides an in-memory repository.Store for tests.
//
// WithinTx snapshots the whole dataset before running the callback and
// restores it when the callback fails, so rollback behaviour can be
// asserted without a database. Transactions are serialised.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"campus_marketplace/internal/repository"
	"campus_marketplace/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type dataset struct {
	users         map[uint]models.User
	products      map[uint]models.Product
	cart          map[uint]models.CartItem
	orders        map[uuid.UUID]models.Order
	orderItems    map[uint]models.OrderItem
	conversations map[uint]models.Conversation
	participants  map[uint]models.ConversationParticipant
	messages      map[uint]models.Message
	reviews       map[uint]models.Review
	reports       map[uint]models.Report
	categories    map[uint]models.Category
	setting       *models.Setting
	seq           map[string]uint
}

func newDataset() *dataset {
	return &dataset{
		users:         map[uint]models.User{},
		products:      map[uint]models.Product{},
		cart:          map[uint]models.CartItem{},
		orders:        map[uuid.UUID]models.Order{},
		orderItems:    map[uint]models.OrderItem{},
		conversations: map[uint]models.Conversation{},
		participants:  map[uint]models.ConversationParticipant{},
		messages:      map[uint]models.Message{},
		reviews:       map[uint]models.Review{},
		reports:       map[uint]models.Report{},
		categories:    map[uint]models.Category{},
		seq:           map[string]uint{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:         cloneMap(d.users),
		products:      cloneMap(d.products),
		cart:          cloneMap(d.cart),
		orders:        cloneMap(d.orders),
		orderItems:    cloneMap(d.orderItems),
		conversations: cloneMap(d.conversations),
		participants:  cloneMap(d.participants),
		messages:      cloneMap(d.messages),
		reviews:       cloneMap(d.reviews),
		reports:       cloneMap(d.reports),
		categories:    cloneMap(d.categories),
		seq:           cloneMap(d.seq),
	}
	if d.setting != nil {
		s := *d.setting
		c.setting = &s
	}
	return c
}

func (d *dataset) next(table string) uint {
	d.seq[table]++
	return d.seq[table]
}

// MemStore is a repository.Store held entirely in memory.
type MemStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	data   *dataset
	faults map[string]error
	clock  time.Time
}

func New() *MemStore {
	return &MemStore{
		data:   newDataset(),
		faults: map[string]error{},
		clock:  time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

// FailOn makes every subsequent call of op return err. op has the form
// "Repo.Method", e.g. "Orders.CreateItem".
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *MemStore) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = map[string]error{}
}

// check must be called with mu held.
func (s *MemStore) check(op string) error {
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// now returns a strictly increasing timestamp. Must be called with mu held.
func (s *MemStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *MemStore) Users() repository.UserRepository                 { return memUsers{s} }
func (s *MemStore) Products() repository.ProductRepository           { return memProducts{s} }
func (s *MemStore) Carts() repository.CartRepository                 { return memCarts{s} }
func (s *MemStore) Orders() repository.OrderRepository               { return memOrders{s} }
func (s *MemStore) Conversations() repository.ConversationRepository { return memConversations{s} }
func (s *MemStore) Reviews() repository.ReviewRepository             { return memReviews{s} }
func (s *MemStore) Reports() repository.ReportRepository             { return memReports{s} }
func (s *MemStore) Settings() repository.SettingRepository           { return memSettings{s} }
func (s *MemStore) Categories() repository.CategoryRepository        { return memCategories{s} }
func (s *MemStore) Stats() repository.StatsRepository                { return memStats{s} }

func (s *MemStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(txStore{s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// txStore is the Store handed to a transaction callback. Nested
// transactions join the outer one.
type txStore struct {
	*MemStore
}

func (t txStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := 0
	if page > 1 {
		start = (page - 1) * limit
	}
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

// ---- seeding and inspection helpers ----

func (s *MemStore) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.data.next("users")
	} else if u.ID > s.data.seq["users"] {
		s.data.seq["users"] = u.ID
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Username == "" {
		u.Username = fmt.Sprintf("user%d", u.ID)
	}
	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.edu", u.ID)
	}
	u.CreatedAt = s.now()
	s.data.users[u.ID] = u
	return u
}

func (s *MemStore) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.data.next("products")
	} else if p.ID > s.data.seq["products"] {
		s.data.seq["products"] = p.ID
	}
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	if p.Title == "" {
		p.Title = fmt.Sprintf("Product %d", p.ID)
	}
	p.CreatedAt = s.now()
	s.data.products[p.ID] = p
	return p
}

func (s *MemStore) AddCategory(c models.Category) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.data.next("categories")
	s.data.categories[c.ID] = c
	return c
}

func (s *MemStore) SetSetting(st models.Setting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.setting = &st
}

func (s *MemStore) User(id uint) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.users[id]
}

func (s *MemStore) Product(id uint) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id]
}

func (s *MemStore) CartItems(userID uint) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CartItem
	for _, it := range s.data.cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *MemStore) OrderItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orderItems)
}

func (s *MemStore) ConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.conversations)
}

func (s *MemStore) Participant(convID, userID uint) (models.ConversationParticipant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.participants {
		if p.ConversationID == convID && p.UserID == userID {
			return p, true
		}
	}
	return models.ConversationParticipant{}, false
}

func (s *MemStore) AllMessages(convID uint) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messagesLocked(convID)
}

func (s *MemStore) messagesLocked(convID uint) []models.Message {
	var out []models.Message
	for _, m := range s.data.messages {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetOrderCreatedAt backdates an order, for monthly aggregates.
func (s *MemStore) SetOrderCreatedAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.data.orders[id]
	o.CreatedAt = at
	s.data.orders[id] = o
}

// ---- users ----

type memUsers struct{ s *MemStore }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Users.Create"); err != nil {
		return err
	}
	for _, existing := range s.data.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return fmt.Errorf("Users.Create: %w", repository.ErrDuplicate)
		}
	}
	u.ID = s.data.next("users")
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.data.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, notFound("Users.GetByID")
	}
	return &u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("Users.GetByEmail")
}

func (r memUsers) List(ctx context.Context, page, limit int) (models.Page[models.User], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.User
	for _, u := range r.s.data.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return models.Page[models.User]{Items: paginate(all, page, limit), Total: int64(len(all)), Page: page, Limit: limit}, nil
}

func (r memUsers) IncrementTotalSales(ctx context.Context, ids []uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Users.IncrementTotalSales"); err != nil {
		return err
	}
	for _, id := range ids {
		if u, ok := s.data.users[id]; ok {
			u.TotalSales++
			s.data.users[id] = u
		}
	}
	return nil
}

func (r memUsers) UpdateRating(ctx context.Context, id uint, rating decimal.Decimal) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	if !ok {
		return nil
	}
	u.Rating = rating
	s.data.users[id] = u
	return nil
}

// ---- products ----

type memProducts struct{ s *MemStore }

func (r memProducts) Create(ctx context.Context, p *models.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.Create"); err != nil {
		return err
	}
	p.ID = s.data.next("products")
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Seller = nil
	s.data.products[p.ID] = stored
	return nil
}

func (r memProducts) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("Products.GetByID"); err != nil {
		return nil, err
	}
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, notFound("Products.GetByID")
	}
	return &p, nil
}

func (r memProducts) List(ctx context.Context, f models.ProductFilter) (models.Page[models.Product], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.Product
	for _, p := range r.s.data.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.SellerID != 0 && p.SellerID != f.SellerID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return models.Page[models.Product]{Items: paginate(all, f.Page, f.Limit), Total: int64(len(all)), Page: f.Page, Limit: f.Limit}, nil
}

func (r memProducts) ListRelated(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("Products.ListRelated"); err != nil {
		return nil, err
	}
	var out []models.Product
	for _, other := range r.s.data.products {
		if other.ID != p.ID && other.Category == p.Category && other.Status == models.ProductActive {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, 1, limit), nil
}

func (r memProducts) Update(ctx context.Context, p *models.Product) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data.products[p.ID]
	if !ok {
		return notFound("Products.Update")
	}
	cur.Title, cur.Description, cur.Price = p.Title, p.Description, p.Price
	cur.Category, cur.Condition, cur.ImageURL, cur.Status = p.Category, p.Condition, p.ImageURL, p.Status
	cur.UpdatedAt = s.now()
	s.data.products[p.ID] = cur
	return nil
}

func (r memProducts) Delete(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.Delete"); err != nil {
		return err
	}
	if _, ok := s.data.products[id]; !ok {
		return notFound("Products.Delete")
	}
	delete(s.data.products, id)
	return nil
}

func (r memProducts) SetStatus(ctx context.Context, id uint, status models.ProductStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.SetStatus"); err != nil {
		return err
	}
	p, ok := s.data.products[id]
	if !ok {
		return notFound("Products.SetStatus")
	}
	p.Status = status
	s.data.products[id] = p
	return nil
}

func (r memProducts) MarkSold(ctx context.Context, id uint) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.MarkSold"); err != nil {
		return false, err
	}
	p, ok := s.data.products[id]
	if !ok || p.Status != models.ProductActive {
		return false, nil
	}
	p.Status = models.ProductSold
	s.data.products[id] = p
	return true, nil
}

func (r memProducts) IncrementViews(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.IncrementViews"); err != nil {
		return err
	}
	if p, ok := s.data.products[id]; ok {
		p.Views++
		s.data.products[id] = p
	}
	return nil
}

func (r memProducts) IncrementInterested(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Products.IncrementInterested"); err != nil {
		return err
	}
	if p, ok := s.data.products[id]; ok {
		p.Interested++
		s.data.products[id] = p
	}
	return nil
}

// ---- cart ----

type memCarts struct{ s *MemStore }

func (r memCarts) Lines(ctx context.Context, userID uint) ([]models.CartLine, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Carts.Lines"); err != nil {
		return nil, err
	}
	lines := []models.CartLine{}
	for _, it := range s.data.cart {
		if it.UserID != userID {
			continue
		}
		p, ok := s.data.products[it.ProductID]
		if !ok {
			continue
		}
		seller := s.data.users[p.SellerID]
		lines = append(lines, models.CartLine{
			ItemID:         it.ID,
			ProductID:      p.ID,
			Quantity:       it.Quantity,
			AddedAt:        it.AddedAt,
			Title:          p.Title,
			Price:          p.Price,
			ImageURL:       p.ImageURL,
			Status:         p.Status,
			SellerID:       p.SellerID,
			SellerUsername: seller.Username,
			SellerName:     seller.FullName,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID > lines[j].ItemID })
	return lines, nil
}

func (r memCarts) Upsert(ctx context.Context, userID, productID uint, quantity int) (*models.CartItem, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Carts.Upsert"); err != nil {
		return nil, err
	}
	for id, it := range s.data.cart {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity += quantity
			s.data.cart[id] = it
			return &it, nil
		}
	}
	it := models.CartItem{
		ID:        s.data.next("cart"),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   s.now(),
	}
	s.data.cart[it.ID] = it
	return &it, nil
}

func (r memCarts) GetItem(ctx context.Context, id uint) (*models.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.data.cart[id]
	if !ok {
		return nil, notFound("Carts.GetItem")
	}
	return &it, nil
}

func (r memCarts) UpdateQuantity(ctx context.Context, id uint, quantity int) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.data.cart[id]
	if !ok {
		return notFound("Carts.UpdateQuantity")
	}
	it.Quantity = quantity
	s.data.cart[id] = it
	return nil
}

func (r memCarts) Delete(ctx context.Context, id uint) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.cart[id]; !ok {
		return false, nil
	}
	delete(s.data.cart, id)
	return true, nil
}

func (r memCarts) DeleteItems(ctx context.Context, ids []uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Carts.DeleteItems"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := s.data.cart[id]; ok {
			delete(s.data.cart, id)
			n++
		}
	}
	return n, nil
}

func (r memCarts) DeleteByProduct(ctx context.Context, productID uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.data.cart {
		if it.ProductID == productID {
			delete(s.data.cart, id)
			n++
		}
	}
	return n, nil
}

func (r memCarts) Clear(ctx context.Context, userID uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Carts.Clear"); err != nil {
		return 0, err
	}
	var n int64
	for id, it := range s.data.cart {
		if it.UserID == userID {
			delete(s.data.cart, id)
			n++
		}
	}
	return n, nil
}

// ---- orders ----

type memOrders struct{ s *MemStore }

func (r memOrders) Create(ctx context.Context, o *models.Order) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Orders.Create"); err != nil {
		return err
	}
	for _, existing := range s.data.orders {
		if existing.OrderNumber == o.OrderNumber {
			return fmt.Errorf("Orders.Create: %w", repository.ErrDuplicate)
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.UpdatedAt = o.CreatedAt
	row := *o
	row.Items = nil
	row.Buyer = nil
	s.data.orders[o.ID] = row

	for i := range o.Items {
		if err := s.check("Orders.CreateItem"); err != nil {
			return err
		}
		it := o.Items[i]
		it.ID = s.data.next("order_items")
		it.OrderID = o.ID
		it.Product = nil
		s.data.orderItems[it.ID] = it
		o.Items[i].ID = it.ID
		o.Items[i].OrderID = o.ID
	}
	return nil
}

func (s *MemStore) assembleOrder(o models.Order) models.Order {
	var items []models.OrderItem
	for _, it := range s.data.orderItems {
		if it.OrderID == o.ID {
			p := s.data.products[it.ProductID]
			it.Title = p.Title
			it.SellerID = p.SellerID
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	o.Items = items
	return o
}

func (r memOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data.orders[id]
	if !ok {
		return nil, notFound("Orders.GetByID")
	}
	o = s.assembleOrder(o)
	return &o, nil
}

func (r memOrders) collect(keep func(models.Order) bool, page, limit int) models.Page[models.Order] {
	s := r.s
	var all []models.Order
	for _, o := range s.data.orders {
		if keep(o) {
			all = append(all, s.assembleOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return models.Page[models.Order]{Items: paginate(all, page, limit), Total: int64(len(all)), Page: page, Limit: limit}
}

func (r memOrders) ListByBuyer(ctx context.Context, buyerID uint, page, limit int) (models.Page[models.Order], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(o models.Order) bool { return o.BuyerID == buyerID }, page, limit), nil
}

func (r memOrders) List(ctx context.Context, f models.OrderFilter) (models.Page[models.Order], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.collect(func(o models.Order) bool {
		return (f.Status == "" || o.Status == f.Status) && (f.PaymentStatus == "" || o.PaymentStatus == f.PaymentStatus)
	}, f.Page, f.Limit), nil
}

func (r memOrders) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Orders.UpdateStatus"); err != nil {
		return err
	}
	o, ok := s.data.orders[id]
	if !ok {
		return notFound("Orders.UpdateStatus")
	}
	o.Status = status
	o.UpdatedAt = s.now()
	s.data.orders[id] = o
	return nil
}

func (r memOrders) UpdatePayment(ctx context.Context, id uuid.UUID, payment models.PaymentStatus, status models.OrderStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Orders.UpdatePayment"); err != nil {
		return err
	}
	o, ok := s.data.orders[id]
	if !ok {
		return notFound("Orders.UpdatePayment")
	}
	o.PaymentStatus = payment
	o.Status = status
	o.UpdatedAt = s.now()
	s.data.orders[id] = o
	return nil
}

func (r memOrders) SellerIDs(ctx context.Context, id uuid.UUID) ([]uint, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uint]bool{}
	var ids []uint
	for _, it := range s.data.orderItems {
		if it.OrderID != id {
			continue
		}
		sid := s.data.products[it.ProductID].SellerID
		if !seen[sid] {
			seen[sid] = true
			ids = append(ids, sid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r memOrders) HasCompletedPurchase(ctx context.Context, buyerID, productID uint) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.data.orderItems {
		if it.ProductID != productID {
			continue
		}
		if o, ok := s.data.orders[it.OrderID]; ok && o.BuyerID == buyerID && o.Status == models.OrderCompleted {
			return true, nil
		}
	}
	return false, nil
}

// ---- conversations ----

type memConversations struct{ s *MemStore }

func (r memConversations) FindByBuyerAndProduct(ctx context.Context, buyerID, productID uint) (*models.Conversation, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.conversations {
		if c.BuyerID == buyerID && c.ProductID == productID {
			return &c, nil
		}
	}
	return nil, notFound("Conversations.FindByBuyerAndProduct")
}

func (r memConversations) Create(ctx context.Context, c *models.Conversation) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Conversations.Create"); err != nil {
		return err
	}
	for _, existing := range s.data.conversations {
		if existing.BuyerID == c.BuyerID && existing.ProductID == c.ProductID {
			return fmt.Errorf("Conversations.Create: %w", repository.ErrDuplicate)
		}
	}
	c.ID = s.data.next("conversations")
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = c.CreatedAt
	}
	row := *c
	row.Participants = nil
	row.Messages = nil
	row.Product = nil
	s.data.conversations[c.ID] = row
	for i := range c.Participants {
		p := c.Participants[i]
		p.ID = s.data.next("participants")
		p.ConversationID = c.ID
		p.User = nil
		s.data.participants[p.ID] = p
		c.Participants[i].ID = p.ID
		c.Participants[i].ConversationID = c.ID
	}
	return nil
}

func (r memConversations) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.conversations[id]
	if !ok {
		return nil, notFound("Conversations.GetByID")
	}
	return &c, nil
}

func (r memConversations) Participants(ctx context.Context, id uint) ([]models.ConversationParticipant, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ConversationParticipant
	for _, p := range s.data.participants {
		if p.ConversationID == id {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memConversations) IsParticipant(ctx context.Context, id, userID uint) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.data.participants {
		if p.ConversationID == id && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memConversations) AddMessage(ctx context.Context, m *models.Message) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Conversations.AddMessage"); err != nil {
		return err
	}
	m.ID = s.data.next("messages")
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.data.messages[m.ID] = *m
	return nil
}

func (r memConversations) Touch(ctx context.Context, id uint, at time.Time) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.conversations[id]
	if !ok {
		return notFound("Conversations.Touch")
	}
	c.LastMessageAt = at
	s.data.conversations[id] = c
	return nil
}

func (r memConversations) IncrementUnread(ctx context.Context, id, exceptUserID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Conversations.IncrementUnread"); err != nil {
		return err
	}
	for pid, p := range s.data.participants {
		if p.ConversationID == id && p.UserID != exceptUserID {
			p.UnreadCount++
			s.data.participants[pid] = p
		}
	}
	return nil
}

func (r memConversations) MarkMessagesRead(ctx context.Context, id, readerID uint) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Conversations.MarkMessagesRead"); err != nil {
		return 0, err
	}
	var n int64
	for mid, m := range s.data.messages {
		if m.ConversationID == id && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			s.data.messages[mid] = m
			n++
		}
	}
	return n, nil
}

func (r memConversations) ResetUnread(ctx context.Context, id, userID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Conversations.ResetUnread"); err != nil {
		return err
	}
	for pid, p := range s.data.participants {
		if p.ConversationID == id && p.UserID == userID {
			p.UnreadCount = 0
			s.data.participants[pid] = p
		}
	}
	return nil
}

func (r memConversations) Messages(ctx context.Context, id uint, limit, offset int) ([]models.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messagesLocked(id)
	if offset >= len(all) {
		return []models.Message{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memConversations) ListForUser(ctx context.Context, userID uint) ([]models.ConversationSummary, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ConversationSummary{}
	for _, me := range s.data.participants {
		if me.UserID != userID {
			continue
		}
		c := s.data.conversations[me.ConversationID]
		p := s.data.products[c.ProductID]
		sum := models.ConversationSummary{
			ID:            c.ID,
			ProductID:     c.ProductID,
			ProductTitle:  p.Title,
			ProductImage:  p.ImageURL,
			LastMessageAt: c.LastMessageAt,
			UnreadCount:   me.UnreadCount,
		}
		for _, other := range s.data.participants {
			if other.ConversationID == c.ID && other.UserID != userID {
				sum.OtherUserID = other.UserID
				sum.OtherUsername = s.data.users[other.UserID].Username
			}
		}
		if msgs := s.messagesLocked(c.ID); len(msgs) > 0 {
			sum.LastMessage = msgs[len(msgs)-1].Text
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (r memConversations) UnreadTotal(ctx context.Context, userID uint) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.data.participants {
		if p.UserID == userID {
			n += p.UnreadCount
		}
	}
	return n, nil
}

func (r memConversations) Delete(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.conversations[id]; !ok {
		return notFound("Conversations.Delete")
	}
	for mid, m := range s.data.messages {
		if m.ConversationID == id {
			delete(s.data.messages, mid)
		}
	}
	for pid, p := range s.data.participants {
		if p.ConversationID == id {
			delete(s.data.participants, pid)
		}
	}
	delete(s.data.conversations, id)
	return nil
}

// ---- reviews ----

type memReviews struct{ s *MemStore }

func (r memReviews) Create(ctx context.Context, rv *models.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Reviews.Create"); err != nil {
		return err
	}
	if rv.ProductID != nil {
		for _, existing := range s.data.reviews {
			if existing.ReviewerID == rv.ReviewerID && existing.ProductID != nil && *existing.ProductID == *rv.ProductID {
				return fmt.Errorf("Reviews.Create: %w", repository.ErrDuplicate)
			}
		}
	}
	rv.ID = s.data.next("reviews")
	rv.CreatedAt = s.now()
	rv.UpdatedAt = rv.CreatedAt
	s.data.reviews[rv.ID] = *rv
	return nil
}

func (r memReviews) GetByID(ctx context.Context, id uint) (*models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.data.reviews[id]
	if !ok {
		return nil, notFound("Reviews.GetByID")
	}
	return &rv, nil
}

func (r memReviews) Update(ctx context.Context, rv *models.Review) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Reviews.Update"); err != nil {
		return err
	}
	cur, ok := s.data.reviews[rv.ID]
	if !ok {
		return notFound("Reviews.Update")
	}
	cur.Rating = rv.Rating
	cur.Comment = rv.Comment
	cur.UpdatedAt = s.now()
	s.data.reviews[rv.ID] = cur
	return nil
}

func (r memReviews) Delete(ctx context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Reviews.Delete"); err != nil {
		return err
	}
	if _, ok := s.data.reviews[id]; !ok {
		return notFound("Reviews.Delete")
	}
	delete(s.data.reviews, id)
	return nil
}

func (r memReviews) Exists(ctx context.Context, reviewerID, productID uint) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.data.reviews {
		if rv.ReviewerID == reviewerID && rv.ProductID != nil && *rv.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r memReviews) sorted(keep func(models.Review) bool) []models.Review {
	s := r.s
	out := []models.Review{}
	for _, rv := range s.data.reviews {
		if keep(rv) {
			rv.ReviewerName = s.data.users[rv.ReviewerID].Username
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memReviews) ListBySeller(ctx context.Context, sellerID uint, page, limit int) (models.Page[models.Review], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.sorted(func(rv models.Review) bool { return rv.SellerID == sellerID })
	return models.Page[models.Review]{Items: paginate(all, page, limit), Total: int64(len(all)), Page: page, Limit: limit}, nil
}

func (r memReviews) ListByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(rv models.Review) bool { return rv.ProductID != nil && *rv.ProductID == productID }), nil
}

func (r memReviews) SellerRatingCounts(ctx context.Context, sellerID uint) (map[int]int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[int]int{}
	for _, rv := range s.data.reviews {
		if rv.SellerID == sellerID {
			counts[rv.Rating]++
		}
	}
	return counts, nil
}

func (r memReviews) RecomputeSellerRating(ctx context.Context, sellerID uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("Reviews.RecomputeSellerRating"); err != nil {
		return err
	}
	sum, n := 0, 0
	for _, rv := range s.data.reviews {
		if rv.SellerID == sellerID {
			sum += rv.Rating
			n++
		}
	}
	avg := decimal.Zero
	if n > 0 {
		avg = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	if u, ok := s.data.users[sellerID]; ok {
		u.Rating = avg
		s.data.users[sellerID] = u
	}
	return nil
}

// ---- reports ----

type memReports struct{ s *MemStore }

func (r memReports) Create(ctx context.Context, rp *models.Report) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data.reports {
		if existing.ReporterID == rp.ReporterID && existing.Type == rp.Type && existing.ItemID == rp.ItemID {
			return fmt.Errorf("Reports.Create: %w", repository.ErrDuplicate)
		}
	}
	rp.ID = s.data.next("reports")
	rp.CreatedAt = s.now()
	rp.UpdatedAt = rp.CreatedAt
	s.data.reports[rp.ID] = *rp
	return nil
}

func (r memReports) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rp, ok := r.s.data.reports[id]
	if !ok {
		return nil, notFound("Reports.GetByID")
	}
	return &rp, nil
}

func (r memReports) List(ctx context.Context, status models.ReportStatus, page, limit int) (models.Page[models.Report], error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.Report
	for _, rp := range s.data.reports {
		if status == "" || rp.Status == status {
			all = append(all, rp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return models.Page[models.Report]{Items: paginate(all, page, limit), Total: int64(len(all)), Page: page, Limit: limit}, nil
}

func (r memReports) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus, note string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.data.reports[id]
	if !ok {
		return notFound("Reports.UpdateStatus")
	}
	rp.Status = status
	rp.AdminNote = note
	rp.UpdatedAt = s.now()
	s.data.reports[id] = rp
	return nil
}

// ---- settings and categories ----

type memSettings struct{ s *MemStore }

func (r memSettings) Get(ctx context.Context) (*models.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("Settings.Get"); err != nil {
		return nil, err
	}
	if r.s.data.setting == nil {
		return nil, notFound("Settings.Get")
	}
	st := *r.s.data.setting
	return &st, nil
}

func (r memSettings) Save(ctx context.Context, st *models.Setting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *st
	r.s.data.setting = &cp
	return nil
}

type memCategories struct{ s *MemStore }

func (r memCategories) List(ctx context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.s.data.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCategories) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.categories {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// ---- stats ----

type memStats struct{ s *MemStore }

func (r memStats) OrderStats(ctx context.Context) (models.OrderStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.OrderStats{Revenue: decimal.Zero, FeesCollected: decimal.Zero}
	for _, o := range s.data.orders {
		st.TotalOrders++
		switch o.Status {
		case models.OrderPending:
			st.PendingOrders++
		case models.OrderCompleted:
			st.CompletedOrders++
			st.Revenue = st.Revenue.Add(o.Total)
			st.FeesCollected = st.FeesCollected.Add(o.ServiceFee)
		case models.OrderCancelled:
			st.CancelledOrders++
		}
	}
	return st, nil
}

func (r memStats) MonthlySales(ctx context.Context, months int) ([]models.MonthlySales, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := time.Date(s.clock.Year(), s.clock.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := cur.AddDate(0, -(months - 1), 0)
	byMonth := map[string]*models.MonthlySales{}
	for _, o := range s.data.orders {
		if o.Status != models.OrderCompleted || o.CreatedAt.Before(from) {
			continue
		}
		key := o.CreatedAt.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &models.MonthlySales{Month: key, Sales: decimal.Zero}
			byMonth[key] = m
		}
		m.Orders++
		m.Sales = m.Sales.Add(o.Total)
	}
	out := []models.MonthlySales{}
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
