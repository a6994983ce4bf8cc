package service

import (
	"context"
	"errors"
	"testing"

	"campus_marketplace/internal/settings"
	"campus_marketplace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddCategory(models.Category{Name: "Textbooks", Slug: "textbooks"})
	seller := f.store.AddUser(models.User{})

	p, err := f.products.Create(ctx, seller.ID, ProductInput{
		Title:     " Calculus, 8th edition ",
		Price:     money("42.499"),
		Category:  "textbooks",
		Condition: "good",
	})
	require.NoError(t, err)
	assert.Equal(t, "Calculus, 8th edition", p.Title)
	assertMoney(t, "42.50", p.Price)
	assert.Equal(t, models.ProductActive, p.Status)

	tests := []struct {
		name string
		in   ProductInput
		want error
	}{
		{"no title", ProductInput{Price: money("1.00")}, ErrInvalidProduct},
		{"zero price", ProductInput{Title: "Lamp"}, ErrInvalidProduct},
		{"unknown category", ProductInput{Title: "Lamp", Price: money("1.00"), Category: "lamps"}, ErrUnknownCategory},
		{"bad condition", ProductInput{Title: "Lamp", Price: money("1.00"), Condition: "broken"}, ErrInvalidCondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.products.Create(ctx, seller.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateProductNeedsApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	approval := true
	_, err := f.settings.Update(ctx, settings.Patch{RequireListingApproval: &approval})
	require.NoError(t, err)
	seller := f.store.AddUser(models.User{})

	p, err := f.products.Create(ctx, seller.ID, ProductInput{Title: "Desk", Price: money("30.00")})
	require.NoError(t, err)
	assert.Equal(t, models.ProductPending, p.Status)

	approved, err := f.products.Review(ctx, p.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, models.ProductActive, approved.Status)

	_, err = f.products.Review(ctx, p.ID, "ignore")
	assert.ErrorIs(t, err, ErrInvalidDecision)
	_, err = f.products.Review(ctx, 999, "suspend")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.store.AddUser(models.User{FullName: "Sam Seller"})
	p := f.store.AddProduct(models.Product{SellerID: seller.ID, Price: money("10.00"), Category: "furniture"})
	f.store.AddProduct(models.Product{SellerID: seller.ID, Price: money("12.00"), Category: "furniture"})

	detail, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Seller)
	assert.Equal(t, "Sam Seller", detail.Seller.FullName)
	assert.Len(t, detail.Related, 1)
	assert.Equal(t, 1, f.store.Product(p.ID).Views)

	_, err = f.products.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductDegradesWhenLookupsFail(t *testing.T) {
	f := newFixture(t)
	_, p := f.listed("10.00")
	f.store.FailOn("Products.ListRelated", errors.New("slow query"))
	f.store.FailOn("Products.IncrementViews", errors.New("slow query"))

	detail, err := f.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.Related)
	assert.Empty(t, detail.Related)
}

func TestListProductsDefaultsToActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.listed("10.00")
	seller, _ := f.listed("20.00")
	f.store.AddProduct(models.Product{SellerID: seller.ID, Price: money("5.00"), Status: models.ProductSold})

	page, err := f.products.List(ctx, Actor{}, models.ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)

	sold, err := f.products.List(ctx, Actor{}, models.ProductFilter{Status: models.ProductSold})
	require.NoError(t, err)
	assert.EqualValues(t, 1, sold.Total)
}

func TestListModeratedProductsIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.store.AddUser(models.User{})
	admin := f.store.AddUser(models.User{Role: models.RoleAdmin})
	for _, st := range []models.ProductStatus{models.ProductPending, models.ProductRejected, models.ProductSuspended} {
		f.store.AddProduct(models.Product{SellerID: seller.ID, Price: money("5.00"), Status: st})
	}

	for _, st := range []models.ProductStatus{models.ProductPending, models.ProductRejected, models.ProductSuspended} {
		_, err := f.products.List(ctx, Actor{}, models.ProductFilter{Status: st})
		assert.ErrorIs(t, err, ErrModeratedListing, st)
		_, err = f.products.List(ctx, actor(seller), models.ProductFilter{Status: st})
		assert.ErrorIs(t, err, ErrModeratedListing, st)

		page, err := f.products.List(ctx, actor(admin), models.ProductFilter{Status: st})
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Total, st)
	}

	_, err := f.products.List(ctx, actor(admin), models.ProductFilter{Status: "archived"})
	assert.ErrorIs(t, err, ErrInvalidProductStatus)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, p := f.listed("10.00")
	buyer := f.store.AddUser(models.User{})
	stranger := f.store.AddUser(models.User{})
	_, err := f.carts.AddItem(ctx, buyer.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.products.Update(ctx, actor(stranger), p.ID, ProductInput{Title: "Mine now", Price: money("1.00")})
	assert.ErrorIs(t, err, ErrNotProductOwner)

	updated, err := f.products.Update(ctx, actor(seller), p.ID, ProductInput{Title: "Desk lamp", Price: money("8.00")})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", f.store.Product(p.ID).Title)
	assertMoney(t, "8.00", updated.Price)

	assert.ErrorIs(t, f.products.Delete(ctx, actor(stranger), p.ID), ErrNotProductOwner)
	require.NoError(t, f.products.Delete(ctx, actor(seller), p.ID))
	assert.Empty(t, f.store.CartItems(buyer.ID))
	assert.ErrorIs(t, f.products.Delete(ctx, actor(seller), p.ID), ErrProductNotFound)
}
