package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func featuredIDs(items []models.Product) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestCatalogService_FeaturedProducts_ReadThrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lamp := env.createProduct(t, "lamp", 1500, true)
	env.createProduct(t, "chair", 4000, false)

	items, err := env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lamp.ID}, featuredIDs(items))
	assert.True(t, env.Redis.Exists(FeaturedCacheKey))

	// Served from cache even though the database changed behind it.
	require.NoError(t, env.DB.Model(&models.Product{}).Where("id = ?", lamp.ID).Update("is_featured", false).Error)
	items, err = env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCatalogService_ToggleFeatured_RefreshesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chair := env.createProduct(t, "chair", 4000, false)

	items, err := env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	toggled, err := env.Catalog.ToggleFeatured(ctx, chair.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsFeatured)

	items, err = env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{chair.ID}, featuredIDs(items))

	toggled, err = env.Catalog.ToggleFeatured(ctx, chair.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsFeatured)

	items, err = env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.Catalog.ToggleFeatured(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, env.Events.ofType("product_featured_toggled"), 2)
}

func TestCatalogService_FeaturedProducts_CacheDownFallsBackToDB(t *testing.T) {
	env := newTestEnv(t)
	lamp := env.createProduct(t, "lamp", 1500, true)

	env.Redis.SetError("cache down")
	items, err := env.Catalog.FeaturedProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lamp.ID}, featuredIDs(items))
}

func TestCatalogService_CreateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Catalog.CreateProduct(ctx, CreateProductInput{Name: "lamp", Category: "home", Price: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.Catalog.CreateProduct(ctx, CreateProductInput{Name: " ", Category: "home", Price: 1})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := env.Catalog.CreateProduct(ctx, CreateProductInput{
		Name:        "lamp",
		Description: "warm light",
		Price:       1500,
		Image:       "https://img.example/lamp.png",
		Category:    "home",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.IsFeatured)

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/lamp.png", got.Image)

	assert.Contains(t, env.Index.indexed, p.ID)
	created := env.Events.ofType("product_created")
	require.Len(t, created, 1)
	assert.Equal(t, "product_events", created[0].Topic)
	assert.Equal(t, p.ID.String(), created[0].Event["productID"])
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lamp := env.createProduct(t, "lamp", 1500, true)
	u := env.createUser(t, "a@x.com", models.RoleCustomer)

	_, err := env.Cart.AddToCart(ctx, u.ID, lamp.ID, 1)
	require.NoError(t, err)
	_, err = env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)

	require.NoError(t, env.Catalog.DeleteProduct(ctx, lamp.ID))

	_, err = env.Catalog.GetProduct(ctx, lamp.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := env.Catalog.FeaturedProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	lines, err := env.Cart.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.Equal(t, []uuid.UUID{lamp.ID}, env.Index.deleted)
	assert.ErrorIs(t, env.Catalog.DeleteProduct(ctx, lamp.ID), ErrNotFound)
}

func TestCatalogService_ListingQueries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		env.createProduct(t, n, 100, false)
	}
	require.NoError(t, env.DB.Create(&models.Product{Name: "sofa", Description: "grey", Price: 50000, Category: "furniture"}).Error)

	all, err := env.Catalog.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	rec, err := env.Catalog.Recommendations(ctx)
	require.NoError(t, err)
	assert.Len(t, rec, RecommendationsCount)
	for _, p := range rec {
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.NotEmpty(t, p.Name)
	}

	furniture, err := env.Catalog.ProductsByCategory(ctx, "furniture")
	require.NoError(t, err)
	require.Len(t, furniture, 1)
	assert.Equal(t, "sofa", furniture[0].Name)

	_, err = env.Catalog.ProductsByCategory(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalogService_SearchProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createProduct(t, "Desk Lamp", 1500, false)
	env.createProduct(t, "Chair", 4000, false)

	_, _, err := env.Catalog.SearchProducts(ctx, "  ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	env.Index.hits = []models.Product{{ID: uuid.New(), Name: "from index"}}
	total, items, err := env.Catalog.SearchProducts(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "from index", items[0].Name)

	env.Index.failing = true
	total, items, err = env.Catalog.SearchProducts(ctx, "lamp", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Desk Lamp", items[0].Name)

	env.Catalog.Search = nil
	total, _, err = env.Catalog.SearchProducts(ctx, "description", 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	total, items, err = env.Catalog.SearchProducts(ctx, "100%", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}
