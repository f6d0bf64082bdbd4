package server

import (
	"github.com/jackc/pgx/v5/pgxpool"

	accountsmemory "github.com/dejobratic/shopkart/internal/accounts/adapters/memory"
	accountspostgres "github.com/dejobratic/shopkart/internal/accounts/adapters/postgres"
	accountsports "github.com/dejobratic/shopkart/internal/accounts/ports"
	addressmemory "github.com/dejobratic/shopkart/internal/addresses/adapters/memory"
	addresspostgres "github.com/dejobratic/shopkart/internal/addresses/adapters/postgres"
	addressports "github.com/dejobratic/shopkart/internal/addresses/ports"
	cartmemory "github.com/dejobratic/shopkart/internal/cart/adapters/memory"
	cartpostgres "github.com/dejobratic/shopkart/internal/cart/adapters/postgres"
	cartports "github.com/dejobratic/shopkart/internal/cart/ports"
	catalogmemory "github.com/dejobratic/shopkart/internal/catalog/adapters/memory"
	catalogpostgres "github.com/dejobratic/shopkart/internal/catalog/adapters/postgres"
	catalogports "github.com/dejobratic/shopkart/internal/catalog/ports"
	"github.com/dejobratic/shopkart/internal/database"
	idempotencymemory "github.com/dejobratic/shopkart/internal/idempotency/memory"
	idempotencypostgres "github.com/dejobratic/shopkart/internal/idempotency/postgres"
	ordersadapters "github.com/dejobratic/shopkart/internal/orders/adapters"
	ordersmemory "github.com/dejobratic/shopkart/internal/orders/adapters/memory"
	orderspostgres "github.com/dejobratic/shopkart/internal/orders/adapters/postgres"
	ordersports "github.com/dejobratic/shopkart/internal/orders/ports"
)

// Storage is one backend for every bounded context.
type Storage struct {
	Catalog     catalogports.CatalogRepository
	Carts       cartports.CartRepository
	Favourites  cartports.FavouriteRepository
	BuyNow      cartports.BuyNowRepository
	Addresses   addressports.AddressRepository
	Users       accountsports.UserRepository
	Orders      ordersports.OrderRepository
	UnitOfWork  ordersports.UnitOfWork
	Idempotency ordersports.IdempotencyStore
}

// MemoryStorage keeps the concrete repositories around for seeding.
type MemoryStorage struct {
	Storage
	CatalogRepo *catalogmemory.Repository
	CartRepo    *cartmemory.Repository
	AddressRepo *addressmemory.Repository
	UserRepo    *accountsmemory.Repository
	OrderRepo   *ordersmemory.Repository
}

// NewMemoryStorage builds a process-local backend. Deleting an address detaches it from orders,
// as the foreign key does in Postgres.
func NewMemoryStorage() *MemoryStorage {
	catalog := catalogmemory.NewRepository()
	carts := cartmemory.NewRepository()
	addresses := addressmemory.NewRepository()
	users := accountsmemory.NewRepository()
	orders := ordersmemory.NewRepository()

	addresses.OnDelete(orders.ClearAddress)

	return &MemoryStorage{
		Storage: Storage{
			Catalog:     catalog,
			Carts:       carts,
			Favourites:  carts,
			BuyNow:      carts,
			Addresses:   addresses,
			Users:       users,
			Orders:      orders,
			UnitOfWork:  ordersmemory.NewUnitOfWork(orders, catalog, carts, addresses),
			Idempotency: idempotencymemory.NewStore(),
		},
		CatalogRepo: catalog,
		CartRepo:    carts,
		AddressRepo: addresses,
		UserRepo:    users,
		OrderRepo:   orders,
	}
}

// NewPostgresStorage builds the Postgres backend; order access is traced and timed.
func NewPostgresStorage(pool *pgxpool.Pool, dbMetrics *database.Metrics) *Storage {
	carts := cartpostgres.NewRepository(pool)

	return &Storage{
		Catalog:     catalogpostgres.NewRepository(pool),
		Carts:       carts,
		Favourites:  carts,
		BuyNow:      carts,
		Addresses:   addresspostgres.NewRepository(pool),
		Users:       accountspostgres.NewRepository(pool),
		Orders:      ordersadapters.NewObservableRepository(orderspostgres.NewRepository(pool), dbMetrics),
		UnitOfWork:  ordersadapters.NewObservableUnitOfWork(orderspostgres.NewUnitOfWork(pool), dbMetrics),
		Idempotency: idempotencypostgres.NewStore(pool),
	}
}
