package service

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/repository"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/auditlog"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// testEnv — сервисы поверх файлов во временной директории.
type testEnv struct {
	dir       string
	products  *repository.ProductStore
	customers *repository.CustomerStore
	salesRepo *repository.SaleRepository
	catalog   *CatalogService
	sales     *SaleService
}

var testDay = time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()

	env := &testEnv{
		dir:       dir,
		products:  repository.NewProductStore(filepath.Join(dir, "product.dat"), logger),
		customers: repository.NewCustomerStore(filepath.Join(dir, "customer.dat"), logger),
		salesRepo: repository.NewSaleRepository(filepath.Join(dir, "sale.dat"), filepath.Join(dir, "sale_detail.dat"), logger),
	}

	clock := func() time.Time { return testDay }
	productLog := auditlog.NewProductLog(filepath.Join(dir, "product_change.bin"), "admin", logger,
		auditlog.WithClock[model.Product](clock))
	customerLog := auditlog.NewCustomerLog(filepath.Join(dir, "customer_change.bin"), "admin", logger,
		auditlog.WithClock[model.Customer](clock))

	env.catalog = NewCatalogService(env.products, env.customers, productLog, customerLog, "cashier", logger)
	env.sales = NewSaleService(env.products, env.customers, env.salesRepo, logger)
	env.sales.SetClock(clock)

	return env
}

// seedCatalog заполняет каталог тестовыми товарами и покупателями.
func (e *testEnv) seedCatalog(t *testing.T) {
	t.Helper()

	products := []model.Product{
		{ID: "P001", Name: "Glock 17", Cost: 6, SalePrice: 10, Amount: 5, Category: "Pistol", Status: model.ProductActive},
		{ID: "P002", Name: "M870", Cost: 3, SalePrice: 5, Amount: 10, Category: "Shotgun", Status: model.ProductActive},
		{ID: "P003", Name: "Old rifle", Cost: 1, SalePrice: 2, Amount: 3, Category: "Rifle", Status: model.ProductDiscontinued},
		{ID: "P004", Name: "MP5", Cost: 20, SalePrice: 25, Amount: 2, Category: "SMG", Status: model.ProductActive},
	}
	for _, p := range products {
		_, err := e.catalog.AddProduct(p)
		require.NoError(t, err)
	}

	customers := []model.Customer{
		{ID: "C001", Name: "Somchai", Telephone: "0812345678", Status: model.CustomerActive},
		{ID: "C002", Name: "Malee", Telephone: "0899999999", Status: model.CustomerBlocked},
	}
	for _, c := range customers {
		_, err := e.catalog.AddCustomer(c)
		require.NoError(t, err)
	}
}

func (e *testEnv) product(t *testing.T, id string) model.Product {
	t.Helper()
	p, err := e.catalog.GetProduct(id)
	require.NoError(t, err)
	return p
}

// stock возвращает остатки всех товаров.
func (e *testEnv) stock(t *testing.T) map[string]int32 {
	t.Helper()
	products, err := e.catalog.ListProducts()
	require.NoError(t, err)
	out := make(map[string]int32, len(products))
	for _, p := range products {
		out[p.ID] = p.Amount
	}
	return out
}

func ptr[T any](v T) *T { return &v }
