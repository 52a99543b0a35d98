package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
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

var reportDay = time.Date(2026, 10, 15, 18, 30, 0, 0, time.Local)

type fixture struct {
	dir         string
	agg         *Aggregator
	productLog  *auditlog.Log[model.Product]
	customerLog *auditlog.Log[model.Customer]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := testLogger()

	products := repository.NewProductStore(filepath.Join(dir, "product.dat"), logger)
	customers := repository.NewCustomerStore(filepath.Join(dir, "customer.dat"), logger)
	sales := repository.NewSaleRepository(filepath.Join(dir, "sale.dat"), filepath.Join(dir, "sale_detail.dat"), logger)

	pidx, err := products.Load()
	require.NoError(t, err)
	for _, p := range []model.Product{
		{ID: "P001", Name: "Glock 17", SalePrice: 10, Amount: 4, Category: "Pistol", Status: model.ProductActive},
		{ID: "P002", Name: "M870", SalePrice: 5, Amount: 0, Category: "Shotgun", Status: model.ProductOutOfStock},
		{ID: "P003", Name: "USP", SalePrice: 12, Amount: 6, Category: "Pistol", Status: model.ProductActive},
		{ID: "P004", Name: "Mosin", SalePrice: 7, Amount: 1, Category: "Rifle", Status: model.ProductDiscontinued},
	} {
		require.NoError(t, products.Add(pidx, p))
	}

	cidx, err := customers.Load()
	require.NoError(t, err)
	require.NoError(t, customers.Add(cidx, model.Customer{ID: "C001", Name: "Somchai", Status: model.CustomerActive}))
	require.NoError(t, customers.Add(cidx, model.Customer{ID: "C002", Name: "Malee", Status: model.CustomerActive}))

	require.NoError(t, sales.AppendDetails([]model.SaleDetail{
		{SaleID: "s001", ProductID: "P001", Amount: 3, SalePrice: 30, Discount: 2},
		{SaleID: "s001", ProductID: "P002", Amount: 2, SalePrice: 10},
		{SaleID: "s002", ProductID: "P003", Amount: 1, SalePrice: 12},
		{SaleID: "s003", ProductID: "P001", Amount: 1, SalePrice: 10},
		{SaleID: "s004", ProductID: "P003", Amount: 5, SalePrice: 60},
		{SaleID: "s005", ProductID: "P001", Amount: 2, SalePrice: 20},
	}))
	for _, s := range []model.Sale{
		{ID: "s001", CustomerID: "C001", Date: "2026-10-15", NetPrice: 40, TotalDiscount: 2},
		{ID: "s002", CustomerID: "C002", Date: "15/10/2569", NetPrice: 12},
		{ID: "s003", CustomerID: "C001", Date: "2026-10-15", NetPrice: 10, Status: model.SaleCancelled},
		{ID: "s004", CustomerID: "C001", Date: "2026-10-14", NetPrice: 60},
		{ID: "s005", CustomerID: "C404", Date: "garbage", NetPrice: 20},
	} {
		require.NoError(t, sales.AppendSale(s))
	}

	f := &fixture{dir: dir}
	clock := func() time.Time { return reportDay }
	f.productLog = auditlog.NewProductLog(filepath.Join(dir, "product_change.bin"), "admin", logger,
		auditlog.WithClock[model.Product](clock))
	f.customerLog = auditlog.NewCustomerLog(filepath.Join(dir, "customer_change.bin"), "admin", logger,
		auditlog.WithClock[model.Customer](clock))

	f.agg = NewAggregator(products, customers, sales, f.productLog, f.customerLog, logger)
	f.agg.SetClock(clock)
	return f
}

// TestBuild_ProductSummary проверяет сводку по товарам.
func TestBuild_ProductSummary(t *testing.T) {
	f := newFixture(t)

	r, err := f.agg.Build(context.Background(), Options{})
	require.NoError(t, err)

	assert.Len(t, r.Products, 4)
	assert.Equal(t, 2, r.StatusCounts[model.ProductActive])
	assert.Equal(t, 1, r.StatusCounts[model.ProductOutOfStock])
	assert.Equal(t, 1, r.StatusCounts[model.ProductDiscontinued])
	assert.Equal(t, []CategoryTotal{
		{Category: "Pistol", Amount: 10},
		{Category: "Shotgun", Amount: 0},
		{Category: "Rifle", Amount: 1},
	}, r.Categories)
	assert.Equal(t, []string{"M870"}, r.OutOfStock)
}

// TestBuild_SalesOfTheDay проверяет отбор продаж за дату и итоги.
func TestBuild_SalesOfTheDay(t *testing.T) {
	f := newFixture(t)

	r, err := f.agg.Build(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, r.Sales, 2, "s001 и s002 (дата буддийской эры); отменённая s003 исключена")
	assert.Equal(t, "s001", r.Sales[0].Sale.ID)
	assert.Equal(t, "Somchai", r.Sales[0].CustomerName)
	assert.Len(t, r.Sales[0].Lines, 2)
	assert.Equal(t, "Glock 17", r.Sales[0].Lines[0].ProductName)
	assert.Equal(t, "s002", r.Sales[1].Sale.ID)

	s := r.Summary
	assert.Equal(t, 2, s.Bills)
	assert.Equal(t, "52.00", s.Total.StringFixed(2))
	assert.Equal(t, "26.00", s.Average.StringFixed(2))
	assert.Equal(t, "2.00", s.TotalDiscount.StringFixed(2))
	require.NotNil(t, s.Max)
	require.NotNil(t, s.Min)
	assert.Equal(t, "s001", s.Max.Sale.ID)
	assert.Equal(t, "s002", s.Min.Sale.ID)
	assert.Equal(t, 1, s.WithDiscount)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 1, s.SkippedDates)

	assert.Equal(t, []ProductUnits{
		{ProductID: "P001", Name: "Glock 17", Units: 3},
		{ProductID: "P002", Name: "M870", Units: 2},
		{ProductID: "P003", Name: "USP", Units: 1},
	}, r.UnitsSold)
}

// TestBuild_IncludeCancelled проверяет вывод отменённых продаж без учёта в итогах.
func TestBuild_IncludeCancelled(t *testing.T) {
	f := newFixture(t)

	r, err := f.agg.Build(context.Background(), Options{IncludeCancelled: true})
	require.NoError(t, err)

	assert.Len(t, r.Sales, 3)
	assert.Equal(t, 2, r.Summary.Bills)
	assert.Equal(t, "52.00", r.Summary.Total.StringFixed(2))
}

// TestBuild_OtherDate проверяет отчёт за заданную дату.
func TestBuild_OtherDate(t *testing.T) {
	f := newFixture(t)

	r, err := f.agg.Build(context.Background(), Options{Date: time.Date(2026, 10, 14, 0, 0, 0, 0, time.Local)})
	require.NoError(t, err)

	require.Len(t, r.Sales, 1)
	assert.Equal(t, "s004", r.Sales[0].Sale.ID)
	assert.Equal(t, "60.00", r.Summary.Total.StringFixed(2))
	assert.Equal(t, r.Summary.Max, r.Summary.Min)
}

// TestBuild_LogSummaries проверяет подсчёт журналов за день.
func TestBuild_LogSummaries(t *testing.T) {
	f := newFixture(t)

	for _, e := range []struct {
		op   model.ChangeOp
		user string
	}{
		{model.OpAdd, "admin"},
		{model.OpUpdate, "cashier"},
		{model.OpUpdate, "cashier"},
		{model.OpView, "admin"},
	} {
		_, err := f.productLog.Append(e.op, model.Product{ID: "P001", Status: model.ProductActive}, e.user)
		require.NoError(t, err)
	}
	_, err := f.customerLog.Append(model.OpDelete, model.Customer{ID: "C009", Status: model.CustomerRemoved}, "")
	require.NoError(t, err)

	r, err := f.agg.Build(context.Background(), Options{})
	require.NoError(t, err)

	pc := r.ProductChanges
	assert.Equal(t, 4, pc.Entries)
	assert.Equal(t, 1, pc.ByOp[model.OpAdd])
	assert.Equal(t, 2, pc.ByOp[model.OpUpdate])
	assert.Equal(t, 1, pc.ByOp[model.OpView])
	assert.Equal(t, []UserCount{{User: "admin", Count: 2}, {User: "cashier", Count: 2}}, pc.ByUser)

	assert.Equal(t, 1, r.CustomerChanges.Entries)
	assert.Equal(t, 1, r.CustomerChanges.ByOp[model.OpDelete])

	// Дата отчёта выбирает продажи, журналы считаются за сегодня
	r, err = f.agg.Build(context.Background(), Options{Date: reportDay.AddDate(0, 0, -1)})
	require.NoError(t, err)
	assert.Equal(t, 4, r.ProductChanges.Entries)
	assert.Equal(t, 1, r.CustomerChanges.Entries)

	// Назавтра сегодняшние записи в сводку не попадают, даже в отчёте за сегодня
	f.agg.SetClock(func() time.Time { return reportDay.AddDate(0, 0, 1) })
	r, err = f.agg.Build(context.Background(), Options{Date: reportDay})
	require.NoError(t, err)
	assert.Equal(t, 0, r.ProductChanges.Entries)
	assert.Equal(t, 0, r.CustomerChanges.Entries)
}

// TestSummarizeLog_SkipsBadTimestamps проверяет пропуск нечитаемых отметок времени.
func TestSummarizeLog_SkipsBadTimestamps(t *testing.T) {
	entries := []model.ProductChange{
		{Timestamp: "2026-10-15_09:00:00", Op: model.OpAdd, User: "admin"},
		{Timestamp: "not a time", Op: model.OpUpdate, User: "admin"},
		{Timestamp: "2026-10-15 10:00:00", Op: model.OpUpdate, User: "admin"},
	}

	s := summarizeLog(entries, reportDay)
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, 1, s.Skipped)
}

// TestWrite проверяет запись текстового отчёта.
func TestWrite(t *testing.T) {
	f := newFixture(t)

	r, err := f.agg.Build(context.Background(), Options{})
	require.NoError(t, err)

	path := filepath.Join(f.dir, "Generate_report.txt")
	require.NoError(t, Write(path, r))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	for _, want := range []string{
		"Retail Shop System",
		"Report Date  : 15-10-2026",
		"=== Sales of the Day ===",
		"| s001",
		"- Total net sales: 52.00",
		"- Highest bill: s001 (Somchai) : 40.00",
		"- Lowest bill: s002 (Malee) : 12.00",
		"- Average per bill: 26.00",
		"- Out of Stock: 1",
		"- M870",
	} {
		assert.True(t, strings.Contains(text, want), "в отчёте нет %q", want)
	}
}

// TestBuild_EmptyFiles проверяет отчёт без данных.
func TestBuild_EmptyFiles(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	agg := NewAggregator(
		repository.NewProductStore(filepath.Join(dir, "product.dat"), logger),
		repository.NewCustomerStore(filepath.Join(dir, "customer.dat"), logger),
		repository.NewSaleRepository(filepath.Join(dir, "sale.dat"), filepath.Join(dir, "sale_detail.dat"), logger),
		auditlog.NewProductLog(filepath.Join(dir, "product_change.bin"), "admin", logger),
		auditlog.NewCustomerLog(filepath.Join(dir, "customer_change.bin"), "admin", logger),
		logger,
	)

	r, err := agg.Build(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Summary.Bills)
	assert.Nil(t, r.Summary.Max)
	assert.True(t, r.Summary.Average.IsZero())
	assert.Contains(t, Render(r), "No sales for this date")
}
