// Пакет report — агрегатор отчётов по файлам магазина.
//
// Только чтение. Шесть файлов (товары, покупатели, продажи, позиции и
// два журнала) сканируются параллельно, каждый за один проход; все
// итоги пересчитываются с нуля при каждом запуске. Денежные суммы
// складываются в десятичной арифметике.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/repository"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/auditlog"
)

// Options — параметры отчёта.
type Options struct {
	// Date — дата отчёта; нулевое значение — текущая дата
	Date time.Time
	// IncludeCancelled — включать отменённые продажи в список и итоги
	IncludeCancelled bool
}

// CategoryTotal — суммарный остаток по категории.
type CategoryTotal struct {
	Category string
	Amount   int64
}

// UserCount — число записей журнала от пользователя.
type UserCount struct {
	User  string
	Count int
}

// LogSummary — сводка журнала за дату отчёта.
type LogSummary struct {
	Entries int
	ByOp    map[model.ChangeOp]int
	ByUser  []UserCount // в порядке первого появления
	Skipped int         // записи с нечитаемой отметкой времени
}

// SaleRow — продажа за дату отчёта с именем покупателя и позициями.
type SaleRow struct {
	Sale         model.Sale
	SaleDate     time.Time
	CustomerName string
	Lines        []LineRow
}

// LineRow — позиция продажи с названием товара.
type LineRow struct {
	Detail      model.SaleDetail
	ProductName string
}

// ProductUnits — продано единиц товара за дату отчёта.
type ProductUnits struct {
	ProductID string
	Name      string
	Units     int64
}

// SalesSummary — итоги продаж за дату отчёта.
type SalesSummary struct {
	Bills         int
	Total         decimal.Decimal
	TotalDiscount decimal.Decimal
	Average       decimal.Decimal
	Max           *SaleRow
	Min           *SaleRow
	WithDiscount  int // чеки с ненулевой скидкой
	Cancelled     int // отменённые чеки за дату (в итоги не входят)
	SkippedDates  int // продажи с нечитаемой датой
}

// Report — результат агрегации.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Date        time.Time

	Products     []model.Product
	StatusCounts map[model.ProductStatus]int
	Categories   []CategoryTotal
	OutOfStock   []string

	// Сводки журналов всегда за текущий день (GeneratedAt), не за Date
	ProductChanges  LogSummary
	CustomerChanges LogSummary

	Sales     []SaleRow
	Summary   SalesSummary
	UnitsSold []ProductUnits
}

// Aggregator строит отчёты.
type Aggregator struct {
	products    *repository.ProductStore
	customers   *repository.CustomerStore
	sales       *repository.SaleRepository
	productLog  *auditlog.Log[model.Product]
	customerLog *auditlog.Log[model.Customer]
	now         func() time.Time
	logger      *slog.Logger
}

// NewAggregator создаёт агрегатор отчётов.
func NewAggregator(
	products *repository.ProductStore,
	customers *repository.CustomerStore,
	sales *repository.SaleRepository,
	productLog *auditlog.Log[model.Product],
	customerLog *auditlog.Log[model.Customer],
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		products:    products,
		customers:   customers,
		sales:       sales,
		productLog:  productLog,
		customerLog: customerLog,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "report")),
	}
}

// SetClock подменяет источник текущего времени (используется в тестах).
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Build сканирует все файлы и собирает отчёт.
func (a *Aggregator) Build(ctx context.Context, opts Options) (*Report, error) {
	now := a.now()
	date := opts.Date
	if date.IsZero() {
		date = now
	}

	r := &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: now,
		Date:        date,
	}
	log := a.logger.With(slog.String("run_id", r.RunID), slog.String("date", date.Format(model.DateLayout)))

	var (
		productNames  map[string]string
		customerNames map[string]string
		sales         []model.Sale
		details       []model.SaleDetail
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		idx, err := a.products.Load()
		if err != nil {
			return err
		}
		r.Products = idx.All()
		productNames = summarizeProducts(r)
		return ctx.Err()
	})

	g.Go(func() error {
		idx, err := a.customers.Load()
		if err != nil {
			return err
		}
		customers := idx.All()
		customerNames = make(map[string]string, len(customers))
		for _, c := range customers {
			customerNames[c.ID] = c.Name
		}
		return ctx.Err()
	})

	g.Go(func() error {
		var err error
		sales, err = a.sales.Sales()
		if err != nil {
			return err
		}
		return ctx.Err()
	})

	g.Go(func() error {
		var err error
		details, err = a.sales.Details()
		if err != nil {
			return err
		}
		return ctx.Err()
	})

	g.Go(func() error {
		entries, err := a.productLog.Entries()
		if err != nil {
			return err
		}
		r.ProductChanges = summarizeLog(entries, now)
		return ctx.Err()
	})

	g.Go(func() error {
		entries, err := a.customerLog.Entries()
		if err != nil {
			return err
		}
		r.CustomerChanges = summarizeLog(entries, now)
		return ctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ошибка сканирования файлов отчёта: %w", err)
	}

	summarizeSales(r, sales, details, customerNames, productNames, opts.IncludeCancelled)

	a.publishMetrics(r)

	log.Info("Отчёт собран",
		slog.Int("products", len(r.Products)),
		slog.Int("bills", r.Summary.Bills),
		slog.String("total", r.Summary.Total.StringFixed(2)),
	)
	if r.ProductChanges.Skipped+r.CustomerChanges.Skipped+r.Summary.SkippedDates > 0 {
		log.Warn("Записи с нечитаемой датой пропущены",
			slog.Int("product_log", r.ProductChanges.Skipped),
			slog.Int("customer_log", r.CustomerChanges.Skipped),
			slog.Int("sales", r.Summary.SkippedDates),
		)
	}

	return r, nil
}

func (a *Aggregator) publishMetrics(r *Report) {
	for _, st := range []model.ProductStatus{model.ProductActive, model.ProductOutOfStock, model.ProductDiscontinued} {
		metrics.ProductsTotal.WithLabelValues(st.String()).Set(float64(r.StatusCounts[st]))
	}
	total, _ := r.Summary.Total.Float64()
	metrics.SalesNetTotal.Set(total)
}

// summarizeProducts считает статусы, категории и товары без остатка.
// Возвращает справочник id → название.
func summarizeProducts(r *Report) map[string]string {
	names := make(map[string]string, len(r.Products))
	r.StatusCounts = make(map[model.ProductStatus]int, 3)
	catPos := make(map[string]int)

	for _, p := range r.Products {
		names[p.ID] = p.Name
		r.StatusCounts[p.Status]++

		i, ok := catPos[p.Category]
		if !ok {
			i = len(r.Categories)
			catPos[p.Category] = i
			r.Categories = append(r.Categories, CategoryTotal{Category: p.Category})
		}
		r.Categories[i].Amount += int64(p.Amount)

		if p.Status == model.ProductOutOfStock {
			r.OutOfStock = append(r.OutOfStock, p.Name)
		}
	}

	return names
}

// summarizeLog считает записи журнала за день date по операциям и пользователям.
func summarizeLog[T any](entries []model.ChangeEntry[T], date time.Time) LogSummary {
	s := LogSummary{ByOp: make(map[model.ChangeOp]int, len(model.ChangeOps))}
	userPos := make(map[string]int)

	for _, e := range entries {
		ts, err := auditlog.ParseTimestamp(e.Timestamp)
		if err != nil {
			s.Skipped++
			continue
		}
		if !sameDay(ts, date) {
			continue
		}

		s.Entries++
		s.ByOp[e.Op]++

		i, ok := userPos[e.User]
		if !ok {
			i = len(s.ByUser)
			userPos[e.User] = i
			s.ByUser = append(s.ByUser, UserCount{User: e.User})
		}
		s.ByUser[i].Count++
	}

	return s
}

// summarizeSales отбирает продажи за дату отчёта и считает итоги.
func summarizeSales(
	r *Report,
	sales []model.Sale,
	details []model.SaleDetail,
	customerNames, productNames map[string]string,
	includeCancelled bool,
) {
	linesBySale := make(map[string][]model.SaleDetail)
	for _, d := range details {
		linesBySale[d.SaleID] = append(linesBySale[d.SaleID], d)
	}

	unitsPos := make(map[string]int)
	sum := &r.Summary

	for _, sale := range sales {
		saleDate, ok := ParseSaleDate(sale.Date)
		if !ok {
			sum.SkippedDates++
			continue
		}
		if !sameDay(saleDate, r.Date) {
			continue
		}
		if sale.IsCancelled() {
			sum.Cancelled++
			if !includeCancelled {
				continue
			}
		}

		row := SaleRow{
			Sale:         sale,
			SaleDate:     saleDate,
			CustomerName: lookup(customerNames, sale.CustomerID),
		}
		for _, d := range linesBySale[sale.ID] {
			row.Lines = append(row.Lines, LineRow{Detail: d, ProductName: lookup(productNames, d.ProductID)})
		}
		r.Sales = append(r.Sales, row)

		if sale.IsCancelled() {
			continue
		}

		for _, d := range linesBySale[sale.ID] {
			i, ok := unitsPos[d.ProductID]
			if !ok {
				i = len(r.UnitsSold)
				unitsPos[d.ProductID] = i
				r.UnitsSold = append(r.UnitsSold, ProductUnits{ProductID: d.ProductID, Name: lookup(productNames, d.ProductID)})
			}
			r.UnitsSold[i].Units += int64(d.Amount)
		}
	}

	for i := range r.Sales {
		row := &r.Sales[i]
		if row.Sale.IsCancelled() {
			continue
		}
		net := money(row.Sale.NetPrice)
		sum.Bills++
		sum.Total = sum.Total.Add(net)
		sum.TotalDiscount = sum.TotalDiscount.Add(money(row.Sale.TotalDiscount))
		if row.Sale.TotalDiscount > 0 {
			sum.WithDiscount++
		}
		if sum.Max == nil || net.GreaterThan(money(sum.Max.Sale.NetPrice)) {
			sum.Max = row
		}
		if sum.Min == nil || net.LessThan(money(sum.Min.Sale.NetPrice)) {
			sum.Min = row
		}
	}

	if sum.Bills > 0 {
		sum.Average = sum.Total.Div(decimal.NewFromInt(int64(sum.Bills)))
	}

	sort.SliceStable(r.UnitsSold, func(i, j int) bool {
		return r.UnitsSold[i].Units > r.UnitsSold[j].Units
	})
}

// money переводит сумму из записи в десятичное число
// по кратчайшему десятичному представлению float32.
func money(v float32) decimal.Decimal {
	return decimal.NewFromFloat32(v)
}

func lookup(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
