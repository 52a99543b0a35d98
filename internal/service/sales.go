// sales.go — сервис продаж: создание, правка, отмена и удаление продаж
// с учётом движения остатков товара.
//
// Файлы продаж, позиций и товаров обновляются последовательно, без
// транзакции: сбой между записями может оставить их рассогласованными.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/domain/salestate"
	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/repository"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/index"
)

// SaleService — сервис продаж.
type SaleService struct {
	products  *repository.ProductStore
	customers *repository.CustomerStore
	sales     *repository.SaleRepository
	now       func() time.Time
	logger    *slog.Logger
}

// NewSaleService создаёт сервис продаж.
func NewSaleService(
	products *repository.ProductStore,
	customers *repository.CustomerStore,
	sales *repository.SaleRepository,
	logger *slog.Logger,
) *SaleService {
	return &SaleService{
		products:  products,
		customers: customers,
		sales:     sales,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "sale_service")),
	}
}

// SetClock подменяет источник текущей даты (используется в тестах).
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

// LineRequest — позиция новой продажи.
type LineRequest struct {
	ProductID string
	Amount    int32
	Discount  float32
}

// CreateSaleRequest — запрос на создание продажи.
type CreateSaleRequest struct {
	// CustomerName — имя покупателя (поиск без учёта регистра)
	CustomerName string
	// Date — дата продажи YYYY-MM-DD; пусто — текущая дата
	Date  string
	Lines []LineRequest
}

// LineChange — правка позиции продажи.
// Для товара, уже присутствующего в продаже, меняются количество и/или скидка;
// иначе добавляется новая позиция (Amount обязателен).
type LineChange struct {
	ProductID string
	Amount    *int32
	Discount  *float32
}

// SaleUpdate — изменения продажи. nil — поле не меняется.
type SaleUpdate struct {
	CustomerID *string
	Date       *string
	Status     *model.SaleStatus
	Lines      []LineChange
}

// SaleView — продажа вместе с позициями.
type SaleView struct {
	Sale  model.Sale
	Lines []model.SaleDetail
}

// CreateSale проводит продажу: проверяет все позиции, дописывает позиции,
// списывает остатки и дописывает заголовок продажи.
// Ни один файл не меняется, пока не проверены покупатель и все позиции.
func (s *SaleService) CreateSale(req CreateSaleRequest) (_ *SaleView, err error) {
	defer observe("sale_create", &err)
	log := s.logger.With(slog.String("op_id", uuid.New().String()), slog.String("operation", "sale_create"))

	customers, err := s.customers.Load()
	if err != nil {
		return nil, err
	}
	customer, ok := repository.FindCustomerByName(customers, req.CustomerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCustomerNotFound, strings.TrimSpace(req.CustomerName))
	}
	if customer.Status != model.CustomerActive {
		return nil, fmt.Errorf("%w: покупатель %s не может совершать покупки (статус %d)",
			ErrValidation, customer.ID, customer.Status)
	}

	date, err := s.saleDate(req.Date)
	if err != nil {
		return nil, err
	}

	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: продажа без позиций", ErrValidation)
	}

	products, err := s.products.Load()
	if err != nil {
		return nil, err
	}

	saleID, err := s.nextSaleID()
	if err != nil {
		return nil, err
	}

	state := salestate.Open
	lines := make([]model.SaleDetail, 0, len(req.Lines))
	var sold int32

	for i, lr := range req.Lines {
		if err := salestate.Check(state, salestate.OpAddLine); err != nil {
			return nil, err
		}
		if hasProduct(lines, lr.ProductID) {
			return nil, fmt.Errorf("%w: позиция #%d: товар %s уже есть в продаже", ErrValidation, i+1, lr.ProductID)
		}

		p, err := sellable(products, lr.ProductID, lr.Amount)
		if err != nil {
			return nil, fmt.Errorf("позиция #%d: %w", i+1, err)
		}

		line := model.SaleDetail{
			SaleID:    saleID,
			ProductID: p.ID,
			Amount:    lr.Amount,
			SalePrice: p.SalePrice * float32(lr.Amount),
			Discount:  lr.Discount,
		}
		if err := validateDiscount(line); err != nil {
			return nil, fmt.Errorf("позиция #%d: %w", i+1, err)
		}

		takeStock(&p, lr.Amount)
		_ = products.Update(p)
		lines = append(lines, line)
		sold += lr.Amount
	}

	if err := salestate.Transition(state, salestate.Committed); err != nil {
		return nil, err
	}

	sale := model.Sale{
		ID:         saleID,
		CustomerID: customer.ID,
		Date:       date,
		Status:     salestate.ToStatus(salestate.Committed),
	}
	recomputeTotals(&sale, lines)

	if err := s.sales.AppendDetails(lines); err != nil {
		return nil, err
	}
	if err := s.products.Save(products); err != nil {
		log.Error("Позиции записаны, но остатки не обновлены", slog.String("sale_id", saleID))
		return nil, err
	}
	if err := s.sales.AppendSale(sale); err != nil {
		log.Error("Позиции и остатки записаны, но заголовок продажи нет", slog.String("sale_id", saleID))
		return nil, err
	}

	metrics.UnitsSoldTotal.Add(float64(sold))
	log.Info("Продажа проведена",
		slog.String("sale_id", saleID),
		slog.String("customer_id", customer.ID),
		slog.Int("lines", len(lines)),
		slog.Float64("net_price", float64(sale.NetPrice)),
	)

	return &SaleView{Sale: sale, Lines: lines}, nil
}

// UpdateSale изменяет покупателя, дату, статус и позиции продажи.
// Отмена (0 → 1) возвращает на склад все позиции; обратный переход запрещён.
func (s *SaleService) UpdateSale(id string, upd SaleUpdate) (_ *SaleView, err error) {
	defer observe("sale_update", &err)
	log := s.logger.With(
		slog.String("op_id", uuid.New().String()),
		slog.String("operation", "sale_update"),
		slog.String("sale_id", id),
	)

	sales, details, sale, at, err := s.loadSale(id)
	if err != nil {
		return nil, err
	}
	lines := repository.LinesOf(details, id)
	state := salestate.FromStatus(sale.Status)

	if upd.CustomerID != nil || upd.Date != nil {
		if err := salestate.Check(state, salestate.OpEditHeader); err != nil {
			return nil, err
		}
	}

	if upd.CustomerID != nil {
		customerID := strings.TrimSpace(*upd.CustomerID)
		customers, err := s.customers.Load()
		if err != nil {
			return nil, err
		}
		if !customers.Has(customerID) {
			return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
		}
		sale.CustomerID = customerID
	}

	if upd.Date != nil {
		date, err := parseSaleDate(*upd.Date)
		if err != nil {
			return nil, err
		}
		sale.Date = date
	}

	target := state
	if upd.Status != nil {
		if *upd.Status != model.SaleCompleted && *upd.Status != model.SaleCancelled {
			return nil, fmt.Errorf("%w: недопустимый статус продажи %d", ErrValidation, *upd.Status)
		}
		target = salestate.FromStatus(*upd.Status)
		if err := salestate.Transition(state, target); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTransition, err) //nolint:errorlint // намеренный двойной wrap
		}
	}

	products, err := s.products.Load()
	if err != nil {
		return nil, err
	}

	var sold, returned int32

	if len(upd.Lines) > 0 {
		if state == salestate.Cancelled {
			return nil, fmt.Errorf("%w: %s, правка позиций недоступна", ErrSaleCancelled, id)
		}
		for i, ch := range upd.Lines {
			var delta int32
			lines, delta, err = applyLineChange(products, lines, id, ch, state)
			if err != nil {
				return nil, fmt.Errorf("правка #%d: %w", i+1, err)
			}
			if delta > 0 {
				sold += delta
			} else {
				returned -= delta
			}
		}
	}

	if target == salestate.Cancelled && state != salestate.Cancelled {
		for _, line := range lines {
			if s.returnLine(products, line, line.Amount, log) {
				returned += line.Amount
			}
		}
		log.Info("Продажа отменена, остатки возвращены", slog.Int("lines", len(lines)))
	}
	sale.Status = salestate.ToStatus(target)

	recomputeTotals(&sale, lines)
	sales[at] = sale

	if err := s.sales.SaveDetails(replaceLines(details, id, lines)); err != nil {
		return nil, err
	}
	if err := s.products.Save(products); err != nil {
		return nil, err
	}
	if err := s.sales.SaveSales(sales); err != nil {
		return nil, err
	}

	metrics.UnitsSoldTotal.Add(float64(sold))
	metrics.UnitsReturnedTotal.Add(float64(returned))
	log.Info("Продажа обновлена",
		slog.String("status", sale.Status.String()),
		slog.Float64("net_price", float64(sale.NetPrice)),
	)

	return &SaleView{Sale: sale, Lines: lines}, nil
}

// DeleteSale удаляет продажу и все её позиции.
// Остатки возвращаются, если продажа не была отменена ранее.
func (s *SaleService) DeleteSale(id string) (_ *SaleView, err error) {
	defer observe("sale_delete", &err)
	log := s.logger.With(
		slog.String("op_id", uuid.New().String()),
		slog.String("operation", "sale_delete"),
		slog.String("sale_id", id),
	)

	sales, details, sale, at, err := s.loadSale(id)
	if err != nil {
		return nil, err
	}
	state := salestate.FromStatus(sale.Status)
	if err := salestate.Check(state, salestate.OpDelete); err != nil {
		return nil, err
	}

	lines := repository.LinesOf(details, id)

	products, err := s.products.Load()
	if err != nil {
		return nil, err
	}

	var returned int32
	if state != salestate.Cancelled {
		for _, line := range lines {
			if s.returnLine(products, line, line.Amount, log) {
				returned += line.Amount
			}
		}
	}

	sales = append(sales[:at], sales[at+1:]...)

	if err := s.sales.SaveDetails(replaceLines(details, id, nil)); err != nil {
		return nil, err
	}
	if err := s.products.Save(products); err != nil {
		return nil, err
	}
	if err := s.sales.SaveSales(sales); err != nil {
		return nil, err
	}

	metrics.UnitsReturnedTotal.Add(float64(returned))
	log.Info("Продажа удалена", slog.Int("lines", len(lines)), slog.Int("returned", int(returned)))

	return &SaleView{Sale: sale, Lines: lines}, nil
}

// DeleteSaleLine убирает count единиц из позиции productID продажи id.
// count == amount удаляет позицию; иначе цена и скидка позиции
// масштабируются на (amount − count)/amount. Единицы возвращаются на склад.
func (s *SaleService) DeleteSaleLine(id, productID string, count int32) (_ *SaleView, err error) {
	defer observe("sale_delete_line", &err)
	log := s.logger.With(
		slog.String("op_id", uuid.New().String()),
		slog.String("operation", "sale_delete_line"),
		slog.String("sale_id", id),
		slog.String("product_id", productID),
	)

	sales, details, sale, at, err := s.loadSale(id)
	if err != nil {
		return nil, err
	}
	state := salestate.FromStatus(sale.Status)
	if state == salestate.Cancelled {
		return nil, fmt.Errorf("%w: %s, удаление позиций недоступно", ErrSaleCancelled, id)
	}
	if err := salestate.Check(state, salestate.OpDeleteLine); err != nil {
		return nil, err
	}

	lines := repository.LinesOf(details, id)
	li := lineIndex(lines, productID)
	if li < 0 {
		return nil, fmt.Errorf("%w: товар %s в продаже %s", ErrNotFound, productID, id)
	}

	line := lines[li]
	if count <= 0 || count > line.Amount {
		return nil, fmt.Errorf("%w: количество %d вне диапазона 1..%d", ErrValidation, count, line.Amount)
	}

	products, err := s.products.Load()
	if err != nil {
		return nil, err
	}

	if count == line.Amount {
		lines = append(lines[:li], lines[li+1:]...)
	} else {
		ratio := float64(line.Amount-count) / float64(line.Amount)
		line.SalePrice = float32(float64(line.SalePrice) * ratio)
		line.Discount = float32(float64(line.Discount) * ratio)
		line.Amount -= count
		lines[li] = line
	}

	returned := int32(0)
	if s.returnLine(products, model.SaleDetail{SaleID: id, ProductID: productID}, count, log) {
		returned = count
	}

	recomputeTotals(&sale, lines)
	sales[at] = sale

	if err := s.sales.SaveDetails(replaceLines(details, id, lines)); err != nil {
		return nil, err
	}
	if err := s.products.Save(products); err != nil {
		return nil, err
	}
	if err := s.sales.SaveSales(sales); err != nil {
		return nil, err
	}

	metrics.UnitsReturnedTotal.Add(float64(returned))
	log.Info("Позиция продажи уменьшена",
		slog.Int("count", int(count)),
		slog.Float64("net_price", float64(sale.NetPrice)),
	)

	return &SaleView{Sale: sale, Lines: lines}, nil
}

// GetSale возвращает продажу с позициями.
func (s *SaleService) GetSale(id string) (*SaleView, error) {
	_, details, sale, _, err := s.loadSale(id)
	if err != nil {
		return nil, err
	}
	return &SaleView{Sale: sale, Lines: repository.LinesOf(details, id)}, nil
}

// ListSales возвращает продажи в порядке файла. date != "" — только за эту дату.
func (s *SaleService) ListSales(date string) ([]model.Sale, error) {
	sales, err := s.sales.Sales()
	if err != nil {
		return nil, err
	}
	if date == "" {
		return sales, nil
	}

	var filtered []model.Sale
	for _, sale := range sales {
		if sale.Date == date {
			filtered = append(filtered, sale)
		}
	}
	return filtered, nil
}

// --- Вспомогательные ---

// loadSale читает оба файла продаж и находит продажу id.
func (s *SaleService) loadSale(id string) ([]model.Sale, []model.SaleDetail, model.Sale, int, error) {
	sales, err := s.sales.Sales()
	if err != nil {
		return nil, nil, model.Sale{}, -1, err
	}
	sale, at, ok := repository.FindSale(sales, id)
	if !ok {
		return nil, nil, model.Sale{}, -1, fmt.Errorf("%w: продажа %s", ErrNotFound, id)
	}
	details, err := s.sales.Details()
	if err != nil {
		return nil, nil, model.Sale{}, -1, err
	}
	return sales, details, sale, at, nil
}

// nextSaleID выдаёт следующий номер по последней записи sale.dat.
// Пустой или нечитаемый файл — s001. Номер, уже занятый в файле, пропускается.
func (s *SaleService) nextSaleID() (string, error) {
	n := 1
	last, ok, err := s.sales.LastSale()
	if err != nil {
		s.logger.Warn("Последняя продажа не прочитана, нумерация с начала",
			slog.String("error", err.Error()),
		)
	}
	if err == nil && ok {
		if v, perr := strconv.Atoi(strings.TrimPrefix(last.ID, "s")); perr == nil && v >= 0 {
			n = v + 1
		}
	}

	sales, err := s.sales.Sales()
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(sales))
	for _, sale := range sales {
		used[sale.ID] = true
	}

	id := fmt.Sprintf("s%03d", n)
	for used[id] {
		n++
		id = fmt.Sprintf("s%03d", n)
	}
	if len(id) > model.SaleIDWidth {
		return "", fmt.Errorf("%w: номер продажи %s не помещается в запись", ErrValidation, id)
	}
	return id, nil
}

// returnLine возвращает count единиц товара позиции на склад.
// Отсутствующий товар пропускается с предупреждением; результат — был ли возврат.
func (s *SaleService) returnLine(products *index.Index[model.Product], line model.SaleDetail, count int32, log *slog.Logger) bool {
	p, ok := products.Get(line.ProductID)
	if !ok {
		log.Warn("Товар позиции не найден, остаток не возвращён",
			slog.String("product_id", line.ProductID),
			slog.Int("amount", int(count)),
		)
		return false
	}
	returnStock(&p, count)
	_ = products.Update(p)
	return true
}

func (s *SaleService) saleDate(date string) (string, error) {
	if strings.TrimSpace(date) == "" {
		return s.now().Format(model.DateLayout), nil
	}
	return parseSaleDate(date)
}

// parseSaleDate проверяет дату продажи в формате YYYY-MM-DD.
func parseSaleDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: дата %q не в формате YYYY-MM-DD", ErrValidation, date)
	}
	return date, nil
}

// takeStock списывает n единиц. Остаток, дошедший ровно до нуля, переводит
// товар в статус «нет в наличии».
func takeStock(p *model.Product, n int32) {
	p.Amount -= n
	if p.Amount == 0 && n > 0 {
		p.Status = model.ProductOutOfStock
	}
}

// returnStock возвращает n единиц. Товар с нулевым остатком снова
// становится активным, какой бы статус у него ни был.
func returnStock(p *model.Product, n int32) {
	if n <= 0 {
		return
	}
	if p.Amount == 0 {
		p.Status = model.ProductActive
	}
	p.Amount += n
}

// sellable проверяет, что товар можно продать в количестве amount.
func sellable(products *index.Index[model.Product], productID string, amount int32) (model.Product, error) {
	p, ok := products.Get(strings.TrimSpace(productID))
	if !ok {
		return model.Product{}, fmt.Errorf("%w: товар %s", ErrNotFound, productID)
	}
	if p.Status == model.ProductDiscontinued {
		return model.Product{}, fmt.Errorf("%w: товар %s снят с продажи", ErrValidation, p.ID)
	}
	if amount <= 0 {
		return model.Product{}, fmt.Errorf("%w: количество должно быть больше нуля", ErrValidation)
	}
	if amount > p.Amount {
		return model.Product{}, fmt.Errorf("%w: товар %s, запрошено %d, в наличии %d",
			ErrInsufficientStock, p.ID, amount, p.Amount)
	}
	return p, nil
}

// applyLineChange применяет одну правку к позициям продажи.
// Возвращает новые позиции и изменение проданного количества (delta > 0 — списано со склада).
func applyLineChange(
	products *index.Index[model.Product],
	lines []model.SaleDetail,
	saleID string,
	ch LineChange,
	state salestate.State,
) ([]model.SaleDetail, int32, error) {
	productID := strings.TrimSpace(ch.ProductID)
	li := lineIndex(lines, productID)

	if li < 0 {
		if err := salestate.Check(state, salestate.OpAddLine); err != nil {
			return nil, 0, err
		}
		if ch.Amount == nil {
			return nil, 0, fmt.Errorf("%w: для новой позиции %s нужно количество", ErrValidation, productID)
		}
		p, err := sellable(products, productID, *ch.Amount)
		if err != nil {
			return nil, 0, err
		}
		line := model.SaleDetail{
			SaleID:    saleID,
			ProductID: p.ID,
			Amount:    *ch.Amount,
			SalePrice: p.SalePrice * float32(*ch.Amount),
		}
		if ch.Discount != nil {
			line.Discount = *ch.Discount
		}
		if err := validateDiscount(line); err != nil {
			return nil, 0, err
		}
		takeStock(&p, line.Amount)
		_ = products.Update(p)
		return append(lines, line), line.Amount, nil
	}

	if err := salestate.Check(state, salestate.OpEditLine); err != nil {
		return nil, 0, err
	}

	line := lines[li]
	var delta int32

	if ch.Amount != nil && *ch.Amount != line.Amount {
		if *ch.Amount <= 0 {
			return nil, 0, fmt.Errorf("%w: количество должно быть больше нуля", ErrValidation)
		}
		p, ok := products.Get(productID)
		if !ok {
			return nil, 0, fmt.Errorf("%w: товар %s", ErrNotFound, productID)
		}
		delta = *ch.Amount - line.Amount
		if delta > p.Amount {
			return nil, 0, fmt.Errorf("%w: товар %s, нужно ещё %d, в наличии %d",
				ErrInsufficientStock, p.ID, delta, p.Amount)
		}
		if delta > 0 {
			takeStock(&p, delta)
		} else {
			returnStock(&p, -delta)
		}
		_ = products.Update(p)

		line.Amount = *ch.Amount
		line.SalePrice = p.SalePrice * float32(line.Amount)
	}

	if ch.Discount != nil {
		line.Discount = *ch.Discount
	}
	if err := validateDiscount(line); err != nil {
		return nil, 0, err
	}

	out := make([]model.SaleDetail, len(lines))
	copy(out, lines)
	out[li] = line
	return out, delta, nil
}

// validateDiscount проверяет скидку позиции: 0 ≤ discount ≤ sale_price.
func validateDiscount(line model.SaleDetail) error {
	if line.Discount < 0 || line.Discount > line.SalePrice {
		return fmt.Errorf("%w: скидка %.2f вне диапазона [0, %.2f]", ErrValidation, line.Discount, line.SalePrice)
	}
	return nil
}

// recomputeTotals пересчитывает итоги продажи по позициям.
func recomputeTotals(sale *model.Sale, lines []model.SaleDetail) {
	var net, discount float64
	for _, l := range lines {
		net += float64(l.SalePrice)
		discount += float64(l.Discount)
	}
	sale.NetPrice = float32(net)
	sale.TotalDiscount = float32(discount)
}

// replaceLines заменяет позиции продажи saleID в общем наборе.
// Новые позиции встают на место первой прежней позиции продажи,
// либо в конец, если позиций не было.
func replaceLines(details []model.SaleDetail, saleID string, lines []model.SaleDetail) []model.SaleDetail {
	out := make([]model.SaleDetail, 0, len(details)+len(lines))
	placed := false
	for _, d := range details {
		if d.SaleID != saleID {
			out = append(out, d)
			continue
		}
		if !placed {
			out = append(out, lines...)
			placed = true
		}
	}
	if !placed {
		out = append(out, lines...)
	}
	return out
}

func lineIndex(lines []model.SaleDetail, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func hasProduct(lines []model.SaleDetail, productID string) bool {
	return lineIndex(lines, strings.TrimSpace(productID)) >= 0
}

// IsBusinessError сообщает, вызвана ли ошибка данными операции, а не вводом-выводом.
func IsBusinessError(err error) bool {
	var te *salestate.TransitionError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrSaleCancelled) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.As(err, &te)
}
