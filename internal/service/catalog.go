// catalog.go — сервис каталога: товары и покупатели.
// Каждая успешная запись в файл сопровождается ровно одной записью журнала.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/repository"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/auditlog"
)

// CatalogService — CRUD товаров и покупателей с аудитом.
type CatalogService struct {
	products    *repository.ProductStore
	customers   *repository.CustomerStore
	productLog  *auditlog.Log[model.Product]
	customerLog *auditlog.Log[model.Customer]
	user        string
	logger      *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
// user — имя оператора для записей журнала; длиннее поля записи
// обрезается, чтобы запись журнала после сохранения не могла упасть.
func NewCatalogService(
	products *repository.ProductStore,
	customers *repository.CustomerStore,
	productLog *auditlog.Log[model.Product],
	customerLog *auditlog.Log[model.Customer],
	user string,
	logger *slog.Logger,
) *CatalogService {
	logger = logger.With(slog.String("component", "catalog_service"))

	user = strings.TrimSpace(user)
	if fitted := fitWidth(user, model.UserWidth); fitted != user {
		logger.Warn("Имя пользователя журнала обрезано",
			slog.String("user", user),
			slog.String("fitted", fitted),
			slog.Int("width", model.UserWidth),
		)
		user = fitted
	}

	return &CatalogService{
		products:    products,
		customers:   customers,
		productLog:  productLog,
		customerLog: customerLog,
		user:        user,
		logger:      logger,
	}
}

// ProductPatch — изменяемые поля товара. nil — поле не меняется.
type ProductPatch struct {
	Name      *string
	Cost      *float32
	SalePrice *float32
	Amount    *int32
	Category  *string
	Status    *model.ProductStatus
}

// CustomerPatch — изменяемые поля покупателя. nil — поле не меняется.
type CustomerPatch struct {
	Name      *string
	Telephone *string
	Status    *model.CustomerStatus
}

// --- Товары ---

// AddProduct добавляет товар.
func (s *CatalogService) AddProduct(p model.Product) (_ model.Product, err error) {
	defer observe("product_add", &err)
	log := s.opLogger("product_add", p.ID)

	p, err = normalizeProduct(p)
	if err != nil {
		return model.Product{}, err
	}

	idx, err := s.products.Load()
	if err != nil {
		return model.Product{}, err
	}

	if err := s.products.Add(idx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Product{}, fmt.Errorf("%w: товар %s уже существует", ErrConflict, p.ID)
		}
		return model.Product{}, err
	}

	if err := s.auditProduct(model.OpAdd, p); err != nil {
		return p, err
	}

	log.Info("Товар добавлен", slog.String("name", p.Name), slog.Int("amount", int(p.Amount)))
	return p, nil
}

// UpdateProduct применяет patch к товару id.
func (s *CatalogService) UpdateProduct(id string, patch ProductPatch) (_ model.Product, err error) {
	defer observe("product_update", &err)
	log := s.opLogger("product_update", id)

	idx, err := s.products.Load()
	if err != nil {
		return model.Product{}, err
	}

	p, ok := idx.Get(id)
	if !ok {
		return model.Product{}, fmt.Errorf("%w: товар %s", ErrNotFound, id)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.SalePrice != nil {
		p.SalePrice = *patch.SalePrice
	}
	if patch.Amount != nil {
		p.Amount = *patch.Amount
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}

	p, err = normalizeProduct(p)
	if err != nil {
		return model.Product{}, err
	}

	if err := s.products.Update(idx, p); err != nil {
		return model.Product{}, err
	}

	if err := s.auditProduct(model.OpUpdate, p); err != nil {
		return p, err
	}

	log.Info("Товар обновлён")
	return p, nil
}

// DeleteProduct удаляет товар. Снимок в журнале несёт статус «снят с продажи».
func (s *CatalogService) DeleteProduct(id string) (_ model.Product, err error) {
	defer observe("product_delete", &err)
	log := s.opLogger("product_delete", id)

	idx, err := s.products.Load()
	if err != nil {
		return model.Product{}, err
	}

	removed, err := s.products.Delete(idx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Product{}, fmt.Errorf("%w: товар %s", ErrNotFound, id)
		}
		return model.Product{}, err
	}

	snapshot := removed
	snapshot.Status = model.ProductDiscontinued
	if err := s.auditProduct(model.OpDelete, snapshot); err != nil {
		return removed, err
	}

	log.Info("Товар удалён")
	return removed, nil
}

// ViewProduct возвращает товар и фиксирует просмотр в журнале.
func (s *CatalogService) ViewProduct(id string) (_ model.Product, err error) {
	defer observe("product_view", &err)

	p, err := s.GetProduct(id)
	if err != nil {
		return model.Product{}, err
	}
	if err := s.auditProduct(model.OpView, p); err != nil {
		return p, err
	}
	return p, nil
}

// GetProduct возвращает товар без записи в журнал.
func (s *CatalogService) GetProduct(id string) (model.Product, error) {
	idx, err := s.products.Load()
	if err != nil {
		return model.Product{}, err
	}
	p, ok := idx.Get(id)
	if !ok {
		return model.Product{}, fmt.Errorf("%w: товар %s", ErrNotFound, id)
	}
	return p, nil
}

// ListProducts возвращает товары в порядке файла.
func (s *CatalogService) ListProducts() ([]model.Product, error) {
	idx, err := s.products.Load()
	if err != nil {
		return nil, err
	}
	return idx.All(), nil
}

// ViewProducts возвращает товары для показа оператору. Просмотр списка
// фиксируется одной записью VIEW со снимком первого товара.
func (s *CatalogService) ViewProducts() (_ []model.Product, err error) {
	defer observe("product_list", &err)

	products, err := s.ListProducts()
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}
	if err := s.auditProduct(model.OpView, products[0]); err != nil {
		return products, err
	}
	s.opLogger("product_list", products[0].ID).Debug("Список товаров просмотрен",
		slog.Int("count", len(products)))
	return products, nil
}

// ProductChanges возвращает журнал изменений товаров.
func (s *CatalogService) ProductChanges() ([]model.ProductChange, error) {
	return s.productLog.Entries()
}

// --- Покупатели ---

// AddCustomer добавляет покупателя.
func (s *CatalogService) AddCustomer(c model.Customer) (_ model.Customer, err error) {
	defer observe("customer_add", &err)
	log := s.opLogger("customer_add", c.ID)

	c, err = normalizeCustomer(c)
	if err != nil {
		return model.Customer{}, err
	}

	idx, err := s.customers.Load()
	if err != nil {
		return model.Customer{}, err
	}

	if err := s.customers.Add(idx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Customer{}, fmt.Errorf("%w: покупатель %s уже существует", ErrConflict, c.ID)
		}
		return model.Customer{}, err
	}

	if err := s.auditCustomer(model.OpAdd, c); err != nil {
		return c, err
	}

	log.Info("Покупатель добавлен")
	return c, nil
}

// UpdateCustomer применяет patch к покупателю id.
func (s *CatalogService) UpdateCustomer(id string, patch CustomerPatch) (_ model.Customer, err error) {
	defer observe("customer_update", &err)
	log := s.opLogger("customer_update", id)

	idx, err := s.customers.Load()
	if err != nil {
		return model.Customer{}, err
	}

	c, ok := idx.Get(id)
	if !ok {
		return model.Customer{}, fmt.Errorf("%w: покупатель %s", ErrNotFound, id)
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Telephone != nil {
		c.Telephone = *patch.Telephone
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}

	c, err = normalizeCustomer(c)
	if err != nil {
		return model.Customer{}, err
	}

	if err := s.customers.Update(idx, c); err != nil {
		return model.Customer{}, err
	}

	if err := s.auditCustomer(model.OpUpdate, c); err != nil {
		return c, err
	}

	log.Info("Покупатель обновлён")
	return c, nil
}

// DeleteCustomer удаляет покупателя. Снимок в журнале несёт статус «удалён».
func (s *CatalogService) DeleteCustomer(id string) (_ model.Customer, err error) {
	defer observe("customer_delete", &err)
	log := s.opLogger("customer_delete", id)

	idx, err := s.customers.Load()
	if err != nil {
		return model.Customer{}, err
	}

	removed, err := s.customers.Delete(idx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Customer{}, fmt.Errorf("%w: покупатель %s", ErrNotFound, id)
		}
		return model.Customer{}, err
	}

	snapshot := removed
	snapshot.Status = model.CustomerRemoved
	if err := s.auditCustomer(model.OpDelete, snapshot); err != nil {
		return removed, err
	}

	log.Info("Покупатель удалён")
	return removed, nil
}

// ViewCustomer возвращает покупателя и фиксирует просмотр в журнале.
func (s *CatalogService) ViewCustomer(id string) (_ model.Customer, err error) {
	defer observe("customer_view", &err)

	c, err := s.GetCustomer(id)
	if err != nil {
		return model.Customer{}, err
	}
	if err := s.auditCustomer(model.OpView, c); err != nil {
		return c, err
	}
	return c, nil
}

// GetCustomer возвращает покупателя без записи в журнал.
func (s *CatalogService) GetCustomer(id string) (model.Customer, error) {
	idx, err := s.customers.Load()
	if err != nil {
		return model.Customer{}, err
	}
	c, ok := idx.Get(id)
	if !ok {
		return model.Customer{}, fmt.Errorf("%w: покупатель %s", ErrNotFound, id)
	}
	return c, nil
}

// ListCustomers возвращает покупателей в порядке файла.
func (s *CatalogService) ListCustomers() ([]model.Customer, error) {
	idx, err := s.customers.Load()
	if err != nil {
		return nil, err
	}
	return idx.All(), nil
}

// ViewCustomers — список покупателей для оператора, с одной записью VIEW.
func (s *CatalogService) ViewCustomers() (_ []model.Customer, err error) {
	defer observe("customer_list", &err)

	customers, err := s.ListCustomers()
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return customers, nil
	}
	if err := s.auditCustomer(model.OpView, customers[0]); err != nil {
		return customers, err
	}
	s.opLogger("customer_list", customers[0].ID).Debug("Список покупателей просмотрен",
		slog.Int("count", len(customers)))
	return customers, nil
}

// CustomerChanges возвращает журнал изменений покупателей.
func (s *CatalogService) CustomerChanges() ([]model.CustomerChange, error) {
	return s.customerLog.Entries()
}

// --- Вспомогательные ---

func (s *CatalogService) auditProduct(op model.ChangeOp, p model.Product) error {
	if _, err := s.productLog.Append(op, p, s.user); err != nil {
		s.logger.Error("Запись журнала товаров не добавлена",
			slog.String("product_id", p.ID),
			slog.String("op", op.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("аудит товара %s: %w", p.ID, err)
	}
	return nil
}

func (s *CatalogService) auditCustomer(op model.ChangeOp, c model.Customer) error {
	if _, err := s.customerLog.Append(op, c, s.user); err != nil {
		s.logger.Error("Запись журнала покупателей не добавлена",
			slog.String("customer_id", c.ID),
			slog.String("op", op.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("аудит покупателя %s: %w", c.ID, err)
	}
	return nil
}

func (s *CatalogService) opLogger(operation, id string) *slog.Logger {
	return s.logger.With(
		slog.String("op_id", uuid.New().String()),
		slog.String("operation", operation),
		slog.String("id", id),
	)
}

// observe учитывает результат операции в метриках. Вызывается через defer.
func observe(operation string, err *error) {
	metrics.OperationsTotal.WithLabelValues(operation, metrics.Result(*err)).Inc()
}

// validateID проверяет идентификатор: непустой, без пробелов.
func validateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: пустой идентификатор %s", ErrValidation, kind)
	}
	if strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%w: идентификатор %s %q содержит пробелы", ErrValidation, kind, id)
	}
	return nil
}

// fitWidth обрезает s до width байт по границе UTF-8 символа.
func fitWidth(s string, width int) string {
	if len(s) <= width {
		return s
	}
	s = s[:width]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// checkWidth проверяет, что строковое поле помещается в запись.
func checkWidth(field, value string, width int) error {
	if len(value) > width {
		return fmt.Errorf("%w: поле %s длиннее %d байт (%d)", ErrValidation, field, width, len(value))
	}
	return nil
}

func normalizeProduct(p model.Product) (model.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)

	if err := validateID("товара", p.ID); err != nil {
		return p, err
	}
	if p.Name == "" {
		return p, fmt.Errorf("%w: пустое название товара", ErrValidation)
	}

	category, ok := model.NormalizeCategory(p.Category)
	if !ok {
		return p, fmt.Errorf("%w: неизвестная категория %q, допустимые: %s",
			ErrValidation, p.Category, strings.Join(model.Categories, ", "))
	}
	p.Category = category

	switch {
	case p.Cost < 0:
		return p, fmt.Errorf("%w: отрицательная себестоимость", ErrValidation)
	case p.SalePrice < 0:
		return p, fmt.Errorf("%w: отрицательная цена продажи", ErrValidation)
	case p.Amount < 0:
		return p, fmt.Errorf("%w: отрицательный остаток", ErrValidation)
	case !p.Status.Valid():
		return p, fmt.Errorf("%w: недопустимый статус товара %d", ErrValidation, p.Status)
	}

	if err := checkWidth("id", p.ID, model.ProductIDWidth); err != nil {
		return p, err
	}
	if err := checkWidth("name", p.Name, model.ProductNameWidth); err != nil {
		return p, err
	}
	return p, nil
}

func normalizeCustomer(c model.Customer) (model.Customer, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Telephone = strings.TrimSpace(c.Telephone)

	if err := validateID("покупателя", c.ID); err != nil {
		return c, err
	}
	if c.Name == "" {
		return c, fmt.Errorf("%w: пустое имя покупателя", ErrValidation)
	}
	if !c.Status.Valid() {
		return c, fmt.Errorf("%w: недопустимый статус покупателя %d", ErrValidation, c.Status)
	}

	if err := checkWidth("id", c.ID, model.CustomerIDWidth); err != nil {
		return c, err
	}
	if err := checkWidth("name", c.Name, model.CustomerNameWidth); err != nil {
		return c, err
	}
	if err := checkWidth("telephone", c.Telephone, model.TelephoneWidth); err != nil {
		return c, err
	}
	return c, nil
}
