// sales.go — хранилище продаж и позиций продаж.
package repository

import (
	"fmt"
	"log/slog"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/record"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/recordfile"
)

// SaleRepository — доступ к sale.dat и sale_detail.dat.
// Продажи и позиции не индексируются: файлы читаются целиком,
// новые записи дописываются в конец.
type SaleRepository struct {
	sales   *recordfile.File[model.Sale]
	details *recordfile.File[model.SaleDetail]
}

// NewSaleRepository создаёт репозиторий продаж.
func NewSaleRepository(salePath, detailPath string, logger *slog.Logger) *SaleRepository {
	logger = logger.With(slog.String("component", "repository"), slog.String("entity", "sale"))
	return &SaleRepository{
		sales:   recordfile.New(salePath, record.SaleCodec, logger),
		details: recordfile.New(detailPath, record.SaleDetailCodec, logger),
	}
}

// Sales возвращает все продажи в порядке файла.
func (r *SaleRepository) Sales() ([]model.Sale, error) {
	sales, err := r.sales.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки продаж: %w", err)
	}
	return sales, nil
}

// Details возвращает все позиции продаж в порядке файла.
func (r *SaleRepository) Details() ([]model.SaleDetail, error) {
	details, err := r.details.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки позиций продаж: %w", err)
	}
	return details, nil
}

// LastSale возвращает последнюю целую запись sale.dat.
func (r *SaleRepository) LastSale() (model.Sale, bool, error) {
	return r.sales.Last()
}

// AppendSale дописывает продажу.
func (r *SaleRepository) AppendSale(sale model.Sale) error {
	if err := r.sales.Append(sale); err != nil {
		return fmt.Errorf("ошибка записи продажи %s: %w", sale.ID, err)
	}
	return nil
}

// AppendDetails дописывает позиции продажи.
func (r *SaleRepository) AppendDetails(details []model.SaleDetail) error {
	if err := r.details.Append(details...); err != nil {
		return fmt.Errorf("ошибка записи позиций продажи: %w", err)
	}
	return nil
}

// SaveSales перезаписывает sale.dat.
func (r *SaleRepository) SaveSales(sales []model.Sale) error {
	if err := r.sales.SaveAll(sales); err != nil {
		return fmt.Errorf("ошибка сохранения продаж: %w", err)
	}
	return nil
}

// SaveDetails перезаписывает sale_detail.dat.
func (r *SaleRepository) SaveDetails(details []model.SaleDetail) error {
	if err := r.details.SaveAll(details); err != nil {
		return fmt.Errorf("ошибка сохранения позиций продаж: %w", err)
	}
	return nil
}

// FindSale возвращает продажу по номеру, её позицию в наборе и признак наличия.
func FindSale(sales []model.Sale, id string) (model.Sale, int, bool) {
	for i, s := range sales {
		if s.ID == id {
			return s, i, true
		}
	}
	return model.Sale{}, -1, false
}

// LinesOf возвращает позиции продажи saleID в порядке файла.
func LinesOf(details []model.SaleDetail, saleID string) []model.SaleDetail {
	var lines []model.SaleDetail
	for _, d := range details {
		if d.SaleID == saleID {
			lines = append(lines, d)
		}
	}
	return lines
}
