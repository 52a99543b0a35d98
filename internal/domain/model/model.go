// Пакет model — доменные модели магазина.
// Все числовые поля имеют фиксированную ширину (float32/int32),
// чтобы значения побитово совпадали с записями в бинарных файлах.
package model

import "strings"

// Ширины строковых полей в байтах. Совпадают с форматом файлов *.dat.
const (
	ProductIDWidth    = 13
	ProductNameWidth  = 20
	CategoryWidth     = 12
	CustomerIDWidth   = 10
	CustomerNameWidth = 50
	TelephoneWidth    = 10
	SaleIDWidth       = 10
	DateWidth         = 10
	TimestampWidth    = 19
	UserWidth         = 20
)

// DateLayout — формат даты продажи (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ProductStatus — статус товара.
type ProductStatus int32

const (
	// ProductActive — товар в продаже
	ProductActive ProductStatus = 1
	// ProductOutOfStock — остаток дошёл до нуля при продаже
	ProductOutOfStock ProductStatus = 2
	// ProductDiscontinued — снят с продажи
	ProductDiscontinued ProductStatus = 3
)

// Valid проверяет, что статус входит в допустимый набор.
func (s ProductStatus) Valid() bool {
	return s >= ProductActive && s <= ProductDiscontinued
}

// String возвращает читаемое имя статуса для отчётов.
func (s ProductStatus) String() string {
	switch s {
	case ProductActive:
		return "Active"
	case ProductOutOfStock:
		return "Out of Stock"
	case ProductDiscontinued:
		return "Discontinued"
	default:
		return "Unknown"
	}
}

// CustomerStatus — статус покупателя. Хранится как знаковый int32.
type CustomerStatus int32

const (
	// CustomerBlocked — покупки запрещены
	CustomerBlocked CustomerStatus = 0
	// CustomerActive — покупатель активен
	CustomerActive CustomerStatus = 1
	// CustomerRemoved — встречается только в снимке DELETE журнала покупателей
	CustomerRemoved CustomerStatus = 2
)

// Valid проверяет статус, допустимый для записи в customer.dat.
func (s CustomerStatus) Valid() bool {
	return s == CustomerBlocked || s == CustomerActive
}

// SaleStatus — статус продажи.
type SaleStatus int32

const (
	// SaleCompleted — продажа проведена
	SaleCompleted SaleStatus = 0
	// SaleCancelled — продажа отменена, остатки возвращены
	SaleCancelled SaleStatus = 1
)

// String возвращает читаемое имя статуса продажи.
func (s SaleStatus) String() string {
	switch s {
	case SaleCompleted:
		return "Normal"
	case SaleCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Categories — фиксированный набор категорий товара.
var Categories = []string{"Pistol", "Shotgun", "Rifle", "SMG"}

// NormalizeCategory приводит ввод к каноническому имени категории.
// Сравнение без учёта регистра. Второе значение false — категория неизвестна.
func NormalizeCategory(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

// Product — товар (запись product.dat).
type Product struct {
	ID        string
	Name      string
	Cost      float32
	SalePrice float32
	Amount    int32
	Category  string
	Status    ProductStatus
}

// Customer — покупатель (запись customer.dat).
type Customer struct {
	ID        string
	Name      string
	Telephone string
	Status    CustomerStatus
}

// Sale — заголовок продажи (запись sale.dat).
type Sale struct {
	ID            string
	CustomerID    string
	Date          string
	NetPrice      float32
	TotalDiscount float32
	Status        SaleStatus
}

// IsCancelled сообщает, отменена ли продажа.
func (s Sale) IsCancelled() bool {
	return s.Status == SaleCancelled
}

// SaleDetail — строка продажи (запись sale_detail.dat).
type SaleDetail struct {
	SaleID    string
	ProductID string
	Amount    int32
	SalePrice float32
	Discount  float32
}
