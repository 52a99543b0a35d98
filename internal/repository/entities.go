// entities.go — хранилища товаров и покупателей.
package repository

import (
	"log/slog"
	"strings"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/index"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/record"
)

// ProductStore — хранилище товаров (product.dat).
type ProductStore = Store[model.Product]

// CustomerStore — хранилище покупателей (customer.dat).
type CustomerStore = Store[model.Customer]

// NewProductStore создаёт хранилище товаров.
func NewProductStore(path string, logger *slog.Logger) *ProductStore {
	return NewStore("product", path, record.ProductCodec, func(p model.Product) string { return p.ID }, logger)
}

// NewCustomerStore создаёт хранилище покупателей.
func NewCustomerStore(path string, logger *slog.Logger) *CustomerStore {
	return NewStore("customer", path, record.CustomerCodec, func(c model.Customer) string { return c.ID }, logger)
}

// FindCustomerByName ищет покупателя по имени без учёта регистра.
// При нескольких совпадениях возвращается первый в порядке файла.
func FindCustomerByName(idx *index.Index[model.Customer], name string) (model.Customer, bool) {
	name = strings.TrimSpace(name)
	return idx.Find(func(c model.Customer) bool {
		return strings.EqualFold(c.Name, name)
	})
}
