package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/service"
)

// --- product ---

type productFlags struct {
	id, name, category string
	cost, price        float64
	amount, status     int
}

func bindProductFlags(f *productFlags, fs *flag.FlagSet) {
	fs.StringVar(&f.id, "id", "", "Код товара")
	fs.StringVar(&f.name, "name", "", "Название")
	fs.Float64Var(&f.cost, "cost", 0, "Закупочная цена")
	fs.Float64Var(&f.price, "price", 0, "Цена продажи")
	fs.IntVar(&f.amount, "amount", 0, "Остаток")
	fs.StringVar(&f.category, "category", "", "Категория: Pistol, Shotgun, Rifle, SMG")
	fs.IntVar(&f.status, "status", int(model.ProductActive), "Статус: 1 в продаже, 2 нет в наличии, 3 снят")
}

func (a *app) productAdd(args []string) error {
	fs := newFlagSet("product add", a.errOut)
	var f productFlags
	bindProductFlags(&f, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id", "name", "category"); err != nil {
		return err
	}

	p, err := a.catalog.AddProduct(model.Product{
		ID:        f.id,
		Name:      f.name,
		Cost:      float32(f.cost),
		SalePrice: float32(f.price),
		Amount:    int32(f.amount),
		Category:  f.category,
		Status:    model.ProductStatus(f.status),
	})
	if err != nil {
		return err
	}
	a.success("Товар %s добавлен", p.ID)
	return nil
}

func (a *app) productUpdate(args []string) error {
	fs := newFlagSet("product update", a.errOut)
	var f productFlags
	bindProductFlags(&f, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id"); err != nil {
		return err
	}

	var patch service.ProductPatch
	if isSet(fs, "name") {
		patch.Name = &f.name
	}
	if isSet(fs, "cost") {
		v := float32(f.cost)
		patch.Cost = &v
	}
	if isSet(fs, "price") {
		v := float32(f.price)
		patch.SalePrice = &v
	}
	if isSet(fs, "amount") {
		v := int32(f.amount)
		patch.Amount = &v
	}
	if isSet(fs, "category") {
		patch.Category = &f.category
	}
	if isSet(fs, "status") {
		v := model.ProductStatus(f.status)
		patch.Status = &v
	}

	p, err := a.catalog.UpdateProduct(f.id, patch)
	if err != nil {
		return err
	}
	a.success("Товар %s обновлён", p.ID)
	return nil
}

func (a *app) productDelete(args []string) error {
	id, err := a.idFlag("product delete", args)
	if err != nil {
		return err
	}
	if _, err := a.catalog.DeleteProduct(id); err != nil {
		return err
	}
	a.success("Товар %s удалён", id)
	return nil
}

func (a *app) productView(args []string) error {
	id, err := a.idFlag("product view", args)
	if err != nil {
		return err
	}
	p, err := a.catalog.ViewProduct(id)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, report.ProductTable([]model.Product{p}))
	return nil
}

func (a *app) productList(args []string) error {
	fs := newFlagSet("product list", a.errOut)
	category := fs.String("category", "", "Только товары категории")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var c string
	if *category != "" {
		var ok bool
		if c, ok = model.NormalizeCategory(*category); !ok {
			return fmt.Errorf("%w: неизвестная категория %q", service.ErrValidation, *category)
		}
	}

	products, err := a.catalog.ViewProducts()
	if err != nil {
		return err
	}
	if c != "" {
		filtered := products[:0]
		for _, p := range products {
			if p.Category == c {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	fmt.Fprint(a.out, report.ProductTable(products))
	return nil
}

// --- customer ---

type customerFlags struct {
	id, name, phone string
	status          int
}

func bindCustomerFlags(f *customerFlags, fs *flag.FlagSet) {
	fs.StringVar(&f.id, "id", "", "Код покупателя")
	fs.StringVar(&f.name, "name", "", "Имя")
	fs.StringVar(&f.phone, "phone", "", "Телефон")
	fs.IntVar(&f.status, "status", int(model.CustomerActive), "Статус: 1 активен, 0 покупки запрещены")
}

func (a *app) customerAdd(args []string) error {
	fs := newFlagSet("customer add", a.errOut)
	var f customerFlags
	bindCustomerFlags(&f, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id", "name"); err != nil {
		return err
	}

	c, err := a.catalog.AddCustomer(model.Customer{
		ID:        f.id,
		Name:      f.name,
		Telephone: f.phone,
		Status:    model.CustomerStatus(f.status),
	})
	if err != nil {
		return err
	}
	a.success("Покупатель %s добавлен", c.ID)
	return nil
}

func (a *app) customerUpdate(args []string) error {
	fs := newFlagSet("customer update", a.errOut)
	var f customerFlags
	bindCustomerFlags(&f, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id"); err != nil {
		return err
	}

	var patch service.CustomerPatch
	if isSet(fs, "name") {
		patch.Name = &f.name
	}
	if isSet(fs, "phone") {
		patch.Telephone = &f.phone
	}
	if isSet(fs, "status") {
		v := model.CustomerStatus(f.status)
		patch.Status = &v
	}

	c, err := a.catalog.UpdateCustomer(f.id, patch)
	if err != nil {
		return err
	}
	a.success("Покупатель %s обновлён", c.ID)
	return nil
}

func (a *app) customerDelete(args []string) error {
	id, err := a.idFlag("customer delete", args)
	if err != nil {
		return err
	}
	if _, err := a.catalog.DeleteCustomer(id); err != nil {
		return err
	}
	a.success("Покупатель %s удалён", id)
	return nil
}

func (a *app) customerView(args []string) error {
	id, err := a.idFlag("customer view", args)
	if err != nil {
		return err
	}
	c, err := a.catalog.ViewCustomer(id)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, customerTable([]model.Customer{c}))
	return nil
}

func (a *app) customerList(args []string) error {
	fs := newFlagSet("customer list", a.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}
	customers, err := a.catalog.ViewCustomers()
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, customerTable(customers))
	return nil
}

func customerTable(customers []model.Customer) *report.Table {
	t := report.NewTable("ID", "Name", "Telephone", "Status")
	for _, c := range customers {
		t.AddRow(c.ID, c.Name, c.Telephone, customerStatus(c.Status))
	}
	return t
}

func customerStatus(s model.CustomerStatus) string {
	switch s {
	case model.CustomerActive:
		return "Active"
	case model.CustomerBlocked:
		return "Blocked"
	case model.CustomerRemoved:
		return "Removed"
	default:
		return strconv.Itoa(int(s))
	}
}

// idFlag разбирает подкоманду с единственным обязательным флагом -id.
func (a *app) idFlag(name string, args []string) (string, error) {
	fs := newFlagSet(name, a.errOut)
	id := fs.String("id", "", "Код записи")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if err := requireFlags(fs, "id"); err != nil {
		return "", err
	}
	return *id, nil
}
