package service

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
)

// TestAddProduct_AuditsOnce проверяет одну запись ADD на добавление.
func TestAddProduct_AuditsOnce(t *testing.T) {
	env := newTestEnv(t)

	p, err := env.catalog.AddProduct(model.Product{
		ID: " P100 ", Name: "Desert Eagle", Cost: 50, SalePrice: 80, Amount: 3, Category: "pistol", Status: model.ProductActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "P100", p.ID)
	assert.Equal(t, "Pistol", p.Category, "категория приводится к каноническому виду")

	changes, err := env.catalog.ProductChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1, spew.Sdump(changes))
	assert.Equal(t, model.OpAdd, changes[0].Op)
	assert.Equal(t, p, changes[0].Snapshot)
	assert.Equal(t, "cashier", changes[0].User)
	assert.Equal(t, "2026-10-15 10:00:00", changes[0].Timestamp)
}

// TestAddProduct_Conflict проверяет ErrConflict и отсутствие записи журнала.
func TestAddProduct_Conflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedCatalog(t)

	before, _ := env.catalog.ProductChanges()
	_, err := env.catalog.AddProduct(model.Product{ID: "P001", Name: "dup", Category: "Rifle", Status: model.ProductActive})
	assert.ErrorIs(t, err, ErrConflict)

	after, _ := env.catalog.ProductChanges()
	assert.Len(t, after, len(before), "неудачная операция не пишет журнал")
}

// TestAddProduct_Validation проверяет отказ для некорректных товаров.
func TestAddProduct_Validation(t *testing.T) {
	env := newTestEnv(t)

	valid := model.Product{ID: "P100", Name: "AK-47", Cost: 1, SalePrice: 2, Amount: 1, Category: "Rifle", Status: model.ProductActive}

	tests := []struct {
		name   string
		mutate func(p *model.Product)
	}{
		{"пустой id", func(p *model.Product) { p.ID = "" }},
		{"id с пробелом", func(p *model.Product) { p.ID = "P 1" }},
		{"пустое название", func(p *model.Product) { p.Name = "  " }},
		{"неизвестная категория", func(p *model.Product) { p.Category = "Cannon" }},
		{"отрицательная цена", func(p *model.Product) { p.SalePrice = -1 }},
		{"отрицательная себестоимость", func(p *model.Product) { p.Cost = -1 }},
		{"отрицательный остаток", func(p *model.Product) { p.Amount = -1 }},
		{"статус 0", func(p *model.Product) { p.Status = 0 }},
		{"длинное название", func(p *model.Product) { p.Name = "a name longer than twenty" }},
		{"длинный id", func(p *model.Product) { p.ID = "P0000000000001" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := env.catalog.AddProduct(p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	products, err := env.catalog.ListProducts()
	require.NoError(t, err)
	assert.Empty(t, products)
}

// TestUpdateProduct_SequentialAudit проверяет: N обновлений — N записей с полными снимками.
func TestUpdateProduct_SequentialAudit(t *testing.T) {
	env := newTestEnv(t)
	env.seedCatalog(t)

	const n = 4
	for i := 1; i <= n; i++ {
		_, err := env.catalog.UpdateProduct("P002", ProductPatch{Amount: ptr(int32(10 + i))})
		require.NoError(t, err)
	}

	changes, err := env.catalog.ProductChanges()
	require.NoError(t, err)

	var updates []model.ProductChange
	for _, c := range changes {
		if c.Op == model.OpUpdate {
			updates = append(updates, c)
		}
	}
	require.Len(t, updates, n, spew.Sdump(changes))
	for i, u := range updates {
		assert.Equal(t, int32(11+i), u.Snapshot.Amount)
		assert.Equal(t, "M870", u.Snapshot.Name, "снимок полный")
	}

	assert.Equal(t, int32(10+n), env.product(t, "P002").Amount)
}

// TestUpdateProduct_NotFound проверяет ErrNotFound.
func TestUpdateProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.UpdateProduct("P404", ProductPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDeleteProduct_Snapshot проверяет удаление и статус 3 в снимке журнала.
func TestDeleteProduct_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	env.seedCatalog(t)

	removed, err := env.catalog.DeleteProduct("P001")
	require.NoError(t, err)
	assert.Equal(t, model.ProductActive, removed.Status)

	_, err = env.catalog.GetProduct("P001")
	assert.ErrorIs(t, err, ErrNotFound)

	changes, _ := env.catalog.ProductChanges()
	last := changes[len(changes)-1]
	assert.Equal(t, model.OpDelete, last.Op)
	assert.Equal(t, model.ProductDiscontinued, last.Snapshot.Status)

	_, err = env.catalog.DeleteProduct("P001")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestViewProduct_Audit проверяет запись VIEW.
func TestViewProduct_Audit(t *testing.T) {
	env := newTestEnv(t)
	env.seedCatalog(t)

	p, err := env.catalog.ViewProduct("P004")
	require.NoError(t, err)
	assert.Equal(t, "MP5", p.Name)

	changes, _ := env.catalog.ProductChanges()
	assert.Equal(t, model.OpView, changes[len(changes)-1].Op)
}

// TestViewLists_AuditOnce проверяет одну запись VIEW на просмотр списка.
func TestViewLists_AuditOnce(t *testing.T) {
	env := newTestEnv(t)

	products, err := env.catalog.ViewProducts()
	require.NoError(t, err)
	assert.Empty(t, products)
	changes, _ := env.catalog.ProductChanges()
	assert.Empty(t, changes, "пустой список не пишет журнал")

	env.seedCatalog(t)
	productsBefore, _ := env.catalog.ProductChanges()
	customersBefore, _ := env.catalog.CustomerChanges()

	products, err = env.catalog.ViewProducts()
	require.NoError(t, err)
	assert.Len(t, products, 4)

	productsAfter, _ := env.catalog.ProductChanges()
	require.Len(t, productsAfter, len(productsBefore)+1)
	last := productsAfter[len(productsAfter)-1]
	assert.Equal(t, model.OpView, last.Op)
	assert.Equal(t, "P001", last.Snapshot.ID)

	customers, err := env.catalog.ViewCustomers()
	require.NoError(t, err)
	assert.Len(t, customers, 2)

	customersAfter, _ := env.catalog.CustomerChanges()
	require.Len(t, customersAfter, len(customersBefore)+1)
	assert.Equal(t, model.OpView, customersAfter[len(customersAfter)-1].Op)
	assert.Equal(t, "C001", customersAfter[len(customersAfter)-1].Snapshot.ID)

	// Внутренние чтения журнал не трогают
	_, err = env.catalog.ListProducts()
	require.NoError(t, err)
	unchanged, _ := env.catalog.ProductChanges()
	assert.Len(t, unchanged, len(productsAfter))
}

// TestCatalogService_LongUser: длинное имя оператора обрезается до поля
// записи, и сохранение всегда сопровождается записью журнала.
func TestCatalogService_LongUser(t *testing.T) {
	env := newTestEnv(t)
	catalog := NewCatalogService(env.products, env.customers, env.catalog.productLog, env.catalog.customerLog,
		"warehouse_supervisor_1", testLogger())

	_, err := catalog.AddProduct(model.Product{
		ID: "P100", Name: "Desert Eagle", Cost: 50, SalePrice: 80, Amount: 3, Category: "Pistol", Status: model.ProductActive,
	})
	require.NoError(t, err)

	changes, err := catalog.ProductChanges()
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "warehouse_supervisor", changes[0].User)
}

func TestFitWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"admin", 20, "admin"},
		{"warehouse_supervisor_1", 20, "warehouse_supervisor"},
		{"ผู้ดูแล", 4, "ผ"},
		{"", 20, ""},
	}
	for _, tt := range tests {
		if got := fitWidth(tt.in, tt.width); got != tt.want {
			t.Errorf("fitWidth(%q, %d): ожидалось %q, получено %q", tt.in, tt.width, tt.want, got)
		}
	}
}

// TestCustomerLifecycle проверяет добавление, обновление, просмотр и удаление покупателя.
func TestCustomerLifecycle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.catalog.AddCustomer(model.Customer{ID: "C010", Name: "Niran", Telephone: "0800000000", Status: model.CustomerActive})
	require.NoError(t, err)

	_, err = env.catalog.AddCustomer(model.Customer{ID: "C010", Name: "Other", Status: model.CustomerActive})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.catalog.AddCustomer(model.Customer{ID: "C011", Name: "Bad", Status: model.CustomerRemoved})
	assert.ErrorIs(t, err, ErrValidation, "статус 2 не записывается в файл покупателей")

	c, err := env.catalog.UpdateCustomer("C010", CustomerPatch{Status: ptr(model.CustomerBlocked)})
	require.NoError(t, err)
	assert.Equal(t, model.CustomerBlocked, c.Status)

	_, err = env.catalog.ViewCustomer("C010")
	require.NoError(t, err)

	_, err = env.catalog.DeleteCustomer("C010")
	require.NoError(t, err)

	changes, err := env.catalog.CustomerChanges()
	require.NoError(t, err)

	ops := make([]model.ChangeOp, len(changes))
	for i, ch := range changes {
		ops[i] = ch.Op
	}
	assert.Equal(t, []model.ChangeOp{model.OpAdd, model.OpUpdate, model.OpView, model.OpDelete}, ops)
	assert.Equal(t, model.CustomerRemoved, changes[3].Snapshot.Status)

	customers, _ := env.catalog.ListCustomers()
	assert.Empty(t, customers)
}

// TestIsBusinessError проверяет классификацию ошибок.
func TestIsBusinessError(t *testing.T) {
	assert.True(t, IsBusinessError(ErrNotFound))
	assert.True(t, IsBusinessError(errors.Join(errors.New("x"), ErrValidation)))
	assert.False(t, IsBusinessError(errors.New("disk full")))
}
