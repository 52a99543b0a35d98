package record

import "github.com/bigkaa/goartstore/retail-store/internal/domain/model"

// Раскладки файлов магазина.
var (
	ProductLayout = NewLayout("product",
		String("id", model.ProductIDWidth),
		String("name", model.ProductNameWidth),
		Float32("cost"),
		Float32("sale_price"),
		Int32("amount"),
		String("category", model.CategoryWidth),
		Int32("status"),
	)

	CustomerLayout = NewLayout("customer",
		String("id", model.CustomerIDWidth),
		String("name", model.CustomerNameWidth),
		String("tel", model.TelephoneWidth),
		Int32("status"),
	)

	SaleLayout = NewLayout("sale",
		String("sale_id", model.SaleIDWidth),
		String("cust_id", model.CustomerIDWidth),
		String("date", model.DateWidth),
		Float32("net_price"),
		Float32("discount"),
		Int32("status"),
	)

	SaleDetailLayout = NewLayout("sale_detail",
		String("sale_id", model.SaleIDWidth),
		String("pro_id", model.ProductIDWidth),
		Int32("amount"),
		Float32("sale_price"),
		Float32("discount"),
	)

	ProductChangeLayout = NewLayout("product_change",
		String("ts", model.TimestampWidth),
		Int32("op"),
		String("id", model.ProductIDWidth),
		String("name", model.ProductNameWidth),
		Float32("cost"),
		Float32("sale_price"),
		Int32("amount"),
		String("category", model.CategoryWidth),
		Int32("status"),
		String("user", model.UserWidth),
	)

	CustomerChangeLayout = NewLayout("customer_change",
		String("ts", model.TimestampWidth),
		Int32("op"),
		String("id", model.CustomerIDWidth),
		String("name", model.CustomerNameWidth),
		String("tel", model.TelephoneWidth),
		Int32("status"),
		String("user", model.UserWidth),
	)
)

// Кодеки сущностей.
var (
	ProductCodec = NewCodec(ProductLayout,
		encodeProduct,
		decodeProduct,
	)

	CustomerCodec = NewCodec(CustomerLayout,
		encodeCustomer,
		decodeCustomer,
	)

	SaleCodec = NewCodec(SaleLayout,
		func(e *Encoder, s model.Sale) {
			e.String(s.ID)
			e.String(s.CustomerID)
			e.String(s.Date)
			e.Float32(s.NetPrice)
			e.Float32(s.TotalDiscount)
			e.Int32(int32(s.Status))
		},
		func(d *Decoder) model.Sale {
			return model.Sale{
				ID:            d.String(),
				CustomerID:    d.String(),
				Date:          d.String(),
				NetPrice:      d.Float32(),
				TotalDiscount: d.Float32(),
				Status:        model.SaleStatus(d.Int32()),
			}
		},
	)

	SaleDetailCodec = NewCodec(SaleDetailLayout,
		func(e *Encoder, sd model.SaleDetail) {
			e.String(sd.SaleID)
			e.String(sd.ProductID)
			e.Int32(sd.Amount)
			e.Float32(sd.SalePrice)
			e.Float32(sd.Discount)
		},
		func(d *Decoder) model.SaleDetail {
			return model.SaleDetail{
				SaleID:    d.String(),
				ProductID: d.String(),
				Amount:    d.Int32(),
				SalePrice: d.Float32(),
				Discount:  d.Float32(),
			}
		},
	)

	ProductChangeCodec = NewCodec(ProductChangeLayout,
		func(e *Encoder, c model.ProductChange) {
			e.String(c.Timestamp)
			e.Int32(int32(c.Op))
			encodeProduct(e, c.Snapshot)
			e.String(c.User)
		},
		func(d *Decoder) model.ProductChange {
			var c model.ProductChange
			c.Timestamp = d.String()
			c.Op = model.ChangeOp(d.Int32())
			c.Snapshot = decodeProduct(d)
			c.User = d.String()
			return c
		},
	)

	CustomerChangeCodec = NewCodec(CustomerChangeLayout,
		func(e *Encoder, c model.CustomerChange) {
			e.String(c.Timestamp)
			e.Int32(int32(c.Op))
			encodeCustomer(e, c.Snapshot)
			e.String(c.User)
		},
		func(d *Decoder) model.CustomerChange {
			var c model.CustomerChange
			c.Timestamp = d.String()
			c.Op = model.ChangeOp(d.Int32())
			c.Snapshot = decodeCustomer(d)
			c.User = d.String()
			return c
		},
	)
)

// Поля товара используются и в product.dat, и в снимке журнала.
func encodeProduct(e *Encoder, p model.Product) {
	e.String(p.ID)
	e.String(p.Name)
	e.Float32(p.Cost)
	e.Float32(p.SalePrice)
	e.Int32(p.Amount)
	e.String(p.Category)
	e.Int32(int32(p.Status))
}

func decodeProduct(d *Decoder) model.Product {
	var p model.Product
	p.ID = d.String()
	p.Name = d.String()
	p.Cost = d.Float32()
	p.SalePrice = d.Float32()
	p.Amount = d.Int32()
	p.Category = d.String()
	p.Status = model.ProductStatus(d.Int32())
	return p
}

func encodeCustomer(e *Encoder, c model.Customer) {
	e.String(c.ID)
	e.String(c.Name)
	e.String(c.Telephone)
	e.Int32(int32(c.Status))
}

func decodeCustomer(d *Decoder) model.Customer {
	var c model.Customer
	c.ID = d.String()
	c.Name = d.String()
	c.Telephone = d.String()
	c.Status = model.CustomerStatus(d.Int32())
	return c
}
