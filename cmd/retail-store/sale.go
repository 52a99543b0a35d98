package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/prompt"
	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/service"
)

func (a *app) saleCreate(args []string) error {
	fs := newFlagSet("sale create", a.errOut)
	customer := fs.String("customer", "", "Имя покупателя")
	date := fs.String("date", "", "Дата продажи (по умолчанию сегодня)")
	interactive := fs.Bool("i", false, "Ввести продажу в диалоге")
	var lines lineFlag
	fs.Var(&lines, "line", "Позиция PRODUCT:AMOUNT[:DISCOUNT], повторяемый")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req service.CreateSaleRequest
	if *interactive {
		r, err := a.askSale()
		if isAborted(err) {
			fmt.Fprintln(a.out, "Ввод прерван, продажа не создана")
			return nil
		}
		if err != nil {
			return err
		}
		req = r
	} else {
		if err := requireFlags(fs, "customer"); err != nil {
			return err
		}
		reqs, err := lines.requests()
		if err != nil {
			return err
		}
		req = service.CreateSaleRequest{CustomerName: *customer, Lines: reqs}
	}
	if *date != "" {
		d, err := parseReportDate(*date)
		if err != nil {
			return err
		}
		req.Date = d
	}

	view, err := a.sales.CreateSale(req)
	if err != nil {
		return err
	}
	a.printSale(view)
	a.success("Продажа %s проведена", view.Sale.ID)
	return nil
}

// askSale собирает продажу в диалоге: покупатель, затем позиции до отказа оператора.
func (a *app) askSale() (service.CreateSaleRequest, error) {
	p := prompt.New(a.in, a.out)

	customers, err := a.catalog.ListCustomers()
	if err != nil {
		return service.CreateSaleRequest{}, err
	}
	name, err := prompt.Ask(p, "Customer name", func(s string) (string, error) {
		for _, c := range customers {
			if strings.EqualFold(c.Name, s) {
				if c.Status != model.CustomerActive {
					return "", fmt.Errorf("покупателю %s покупки запрещены", c.Name)
				}
				return c.Name, nil
			}
		}
		return "", fmt.Errorf("покупатель %q не найден", s)
	})
	if err != nil {
		return service.CreateSaleRequest{}, err
	}

	req := service.CreateSaleRequest{CustomerName: name}
	taken := make(map[string]bool)

	for {
		product, err := prompt.Ask(p, "Product ID", func(s string) (model.Product, error) {
			if taken[s] {
				return model.Product{}, fmt.Errorf("товар %s уже в продаже", s)
			}
			pr, err := a.catalog.GetProduct(s)
			if err != nil {
				return model.Product{}, err
			}
			if pr.Status == model.ProductDiscontinued || pr.Amount <= 0 {
				return model.Product{}, fmt.Errorf("товар %s недоступен для продажи (%s)", pr.ID, pr.Status)
			}
			return pr, nil
		})
		if err != nil {
			return service.CreateSaleRequest{}, err
		}

		amount, err := p.Int(fmt.Sprintf("Amount (1-%d)", product.Amount), 1, product.Amount)
		if err != nil {
			return service.CreateSaleRequest{}, err
		}
		maxDiscount := product.SalePrice * float32(amount)
		discount, err := p.Float(fmt.Sprintf("Discount (0-%.2f)", maxDiscount), 0, maxDiscount)
		if err != nil {
			return service.CreateSaleRequest{}, err
		}

		taken[product.ID] = true
		req.Lines = append(req.Lines, service.LineRequest{ProductID: product.ID, Amount: amount, Discount: discount})

		more, err := p.Confirm("Add another product")
		if err != nil {
			return service.CreateSaleRequest{}, err
		}
		if !more {
			return req, nil
		}
	}
}

func (a *app) saleUpdate(args []string) error {
	fs := newFlagSet("sale update", a.errOut)
	id := fs.String("id", "", "Номер продажи")
	customer := fs.String("customer-id", "", "Новый код покупателя")
	date := fs.String("date", "", "Новая дата продажи")
	status := fs.String("status", "", "Новый статус: 0|normal, 1|cancelled")
	var lines lineFlag
	fs.Var(&lines, "line", "Правка или новая позиция PRODUCT:[AMOUNT][:DISCOUNT], повторяемый")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id"); err != nil {
		return err
	}

	upd := service.SaleUpdate{Lines: lines.changes}
	if isSet(fs, "customer-id") {
		upd.CustomerID = customer
	}
	if isSet(fs, "date") {
		d, err := parseReportDate(*date)
		if err != nil {
			return err
		}
		upd.Date = &d
	}
	if isSet(fs, "status") {
		st, err := parseSaleStatus(*status)
		if err != nil {
			return err
		}
		upd.Status = &st
	}

	view, err := a.sales.UpdateSale(*id, upd)
	if err != nil {
		return err
	}
	a.printSale(view)
	a.success("Продажа %s обновлена", view.Sale.ID)
	return nil
}

func (a *app) saleDelete(args []string) error {
	id, err := a.idFlag("sale delete", args)
	if err != nil {
		return err
	}
	view, err := a.sales.DeleteSale(id)
	if err != nil {
		return err
	}
	a.success("Продажа %s удалена (%d позиций)", view.Sale.ID, len(view.Lines))
	return nil
}

func (a *app) saleDeleteLine(args []string) error {
	fs := newFlagSet("sale delete-line", a.errOut)
	id := fs.String("id", "", "Номер продажи")
	product := fs.String("product", "", "Код товара")
	count := fs.Int("count", 0, "Сколько единиц убрать")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags(fs, "id", "product"); err != nil {
		return err
	}

	view, err := a.sales.DeleteSaleLine(*id, *product, int32(*count))
	if err != nil {
		return err
	}
	a.printSale(view)
	a.success("Из продажи %s убрано %d ед. товара %s", view.Sale.ID, *count, *product)
	return nil
}

func (a *app) saleShow(args []string) error {
	id, err := a.idFlag("sale show", args)
	if err != nil {
		return err
	}
	view, err := a.sales.GetSale(id)
	if err != nil {
		return err
	}
	a.printSale(view)
	return nil
}

func (a *app) saleList(args []string) error {
	fs := newFlagSet("sale list", a.errOut)
	date := fs.String("date", "", "Только продажи за дату")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := ""
	if *date != "" {
		d, err := parseReportDate(*date)
		if err != nil {
			return err
		}
		filter = d
	}

	sales, err := a.sales.ListSales(filter)
	if err != nil {
		return err
	}

	t := report.NewTable("Sale ID", "Customer ID", "Date", "Net Price", "Discount", "Status").AlignRight(3, 4)
	for _, s := range sales {
		t.AddRow(s.ID, s.CustomerID, s.Date, money(s.NetPrice), money(s.TotalDiscount), s.Status.String())
	}
	fmt.Fprint(a.out, t)
	return nil
}

// printSale выводит заголовок продажи и таблицу позиций.
func (a *app) printSale(v *service.SaleView) {
	s := v.Sale
	fmt.Fprintf(a.out, "Sale %s  customer %s  date %s  status %s\n", s.ID, s.CustomerID, s.Date, s.Status)

	t := report.NewTable("Product ID", "Amount", "Price", "Discount").AlignRight(1, 2, 3)
	for _, l := range v.Lines {
		t.AddRow(l.ProductID, strconv.Itoa(int(l.Amount)), money(l.SalePrice), money(l.Discount))
	}
	fmt.Fprint(a.out, t)
	fmt.Fprintf(a.out, "Net: %s  Discount: %s\n", money(s.NetPrice), money(s.TotalDiscount))
}

func money(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

// isAborted сообщает, что оператор прервал диалог.
func isAborted(err error) bool {
	return errors.Is(err, prompt.ErrAborted)
}
