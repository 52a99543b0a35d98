package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/recordfile"
)

// reportDateLayout — формат дат в тексте отчёта.
const reportDateLayout = "02-01-2006"

// Render отрисовывает отчёт в текст.
func Render(r *Report) string {
	var b strings.Builder

	b.WriteString("Retail Shop System\n")
	fmt.Fprintf(&b, "Generated At : %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Report Date  : %s\n", r.Date.Format(reportDateLayout))
	fmt.Fprintf(&b, "Run ID       : %s\n", r.RunID)

	section(&b, "Products")
	b.WriteString(ProductTable(r.Products).String())

	section(&b, "Product Status Summary")
	for _, st := range []model.ProductStatus{model.ProductActive, model.ProductOutOfStock, model.ProductDiscontinued} {
		fmt.Fprintf(&b, "- %s: %d\n", st, r.StatusCounts[st])
	}

	section(&b, "Category Summary")
	if len(r.Categories) == 0 {
		b.WriteString("No products\n")
	}
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Amount)
	}

	section(&b, "Out of Stock")
	if len(r.OutOfStock) == 0 {
		b.WriteString("No product is out of stock\n")
	}
	for _, name := range r.OutOfStock {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	section(&b, "Sales of the Day")
	if len(r.Sales) == 0 {
		b.WriteString("No sales for this date\n")
	} else {
		b.WriteString(SalesTable(r.Sales).String())
	}

	section(&b, "Sales Summary")
	writeSummary(&b, &r.Summary)

	if len(r.UnitsSold) > 0 {
		section(&b, "Units Sold")
		t := NewTable("Product ID", "Name", "Units").AlignRight(2)
		for _, u := range r.UnitsSold {
			t.AddRow(u.ProductID, u.Name, strconv.FormatInt(u.Units, 10))
		}
		b.WriteString(t.String())
	}

	section(&b, "Product Change Summary")
	writeLogSummary(&b, &r.ProductChanges, "product")

	section(&b, "Customer Change Summary")
	writeLogSummary(&b, &r.CustomerChanges, "customer")

	return b.String()
}

// Write отрисовывает отчёт и атомарно перезаписывает файл path.
func Write(path string, r *Report) error {
	if err := recordfile.WriteFile(path, []byte(Render(r))); err != nil {
		return fmt.Errorf("ошибка записи отчёта %s: %w", path, err)
	}
	return nil
}

// ProductTable возвращает таблицу товаров.
func ProductTable(products []model.Product) *Table {
	t := NewTable("ID", "Name", "Cost", "Price", "Amount", "Category", "Status").AlignRight(2, 3, 4)
	for _, p := range products {
		t.AddRow(p.ID, p.Name, price(p.Cost), price(p.SalePrice), strconv.Itoa(int(p.Amount)), p.Category, p.Status.String())
	}
	return t
}

// SalesTable возвращает таблицу продаж: одна строка на позицию; номер, покупатель и дата выводятся
// в первой строке продажи, итоги чека — в последней.
func SalesTable(rows []SaleRow) *Table {
	t := NewTable("Sale ID", "Customer", "Date", "Product", "Amount", "Price", "Item Discount",
		"Net Price", "Bill Discount", "Status").AlignRight(4, 5, 6, 7, 8)

	for _, row := range rows {
		s := row.Sale
		date := row.SaleDate.Format(reportDateLayout)
		if len(row.Lines) == 0 {
			t.AddRow(s.ID, row.CustomerName, date, "-", "-", "-", "-", price(s.NetPrice), price(s.TotalDiscount), s.Status.String())
			continue
		}

		last := len(row.Lines) - 1
		for i, l := range row.Lines {
			cells := []string{"", "", "", l.ProductName, strconv.Itoa(int(l.Detail.Amount)),
				price(l.Detail.SalePrice), price(l.Detail.Discount), "", "", ""}
			if i == 0 {
				cells[0], cells[1], cells[2] = s.ID, row.CustomerName, date
			}
			if i == last {
				cells[7], cells[8], cells[9] = price(s.NetPrice), price(s.TotalDiscount), s.Status.String()
			}
			t.AddRow(cells...)
		}
	}
	return t
}

func writeSummary(b *strings.Builder, s *SalesSummary) {
	fmt.Fprintf(b, "- Bills: %d\n", s.Bills)
	fmt.Fprintf(b, "- Total net sales: %s\n", s.Total.StringFixed(2))
	fmt.Fprintf(b, "- Total discount: %s\n", s.TotalDiscount.StringFixed(2))
	if s.Max != nil {
		fmt.Fprintf(b, "- Highest bill: %s (%s) : %s\n", s.Max.Sale.ID, s.Max.CustomerName, money(s.Max.Sale.NetPrice).StringFixed(2))
	}
	if s.Min != nil {
		fmt.Fprintf(b, "- Lowest bill: %s (%s) : %s\n", s.Min.Sale.ID, s.Min.CustomerName, money(s.Min.Sale.NetPrice).StringFixed(2))
	}
	fmt.Fprintf(b, "- Average per bill: %s\n", s.Average.StringFixed(2))
	fmt.Fprintf(b, "- Bills with discount: %d\n", s.WithDiscount)
	fmt.Fprintf(b, "- Cancelled bills: %d\n", s.Cancelled)
}

func writeLogSummary(b *strings.Builder, s *LogSummary, entity string) {
	if s.Entries == 0 {
		fmt.Fprintf(b, "No %s changes for this date\n", entity)
		return
	}
	fmt.Fprintf(b, "Entries: %d\n", s.Entries)
	b.WriteString("Actions:\n")
	for _, op := range model.ChangeOps {
		if n := s.ByOp[op]; n > 0 {
			fmt.Fprintf(b, "- %s: %d\n", op, n)
		}
	}
	b.WriteString("Users:\n")
	for _, u := range s.ByUser {
		fmt.Fprintf(b, "- %s: %d\n", u.User, u.Count)
	}
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n=== %s ===\n", title)
}

func price(v float32) string {
	return money(v).StringFixed(2)
}
