package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/service"
)

// newFlagSet создаёт набор флагов подкоманды; ошибки разбора пишутся в errOut.
func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// isSet сообщает, был ли флаг name задан в командной строке.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// requireFlags проверяет, что обязательные строковые флаги не пусты.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil || strings.TrimSpace(f.Value.String()) == "" {
			return fmt.Errorf("%w: флаг -%s обязателен", service.ErrValidation, name)
		}
	}
	return nil
}

// lineFlag — повторяемый флаг -line PRODUCT:AMOUNT[:DISCOUNT].
// Количество может быть пустым (PRODUCT::DISCOUNT) — только при правке продажи.
type lineFlag struct {
	changes []service.LineChange
}

func (l *lineFlag) String() string {
	parts := make([]string, 0, len(l.changes))
	for _, c := range l.changes {
		parts = append(parts, c.ProductID)
	}
	return strings.Join(parts, ",")
}

func (l *lineFlag) Set(v string) error {
	c, err := parseLine(v)
	if err != nil {
		return err
	}
	l.changes = append(l.changes, c)
	return nil
}

// requests переводит позиции в запросы новой продажи; количество обязательно.
func (l *lineFlag) requests() ([]service.LineRequest, error) {
	reqs := make([]service.LineRequest, 0, len(l.changes))
	for _, c := range l.changes {
		if c.Amount == nil {
			return nil, fmt.Errorf("%w: для позиции %s не указано количество", service.ErrValidation, c.ProductID)
		}
		r := service.LineRequest{ProductID: c.ProductID, Amount: *c.Amount}
		if c.Discount != nil {
			r.Discount = *c.Discount
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func parseLine(v string) (service.LineChange, error) {
	fields := strings.Split(v, ":")
	if len(fields) < 2 || len(fields) > 3 || strings.TrimSpace(fields[0]) == "" {
		return service.LineChange{}, fmt.Errorf("ожидается PRODUCT:AMOUNT[:DISCOUNT], получено %q", v)
	}

	c := service.LineChange{ProductID: strings.TrimSpace(fields[0])}
	if s := strings.TrimSpace(fields[1]); s != "" {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return service.LineChange{}, fmt.Errorf("некорректное количество %q", s)
		}
		amount := int32(n)
		c.Amount = &amount
	}
	if len(fields) == 3 {
		if s := strings.TrimSpace(fields[2]); s != "" {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return service.LineChange{}, fmt.Errorf("некорректная скидка %q", s)
			}
			d := float32(f)
			c.Discount = &d
		}
	}
	if c.Amount == nil && c.Discount == nil {
		return service.LineChange{}, fmt.Errorf("в позиции %q нечего менять", v)
	}
	return c, nil
}

// parseSaleStatus разбирает статус продажи: 0/normal или 1/cancelled.
func parseSaleStatus(s string) (model.SaleStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "normal":
		return model.SaleCompleted, nil
	case "1", "cancelled", "canceled":
		return model.SaleCancelled, nil
	default:
		return 0, fmt.Errorf("%w: недопустимый статус продажи %q (0|normal, 1|cancelled)", service.ErrValidation, s)
	}
}

// parseReportDate разбирает дату в любом из форматов, принятых в sale.dat.
func parseReportDate(s string) (string, error) {
	t, ok := report.ParseSaleDate(s)
	if !ok {
		return "", fmt.Errorf("%w: нераспознанная дата %q", service.ErrValidation, s)
	}
	return t.Format(model.DateLayout), nil
}
