package main

import (
	"fmt"
	"strconv"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/auditlog"
)

// logFilter разбирает флаги команд log: -date ограничивает вывод одним днём.
func (a *app) logFilter(name string, args []string) (func(timestamp string) bool, error) {
	fs := newFlagSet(name, a.errOut)
	date := fs.String("date", "", "Только записи за дату")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *date == "" {
		return func(string) bool { return true }, nil
	}

	day, err := parseReportDate(*date)
	if err != nil {
		return nil, err
	}
	return func(ts string) bool {
		t, err := auditlog.ParseTimestamp(ts)
		return err == nil && t.Format(model.DateLayout) == day
	}, nil
}

func (a *app) logProduct(args []string) error {
	keep, err := a.logFilter("log product", args)
	if err != nil {
		return err
	}
	entries, err := a.catalog.ProductChanges()
	if err != nil {
		return err
	}

	t := report.NewTable("Timestamp", "Action", "ID", "Name", "Price", "Amount", "Category", "Status", "User").
		AlignRight(4, 5)
	for _, e := range entries {
		if !keep(e.Timestamp) {
			continue
		}
		p := e.Snapshot
		t.AddRow(e.Timestamp, e.Op.String(), p.ID, p.Name, money(p.SalePrice),
			strconv.Itoa(int(p.Amount)), p.Category, p.Status.String(), e.User)
	}
	fmt.Fprint(a.out, t)
	return nil
}

func (a *app) logCustomer(args []string) error {
	keep, err := a.logFilter("log customer", args)
	if err != nil {
		return err
	}
	entries, err := a.catalog.CustomerChanges()
	if err != nil {
		return err
	}

	t := report.NewTable("Timestamp", "Action", "ID", "Name", "Telephone", "Status", "User")
	for _, e := range entries {
		if !keep(e.Timestamp) {
			continue
		}
		c := e.Snapshot
		t.AddRow(e.Timestamp, e.Op.String(), c.ID, c.Name, c.Telephone, customerStatus(c.Status), e.User)
	}
	fmt.Fprint(a.out, t)
	return nil
}
