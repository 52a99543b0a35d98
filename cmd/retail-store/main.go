// Точка входа retail-store — учёт товаров, покупателей и продаж магазина.
//
// Использование: retail-store <группа> <команда> [флаги]
//
//	product  add|update|delete|view|list
//	customer add|update|delete|view|list
//	sale     create|update|delete|delete-line|show|list
//	log      product|customer
//	report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/bigkaa/goartstore/retail-store/internal/config"
	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/repository"
	"github.com/bigkaa/goartstore/retail-store/internal/service"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/auditlog"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// command — обработчик подкоманды.
type command func(a *app, args []string) error

// commands — группы и подкоманды. Пустое имя подкоманды — группа без подкоманд.
var commands = map[string]map[string]command{
	"product": {
		"add":    (*app).productAdd,
		"update": (*app).productUpdate,
		"delete": (*app).productDelete,
		"view":   (*app).productView,
		"list":   (*app).productList,
	},
	"customer": {
		"add":    (*app).customerAdd,
		"update": (*app).customerUpdate,
		"delete": (*app).customerDelete,
		"view":   (*app).customerView,
		"list":   (*app).customerList,
	},
	"sale": {
		"create":      (*app).saleCreate,
		"update":      (*app).saleUpdate,
		"delete":      (*app).saleDelete,
		"delete-line": (*app).saleDeleteLine,
		"show":        (*app).saleShow,
		"list":        (*app).saleList,
	},
	"log": {
		"product":  (*app).logProduct,
		"customer": (*app).logCustomer,
	},
	"report": {
		"": (*app).generateReport,
	},
}

// app — собранные компоненты и потоки ввода-вывода одной команды.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	ctx     context.Context
	catalog *service.CatalogService
	sales   *service.SaleService
	reports *report.Aggregator

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// run выполняет одну команду и возвращает код завершения процесса.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	// Загрузка конфигурации из переменных окружения и .env
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(errOut, "Ошибка конфигурации: %v\n", err)
		return 1
	}

	logger := config.SetupLogger(cfg)
	logger.Debug("retail-store запускается",
		slog.String("version", config.Version),
		slog.String("data_dir", cfg.DataDir),
		slog.String("user", cfg.User),
	)

	a := newApp(ctx, cfg, logger, in, out, errOut)
	err = a.dispatch(args)

	if cfg.MetricsFile != "" {
		if mErr := metrics.WriteTextfile(cfg.MetricsFile); mErr != nil {
			logger.Warn("Метрики не выгружены", slog.String("error", mErr.Error()))
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(errOut, err)
		usage(errOut)
		return 2
	}

	if service.IsBusinessError(err) {
		logger.Warn("Операция отклонена", slog.String("error", err.Error()))
	} else {
		logger.Error("Ошибка выполнения команды", slog.String("error", err.Error()))
	}
	color.New(color.FgRed).Fprintf(errOut, "Ошибка: %v\n", err)
	return 1
}

// newApp собирает хранилища, журналы и сервисы по конфигурации.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out, errOut io.Writer) *app {
	products := repository.NewProductStore(cfg.ProductFile, logger)
	customers := repository.NewCustomerStore(cfg.CustomerFile, logger)
	sales := repository.NewSaleRepository(cfg.SaleFile, cfg.SaleDetailFile, logger)
	productLog := auditlog.NewProductLog(cfg.ProductLogFile, cfg.User, logger)
	customerLog := auditlog.NewCustomerLog(cfg.CustomerLogFile, cfg.User, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		catalog: service.NewCatalogService(products, customers, productLog, customerLog, cfg.User, logger),
		sales:   service.NewSaleService(products, customers, sales, logger),
		reports: report.NewAggregator(products, customers, sales, productLog, customerLog, logger),
		in:      in,
		out:     out,
		errOut:  errOut,
	}
}

var errUsage = errors.New("неизвестная команда")

func (a *app) dispatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: не указана группа команд", errUsage)
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(a.out)
		return nil
	}

	group, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %q", errUsage, args[0])
	}
	if cmd, ok := group[""]; ok {
		return cmd(a, args[1:])
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: не указана команда группы %s", errUsage, args[0])
	}
	cmd, ok := group[args[1]]
	if !ok {
		return fmt.Errorf("%w: %s %q", errUsage, args[0], args[1])
	}
	return cmd(a, args[2:])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Использование: retail-store <группа> <команда> [флаги]")
	groups := make([]string, 0, len(commands))
	for g := range commands {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		names := make([]string, 0, len(commands[g]))
		for n := range commands[g] {
			if n != "" {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		fmt.Fprintf(w, "  %-9s %s\n", g, strings.Join(names, "|"))
	}
}

// success выводит сообщение об успешной операции.
func (a *app) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(a.out, format+"\n", args...)
}
