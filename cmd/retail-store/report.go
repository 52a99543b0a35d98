package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/briandowns/spinner"

	"github.com/bigkaa/goartstore/retail-store/internal/report"
	"github.com/bigkaa/goartstore/retail-store/internal/service"
)

// spinnerInterval — период обновления индикатора прогресса.
const spinnerInterval = 100 * time.Millisecond

func (a *app) generateReport(args []string) error {
	fs := newFlagSet("report", a.errOut)
	date := fs.String("date", "", "Дата отчёта (по умолчанию сегодня)")
	includeCancelled := fs.Bool("include-cancelled", false, "Выводить отменённые продажи")
	out := fs.String("out", a.cfg.ReportFile, "Файл отчёта")
	show := fs.Bool("print", false, "Вывести отчёт в stdout")
	progress := fs.Bool("progress", false, "Показывать индикатор прогресса")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := report.Options{IncludeCancelled: *includeCancelled}
	if *date != "" {
		d, ok := report.ParseSaleDate(*date)
		if !ok {
			return fmt.Errorf("%w: нераспознанная дата %q", service.ErrValidation, *date)
		}
		opts.Date = d
	}

	var s *spinner.Spinner
	if *progress {
		s = spinner.New(spinner.CharSets[11], spinnerInterval, spinner.WithWriter(a.errOut))
		s.Suffix = " building report"
		s.Start()
	}

	r, err := a.reports.Build(a.ctx, opts)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}
	if err := report.Write(*out, r); err != nil {
		return err
	}
	a.logger.Info("Отчёт записан", slog.String("path", *out), slog.String("run_id", r.RunID))

	if *show {
		fmt.Fprint(a.out, report.Render(r))
	}
	a.success("Отчёт за %s записан в %s", r.Date.Format("02-01-2006"), *out)
	return nil
}
