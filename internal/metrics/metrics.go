// Пакет metrics — Prometheus метрики магазина.
//
// Сетевого endpoint нет: метрики регистрируются в собственном реестре
// и по завершении команды выгружаются в текстовый файл для
// node_exporter textfile collector (RETAIL_METRICS_FILE).
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry — реестр метрик магазина.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Метрики хранилища
var (
	// TruncatedRecordsTotal — сколько раз чтение файла остановилось на неполной записи.
	TruncatedRecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_truncated_records_total",
			Help: "Количество остановок чтения на неполной или повреждённой записи",
		},
		[]string{"file"},
	)

	// AuditEntriesTotal — записи, добавленные в журналы изменений.
	AuditEntriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_audit_entries_total",
			Help: "Количество записей, добавленных в журналы изменений",
		},
		[]string{"log", "op"},
	)
)

// Бизнес-метрики (обновляются из сервисного слоя)
var (
	// OperationsTotal — операции сервисного слоя по результату.
	OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retail_operations_total",
			Help: "Количество операций над товарами, покупателями и продажами",
		},
		[]string{"operation", "result"},
	)

	// UnitsSoldTotal — проданные единицы товара, без учёта возвратов.
	UnitsSoldTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "retail_units_sold_total",
			Help: "Количество проданных единиц товара",
		},
	)

	// UnitsReturnedTotal — единицы, возвращённые на склад при отмене или удалении.
	UnitsReturnedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "retail_units_returned_total",
			Help: "Количество единиц товара, возвращённых на склад",
		},
	)

	// ProductsTotal — число товаров по статусу на момент последнего отчёта.
	ProductsTotal = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "retail_products_total",
			Help: "Количество товаров по статусу",
		},
		[]string{"status"},
	)

	// SalesNetTotal — сумма чистых продаж за дату отчёта.
	SalesNetTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "retail_sales_net_total",
			Help: "Сумма чистых продаж (без отменённых) за дату отчёта",
		},
	)
)

// Result возвращает метку результата операции.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// WriteTextfile выгружает все метрики реестра в файл формата text exposition.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("ошибка записи метрик в %s: %w", path, err)
	}
	return nil
}
