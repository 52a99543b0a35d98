// Пакет auditlog — журнал изменений товаров и покупателей.
//
// Журнал только дописывается: каждая запись — неизменяемый снимок
// сущности после операции с отметкой времени и именем пользователя.
// API перезаписи или сжатия журнала нет намеренно.
package auditlog

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/record"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/recordfile"
)

// TimestampLayout — формат отметки времени при записи (19 байт).
const TimestampLayout = "2006-01-02 15:04:05"

// legacyTimestampLayout — формат старых записей с подчёркиванием.
const legacyTimestampLayout = "2006-01-02_15:04:05"

// Log — журнал изменений сущности T.
type Log[T any] struct {
	name        string
	file        *recordfile.File[model.ChangeEntry[T]]
	defaultUser string
	now         func() time.Time
	logger      *slog.Logger
}

// Option — опция журнала.
type Option[T any] func(*Log[T])

// WithClock подменяет источник времени (используется в тестах).
func WithClock[T any](now func() time.Time) Option[T] {
	return func(l *Log[T]) {
		l.now = now
	}
}

// New создаёт журнал поверх файла path.
// defaultUser подставляется, если пользователь операции не указан.
func New[T any](
	name, path string,
	codec *record.Codec[model.ChangeEntry[T]],
	defaultUser string,
	logger *slog.Logger,
	opts ...Option[T],
) *Log[T] {
	l := &Log[T]{
		name:        name,
		file:        recordfile.New(path, codec, logger),
		defaultUser: defaultUser,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "auditlog"), slog.String("log", name)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewProductLog создаёт журнал product_change.bin.
func NewProductLog(path, defaultUser string, logger *slog.Logger, opts ...Option[model.Product]) *Log[model.Product] {
	return New("product", path, record.ProductChangeCodec, defaultUser, logger, opts...)
}

// NewCustomerLog создаёт журнал customer_change.bin.
func NewCustomerLog(path, defaultUser string, logger *slog.Logger, opts ...Option[model.Customer]) *Log[model.Customer] {
	return New("customer", path, record.CustomerChangeCodec, defaultUser, logger, opts...)
}

// Append дописывает одну запись со снимком snapshot.
// Возвращает записанную запись (с подставленными временем и пользователем).
func (l *Log[T]) Append(op model.ChangeOp, snapshot T, user string) (model.ChangeEntry[T], error) {
	if op < model.OpAdd || op > model.OpView {
		return model.ChangeEntry[T]{}, fmt.Errorf("журнал %s: недопустимый код операции %d", l.name, op)
	}

	user = strings.TrimSpace(user)
	if user == "" {
		user = l.defaultUser
	}

	entry := model.ChangeEntry[T]{
		Timestamp: l.now().Format(TimestampLayout),
		Op:        op,
		Snapshot:  snapshot,
		User:      user,
	}

	if err := l.file.Append(entry); err != nil {
		return model.ChangeEntry[T]{}, fmt.Errorf("журнал %s: %w", l.name, err)
	}

	metrics.AuditEntriesTotal.WithLabelValues(l.name, op.String()).Inc()
	l.logger.Debug("Запись журнала добавлена",
		slog.String("op", op.String()),
		slog.String("user", user),
	)

	return entry, nil
}

// Entries возвращает все записи журнала в порядке записи.
func (l *Log[T]) Entries() ([]model.ChangeEntry[T], error) {
	entries, err := l.file.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("журнал %s: %w", l.name, err)
	}
	return entries, nil
}

// Path возвращает путь к файлу журнала.
func (l *Log[T]) Path() string {
	return l.file.Path()
}

// ParseTimestamp разбирает отметку времени журнала.
// Принимает разделитель даты и времени как пробел, так и подчёркивание.
// Время интерпретируется в локальной зоне, как и при записи.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(TimestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyTimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("некорректная отметка времени %q", s)
	}
	return t, nil
}
