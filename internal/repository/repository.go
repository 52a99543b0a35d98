// Пакет repository — слой доступа к файлам товаров и покупателей.
//
// Файл сущностей — единственный источник истины. Store читает его
// целиком в упорядоченный индекс и при каждом изменении перезаписывает
// целиком в порядке индекса.
package repository

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/goartstore/retail-store/internal/storage/index"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/record"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/recordfile"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ключ).
	ErrConflict = errors.New("конфликт — запись уже существует")
)

// Store — хранилище сущностей T в файле записей фиксированной длины.
type Store[T any] struct {
	entity string
	file   *recordfile.File[T]
	key    func(T) string
	logger *slog.Logger
}

// NewStore создаёт хранилище. entity — имя сущности для логов и ошибок.
func NewStore[T any](entity, path string, codec *record.Codec[T], key func(T) string, logger *slog.Logger) *Store[T] {
	return &Store[T]{
		entity: entity,
		file:   recordfile.New(path, codec, logger),
		key:    key,
		logger: logger.With(slog.String("component", "repository"), slog.String("entity", entity)),
	}
}

// Path возвращает путь к файлу хранилища.
func (s *Store[T]) Path() string {
	return s.file.Path()
}

// Load читает файл и строит упорядоченный индекс.
// Отсутствующий файл — пустой индекс.
func (s *Store[T]) Load() (*index.Index[T], error) {
	items, err := s.file.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки %s: %w", s.entity, err)
	}

	idx := index.New(s.key, s.logger)
	if skipped := idx.Build(items); skipped > 0 {
		s.logger.Warn("В файле найдены дубликаты ключей",
			slog.Int("skipped", skipped),
			slog.String("path", s.file.Path()),
		)
	}

	return idx, nil
}

// Save перезаписывает файл содержимым индекса в его порядке.
func (s *Store[T]) Save(idx *index.Index[T]) error {
	if err := s.file.SaveAll(idx.All()); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", s.entity, err)
	}
	return nil
}

// Add добавляет сущность в индекс и сохраняет файл.
// ErrConflict — ключ уже существует; при ошибке сохранения добавление откатывается.
func (s *Store[T]) Add(idx *index.Index[T], item T) error {
	k := s.key(item)
	if err := idx.Add(item); err != nil {
		return fmt.Errorf("%w: %s %s", ErrConflict, s.entity, k)
	}

	if err := s.Save(idx); err != nil {
		idx.Remove(k)
		return err
	}

	s.logger.Debug("Запись добавлена", slog.String("key", k))
	return nil
}

// Update заменяет сущность с тем же ключом и сохраняет файл.
// ErrNotFound — ключ отсутствует; при ошибке сохранения прежнее значение восстанавливается.
func (s *Store[T]) Update(idx *index.Index[T], item T) error {
	k := s.key(item)
	prev, ok := idx.Get(k)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotFound, s.entity, k)
	}

	_ = idx.Update(item)
	if err := s.Save(idx); err != nil {
		_ = idx.Update(prev)
		return err
	}

	s.logger.Debug("Запись обновлена", slog.String("key", k))
	return nil
}

// Delete удаляет сущность по ключу и сохраняет файл.
// Возвращает удалённую сущность. ErrNotFound — ключ отсутствует.
// Если сохранение не удалось, сущность возвращается на исходную позицию.
func (s *Store[T]) Delete(idx *index.Index[T], key string) (T, error) {
	item, at, ok := idx.Remove(key)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, s.entity, key)
	}

	if err := s.Save(idx); err != nil {
		if rerr := idx.Restore(at, item); rerr != nil {
			s.logger.Error("Не удалось восстановить запись после ошибки сохранения",
				slog.String("key", key),
				slog.String("error", rerr.Error()),
			)
		}
		var zero T
		return zero, err
	}

	s.logger.Debug("Запись удалена", slog.String("key", key))
	return item, nil
}
