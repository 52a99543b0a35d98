// Пакет index — упорядоченный in-memory индекс сущностей.
//
// Индекс строится из записей файла (Build) и обновляется синхронно
// при операциях записи (Add, Update, Remove). Порядок вставки
// сохраняется: именно в нём сущности записываются обратно в файл.
//
// Не персистентный: при каждом запуске пересобирается из файла.
package index

import (
	"fmt"
	"log/slog"
	"sync"
)

// Index — потокобезопасный упорядоченный индекс сущностей T по строковому ключу.
type Index[T any] struct {
	mu     sync.RWMutex
	items  []T            // сущности в порядке вставки
	pos    map[string]int // key → позиция в items
	key    func(T) string
	logger *slog.Logger
}

// New создаёт пустой индекс. key извлекает ключ сущности.
func New[T any](key func(T) string, logger *slog.Logger) *Index[T] {
	return &Index[T]{
		pos:    make(map[string]int),
		key:    key,
		logger: logger.With(slog.String("component", "index")),
	}
}

// Build заменяет содержимое индекса записями items в исходном порядке.
// При дублировании ключа остаётся первая запись, последующие пропускаются
// с предупреждением. Возвращает число пропущенных дубликатов.
func (idx *Index[T]) Build(items []T) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.items = make([]T, 0, len(items))
	idx.pos = make(map[string]int, len(items))

	skipped := 0
	for _, item := range items {
		k := idx.key(item)
		if _, ok := idx.pos[k]; ok {
			skipped++
			idx.logger.Warn("Дублирующийся ключ пропущен", slog.String("key", k))
			continue
		}
		idx.pos[k] = len(idx.items)
		idx.items = append(idx.items, item)
	}

	return skipped
}

// Get возвращает сущность по ключу.
func (idx *Index[T]) Get(key string) (T, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.pos[key]
	if !ok {
		var zero T
		return zero, false
	}
	return idx.items[i], true
}

// Has возвращает true, если ключ присутствует в индексе.
func (idx *Index[T]) Has(key string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.pos[key]
	return ok
}

// Add добавляет сущность в конец. Возвращает ошибку, если ключ уже есть.
func (idx *Index[T]) Add(item T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	k := idx.key(item)
	if _, ok := idx.pos[k]; ok {
		return fmt.Errorf("ключ %s уже есть в индексе", k)
	}
	idx.pos[k] = len(idx.items)
	idx.items = append(idx.items, item)
	return nil
}

// Update заменяет сущность на месте, сохраняя её позицию.
// Возвращает ошибку, если ключ не найден.
func (idx *Index[T]) Update(item T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	k := idx.key(item)
	i, ok := idx.pos[k]
	if !ok {
		return fmt.Errorf("ключ %s не найден в индексе", k)
	}
	idx.items[i] = item
	return nil
}

// Remove удаляет сущность по ключу.
// Возвращает удалённую сущность, её позицию и признак наличия.
func (idx *Index[T]) Remove(key string) (T, int, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i, ok := idx.pos[key]
	if !ok {
		var zero T
		return zero, -1, false
	}

	item := idx.items[i]
	idx.items = append(idx.items[:i], idx.items[i+1:]...)
	delete(idx.pos, key)
	idx.reindexFrom(i)

	return item, i, true
}

// Restore вставляет сущность обратно на позицию at (откат Remove).
// Позиция за пределами индекса означает вставку в конец.
func (idx *Index[T]) Restore(at int, item T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	k := idx.key(item)
	if _, ok := idx.pos[k]; ok {
		return fmt.Errorf("ключ %s уже есть в индексе", k)
	}

	if at < 0 || at > len(idx.items) {
		at = len(idx.items)
	}

	var zero T
	idx.items = append(idx.items, zero)
	copy(idx.items[at+1:], idx.items[at:])
	idx.items[at] = item
	idx.reindexFrom(at)

	return nil
}

// All возвращает копию всех сущностей в порядке индекса.
func (idx *Index[T]) All() []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]T, len(idx.items))
	copy(out, idx.items)
	return out
}

// Len возвращает количество сущностей.
func (idx *Index[T]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.items)
}

// Find возвращает первую сущность, удовлетворяющую условию.
func (idx *Index[T]) Find(match func(T) bool) (T, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, item := range idx.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// CountBy возвращает количество сущностей, удовлетворяющих условию.
func (idx *Index[T]) CountBy(match func(T) bool) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := 0
	for _, item := range idx.items {
		if match(item) {
			count++
		}
	}
	return count
}

// reindexFrom пересчитывает позиции начиная с from. Вызывается под блокировкой.
func (idx *Index[T]) reindexFrom(from int) {
	for i := from; i < len(idx.items); i++ {
		idx.pos[idx.key(idx.items[i])] = i
	}
}
