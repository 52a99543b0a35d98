// Пакет recordfile — плоский файл записей фиксированной длины.
//
// Режимы записи:
//   - SaveAll — полная перезапись файла (temp файл → fsync → atomic rename);
//   - Append — дозапись в конец (O_APPEND), используется журналами и продажами.
//
// Правки записи на месте нет: любое изменение — это SaveAll всего набора.
// Чтение последовательное; неполная последняя запись останавливает сканирование,
// уже прочитанные записи сохраняются.
package recordfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bigkaa/goartstore/retail-store/internal/metrics"
	"github.com/bigkaa/goartstore/retail-store/internal/storage/record"
)

// Scan — результат чтения файла.
type Scan[T any] struct {
	// Records — записи в порядке следования в файле
	Records []T
	// Truncated — сканирование остановлено на неполной или повреждённой записи
	Truncated bool
	// TrailingBytes — число байт, оставшихся непрочитанными после последней целой записи
	TrailingBytes int
}

// File — файл записей типа T.
type File[T any] struct {
	path   string
	codec  *record.Codec[T]
	logger *slog.Logger
}

// New создаёт обёртку над файлом. Файл не создаётся до первой записи.
func New[T any](path string, codec *record.Codec[T], logger *slog.Logger) *File[T] {
	return &File[T]{
		path:  path,
		codec: codec,
		logger: logger.With(
			slog.String("component", "recordfile"),
			slog.String("file", filepath.Base(path)),
		),
	}
}

// Path возвращает путь к файлу.
func (f *File[T]) Path() string {
	return f.path
}

// RecordSize возвращает размер одной записи в байтах.
func (f *File[T]) RecordSize() int {
	return f.codec.Size()
}

// Load читает все записи. Отсутствующий файл — пустой результат без ошибки.
// Неполная последняя запись логируется, учитывается в метриках и
// отражается в Scan.Truncated; ошибкой не является.
func (f *File[T]) Load() (*Scan[T], error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Scan[T]{}, nil
		}
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", f.path, err)
	}
	defer file.Close()

	scan := &Scan[T]{}
	size := f.codec.Size()
	buf := make([]byte, size)

	for {
		n, err := io.ReadFull(file, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			scan.Truncated = true
			scan.TrailingBytes = n
			f.logger.Warn("Обнаружена неполная запись, чтение остановлено",
				slog.Int("records", len(scan.Records)),
				slog.Int("trailing_bytes", n),
				slog.Int("record_size", size),
			)
			metrics.TruncatedRecordsTotal.WithLabelValues(filepath.Base(f.path)).Inc()
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла %s: %w", f.path, err)
		}

		rec, err := f.codec.Decode(buf)
		if err != nil {
			scan.Truncated = true
			f.logger.Warn("Повреждённая запись, чтение остановлено",
				slog.Int("records", len(scan.Records)),
				slog.String("error", err.Error()),
			)
			metrics.TruncatedRecordsTotal.WithLabelValues(filepath.Base(f.path)).Inc()
			break
		}
		scan.Records = append(scan.Records, rec)
	}

	return scan, nil
}

// LoadAll — Load без сведений о повреждении.
func (f *File[T]) LoadAll() ([]T, error) {
	scan, err := f.Load()
	if err != nil {
		return nil, err
	}
	return scan.Records, nil
}

// SaveAll полностью перезаписывает файл записями в заданном порядке.
// Все записи кодируются до обращения к диску: при ошибке кодирования
// файл не меняется.
func (f *File[T]) SaveAll(records []T) error {
	data, err := f.encodeAll(records)
	if err != nil {
		return err
	}

	if err := writeAtomic(f.path, data); err != nil {
		return err
	}

	f.logger.Debug("Файл перезаписан", slog.Int("records", len(records)))
	return nil
}

// Append дописывает записи в конец файла одним вызовом write.
func (f *File[T]) Append(records ...T) error {
	if len(records) == 0 {
		return nil
	}

	data, err := f.encodeAll(records)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", filepath.Dir(f.path), err)
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла %s на дозапись: %w", f.path, err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("ошибка дозаписи в %s: %w", f.path, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("ошибка fsync %s: %w", f.path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия файла %s: %w", f.path, err)
	}

	f.logger.Debug("Записи дописаны", slog.Int("records", len(records)))
	return nil
}

// Last возвращает последнюю целую запись файла.
// Второе значение false — файл отсутствует или не содержит целых записей.
// Неполный хвост файла игнорируется.
func (f *File[T]) Last() (T, bool, error) {
	var zero T

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("ошибка открытия файла %s: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return zero, false, fmt.Errorf("ошибка получения информации о файле %s: %w", f.path, err)
	}

	size := int64(f.codec.Size())
	full := info.Size() / size
	if full == 0 {
		return zero, false, nil
	}

	buf := make([]byte, size)
	if _, err := file.ReadAt(buf, (full-1)*size); err != nil {
		return zero, false, fmt.Errorf("ошибка чтения последней записи %s: %w", f.path, err)
	}

	rec, err := f.codec.Decode(buf)
	if err != nil {
		return zero, false, err
	}
	return rec, true, nil
}

func (f *File[T]) encodeAll(records []T) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(records) * f.codec.Size())

	for i, rec := range records {
		data, err := f.codec.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("запись #%d в %s: %w", i+1, filepath.Base(f.path), err)
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// writeAtomic атомарно записывает данные в файл.
// Паттерн: temp файл → fsync → atomic rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// WriteFile атомарно перезаписывает произвольный файл (например, текстовый отчёт).
func WriteFile(path string, data []byte) error {
	return writeAtomic(path, data)
}
