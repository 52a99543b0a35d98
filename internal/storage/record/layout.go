// Пакет record — кодек записей фиксированной длины для файлов *.dat и *.bin.
//
// Раскладка записи повторяет C-структуру, которой пользовались исходные файлы:
//   - строка — ровно Width байт, дополняется нулями справа;
//   - float32 (IEEE-754) и int32 — 4 байта little-endian, выровнены по 4 байтам;
//   - байты выравнивания заполняются нулями, хвостового выравнивания нет.
//
// Пример: product.dat = 13s 20s [3 pad] f f i 12s i → 64 байта.
//
// При чтении у строки отрезаются только завершающие нулевые байты.
// Строки длиннее ширины поля не усекаются: Encode возвращает ErrFieldTooLong.
package record

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed — запись не соответствует раскладке (длина или число полей).
	ErrMalformed = errors.New("некорректная запись")
	// ErrFieldTooLong — строка не помещается в поле фиксированной ширины.
	ErrFieldTooLong = errors.New("значение превышает ширину поля")
)

// numericWidth — размер и выравнивание числовых полей.
const numericWidth = 4

// Kind — тип поля записи.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindFloat32
	KindInt32
)

// String возвращает имя типа поля для сообщений об ошибках.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat32:
		return "float32"
	case KindInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// Field — описание одного поля записи.
type Field struct {
	Name  string
	Kind  Kind
	Width int
}

// String объявляет строковое поле шириной width байт.
func String(name string, width int) Field {
	return Field{Name: name, Kind: KindString, Width: width}
}

// Float32 объявляет поле float32.
func Float32(name string) Field {
	return Field{Name: name, Kind: KindFloat32, Width: numericWidth}
}

// Int32 объявляет поле int32.
func Int32(name string) Field {
	return Field{Name: name, Kind: KindInt32, Width: numericWidth}
}

// Layout — раскладка записи: поля, их смещения и общий размер.
type Layout struct {
	name    string
	fields  []Field
	offsets []int
	size    int
}

// NewLayout вычисляет смещения полей с выравниванием числовых полей по 4 байтам.
// Паникует на поле с неположительной шириной: раскладки объявляются на уровне пакета.
func NewLayout(name string, fields ...Field) *Layout {
	l := &Layout{
		name:    name,
		fields:  fields,
		offsets: make([]int, len(fields)),
	}

	off := 0
	for i, f := range fields {
		if f.Width <= 0 {
			panic(fmt.Sprintf("record: поле %s.%s имеет ширину %d", name, f.Name, f.Width))
		}
		if f.Kind != KindString {
			off = align(off, numericWidth)
		}
		l.offsets[i] = off
		off += f.Width
	}
	l.size = off

	return l
}

// Name возвращает имя раскладки (используется в логах и ошибках).
func (l *Layout) Name() string {
	return l.name
}

// Size возвращает размер записи в байтах.
func (l *Layout) Size() int {
	return l.size
}

// Fields возвращает копию списка полей.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Offset возвращает смещение i-го поля.
func (l *Layout) Offset(i int) int {
	return l.offsets[i]
}

func align(off, n int) int {
	if rem := off % n; rem != 0 {
		return off + n - rem
	}
	return off
}
