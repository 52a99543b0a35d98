package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Codec — кодек сущности T в запись фиксированной длины.
// Функции encode/decode обязаны обращаться к полям строго в порядке раскладки.
type Codec[T any] struct {
	layout *Layout
	encode func(*Encoder, T)
	decode func(*Decoder) T
}

// NewCodec создаёт кодек по раскладке и функциям обхода полей.
func NewCodec[T any](layout *Layout, encode func(*Encoder, T), decode func(*Decoder) T) *Codec[T] {
	return &Codec[T]{layout: layout, encode: encode, decode: decode}
}

// Layout возвращает раскладку записи.
func (c *Codec[T]) Layout() *Layout {
	return c.layout
}

// Size возвращает размер записи в байтах.
func (c *Codec[T]) Size() int {
	return c.layout.size
}

// Encode кодирует значение в блок ровно Size() байт.
func (c *Codec[T]) Encode(v T) ([]byte, error) {
	e := &Encoder{cursor: cursor{layout: c.layout}, buf: make([]byte, c.layout.size)}
	c.encode(e, v)
	if err := e.finish(); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Decode декодирует запись. Длина data должна точно совпадать с Size().
func (c *Codec[T]) Decode(data []byte) (T, error) {
	var zero T
	if len(data) != c.layout.size {
		return zero, fmt.Errorf("%w: %s: длина %d байт, ожидается %d",
			ErrMalformed, c.layout.name, len(data), c.layout.size)
	}

	d := &Decoder{cursor: cursor{layout: c.layout}, buf: data}
	v := c.decode(d)
	if err := d.finish(); err != nil {
		return zero, err
	}
	return v, nil
}

// cursor — общая логика обхода полей для Encoder и Decoder.
type cursor struct {
	layout *Layout
	i      int
	err    error
}

// next возвращает следующее поле ожидаемого типа и его смещение.
func (c *cursor) next(kind Kind) (Field, int, bool) {
	if c.err != nil {
		return Field{}, 0, false
	}
	if c.i >= len(c.layout.fields) {
		c.err = fmt.Errorf("%w: %s: лишнее поле #%d (%s), в раскладке %d полей",
			ErrMalformed, c.layout.name, c.i+1, kind, len(c.layout.fields))
		return Field{}, 0, false
	}

	f := c.layout.fields[c.i]
	if f.Kind != kind {
		c.err = fmt.Errorf("%w: %s.%s: тип %s, ожидается %s",
			ErrMalformed, c.layout.name, f.Name, kind, f.Kind)
		return Field{}, 0, false
	}

	off := c.layout.offsets[c.i]
	c.i++
	return f, off, true
}

func (c *cursor) finish() error {
	if c.err != nil {
		return c.err
	}
	if c.i != len(c.layout.fields) {
		return fmt.Errorf("%w: %s: обработано %d полей из %d",
			ErrMalformed, c.layout.name, c.i, len(c.layout.fields))
	}
	return nil
}

// Encoder пишет поля записи по порядку. Первая ошибка запоминается,
// последующие вызовы игнорируются.
type Encoder struct {
	cursor
	buf []byte
}

// String пишет строку, дополняя её нулями до ширины поля.
func (e *Encoder) String(v string) {
	f, off, ok := e.next(KindString)
	if !ok {
		return
	}
	if len(v) > f.Width {
		e.err = fmt.Errorf("%w: %s.%s: %d байт при ширине %d",
			ErrFieldTooLong, e.layout.name, f.Name, len(v), f.Width)
		return
	}
	copy(e.buf[off:off+f.Width], v)
}

// Float32 пишет float32 в little-endian.
func (e *Encoder) Float32(v float32) {
	_, off, ok := e.next(KindFloat32)
	if !ok {
		return
	}
	binary.LittleEndian.PutUint32(e.buf[off:], math.Float32bits(v))
}

// Int32 пишет int32 в little-endian.
func (e *Encoder) Int32(v int32) {
	_, off, ok := e.next(KindInt32)
	if !ok {
		return
	}
	binary.LittleEndian.PutUint32(e.buf[off:], uint32(v))
}

// Decoder читает поля записи по порядку.
type Decoder struct {
	cursor
	buf []byte
}

// String читает строку, отрезая только завершающие нулевые байты.
func (d *Decoder) String() string {
	f, off, ok := d.next(KindString)
	if !ok {
		return ""
	}
	return string(bytes.TrimRight(d.buf[off:off+f.Width], "\x00"))
}

// Float32 читает float32.
func (d *Decoder) Float32() float32 {
	_, off, ok := d.next(KindFloat32)
	if !ok {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(d.buf[off:]))
}

// Int32 читает int32.
func (d *Decoder) Int32() int32 {
	_, off, ok := d.next(KindInt32)
	if !ok {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(d.buf[off:]))
}
