package record

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
)

// TestLayoutSizes проверяет размеры записей, совместимые с исходными файлами.
func TestLayoutSizes(t *testing.T) {
	tests := []struct {
		layout *Layout
		want   int
	}{
		{ProductLayout, 64},
		{CustomerLayout, 76},
		{SaleLayout, 44},
		{SaleDetailLayout, 36},
		{ProductChangeLayout, 108},
		{CustomerChangeLayout, 120},
	}

	for _, tt := range tests {
		t.Run(tt.layout.Name(), func(t *testing.T) {
			if got := tt.layout.Size(); got != tt.want {
				t.Errorf("Size: ожидалось %d, получено %d", tt.want, got)
			}
		})
	}
}

// TestLayoutOffsets проверяет выравнивание числовых полей.
func TestLayoutOffsets(t *testing.T) {
	// product: 13s 20s [pad 3] f f i 12s i
	want := []int{0, 13, 36, 40, 44, 48, 60}
	for i, off := range want {
		if got := ProductLayout.Offset(i); got != off {
			t.Errorf("поле #%d: ожидалось смещение %d, получено %d", i, off, got)
		}
	}
}

// TestProductEncode_Bytes проверяет точную раскладку байтов товара.
func TestProductEncode_Bytes(t *testing.T) {
	p := model.Product{
		ID:        "P001",
		Name:      "Glock",
		Cost:      1.5,
		SalePrice: 2,
		Amount:    5,
		Category:  "Pistol",
		Status:    model.ProductActive,
	}

	data, err := ProductCodec.Encode(p)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("ожидалось 64 байта, получено %d", len(data))
	}

	if !bytes.Equal(data[0:13], []byte("P001\x00\x00\x00\x00\x00\x00\x00\x00\x00")) {
		t.Errorf("id закодирован неверно: %q", data[0:13])
	}
	if !bytes.Equal(data[33:36], []byte{0, 0, 0}) {
		t.Errorf("байты выравнивания должны быть нулевыми: %v", data[33:36])
	}
	// 1.5 = 0x3FC00000 little-endian
	if !bytes.Equal(data[36:40], []byte{0x00, 0x00, 0xC0, 0x3F}) {
		t.Errorf("cost закодирован неверно: %v", data[36:40])
	}
	if !bytes.Equal(data[44:48], []byte{5, 0, 0, 0}) {
		t.Errorf("amount закодирован неверно: %v", data[44:48])
	}
	if !bytes.Equal(data[60:64], []byte{1, 0, 0, 0}) {
		t.Errorf("status закодирован неверно: %v", data[60:64])
	}
}

// TestDecode_WrongLength проверяет отказ при неверной длине записи.
func TestDecode_WrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 63, 65, 128} {
		_, err := ProductCodec.Decode(make([]byte, n))
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("длина %d: ожидалась ErrMalformed, получено %v", n, err)
		}
	}
}

// TestDecode_StripsOnlyTrailingZeros проверяет, что внутренние нули сохраняются.
func TestDecode_StripsOnlyTrailingZeros(t *testing.T) {
	c := model.Customer{ID: "C1", Name: "a\x00b", Telephone: "0812345678", Status: model.CustomerActive}

	data, err := CustomerCodec.Encode(c)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	got, err := CustomerCodec.Decode(data)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got.Name != "a\x00b" {
		t.Errorf("Name: ожидалось %q, получено %q", "a\x00b", got.Name)
	}
	if got.Telephone != "0812345678" {
		t.Errorf("поле во всю ширину должно сохраняться целиком, получено %q", got.Telephone)
	}
}

// TestEncode_FieldTooLong проверяет отказ на строке длиннее поля.
func TestEncode_FieldTooLong(t *testing.T) {
	p := model.Product{ID: "P0000000000001", Name: "x", Category: "Rifle", Status: 1}

	_, err := ProductCodec.Encode(p)
	if !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("ожидалась ErrFieldTooLong, получено %v", err)
	}
}

// TestEncode_FieldCountMismatch проверяет контроль числа полей кодеком.
func TestEncode_FieldCountMismatch(t *testing.T) {
	short := NewCodec(SaleDetailLayout,
		func(e *Encoder, sd model.SaleDetail) {
			e.String(sd.SaleID)
			e.String(sd.ProductID)
		},
		func(d *Decoder) model.SaleDetail { return model.SaleDetail{} },
	)
	if _, err := short.Encode(model.SaleDetail{}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Encode: ожидалась ErrMalformed, получено %v", err)
	}
	if _, err := short.Decode(make([]byte, SaleDetailLayout.Size())); !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode: ожидалась ErrMalformed, получено %v", err)
	}

	wrongKind := NewCodec(SaleDetailLayout,
		func(e *Encoder, sd model.SaleDetail) {
			e.String(sd.SaleID)
			e.String(sd.ProductID)
			e.Float32(sd.SalePrice) // на этом месте int32
			e.Float32(sd.SalePrice)
			e.Float32(sd.Discount)
		},
		func(d *Decoder) model.SaleDetail { return model.SaleDetail{} },
	)
	if _, err := wrongKind.Encode(model.SaleDetail{}); !errors.Is(err, ErrMalformed) {
		t.Errorf("ожидалась ErrMalformed при несовпадении типа, получено %v", err)
	}
}

// TestChangeEntry_RoundTrip проверяет кодирование записей журналов.
func TestChangeEntry_RoundTrip(t *testing.T) {
	pc := model.ProductChange{
		Timestamp: "2026-10-15 08:30:00",
		Op:        model.OpUpdate,
		Snapshot: model.Product{
			ID: "P001", Name: "M4", Cost: 100.25, SalePrice: 150.75,
			Amount: -1, Category: "Rifle", Status: model.ProductOutOfStock,
		},
		User: "admin",
	}
	data, err := ProductChangeCodec.Encode(pc)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	got, err := ProductChangeCodec.Decode(data)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got != pc {
		t.Errorf("ожидалось %+v, получено %+v", pc, got)
	}

	cc := model.CustomerChange{
		Timestamp: "2026-10-15_08:30:00",
		Op:        model.OpDelete,
		Snapshot:  model.Customer{ID: "C001", Name: "somchai", Telephone: "0890000000", Status: model.CustomerRemoved},
		User:      "cashier",
	}
	cdata, err := CustomerChangeCodec.Encode(cc)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	cgot, err := CustomerChangeCodec.Decode(cdata)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if cgot != cc {
		t.Errorf("ожидалось %+v, получено %+v", cc, cgot)
	}
}
