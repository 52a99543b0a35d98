package report

import (
	"strings"
	"time"
)

// buddhistEraOffset — разница между буддийским и григорианским летоисчислением.
const buddhistEraOffset = 543

// saleDateLayouts — форматы дат, встречающиеся в sale.dat.
var saleDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"02012006",
}

// ParseSaleDate разбирает дату продажи в любом из известных форматов.
// Год больше 2500 считается годом буддийской эры и переводится в григорианский.
// Второе значение false — дату разобрать не удалось.
func ParseSaleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(s, "\x00"))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range saleDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return fromBuddhistEra(t), true
		}
	}

	// Восемь цифр с произвольными разделителями — DDMMYYYY
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) == 8 {
		if t, err := time.ParseInLocation("02012006", digits, time.Local); err == nil {
			return fromBuddhistEra(t), true
		}
	}

	return time.Time{}, false
}

func fromBuddhistEra(t time.Time) time.Time {
	if t.Year() > 2500 {
		return time.Date(t.Year()-buddhistEraOffset, t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	return t
}

// sameDay сообщает, приходятся ли a и b на один календарный день.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
