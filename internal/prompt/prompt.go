// Пакет prompt — построчный диалог с оператором: вопрос, разбор ответа,
// повтор вопроса при ошибке.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// ErrAborted — ввод закончился (EOF) или превышено число попыток.
var ErrAborted = errors.New("ввод прерван")

// DefaultAttempts — число попыток на один вопрос.
const DefaultAttempts = 5

var errColor = color.New(color.FgRed)

// Prompter задаёт вопросы в out и читает ответы из in.
type Prompter struct {
	in       *bufio.Reader
	out      io.Writer
	attempts int
}

// New создаёт Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, attempts: DefaultAttempts}
}

// SetAttempts задаёт число попыток на вопрос (n ≤ 0 — без ограничения).
func (p *Prompter) SetAttempts(n int) {
	p.attempts = n
}

// Ask задаёт вопрос, пока parse не примет ответ.
// Ошибка parse выводится оператору, и вопрос повторяется.
func Ask[T any](p *Prompter, question string, parse func(string) (T, error)) (T, error) {
	var zero T
	for try := 1; p.attempts <= 0 || try <= p.attempts; try++ {
		fmt.Fprintf(p.out, "%s: ", question)

		line, err := p.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return zero, ErrAborted
			}
			return zero, fmt.Errorf("ошибка чтения ответа: %w", err)
		}

		v, perr := parse(strings.TrimSpace(line))
		if perr == nil {
			return v, nil
		}
		errColor.Fprintf(p.out, "  %v\n", perr)

		if errors.Is(err, io.EOF) {
			return zero, ErrAborted
		}
	}
	return zero, fmt.Errorf("%w: %d неудачных попыток", ErrAborted, p.attempts)
}

// String запрашивает непустую строку.
func (p *Prompter) String(question string) (string, error) {
	return Ask(p, question, NonEmpty)
}

// Optional запрашивает строку; пустой ответ допустим.
func (p *Prompter) Optional(question string) (string, error) {
	return Ask(p, question, func(s string) (string, error) { return s, nil })
}

// Int запрашивает целое число в диапазоне [lo, hi].
func (p *Prompter) Int(question string, lo, hi int32) (int32, error) {
	return Ask(p, question, IntRange(lo, hi))
}

// Float запрашивает число с плавающей точкой в диапазоне [lo, hi].
func (p *Prompter) Float(question string, lo, hi float32) (float32, error) {
	return Ask(p, question, FloatRange(lo, hi))
}

// Confirm задаёт вопрос да/нет.
func (p *Prompter) Confirm(question string) (bool, error) {
	return Ask(p, question+" (y/n)", YesNo)
}

// NonEmpty принимает любую непустую строку.
func NonEmpty(s string) (string, error) {
	if s == "" {
		return "", errors.New("значение не может быть пустым")
	}
	return s, nil
}

// IntRange возвращает разборщик целого числа в диапазоне [lo, hi].
func IntRange(lo, hi int32) func(string) (int32, error) {
	return func(s string) (int32, error) {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("некорректное целое число: %q", s)
		}
		if int32(n) < lo || int32(n) > hi {
			return 0, fmt.Errorf("значение %d вне диапазона [%d, %d]", n, lo, hi)
		}
		return int32(n), nil
	}
}

// FloatRange возвращает разборщик числа в диапазоне [lo, hi].
// Пустой ответ при lo == 0 означает 0.
func FloatRange(lo, hi float32) func(string) (float32, error) {
	return func(s string) (float32, error) {
		if s == "" && lo == 0 {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, fmt.Errorf("некорректное число: %q", s)
		}
		if float32(f) < lo || float32(f) > hi {
			return 0, fmt.Errorf("значение %.2f вне диапазона [%.2f, %.2f]", f, lo, hi)
		}
		return float32(f), nil
	}
}

// YesNo разбирает ответ y/yes/n/no без учёта регистра.
func YesNo(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, errors.New("ответьте y или n")
	}
}
