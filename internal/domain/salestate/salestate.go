// Пакет salestate — жизненный цикл продажи.
//
// open → committed → cancelled. Обратных переходов нет:
// отменённую продажу нельзя вернуть в завершённую.
// Состояние open существует только в памяти, пока продажа собирается;
// в файле хранятся committed (статус 0) и cancelled (статус 1).
package salestate

import (
	"fmt"

	"github.com/bigkaa/goartstore/retail-store/internal/domain/model"
)

// State — состояние продажи.
type State string

const (
	// Open — продажа собирается, позиции добавляются
	Open State = "open"
	// Committed — продажа записана (статус 0)
	Committed State = "committed"
	// Cancelled — продажа отменена, остаток возвращён (статус 1)
	Cancelled State = "cancelled"
)

// Operation — операция над продажей.
type Operation string

const (
	OpAddLine    Operation = "add_line"
	OpEditLine   Operation = "edit_line"
	OpEditHeader Operation = "edit_header"
	OpDeleteLine Operation = "delete_line"
	OpDelete     Operation = "delete"
)

// Коды ошибок переходов.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOperationDenied   = "OPERATION_DENIED"
)

// validTransitions — матрица допустимых переходов.
var validTransitions = map[State]map[State]bool{
	Open:      {Committed: true},
	Committed: {Cancelled: true},
	Cancelled: {},
}

// allowedOperations — операции, допустимые в каждом состоянии.
var allowedOperations = map[State]map[Operation]bool{
	Open:      {OpAddLine: true, OpEditLine: true, OpDeleteLine: true},
	Committed: {OpAddLine: true, OpEditLine: true, OpEditHeader: true, OpDeleteLine: true, OpDelete: true},
	Cancelled: {OpEditHeader: true, OpDelete: true},
}

// FromStatus возвращает состояние записанной продажи по её статусу.
func FromStatus(s model.SaleStatus) State {
	if s == model.SaleCancelled {
		return Cancelled
	}
	return Committed
}

// ToStatus возвращает статус записи для состояния.
// Open записывается как committed: продажа попадает в файл уже собранной.
func ToStatus(s State) model.SaleStatus {
	if s == Cancelled {
		return model.SaleCancelled
	}
	return model.SaleCompleted
}

// CanTransition проверяет, допустим ли переход from → to.
func CanTransition(from, to State) bool {
	return validTransitions[from][to]
}

// Transition проверяет переход from → to.
// Переход в то же состояние допустим и ничего не меняет.
func Transition(from, to State) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("переход %s → %s недопустим", from, to),
		}
	}
	return nil
}

// CanPerform проверяет, допустима ли операция в состоянии s.
func CanPerform(s State, op Operation) bool {
	return allowedOperations[s][op]
}

// Check возвращает TransitionError, если операция недопустима в состоянии s.
func Check(s State, op Operation) error {
	if CanPerform(s, op) {
		return nil
	}
	return &TransitionError{
		Code:    CodeOperationDenied,
		Message: fmt.Sprintf("операция %s недопустима для продажи в состоянии %s", op, s),
	}
}

// TransitionError — ошибка перехода или недопустимой операции.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION, OPERATION_DENIED)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
