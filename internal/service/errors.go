// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInsufficientStock — остатка товара недостаточно для продажи.
	ErrInsufficientStock = errors.New("недостаточно товара на складе")
	// ErrCustomerNotFound — покупатель продажи не найден.
	ErrCustomerNotFound = errors.New("покупатель не найден")
	// ErrSaleCancelled — продажа отменена, операция недоступна.
	ErrSaleCancelled = errors.New("продажа отменена")
	// ErrInvalidTransition — недопустимая смена статуса продажи.
	ErrInvalidTransition = errors.New("недопустимая смена статуса продажи")
)
