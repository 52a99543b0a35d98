package model

// ChangeOp — код операции в журнале изменений.
type ChangeOp int32

const (
	OpAdd    ChangeOp = 1
	OpUpdate ChangeOp = 2
	OpDelete ChangeOp = 3
	OpView   ChangeOp = 4
)

// ChangeOps — все коды операций в порядке вывода в отчётах.
var ChangeOps = []ChangeOp{OpAdd, OpUpdate, OpDelete, OpView}

// String возвращает имя операции (ADD, UPDATE, DELETE, VIEW).
func (op ChangeOp) String() string {
	switch op {
	case OpAdd:
		return "ADD"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	case OpView:
		return "VIEW"
	default:
		return "Unknown"
	}
}

// ChangeEntry — неизменяемая запись журнала: снимок сущности после операции.
type ChangeEntry[T any] struct {
	// Timestamp — время записи, "YYYY-MM-DD HH:MM:SS" (старые файлы: "YYYY-MM-DD_HH:MM:SS")
	Timestamp string
	Op        ChangeOp
	Snapshot  T
	User      string
}

// ProductChange — запись product_change.bin.
type ProductChange = ChangeEntry[Product]

// CustomerChange — запись customer_change.bin.
type CustomerChange = ChangeEntry[Customer]
