package port

// StateBus интерфейс общей шины состояния робота (таблицы ключ/значение)
type StateBus interface {
	// PutNumber публикует числовое поле в таблицу
	PutNumber(table, key string, value float64) error

	// PutBoolean публикует логическое поле в таблицу
	PutBoolean(table, key string, value bool) error

	// GetBoolean читает логическое поле; def, если значения нет
	GetBoolean(table, key string, def bool) bool
}
