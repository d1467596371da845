package port

import "context"

// ConsoleLink — исходящее соединение с консолью оператора
type ConsoleLink interface {
	// Connect подключается, повторяя попытки до успеха или отмены ctx
	Connect(ctx context.Context) error

	// Write отправляет закодированный кадр целиком
	Write(payload []byte) error

	// Reconnect заново устанавливает соединение
	Reconnect(ctx context.Context) error

	// Close закрывает соединение; повторный вызов безопасен
	Close() error
}
