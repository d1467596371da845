package port

import "context"

// CameraRig — жизненный цикл камер, которым управляет супервизор.
type CameraRig interface {
	// Warmup ждёт окончания стартового периода камер
	Warmup(ctx context.Context) error

	// Release освобождает обе камеры; повторный вызов безопасен
	Release() error
}
