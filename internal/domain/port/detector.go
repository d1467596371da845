package port

import "vision-node/internal/domain/entity"

// TargetDetector интерфейс детектора светоотражающей цели
type TargetDetector interface {
	// Detect ищет цель на кадре и возвращает типизированный результат
	Detect(frame entity.Frame) entity.Detection

	// Annotate рисует центры контуров и цель на копии кадра и возвращает JPEG
	Annotate(frame entity.Frame, det entity.Detection) ([]byte, error)
}

// FrameEncoder кодирует кадр для отправки оператору
type FrameEncoder interface {
	Encode(frame entity.Frame) ([]byte, error)
}
