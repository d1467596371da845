package entity

import "time"

// Feed идентифицирует одну из двух камер.
type Feed string

const (
	FeedPrimary   Feed = "primary"   // камера слежения за целью
	FeedSecondary Feed = "secondary" // обзорная камера оператора
)

// Valid сообщает, известен ли фид.
func (f Feed) Valid() bool {
	return f == FeedPrimary || f == FeedSecondary
}

// ParseFeed разбирает имя фида из строки.
func ParseFeed(s string) (Feed, bool) {
	f := Feed(s)
	return f, f.Valid()
}

// Frame — один захваченный кадр. После захвата не изменяется:
// потребители только читают Pix.
type Frame struct {
	Feed       Feed      // источник кадра
	Width      int       // ширина в пикселях
	Height     int       // высота в пикселях
	Pix        []byte    // пиксели BGR, 3 байта на пиксель, построчно
	CapturedAt time.Time // момент захвата
}

// EmptyFrame возвращает пустой кадр («нет данных в этом цикле»).
func EmptyFrame(feed Feed) Frame {
	return Frame{Feed: feed}
}

// Empty сообщает, что кадр не содержит данных.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}
