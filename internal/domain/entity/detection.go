package entity

// Outcome — итог обработки одного кадра детектором.
type Outcome string

const (
	OutcomeFound      Outcome = "found"       // найдена пара контуров
	OutcomeNoPair     Outcome = "no_pair"     // меньше двух контуров
	OutcomeEmptyFrame Outcome = "empty_frame" // нет данных
	OutcomeFailed     Outcome = "failed"      // ошибка конвертации или поиска контуров
)

// Detection хранит результат поиска цели на кадре.
type Detection struct {
	Outcome     Outcome
	Target      *TargetEstimate // nil, если цель не найдена
	Centroids   [2]Point        // центры двух крупнейших контуров (при OutcomeFound)
	Contours    int             // сколько контуров найдено после фильтрации
	ImageWidth  int
	ImageHeight int
	Err         error // причина при OutcomeFailed
}

// Found сообщает, что цель найдена.
func (d Detection) Found() bool {
	return d.Outcome == OutcomeFound && d.Target != nil
}

// Failed возвращает результат-ошибку для кадра.
func Failed(frame Frame, err error) Detection {
	return Detection{
		Outcome:     OutcomeFailed,
		ImageWidth:  frame.Width,
		ImageHeight: frame.Height,
		Err:         err,
	}
}
