package vision

// HSVBand — границы HSV-маски (OpenCV: H 0..180, S и V 0..255).
type HSVBand struct {
	HueMin, HueMax int
	SatMin, SatMax int
	ValMin, ValMax int
}

// DefaultBand подобрана под яркую малонасыщенную ленту при прямой подсветке.
func DefaultBand() HSVBand {
	return HSVBand{
		HueMin: 0, HueMax: 80,
		SatMin: 0, SatMax: 80,
		ValMin: 230, ValMax: 255,
	}
}
