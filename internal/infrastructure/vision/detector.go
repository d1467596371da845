//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"vision-node/internal/domain/entity"
	"vision-node/internal/domain/port"
)

// GoCVDetector ищет пару светоотражающих полос по HSV-порогу и контурам.
type GoCVDetector struct {
	Band      HSVBand
	Threshold float64
	MinArea   float64
	Quality   int
}

// NewGoCVDetector создаёт детектор с заданной HSV-полосой.
func NewGoCVDetector(band HSVBand, threshold, minArea float64) *GoCVDetector {
	return &GoCVDetector{
		Band:      band,
		Threshold: threshold,
		MinArea:   minArea,
		Quality:   90,
	}
}

// Detect прогоняет кадр через конвейер: HSV, маска, серый, порог, контуры.
func (d *GoCVDetector) Detect(frame entity.Frame) entity.Detection {
	if frame.Empty() {
		return entity.Detection{Outcome: entity.OutcomeEmptyFrame}
	}

	mat, err := frameToMat(frame)
	if err != nil {
		return entity.Failed(frame, err)
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	lower := gocv.NewScalar(float64(d.Band.HueMin), float64(d.Band.SatMin), float64(d.Band.ValMin), 0)
	upper := gocv.NewScalar(float64(d.Band.HueMax), float64(d.Band.SatMax), float64(d.Band.ValMax), 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	// Оставляем только пиксели внутри полосы.
	tape := gocv.NewMat()
	defer tape.Close()
	gocv.BitwiseAndWithMask(mat, mat, &tape, mask)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(tape, &gray, gocv.ColorBGRToGray)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, float32(d.Threshold), 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(thresh, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]entity.Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		regions = append(regions, ContourRegion(contours.At(i).ToPoints()))
	}

	return Locate(regions, frame.Width, frame.Height, d.MinArea)
}

// Annotate рисует центры контуров и цель на копии кадра и возвращает JPEG.
func (d *GoCVDetector) Annotate(frame entity.Frame, det entity.Detection) ([]byte, error) {
	if frame.Empty() {
		return nil, errors.New("empty image")
	}

	mat, err := frameToMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if det.Found() {
		green := color.RGBA{G: 255, A: 255}
		yellow := color.RGBA{R: 255, G: 255, A: 255}
		black := color.RGBA{A: 255}

		for _, c := range det.Centroids {
			gocv.Circle(&mat, toPixel(c), 5, green, -1)
		}
		peg := toPixel(det.Target.Point)
		gocv.Circle(&mat, peg, 15, yellow, -1)
		gocv.PutText(&mat, "Peg", image.Pt(peg.X-12, peg.Y+5), gocv.FontHersheySimplex, 0.5, black, 1)
	}

	return encodeJPEG(mat, d.Quality)
}

// frameToMat копирует пиксели кадра в новую матрицу BGR.
func frameToMat(frame entity.Frame) (gocv.Mat, error) {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to build mat: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, errors.New("failed to build mat: empty")
	}
	// Копия, чтобы рисование не трогало пиксели кадра.
	clone := mat.Clone()
	mat.Close()
	return clone, nil
}

func encodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func toPixel(p entity.Point) image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// Проверка реализации интерфейса
var _ port.TargetDetector = (*GoCVDetector)(nil)
