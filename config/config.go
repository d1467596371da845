package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config — все настройки узла. Значения по умолчанию соответствуют
// боевой конфигурации на роботе.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Console  ConsoleConfig  `yaml:"console"`
	Bus      BusConfig      `yaml:"bus"`
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Stream   StreamConfig   `yaml:"stream"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ConsoleConfig — соединение с консолью оператора.
type ConsoleConfig struct {
	Addr         string        `yaml:"addr"`          // host:port
	Framing      string        `yaml:"framing"`       // raw | length
	DialTimeout  time.Duration `yaml:"dial_timeout"`  // таймаут одной попытки
	WriteTimeout time.Duration `yaml:"write_timeout"` // 0: без таймаута
	RetryInitial time.Duration `yaml:"retry_initial"` // первая пауза между попытками
	RetryMax     time.Duration `yaml:"retry_max"`     // верхняя граница паузы
	Reconnect    bool          `yaml:"reconnect"`     // переподключаться при ошибке записи
}

// BusConfig — шина состояния робота (MQTT).
type BusConfig struct {
	Broker      string `yaml:"broker"`       // host:port; пусто: шина в памяти (стенд без робота)
	Prefix      string `yaml:"prefix"`       // корень всех таблиц
	TargetTable string `yaml:"target_table"` // таблица координат цели
	ModeTable   string `yaml:"mode_table"`   // таблица режима клиента
	ModeKey     string `yaml:"mode_key"`     // ключ выбора камеры
	EndKey      string `yaml:"end_key"`      // флаг окончания матча в корне; пусто: не следим
	QoS         byte   `yaml:"qos"`
}

// CameraConfig — параметры захвата.
type CameraConfig struct {
	PrimaryIndex   int           `yaml:"primary_index"`
	SecondaryIndex int           `yaml:"secondary_index"`
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	FPS            int           `yaml:"fps"`
	Exposure       float64       `yaml:"exposure"`
	Settle         time.Duration `yaml:"settle"` // пауза после чтения под блокировкой
	Warmup         time.Duration `yaml:"warmup"` // пауза перед первым захватом
}

// DetectorConfig — HSV-полоса и пороги детектора.
type DetectorConfig struct {
	HueMin    int     `yaml:"hue_min"`
	HueMax    int     `yaml:"hue_max"`
	SatMin    int     `yaml:"sat_min"`
	SatMax    int     `yaml:"sat_max"`
	ValMin    int     `yaml:"val_min"`
	ValMax    int     `yaml:"val_max"`
	Threshold float64 `yaml:"threshold"`
	MinArea   float64 `yaml:"min_area"` // 0: фильтр выключен
}

// StreamConfig — трансляция видео оператору.
type StreamConfig struct {
	Period      time.Duration `yaml:"period"`
	JPEGQuality int           `yaml:"jpeg_quality"`
}

// TelegramConfig — бот удалённого управления. Пустой токен выключает бота.
type TelegramConfig struct {
	Token        string  `yaml:"token"`
	AllowedChats []int64 `yaml:"allowed_chats"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Console: ConsoleConfig{
			Addr:         "10.2.63.57:5810",
			Framing:      "raw",
			DialTimeout:  2 * time.Second,
			WriteTimeout: time.Second,
			RetryInitial: 250 * time.Millisecond,
			RetryMax:     5 * time.Second,
			Reconnect:    true,
		},
		Bus: BusConfig{
			Broker:      "roboRIO-263-FRC.local:1883",
			Prefix:      "cameraData",
			TargetTable: "target",
			ModeTable:   "clientMode",
			ModeKey:     "gearMode",
			EndKey:      "end",
		},
		Camera: CameraConfig{
			PrimaryIndex:   0,
			SecondaryIndex: 1,
			Width:          360,
			Height:         240,
			FPS:            15,
			Exposure:       20,
			Settle:         50 * time.Millisecond,
			Warmup:         10 * time.Second,
		},
		Detector: DetectorConfig{
			HueMin: 0, HueMax: 80,
			SatMin: 0, SatMax: 80,
			ValMin: 230, ValMax: 255,
			Threshold: 127,
		},
		Stream: StreamConfig{
			Period:      time.Second / 15,
			JPEGQuality: 80,
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл из
// VISION_CONFIG (если задан), затем переменные окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("VISION_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Console.Addr, "CONSOLE_ADDR")
	setString(&c.Console.Framing, "CONSOLE_FRAMING")
	errs = append(errs,
		setDuration(&c.Console.DialTimeout, "CONSOLE_DIAL_TIMEOUT"),
		setDuration(&c.Console.WriteTimeout, "CONSOLE_WRITE_TIMEOUT"),
		setDuration(&c.Console.RetryInitial, "CONSOLE_RETRY_INITIAL"),
		setDuration(&c.Console.RetryMax, "CONSOLE_RETRY_MAX"),
		setBool(&c.Console.Reconnect, "CONSOLE_RECONNECT"),
	)

	setString(&c.Bus.Broker, "BUS_BROKER")
	setString(&c.Bus.Prefix, "BUS_PREFIX")
	setString(&c.Bus.TargetTable, "BUS_TARGET_TABLE")
	setString(&c.Bus.ModeTable, "BUS_MODE_TABLE")
	setString(&c.Bus.ModeKey, "BUS_MODE_KEY")
	setString(&c.Bus.EndKey, "BUS_END_KEY")
	// пустое значение осознанно: брокер в памяти, слежение за концом матча выключено
	if v, ok := os.LookupEnv("BUS_BROKER"); ok && v == "" {
		c.Bus.Broker = ""
	}
	if v, ok := os.LookupEnv("BUS_END_KEY"); ok && v == "" {
		c.Bus.EndKey = ""
	}
	qos := int(c.Bus.QoS)
	if err := setInt(&qos, "BUS_QOS"); err != nil {
		errs = append(errs, err)
	} else if qos < 0 || qos > 2 {
		errs = append(errs, fmt.Errorf("BUS_QOS: must be 0..2, got %d", qos))
	} else {
		c.Bus.QoS = byte(qos)
	}

	errs = append(errs,
		setInt(&c.Camera.PrimaryIndex, "CAMERA_PRIMARY"),
		setInt(&c.Camera.SecondaryIndex, "CAMERA_SECONDARY"),
		setInt(&c.Camera.Width, "CAMERA_WIDTH"),
		setInt(&c.Camera.Height, "CAMERA_HEIGHT"),
		setInt(&c.Camera.FPS, "CAMERA_FPS"),
		setFloat(&c.Camera.Exposure, "CAMERA_EXPOSURE"),
		setDuration(&c.Camera.Settle, "CAMERA_SETTLE"),
		setDuration(&c.Camera.Warmup, "CAMERA_WARMUP"),
		setInt(&c.Detector.HueMin, "DETECTOR_HUE_MIN"),
		setInt(&c.Detector.HueMax, "DETECTOR_HUE_MAX"),
		setInt(&c.Detector.SatMin, "DETECTOR_SAT_MIN"),
		setInt(&c.Detector.SatMax, "DETECTOR_SAT_MAX"),
		setInt(&c.Detector.ValMin, "DETECTOR_VAL_MIN"),
		setInt(&c.Detector.ValMax, "DETECTOR_VAL_MAX"),
		setFloat(&c.Detector.Threshold, "DETECTOR_THRESHOLD"),
		setFloat(&c.Detector.MinArea, "DETECTOR_MIN_AREA"),
		setDuration(&c.Stream.Period, "STREAM_PERIOD"),
		setInt(&c.Stream.JPEGQuality, "STREAM_JPEG_QUALITY"),
	)

	setString(&c.Telegram.Token, "TELEGRAM_TOKEN")
	if v := os.Getenv("TELEGRAM_ALLOWED_CHATS"); v != "" {
		chats, err := parseChatIDs(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.Telegram.AllowedChats = chats
		}
	}

	return errors.Join(errs...)
}

// Validate проверяет диапазоны всех полей и возвращает все ошибки сразу.
func (c *Config) Validate() error {
	var errs []error

	if c.Console.Addr == "" {
		errs = append(errs, errors.New("console addr is required"))
	}
	if c.Console.Framing != "raw" && c.Console.Framing != "length" {
		errs = append(errs, fmt.Errorf("console framing must be raw or length, got %q", c.Console.Framing))
	}
	if c.Console.RetryInitial <= 0 || c.Console.RetryMax < c.Console.RetryInitial {
		errs = append(errs, errors.New("console retry bounds must satisfy 0 < initial <= max"))
	}
	if c.Bus.Prefix == "" || c.Bus.TargetTable == "" || c.Bus.ModeTable == "" || c.Bus.ModeKey == "" {
		errs = append(errs, errors.New("bus prefix, target table, mode table and mode key are required"))
	}
	if c.Bus.QoS > 2 {
		errs = append(errs, fmt.Errorf("bus qos must be 0..2, got %d", c.Bus.QoS))
	}
	if c.Camera.PrimaryIndex == c.Camera.SecondaryIndex {
		errs = append(errs, errors.New("primary and secondary cameras must use different devices"))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 || c.Camera.FPS <= 0 {
		errs = append(errs, errors.New("camera width, height and fps must be positive"))
	}
	if c.Camera.Settle < 0 || c.Camera.Warmup < 0 {
		errs = append(errs, errors.New("camera settle and warmup must not be negative"))
	}
	d := c.Detector
	if !inRange(d.HueMin, d.HueMax, 0, 180) || !inRange(d.SatMin, d.SatMax, 0, 255) || !inRange(d.ValMin, d.ValMax, 0, 255) {
		errs = append(errs, errors.New("detector hsv band is out of range"))
	}
	if d.Threshold < 0 || d.Threshold > 255 {
		errs = append(errs, errors.New("detector threshold must be 0..255"))
	}
	if d.MinArea < 0 {
		errs = append(errs, errors.New("detector min area must not be negative"))
	}
	if c.Stream.Period <= 0 {
		errs = append(errs, errors.New("stream period must be positive"))
	}
	if c.Stream.JPEGQuality < 1 || c.Stream.JPEGQuality > 100 {
		errs = append(errs, errors.New("stream jpeg quality must be 1..100"))
	}

	return errors.Join(errs...)
}

func inRange(lo, hi, min, max int) bool {
	return lo >= min && hi <= max && lo <= hi
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOWED_CHATS: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
