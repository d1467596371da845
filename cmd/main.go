package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vision-node/config"
	telegram "vision-node/internal/api"
	"vision-node/internal/container"
	"vision-node/internal/domain/port"
	"vision-node/internal/infrastructure/bus"
	"vision-node/internal/infrastructure/camera"
	"vision-node/internal/infrastructure/console"
	"vision-node/internal/infrastructure/vision"
	"vision-node/internal/log"
)

func main() {
	if err := run(); err != nil {
		log.Error("vision node failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Init(cfg.LogLevel)
	logger := log.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Камеры
	params := camera.DeviceParams{
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.FPS,
		Exposure: cfg.Camera.Exposure,
	}
	primary, err := camera.OpenVideoDevice(cfg.Camera.PrimaryIndex, params)
	if err != nil {
		return fmt.Errorf("open primary camera: %w", err)
	}
	secondary, err := camera.OpenVideoDevice(cfg.Camera.SecondaryIndex, params)
	if err != nil {
		_ = primary.Close()
		return fmt.Errorf("open secondary camera: %w", err)
	}
	source := camera.NewSource(primary, secondary, camera.SourceConfig{
		Settle: cfg.Camera.Settle,
		Warmup: cfg.Camera.Warmup,
	}, logger)

	// Детектор и кодировщик
	d := cfg.Detector
	detector := vision.NewGoCVDetector(vision.HSVBand{
		HueMin: d.HueMin, HueMax: d.HueMax,
		SatMin: d.SatMin, SatMax: d.SatMax,
		ValMin: d.ValMin, ValMax: d.ValMax,
	}, d.Threshold, d.MinArea)
	encoder := vision.NewJPEGEncoder(cfg.Stream.JPEGQuality)

	// Шина состояния
	var stateBus port.StateBus
	if cfg.Bus.Broker == "" {
		logger.Warn("bus broker is not set, using in-memory bus")
		stateBus = bus.NewMemoryBus()
	} else {
		mqttBus := bus.NewMQTTBus(bus.MQTTOptions{
			Broker: cfg.Bus.Broker,
			Prefix: cfg.Bus.Prefix,
			QoS:    cfg.Bus.QoS,
		}, logger)
		if err := mqttBus.Connect(ctx); err != nil {
			_ = source.Release()
			return fmt.Errorf("connect bus: %w", err)
		}
		defer mqttBus.Disconnect()
		stateBus = mqttBus
	}

	link := console.NewLink(console.Options{
		Addr:         cfg.Console.Addr,
		Framing:      console.Framing(cfg.Console.Framing),
		DialTimeout:  cfg.Console.DialTimeout,
		WriteTimeout: cfg.Console.WriteTimeout,
		RetryInitial: cfg.Console.RetryInitial,
		RetryMax:     cfg.Console.RetryMax,
	}, logger)

	appContainer := container.New(cfg, container.Deps{
		Source:   source,
		Cameras:  source,
		Detector: detector,
		Encoder:  encoder,
		Bus:      stateBus,
		Link:     link,
	}, logger)

	// Очистка и при выходе не через Run (panic в main)
	defer appContainer.Supervisor.Shutdown()

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, appContainer.Operator, cfg.Telegram.AllowedChats, logger)
		if err != nil {
			logger.Warn("telegram bot disabled", "error", err)
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil {
					logger.Warn("telegram bot stopped", "error", err)
				}
			}()
		}
	}

	logger.Info("vision node is starting",
		"console", cfg.Console.Addr,
		"framing", cfg.Console.Framing,
		"bus", cfg.Bus.Broker)

	return appContainer.Supervisor.Run(ctx)
}
