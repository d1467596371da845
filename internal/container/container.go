package container

import (
	"log/slog"

	"vision-node/config"
	app "vision-node/internal/application"
	"vision-node/internal/domain/port"
)

// Deps — внешние компоненты узла, открытые в main.
type Deps struct {
	Source   port.FrameSource
	Cameras  port.CameraRig
	Detector port.TargetDetector
	Encoder  port.FrameEncoder
	Bus      port.StateBus
	Link     port.ConsoleLink
}

type Container struct {
	Run        *app.RunState
	Publisher  *app.StatePublisher
	Snapshots  *app.SnapshotStore
	Detection  *app.DetectionLoop
	Streamer   *app.FeedStreamer
	Supervisor *app.Supervisor
	Operator   *app.OperatorService
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Container {
	run := app.NewRunState()
	snapshots := app.NewSnapshotStore()

	publisher := app.NewStatePublisher(deps.Bus, cfg.Bus.TargetTable, logger)
	detection := app.NewDetectionLoop(deps.Source, deps.Detector, publisher, snapshots, cfg.Stream.Period, logger)
	streamer := app.NewFeedStreamer(deps.Source, deps.Bus, deps.Encoder, deps.Link, app.StreamerConfig{
		Period:    cfg.Stream.Period,
		ModeTable: cfg.Bus.ModeTable,
		ModeKey:   cfg.Bus.ModeKey,
		Reconnect: cfg.Console.Reconnect,
	}, logger)

	supervisor := app.NewSupervisor(deps.Cameras, deps.Link, deps.Bus, detection, streamer, run,
		app.MatchEndConfig{Key: cfg.Bus.EndKey}, logger)

	operator := app.NewOperatorService(supervisor, detection, streamer, publisher, snapshots,
		deps.Detector, deps.Bus, cfg.Bus.ModeTable, cfg.Bus.ModeKey)

	return &Container{
		Run:        run,
		Publisher:  publisher,
		Snapshots:  snapshots,
		Detection:  detection,
		Streamer:   streamer,
		Supervisor: supervisor,
		Operator:   operator,
	}
}
