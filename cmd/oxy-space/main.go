// Command oxy-space renders a drifting particle field in front of a slowly turning
// starfield as a space background.
//
// By default the scene is shown in a desktop window rendered with WebGPU. With
// -headless the same scene is driven by a fixed-rate ticker against the recording
// backend, which is useful on machines without a GPU.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-space/engine"
	"github.com/Carmen-Shannon/oxy-space/engine/config"
	logpkg "github.com/Carmen-Shannon/oxy-space/engine/log"
	"github.com/Carmen-Shannon/oxy-space/engine/loop"
	"github.com/Carmen-Shannon/oxy-space/engine/particle"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer"
	"github.com/Carmen-Shannon/oxy-space/engine/renderer/fake"
	"github.com/Carmen-Shannon/oxy-space/engine/starfield"
	"github.com/Carmen-Shannon/oxy-space/engine/texture"
	"github.com/Carmen-Shannon/oxy-space/engine/window"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		configPath string
		headless   bool
		duration   time.Duration
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	flag.BoolVar(&headless, "headless", false, "Run without a window against the recording backend")
	flag.DurationVar(&duration, "duration", 0, "Stop a headless run after this long (0 = until interrupted)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	log, err := logpkg.New(cfg.Scene.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if headless {
		err = runHeadless(cfg, log, duration)
	} else {
		err = runWindowed(cfg, log)
	}
	if err != nil {
		log.Error("oxy-space exited with error", zap.Error(err))
		os.Exit(1)
	}
}

// addParticles attaches the configured particle field to scene and registers its animation.
func addParticles(scene *engine.SceneHandle, cfg *config.Config, log *zap.Logger) error {
	loader := texture.NewLoader(
		texture.WithRetries(cfg.Particles.TextureRetries),
		texture.WithLogger(log),
	)
	field, err := particle.FromConfig(cfg.Particles, loader, particle.WithLogger(log))
	if err != nil {
		return err
	}
	if _, err := field.Attach(scene.Pool()); err != nil {
		return err
	}
	scene.RegisterAnimation(field.Callback())
	log.Info("particle field attached",
		zap.Int("count", field.Count()),
		zap.Float64("half_width", field.HalfWidth()),
		zap.String("texture", cfg.Particles.Texture),
	)
	return nil
}

// addStars attaches the configured starfield to scene and registers its rotation.
// A disabled starfield adds nothing.
func addStars(scene *engine.SceneHandle, cfg *config.Config, log *zap.Logger) error {
	if cfg.Stars.Enabled != nil && !*cfg.Stars.Enabled {
		return nil
	}
	stars, err := starfield.FromConfig(cfg.Stars, starfield.WithLogger(log))
	if err != nil {
		return err
	}
	if _, err := stars.Attach(scene.Pool()); err != nil {
		return err
	}
	scene.RegisterAnimation(stars.Callback())
	log.Info("starfield attached", zap.Int("count", stars.Count()))
	return nil
}

func runWindowed(cfg *config.Config, log *zap.Logger) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	backend := renderer.NewWGPUBackend(win.SurfaceDescriptor(), renderer.WithLogger(log))
	defer backend.Release()

	// the window is the scene's mount, viewport and scheduler
	scene, err := engine.AcquireScene(win, engine.Size{Width: win.Width(), Height: win.Height()},
		engine.WithBackend(backend),
		engine.WithConfig(cfg),
		engine.WithDevicePixelRatio(win.ContentScale()),
		engine.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("acquire scene: %w", err)
	}
	defer scene.Release()

	if err := addStars(scene, cfg, log); err != nil {
		return err
	}
	if err := addParticles(scene, cfg, log); err != nil {
		return err
	}

	win.ProcessMessages()
	return nil
}

func runHeadless(cfg *config.Config, log *zap.Logger, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	backend := fake.New()
	ticker := loop.NewTicker(cfg.Scene.FrameLimit)

	scene, err := engine.AcquireScene(nil, engine.Size{Width: cfg.Window.Width, Height: cfg.Window.Height},
		engine.WithBackend(backend),
		engine.WithScheduler(ticker),
		engine.WithConfig(cfg),
		engine.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("acquire scene: %w", err)
	}
	if err := addStars(scene, cfg, log); err != nil {
		scene.Release()
		return err
	}
	if err := addParticles(scene, cfg, log); err != nil {
		scene.Release()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ticker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		scene.Release()
		return nil
	})

	err = g.Wait()
	<-scene.Done()
	created, released := backend.Stats()
	log.Info("headless run finished",
		zap.Uint64("frames", scene.Loop().Frames()),
		zap.Int("created", created),
		zap.Int("released", released),
	)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
