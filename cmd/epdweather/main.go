package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"epdweather/internal/config"
	appLog "epdweather/internal/log"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	renderOnly bool
	dump       bool
	debug      bool
}

func main() {
	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("epdweather starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone, falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"night_refresh", conf.NightRefreshCron,
		"screen", conf.Screen,
		"partial", conf.Panel.Partial,
		"sensor", conf.Sensor.Enabled,
		"once", flags.once,
		"render_only", flags.renderOnly,
	)

	dumpDir := ""
	if flags.dump {
		dumpDir = "./cache"
	}

	st, err := newStation(conf, loc, flags.renderOnly, dumpDir)
	if err != nil {
		appLog.Error("station init failed", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := st.refresh(ctx); err != nil {
			appLog.Error("refresh failed", err)
			os.Exit(1)
		}
		appLog.Info("single cycle done, exiting")
		return
	}

	go func() {
		if err := st.web.Run(ctx); err != nil {
			appLog.Error("web server stopped", err)
			cancel()
		}
	}()

	// Day and night schedules share the pipeline; each entry checks
	// the clock so only one of them fires per slot.
	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if !night(time.Now().In(loc)) {
			runRefresh(ctx, st)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	if _, err := sched.AddFunc(conf.NightRefreshCron, func() {
		if night(time.Now().In(loc)) {
			runRefresh(ctx, st)
		}
	}); err != nil {
		appLog.Error("invalid night refresh schedule", err, "night_refresh", conf.NightRefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// First paint right away instead of waiting for the next cron slot.
	runRefresh(ctx, st)

	// Manual refreshes from the web UI are picked up between cron
	// slots.
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			appLog.Info("epdweather exiting")
			return
		case <-ticker.C:
			if st.web.ConsumeRefresh() {
				runRefresh(ctx, st)
			}
		}
	}
}

func runRefresh(ctx context.Context, st *station) {
	if err := st.refresh(ctx); err != nil {
		appLog.Error("refresh failed", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/epdweather/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch+render(+display) cycle and exit")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Render only; do not touch display hardware")
	flag.BoolVar(&cfg.dump, "dump", false, "Dump debug artifacts (black.bin, red.bin, preview.png)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
