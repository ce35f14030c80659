package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $MUDRA_CONFIG)")
	uiMode := flag.String("ui", "", "front end: tray, viewer or none")
	replay := flag.String("replay", "", "replay a recorded JSONL session instead of the camera")
	loop := flag.Bool("loop", false, "loop the replayed session")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
	if *replay != "" {
		cfg.Source.Kind = config.SourceReplay
		cfg.Source.ReplayPath = *replay
		cfg.Source.Loop = *loop
	}
	if *uiMode != "" {
		cfg.UI.Mode = *uiMode
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Mudra exited with error")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Mudra - hand gesture interface")

	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	det, cam, err := app.OpenSource(cfg, log)
	if err != nil {
		return err
	}

	dispatcher := plugin.NewDispatcher(cfg.Plugins, log)
	if err := dispatcher.Discover(); err != nil {
		log.WithError(err).Warn("Plugin discovery failed")
	}

	opts := []app.Option{
		app.WithStore(st),
		app.WithDetector(det),
		app.WithDispatcher(dispatcher),
	}
	if cam != nil {
		opts = append(opts, app.WithCamera(cam))
	}
	a, err := app.New(cfg, log, opts...)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		det.Close()
		return err
	}
	defer a.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		select {
		case <-a.Done():
			log.Info("Landmark source finished")
			cancel()
		case <-ctx.Done():
		}
	}()

	acts, unsubscribe := a.Subscribe()
	defer unsubscribe()

	srvDone := make(chan struct{})
	if cfg.Server.Addr != "" {
		srv := server.New(server.Config{
			StaticDir:     findWebDir(cfg.Server.StaticDir),
			Store:         st,
			Backend:       a,
			BroadcastHz:   cfg.Server.BroadcastHz,
			PreviewWidth:  cfg.UI.Width / 2,
			PreviewHeight: cfg.UI.Height / 2,
			Log:           log,
		})
		go func() {
			defer close(srvDone)
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.WithError(err).Error("HTTP server failed")
				cancel()
			}
		}()
	} else {
		close(srvDone)
	}

	switch cfg.UI.Mode {
	case config.UITray:
		t := tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnOpen(func() { openBrowser(log, "http://"+cfg.Server.Addr) })
		t.OnQuit(cancel)
		go watch(ctx, acts, cfg.UI.ExitElement, t, cancel)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()

	case config.UIViewer:
		go watch(ctx, acts, cfg.UI.ExitElement, nil, cancel)
		v := render.NewViewer(cfg.UI.Width, cfg.UI.Height, a.Scene, func() bool {
			enabled := !a.IsEnabled()
			a.SetEnabled(enabled)
			return enabled
		})
		v.CloseOn(ctx.Done())
		if err := v.Run("Mudra"); err != nil {
			log.WithError(err).Error("Viewer failed")
		}

	default:
		go watch(ctx, acts, cfg.UI.ExitElement, nil, cancel)
		<-ctx.Done()
	}

	cancel()
	log.Info("Shutting down...")
	<-srvDone
	return nil
}

// watch records activations in the tray when there is one and cancels when
// the exit element fires.
func watch(ctx context.Context, acts <-chan dwell.Activation, exitElement string, t *tray.Tray, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case act, ok := <-acts:
			if !ok {
				return
			}
			if t != nil {
				t.Record(act)
			}
			if exitElement != "" && act.ElementID == exitElement {
				cancel()
				return
			}
		}
	}
}

// findWebDir returns dir if set, otherwise the first of "web", "../web" and
// ~/.mudra/web that exists, or "".
func findWebDir(dir string) string {
	if dir != "" {
		return dir
	}

	candidates := []string{"web", filepath.Join("..", "web")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".mudra", "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(log logrus.FieldLogger, url string) {
	if strings.HasPrefix(url, "http://:") {
		url = "http://localhost" + strings.TrimPrefix(url, "http://")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).WithField("url", url).Warn("Failed to open browser")
		return
	}
	go cmd.Wait()
}
