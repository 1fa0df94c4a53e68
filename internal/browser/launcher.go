package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/debuglog"
	"github.com/pders01/techfirst/internal/validation"
)

// Launcher hands URLs to a browser running outside the terminal.
type Launcher struct {
	candidates    []string
	defaultOpener string
	registry      *Registry
	validator     *validation.URLValidator

	lookPath func(string) (string, error)
	start    func(*exec.Cmd) error
}

func NewLauncher(cfg config.BrowserConfig) *Launcher {
	registry, err := NewRegistry()
	if err != nil {
		debuglog.Warnf("browser definitions unavailable: %v", err)
		registry = &Registry{browsers: make(map[string]Definition), goos: runtime.GOOS}
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = cfg.Darwin
	case "linux":
		candidates = cfg.Linux
	case "windows":
		candidates = cfg.Windows
	default:
		candidates = cfg.Linux
	}

	return &Launcher{
		candidates:    candidates,
		defaultOpener: cfg.DefaultOpener,
		registry:      registry,
		validator:     validation.NewURLValidator(false),
		lookPath:      exec.LookPath,
		start:         startDetached,
	}
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// resolve returns the first installed candidate, then the default opener.
func (l *Launcher) resolve() string {
	for _, name := range l.candidates {
		bin := name
		if def, ok := l.registry.Lookup(name); ok && def.Command != "" {
			bin = def.Command
		}
		if _, err := l.lookPath(bin); err == nil {
			return name
		}
	}
	return l.defaultOpener
}

// Open validates url and starts the browser without waiting for it.
func (l *Launcher) Open(url string) error {
	clean, err := l.validator.ValidateExternal(url)
	if err != nil {
		return fmt.Errorf("refusing to open URL: %w", err)
	}

	name := l.resolve()
	if name == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd, err := l.registry.Command(name, clean)
	if err != nil {
		return err
	}

	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	debuglog.Infof("opened %s with %s", clean, name)
	return nil
}
