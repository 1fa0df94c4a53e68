package browser

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

//go:embed browsers.toml
var browsersTOML []byte

// Definition describes how to invoke one browser.
type Definition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`

	// Command overrides the executable when it differs from the entry name.
	Command     string   `toml:"command,omitempty"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`

	// Terminal browsers need the screen and cannot run next to the TUI.
	Terminal bool `toml:"terminal,omitempty"`
}

type browsersFile struct {
	Browsers map[string]Definition `toml:"browsers"`
}

type Registry struct {
	browsers map[string]Definition
	goos     string
}

// NewRegistry loads the built-in definitions and then any user overrides.
func NewRegistry() (*Registry, error) {
	r, err := parseRegistry(browsersTOML)
	if err != nil {
		return nil, err
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.merge(filepath.Join(home, ".config", "techfirst", "browsers.toml"))
	}
	return r, nil
}

func parseRegistry(data []byte) (*Registry, error) {
	var f browsersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing browsers.toml: %w", err)
	}
	if f.Browsers == nil {
		f.Browsers = make(map[string]Definition)
	}
	return &Registry{browsers: f.Browsers, goos: runtime.GOOS}, nil
}

func (r *Registry) merge(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var f browsersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return
	}
	for name, def := range f.Browsers {
		r.browsers[name] = def
	}
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.browsers[name]
	return def, ok
}

func (r *Registry) supports(def Definition) bool {
	for _, p := range def.Platforms {
		if p == r.goos {
			return true
		}
	}
	return false
}

func (r *Registry) args(def Definition) []string {
	switch r.goos {
	case "darwin":
		if len(def.ArgsDarwin) > 0 {
			return def.ArgsDarwin
		}
	case "linux":
		if len(def.ArgsLinux) > 0 {
			return def.ArgsLinux
		}
	case "windows":
		if len(def.ArgsWindows) > 0 {
			return def.ArgsWindows
		}
	}
	return def.Args
}

// Command builds the invocation of name for url. Unknown names are run as
// "name url".
func (r *Registry) Command(name, url string) (*exec.Cmd, error) {
	def, ok := r.browsers[name]
	if !ok {
		return exec.Command(name, url), nil
	}
	if !r.supports(def) {
		return nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}
	if def.Terminal {
		return nil, fmt.Errorf("%s is a terminal browser and cannot run alongside the UI", name)
	}

	bin := name
	if def.Command != "" {
		bin = def.Command
	}
	args := append(append([]string(nil), r.args(def)...), url)
	return exec.Command(bin, args...), nil
}
