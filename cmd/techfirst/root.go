package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/browser"
	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/debuglog"
	"github.com/pders01/techfirst/internal/feedstate"
	"github.com/pders01/techfirst/internal/frame"
	"github.com/pders01/techfirst/internal/route"
	"github.com/pders01/techfirst/internal/storage"
	"github.com/pders01/techfirst/internal/tui"
	"github.com/pders01/techfirst/internal/validation"
	"github.com/pders01/techfirst/internal/viewer"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	dbPath     string
	apiURL     string
	quiet      bool
	link       string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "techfirst",
		Short: "Browse TechFirstSearch in the terminal",
		Long: "techfirst is a terminal client for the TechFirstSearch API.\n" +
			"Without a subcommand it starts the interactive reader.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config file (default ~/.config/techfirst/config.toml)")
	pf.StringVar(&opts.dbPath, "db", "", "path to the local database")
	pf.StringVar(&opts.apiURL, "api", "", "API base URL, overrides the configured environment")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip the startup banner")
	cmd.Flags().StringVar(&opts.link, "link", "", "start at a deep link, e.g. article/42 or techfirstsearch://privacy")

	cmd.AddCommand(
		newFeedCmd(opts),
		newSearchCmd(opts),
		newArticleCmd(opts),
		newHealthCmd(opts),
		newOpenCmd(opts),
		newVersionCmd(),
		newConfigCmd(opts),
	)
	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	return cfg, nil
}

func (o *options) client() (*api.Client, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := api.NewClient(cfg.API)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return c, cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	path, err := validation.EnsureParentDir(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	store, err := storage.NewStore(path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// newPresenter picks the external presenter. Inline framing is the default;
// the browser presenter hands pages to the launcher instead.
func newPresenter(cfg *config.Config, launcher *browser.Launcher) viewer.ExternalPresenter {
	if cfg.Viewer.External == config.PresenterBrowser {
		return browser.NewPresenter(launcher)
	}
	var fopts []frame.Option
	if strings.EqualFold(cfg.API.Environment, config.EnvLocal) {
		fopts = append(fopts, frame.WithAllowLocal())
	}
	return frame.NewPresenter(cfg.Viewer, cfg.API.UserAgent, fopts...)
}

func runTUI(cmd *cobra.Command, opts *options) error {
	start := route.Feed()
	if opts.link != "" {
		r, err := route.Parse(opts.link)
		if err != nil {
			return err
		}
		start = r
	}

	client, cfg, err := opts.client()
	if err != nil {
		return err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
	}
	defer debuglog.Close()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	launcher := browser.NewLauncher(cfg.Browser)
	controller := feedstate.New(client,
		feedstate.WithPageSize(cfg.Feed.PageSize),
		feedstate.WithSearchLimit(cfg.Feed.SearchLimit),
	)

	debuglog.WithFields(map[string]any{
		"api":   client.BaseURL(),
		"db":    cfg.Database.Path,
		"start": start.String(),
	}).Infof("starting %s %s", tui.AppName, Version)

	tui.ApplyColors(cfg.UI.Colors)
	app := tui.NewApp(cfg, tui.Deps{
		Controller: controller,
		Selector:   viewer.NewSelector(client, viewer.ThresholdsFromConfig(cfg.Viewer)),
		Presenter:  newPresenter(cfg, launcher),
		Opener:     launcher,
		History:    store,
	})
	app.StartAt(start)
	defer app.Shutdown()

	if !opts.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), tui.Banner(Version))
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
