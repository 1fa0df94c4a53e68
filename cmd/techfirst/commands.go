package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"

	"github.com/pders01/techfirst/internal/api"
	"github.com/pders01/techfirst/internal/browser"
	"github.com/pders01/techfirst/internal/config"
	"github.com/pders01/techfirst/internal/route"
	"github.com/pders01/techfirst/internal/tui"
	"github.com/pders01/techfirst/internal/viewer"
)

const dateLayout = "2006-01-02"

func newFeedCmd(opts *options) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print a page of the feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := opts.client()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Feed.PageSize
			}
			return printFeed(cmd, client, limit, offset)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "items per page (default from config)")
	cmd.Flags().IntVar(&offset, "offset", 0, "items to skip")
	return cmd
}

func printFeed(cmd *cobra.Command, client *api.Client, limit, offset int) error {
	resp, err := client.FetchFeed(cmd.Context(), limit, offset)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	w := cmd.OutOrStdout()
	writeSummaries(w, resp.Items)
	fmt.Fprintln(w, tui.MsgFeedCount(offset+len(resp.Items), resp.Total))
	return nil
}

func newSearchCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(strings.Fields(strings.Join(args, " ")), " ")
			if query == "" {
				return fmt.Errorf("empty query")
			}
			client, cfg, err := opts.client()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Feed.SearchLimit
			}

			resp, err := client.SearchContent(cmd.Context(), query, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(resp.Items) == 0 {
				fmt.Fprintln(w, tui.MsgNoContent)
				return nil
			}
			writeSummaries(w, resp.Items)
			fmt.Fprintln(w, tui.MsgResultsCount(len(resp.Items)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default from config)")
	return cmd
}

func newArticleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "article <id>",
		Short: "Print an article the way the reader would show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid article id %q", args[0])
			}
			client, cfg, err := opts.client()
			if err != nil {
				return err
			}

			sel := viewer.NewSelector(client, viewer.ThresholdsFromConfig(cfg.Viewer))
			return printDecision(cmd.OutOrStdout(), sel.Select(cmd.Context(), viewer.Ref{ID: id}))
		},
	}
}

func printDecision(w io.Writer, d viewer.Decision) error {
	fmt.Fprintf(w, "kind: %s\n", d.Kind)
	if d.Title != "" {
		fmt.Fprintf(w, "title: %s\n", d.Title)
	}
	if d.URL != "" {
		fmt.Fprintf(w, "url: %s\n", d.URL)
	}

	switch d.Kind {
	case viewer.KindFullHTML, viewer.KindReaderHTML:
		md, err := htmltomarkdown.ConvertString(d.HTML)
		if err != nil {
			return fmt.Errorf("converting article: %w", err)
		}
		fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(md))
		return nil
	case viewer.KindExternal:
		if d.Reason != "" {
			fmt.Fprintf(w, "reason: %s\n", d.Reason)
		}
		return nil
	default:
		return fmt.Errorf("%s: %s", strings.ToLower(tui.MsgArticleNotFound), d.Reason)
	}
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := opts.client()
			if err != nil {
				return err
			}
			h, err := client.CheckHealth(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "api:      %s\n", client.BaseURL())
			fmt.Fprintf(w, "status:   %s\n", h.Status)
			if h.Database != "" {
				fmt.Fprintf(w, "database: %s\n", h.Database)
			}
			if h.Redis != "" {
				fmt.Fprintf(w, "redis:    %s\n", h.Redis)
			}
			if h.TotalContent > 0 {
				fmt.Fprintf(w, "content:  %d items\n", h.TotalContent)
			}
			if !h.LastFetch.IsZero() {
				fmt.Fprintf(w, "fetched:  %s\n", h.LastFetch.Local().Format("2006-01-02 15:04"))
			}
			if !h.Healthy() {
				return fmt.Errorf("API unhealthy: %s", h.Status)
			}
			return nil
		},
	}
}

func newOpenCmd(opts *options) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "open <link>",
		Short: "Resolve a deep link without starting the reader",
		Long: "open resolves article/<id>, privacy and feed links, including\n" +
			"https://techfirstsearch.com/... and techfirstsearch:// forms.\n" +
			"Articles open in the browser unless --print is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := route.Parse(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			switch r.Kind {
			case route.KindPrivacy:
				fmt.Fprint(w, tui.PrivacyNotice)
				return nil
			case route.KindArticle:
				if r.ID <= 0 {
					return fmt.Errorf("%s: invalid article id", strings.ToLower(tui.MsgArticleNotFound))
				}
				client, cfg, err := opts.client()
				if err != nil {
					return err
				}
				detail, err := client.FetchArticle(cmd.Context(), r.ID)
				if err != nil {
					return fmt.Errorf("article %d: %w", r.ID, err)
				}
				if detail.URL == "" {
					return fmt.Errorf("article %d has no link", r.ID)
				}
				if printOnly {
					fmt.Fprintln(w, detail.URL)
					return nil
				}
				if err := browser.NewLauncher(cfg.Browser).Open(detail.URL); err != nil {
					return err
				}
				fmt.Fprintf(w, "%s: %s\n", tui.MsgOpenedInBrowser, detail.URL)
				return nil
			default:
				client, cfg, err := opts.client()
				if err != nil {
					return err
				}
				return printFeed(cmd, client, cfg.Feed.PageSize, 0)
			}
		},
	}
	cmd.Flags().BoolVarP(&printOnly, "print", "p", false, "print the article URL instead of opening it")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", tui.AppName, Version)
			fmt.Fprintln(w, "https://github.com/pders01/techfirst")
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default configuration path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
		},
	})
	return cmd
}

// writeSummaries prints one entry per item:
//
//	[NEWS]  Title
//	        Source • 2024-05-01 • https://...
func writeSummaries(w io.Writer, items []api.ContentSummary) {
	for _, it := range items {
		badge := "[" + strings.ToUpper(string(it.ContentType)) + "]"
		fmt.Fprintf(w, "%-11s %s (#%d)\n", badge, it.Title, it.ID)

		var meta []string
		if it.SourceName != "" {
			meta = append(meta, it.SourceName)
		}
		if !it.PublishedDate.IsZero() {
			meta = append(meta, it.PublishedDate.Format(dateLayout))
		}
		if it.URL != "" {
			meta = append(meta, it.URL)
		}
		if len(meta) > 0 {
			fmt.Fprintf(w, "%-11s %s\n", "", strings.Join(meta, " • "))
		}
	}
}
