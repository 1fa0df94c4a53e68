package viewer

import "context"

type Mode int

const (
	// ModeEmbedded means the page content is shown inline.
	ModeEmbedded Mode = iota
	// ModeLaunched means the URL was handed to another program.
	ModeLaunched
	// ModeLinkOnly means nothing could be shown; only the link is offered.
	ModeLinkOnly
)

func (m Mode) String() string {
	switch m {
	case ModeEmbedded:
		return "embedded"
	case ModeLaunched:
		return "launched"
	case ModeLinkOnly:
		return "link-only"
	default:
		return "unknown"
	}
}

// Presentation is what an ExternalPresenter did with a URL. URL is always
// set so the user can open the original.
type Presentation struct {
	Mode   Mode
	URL    string
	Title  string
	HTML   string
	Reason string
}

// ExternalPresenter shows a page the selector could not render from stored
// content. Implementations must return in bounded time and degrade to
// ModeLinkOnly instead of failing.
type ExternalPresenter interface {
	Name() string
	Present(ctx context.Context, url string) Presentation
}

// LinkOnly is the presenter of last resort.
type LinkOnly struct{}

func (LinkOnly) Name() string { return "link" }

func (LinkOnly) Present(_ context.Context, url string) Presentation {
	return Presentation{Mode: ModeLinkOnly, URL: url, Reason: "no viewer configured"}
}
