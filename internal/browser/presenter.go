package browser

import (
	"context"

	"github.com/pders01/techfirst/internal/viewer"
)

// Opener is satisfied by *Launcher.
type Opener interface {
	Open(url string) error
}

// Presenter shows external pages by launching the system browser.
type Presenter struct {
	opener Opener
}

func NewPresenter(o Opener) *Presenter {
	return &Presenter{opener: o}
}

func (p *Presenter) Name() string { return "browser" }

func (p *Presenter) Present(_ context.Context, url string) viewer.Presentation {
	if err := p.opener.Open(url); err != nil {
		return viewer.Presentation{Mode: viewer.ModeLinkOnly, URL: url, Reason: err.Error()}
	}
	return viewer.Presentation{Mode: viewer.ModeLaunched, URL: url}
}
