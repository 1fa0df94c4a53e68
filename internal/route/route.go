// Package route maps deep links onto the screens of the client.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the app-specific link scheme.
const Scheme = "techfirstsearch"

var ErrUnknownRoute = errors.New("unknown route")

type Kind int

const (
	KindFeed Kind = iota
	KindArticle
	KindPrivacy
)

func (k Kind) String() string {
	switch k {
	case KindFeed:
		return "feed"
	case KindArticle:
		return "article"
	case KindPrivacy:
		return "privacy"
	default:
		return "unknown"
	}
}

type Route struct {
	Kind Kind
	// ID is the article ID; zero when the link carried none or a bad one.
	ID int64
}

func Feed() Route {
	return Route{Kind: KindFeed}
}

func Privacy() Route {
	return Route{Kind: KindPrivacy}
}

func Article(id int64) Route {
	return Route{Kind: KindArticle, ID: id}
}

// String renders the canonical path, without a leading slash except for the
// feed itself.
func (r Route) String() string {
	switch r.Kind {
	case KindArticle:
		return "article/" + strconv.FormatInt(r.ID, 10)
	case KindPrivacy:
		return "privacy"
	default:
		return "/"
	}
}

// Parse accepts bare paths ("article/42"), web URLs and app-scheme links.
func Parse(link string) (Route, error) {
	link = strings.TrimSpace(link)

	path := link
	if strings.Contains(link, "://") {
		u, err := url.Parse(link)
		if err != nil {
			return Route{}, fmt.Errorf("%w: %q: %v", ErrUnknownRoute, link, err)
		}
		switch strings.ToLower(u.Scheme) {
		case Scheme:
			// techfirstsearch://article/42 puts the first segment in the host
			path = u.Host + "/" + u.Path
		case "http", "https":
			path = u.Path
		default:
			return Route{}, fmt.Errorf("%w: unsupported scheme %q", ErrUnknownRoute, u.Scheme)
		}
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		return Feed(), nil
	}

	switch strings.ToLower(segments[0]) {
	case "privacy":
		if len(segments) == 1 {
			return Privacy(), nil
		}
	case "article":
		switch len(segments) {
		case 1:
			return Article(0), nil
		case 2:
			id, err := strconv.ParseInt(segments[1], 10, 64)
			if err != nil || id < 0 {
				id = 0
			}
			return Article(id), nil
		}
	}

	return Route{}, fmt.Errorf("%w: %q", ErrUnknownRoute, link)
}
