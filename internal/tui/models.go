package tui

type View int

const (
	ViewFeed View = iota
	ViewSearch
	ViewArticle
	ViewPrivacy
)

func (v View) String() string {
	switch v {
	case ViewFeed:
		return "feed"
	case ViewSearch:
		return "search"
	case ViewArticle:
		return "article"
	case ViewPrivacy:
		return "privacy"
	default:
		return "unknown"
	}
}
