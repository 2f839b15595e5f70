package shortener

import (
	"strings"
	"time"

	"shortlink/internal/db"
)

// LinkView is the public shape of a short link. ShortURL is derived from
// the configured base URL and is never stored.
type LinkView struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	ClickCount  int64     `json:"click_count"`
	OwnerID     *string   `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ComposeShortURL joins base and code with a single slash.
func ComposeShortURL(baseURL, code string) string {
	return strings.TrimRight(baseURL, "/") + "/" + code
}

func newLinkView(link *db.Link, baseURL string) *LinkView {
	return &LinkView{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		ShortURL:    ComposeShortURL(baseURL, link.ShortCode),
		ClickCount:  link.ClickCount,
		OwnerID:     link.OwnerID,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}
