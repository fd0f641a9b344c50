package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"xref-service/internal/xref/model"
)

// shop search pages per column; %s is the query-escaped number
var defaultShopURLs = map[model.Column]string{
	model.ColItem:         "https://www.item24.com/de-de/search/?q=%s",
	model.ColBosch:        "https://www.boschrexroth.com/de/de/search.html?q=%s&origin=header",
	model.ColAlvarisArtnr: "https://www.alvaris.com/de/?s=%s&trp-form-language=de",
	model.ColAlvarisMatnr: "https://www.alvaris.com/de/?s=%s&trp-form-language=de",
	model.ColASK:          "https://shop.askgmbh.com/auctores/scs/imc",
}

const maxShopPage = 4 << 20

// LinkChecker asks supplier shops whether a number exists.
type LinkChecker struct {
	client *http.Client
	urls   map[model.Column]string
}

func NewLinkChecker(timeout time.Duration) *LinkChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LinkChecker{
		client: &http.Client{Timeout: timeout},
		urls:   defaultShopURLs,
	}
}

// WithURLs replaces the shop URL templates.
func (l *LinkChecker) WithURLs(urls map[model.Column]string) *LinkChecker {
	cp := *l
	cp.urls = urls
	return &cp
}

// URL is the shop search page for number, or "" when the column has none.
func (l *LinkChecker) URL(c model.Column, number string) string {
	tpl, ok := l.urls[c]
	if !ok {
		return ""
	}
	if !strings.Contains(tpl, "%s") {
		return tpl
	}
	return fmt.Sprintf(tpl, url.QueryEscape(number))
}

// Check fetches the shop page. Bosch and ASK only get a format check since
// their shops cannot be queried without a browser.
func (l *LinkChecker) Check(ctx context.Context, c model.Column, number string) (bool, string) {
	if c == model.ColBosch || c == model.ColASK {
		return true, "Format OK (URL-Prüfung nicht verfügbar)"
	}
	u := l.URL(c, number)
	if u == "" {
		return true, "Keine URL zum Prüfen verfügbar"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Sprintf("Fehler beim Laden: %v", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return false, "Timeout beim Laden der URL"
		}
		return false, fmt.Sprintf("Fehler beim Laden: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, "Seite nicht gefunden (404)"
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Sprintf("Fehler beim Laden (Status: %d)", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShopPage))
	if err != nil {
		return false, fmt.Sprintf("Fehler beim Laden: %v", err)
	}
	page := string(body)

	switch c {
	case model.ColItem:
		if strings.Contains(page, "1 Treffer") {
			return true, "Artikel gefunden (1 Treffer)"
		}
		return false, "Artikel nicht gefunden (kein '1 Treffer' auf der Seite)"
	case model.ColAlvarisArtnr, model.ColAlvarisMatnr:
		rx := regexp.MustCompile(`<a class="uk-link-reset" href="[^"]*">` + regexp.QuoteMeta(number) + `[^<]*</a>`)
		if rx.MatchString(page) {
			return true, fmt.Sprintf("Artikel gefunden (Artikelnummer %s in Suchergebnissen)", number)
		}
		return false, fmt.Sprintf("Artikel nicht gefunden (Artikelnummer %s nicht in Suchergebnissen)", number)
	}
	return true, "URL erreichbar"
}
