package fetcher

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/rss"
	"github.com/samber/lo"

	"etherfund_news/internal/models"
)

// markupTag catches tags that only appear after entity decoding, e.g. "&lt;b&gt;".
var markupTag = regexp.MustCompile(`<[^>]+>`)

// ParseItems разбирает RSS-документ и возвращает только записи с картинкой.
func ParseItems(body []byte, feedURL string) ([]models.NewsItem, error) {
	fp := rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	items := lo.FilterMap(feed.Items, func(item *rss.Item, _ int) (models.NewsItem, bool) {
		image := ImageURL(item)
		if image == "" {
			return models.NewsItem{}, false
		}
		return models.NewsItem{
			Title:          fallback(strings.TrimSpace(item.Title), models.DefaultTitle),
			Link:           fallback(strings.TrimSpace(item.Link), models.DefaultLink),
			ContentSnippet: fallback(StripTags(item.Description), models.DefaultSnippet),
			Image:          image,
			Feed:           feedURL,
		}, true
	})
	return items, nil
}

// ImageURL returns the enclosure URL, else the first media:content URL, else "".
func ImageURL(item *rss.Item) string {
	if item.Enclosure != nil && strings.TrimSpace(item.Enclosure.URL) != "" {
		return strings.TrimSpace(item.Enclosure.URL)
	}
	if media := item.Extensions["media"]["content"]; len(media) > 0 {
		return strings.TrimSpace(media[0].Attrs["url"])
	}
	return ""
}

// StripTags removes markup from an HTML fragment and returns the trimmed text.
func StripTags(markup string) string {
	if markup == "" {
		return ""
	}
	text := markup
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		text = doc.Text()
	}
	return strings.TrimSpace(markupTag.ReplaceAllString(text, ""))
}

func fallback(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
