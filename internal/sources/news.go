package sources

import (
	"context"
	"fmt"
	"time"
)

// Article is a spaceflight news headline.
type Article struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Site        string    `json:"news_site"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
}

type newsResponse struct {
	Count   int       `json:"count"`
	Results []Article `json:"results"`
}

// Headline fetches the most recent article.
func (c *Client) Headline(ctx context.Context) (Article, error) {
	var r newsResponse
	if err := c.getJSON(ctx, c.endpoints.News, &r); err != nil {
		return Article{}, err
	}
	if len(r.Results) == 0 {
		return Article{}, fmt.Errorf("news payload has no articles")
	}
	a := r.Results[0]
	if a.Title == "" {
		return Article{}, fmt.Errorf("news article %d has no title", a.ID)
	}
	return a, nil
}
