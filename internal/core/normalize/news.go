package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core"
)

const NewsKey = "feed"

// News is a page of NEWS_SENTIMENT articles.
type News struct {
	Items []Article `json:"items"`
}

// Article is one news item with its sentiment annotations.
type Article struct {
	Title          string            `json:"title"`
	URL            string            `json:"url"`
	TimePublished  string            `json:"timePublished"`
	Authors        []string          `json:"authors"`
	Summary        string            `json:"summary"`
	Source         string            `json:"source"`
	SentimentScore float64           `json:"sentimentScore"`
	SentimentLabel string            `json:"sentimentLabel"`
	Tickers        []TickerSentiment `json:"tickers"`
}

type TickerSentiment struct {
	Ticker    string `json:"ticker"`
	Relevance string `json:"relevance"`
	Sentiment string `json:"sentiment"`
	Label     string `json:"label,omitempty"`
}

// NewsSentiment normalizes NEWS_SENTIMENT.
func NewsSentiment(p core.Payload) (any, error) {
	feed, err := array(p, NewsKey)
	if err != nil {
		return nil, err
	}

	news := News{Items: make([]Article, 0)}
	feed.ForEach(func(_, item gjson.Result) bool {
		article := Article{
			Title:          str(item, "title"),
			URL:            str(item, "url"),
			TimePublished:  str(item, "time_published"),
			Authors:        make([]string, 0),
			Summary:        str(item, "summary"),
			Source:         str(item, "source"),
			SentimentScore: get(item, "overall_sentiment_score").Float(),
			SentimentLabel: str(item, "overall_sentiment_label"),
			Tickers:        make([]TickerSentiment, 0),
		}
		get(item, "authors").ForEach(func(_, author gjson.Result) bool {
			article.Authors = append(article.Authors, author.String())
			return true
		})
		get(item, "ticker_sentiment").ForEach(func(_, ts gjson.Result) bool {
			article.Tickers = append(article.Tickers, TickerSentiment{
				Ticker:    str(ts, "ticker"),
				Relevance: str(ts, "relevance_score"),
				Sentiment: str(ts, "ticker_sentiment_score"),
				Label:     str(ts, "ticker_sentiment_label"),
			})
			return true
		})
		news.Items = append(news.Items, article)
		return true
	})
	return news, nil
}
