package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core"
)

// Series keys used by the time-series endpoints.
const (
	DailySeriesKey   = "Time Series (Daily)"
	WeeklySeriesKey  = "Weekly Time Series"
	MonthlySeriesKey = "Monthly Time Series"
	CryptoSeriesKey  = "Time Series (Digital Currency Daily)"
)

// IntradaySeriesKey returns the series key for an intraday interval.
func IntradaySeriesKey(interval string) string {
	return "Time Series (" + interval + ")"
}

// Bar is one OHLCV entry of a daily, weekly or monthly series.
type Bar struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// IntradayBar is one OHLCV entry of an intraday series.
type IntradayBar struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// CryptoBar is one entry of a digital currency daily series.
type CryptoBar struct {
	Date      string `json:"date"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
	MarketCap string `json:"marketCap,omitempty"`
}

// Series returns a normalizer for the daily, weekly or monthly series stored under key.
func Series(key string) Func {
	return func(p core.Payload) (any, error) {
		series, err := object(p, key)
		if err != nil {
			return nil, err
		}

		bars := make([]Bar, 0)
		entries(series, func(date string, v gjson.Result) {
			bars = append(bars, Bar{
				Date:   date,
				Open:   str(v, "1. open"),
				High:   str(v, "2. high"),
				Low:    str(v, "3. low"),
				Close:  str(v, "4. close"),
				Volume: str(v, "5. volume"),
			})
		})
		return bars, nil
	}
}

// Daily normalizes TIME_SERIES_DAILY.
var Daily = Series(DailySeriesKey)

// Intraday returns a normalizer for TIME_SERIES_INTRADAY at interval.
func Intraday(interval string) Func {
	key := IntradaySeriesKey(interval)
	return func(p core.Payload) (any, error) {
		series, err := object(p, key)
		if err != nil {
			return nil, err
		}

		bars := make([]IntradayBar, 0)
		entries(series, func(datetime string, v gjson.Result) {
			bars = append(bars, IntradayBar{
				Datetime: datetime,
				Open:     str(v, "1. open"),
				High:     str(v, "2. high"),
				Low:      str(v, "3. low"),
				Close:    str(v, "4. close"),
				Volume:   str(v, "5. volume"),
			})
		})
		return bars, nil
	}
}

// CryptoDaily normalizes DIGITAL_CURRENCY_DAILY. Older payloads use the
// "1a. open" market-denominated keys, newer ones "1. open".
func CryptoDaily(p core.Payload) (any, error) {
	series, err := object(p, CryptoSeriesKey)
	if err != nil {
		return nil, err
	}

	bars := make([]CryptoBar, 0)
	entries(series, func(date string, v gjson.Result) {
		bars = append(bars, CryptoBar{
			Date:      date,
			Open:      firstOf(v, "1a. open", "1. open"),
			High:      firstOf(v, "2a. high", "2. high"),
			Low:       firstOf(v, "3a. low", "3. low"),
			Close:     firstOf(v, "4a. close", "4. close"),
			Volume:    str(v, "5. volume"),
			MarketCap: str(v, "6. market cap (USD)"),
		})
	})
	return bars, nil
}
