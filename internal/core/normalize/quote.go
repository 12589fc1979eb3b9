package normalize

import "github.com/vantagegate/vantagegate/internal/core"

const (
	QuoteKey        = "Global Quote"
	ExchangeRateKey = "Realtime Currency Exchange Rate"
)

// Quote is the latest price snapshot of one symbol.
type Quote struct {
	Symbol           string `json:"symbol"`
	Price            string `json:"price"`
	Change           string `json:"change"`
	ChangePercent    string `json:"changePercent"`
	Volume           string `json:"volume"`
	LatestTradingDay string `json:"latestTradingDay"`
	Open             string `json:"open"`
	High             string `json:"high"`
	Low              string `json:"low"`
	PreviousClose    string `json:"previousClose"`
}

// GlobalQuote normalizes GLOBAL_QUOTE.
func GlobalQuote(p core.Payload) (any, error) {
	v, err := object(p, QuoteKey)
	if err != nil {
		return nil, err
	}
	return Quote{
		Symbol:           str(v, "01. symbol"),
		Open:             str(v, "02. open"),
		High:             str(v, "03. high"),
		Low:              str(v, "04. low"),
		Price:            str(v, "05. price"),
		Volume:           str(v, "06. volume"),
		LatestTradingDay: str(v, "07. latest trading day"),
		PreviousClose:    str(v, "08. previous close"),
		Change:           str(v, "09. change"),
		ChangePercent:    str(v, "10. change percent"),
	}, nil
}

// Rate is a currency pair conversion rate.
type Rate struct {
	FromCurrency  string `json:"fromCurrency"`
	FromName      string `json:"fromName,omitempty"`
	ToCurrency    string `json:"toCurrency"`
	ToName        string `json:"toName,omitempty"`
	Rate          string `json:"rate"`
	LastRefreshed string `json:"lastRefreshed"`
	TimeZone      string `json:"timeZone"`
	BidPrice      string `json:"bidPrice"`
	AskPrice      string `json:"askPrice"`
}

// ExchangeRate normalizes CURRENCY_EXCHANGE_RATE. Crypto pairs use the same shape.
func ExchangeRate(p core.Payload) (any, error) {
	v, err := object(p, ExchangeRateKey)
	if err != nil {
		return nil, err
	}
	return Rate{
		FromCurrency:  str(v, "1. From_Currency Code"),
		FromName:      str(v, "2. From_Currency Name"),
		ToCurrency:    str(v, "3. To_Currency Code"),
		ToName:        str(v, "4. To_Currency Name"),
		Rate:          str(v, "5. Exchange Rate"),
		LastRefreshed: str(v, "6. Last Refreshed"),
		TimeZone:      str(v, "7. Time Zone"),
		BidPrice:      str(v, "8. Bid Price"),
		AskPrice:      str(v, "9. Ask Price"),
	}, nil
}
