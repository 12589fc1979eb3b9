package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core"
)

// IndicatorKey returns the payload key of a technical indicator series.
func IndicatorKey(function string) string {
	return "Technical Analysis: " + function
}

// Output fields per indicator. Each point is {date, <fields>...}.
var (
	SMAFields    = []Mapping{{Out: "sma", In: "SMA"}}
	RSIFields    = []Mapping{{Out: "rsi", In: "RSI"}}
	WILLRFields  = []Mapping{{Out: "willr", In: "WILLR"}}
	ATRFields    = []Mapping{{Out: "atr", In: "ATR"}}
	MACDFields   = []Mapping{{Out: "macd", In: "MACD"}, {Out: "signal", In: "MACD_Signal"}, {Out: "histogram", In: "MACD_Hist"}}
	BBANDSFields = []Mapping{{Out: "upperBand", In: "Real Upper Band"}, {Out: "middleBand", In: "Real Middle Band"}, {Out: "lowerBand", In: "Real Lower Band"}}
	STOCHFields  = []Mapping{{Out: "slowK", In: "SlowK"}, {Out: "slowD", In: "SlowD"}}
)

// Indicator returns a normalizer for the technical indicator function whose
// points carry fields.
func Indicator(function string, fields []Mapping) Func {
	key := IndicatorKey(function)
	return func(p core.Payload) (any, error) {
		series, err := object(p, key)
		if err != nil {
			return nil, err
		}

		points := make([]Record, 0)
		entries(series, func(date string, v gjson.Result) {
			point := make(Record, 0, len(fields)+1)
			point = append(point, Field{Key: "date", Value: date})
			for _, f := range fields {
				point = append(point, Field{Key: f.Out, Value: str(v, f.In)})
			}
			points = append(points, point)
		})
		return points, nil
	}
}
