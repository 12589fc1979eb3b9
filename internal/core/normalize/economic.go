package normalize

import (
	"github.com/tidwall/gjson"

	"github.com/vantagegate/vantagegate/internal/core"
)

const EconomicDataKey = "data"

// Economic is a macroeconomic indicator series.
type Economic struct {
	Name     string             `json:"name"`
	Interval string             `json:"interval"`
	Unit     string             `json:"unit"`
	Data     []EconomicDatapoint `json:"data"`
}

type EconomicDatapoint struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// EconomicIndicator normalizes REAL_GDP, CPI, INFLATION and the other
// economic indicator functions, which share one payload shape.
func EconomicIndicator(p core.Payload) (any, error) {
	data, err := array(p, EconomicDataKey)
	if err != nil {
		return nil, err
	}

	out := Economic{
		Name:     p.Get("name").String(),
		Interval: p.Get("interval").String(),
		Unit:     p.Get("unit").String(),
		Data:     make([]EconomicDatapoint, 0),
	}
	data.ForEach(func(_, v gjson.Result) bool {
		out.Data = append(out.Data, EconomicDatapoint{
			Date:  str(v, "date"),
			Value: str(v, "value"),
		})
		return true
	})
	return out, nil
}
