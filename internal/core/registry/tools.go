package registry

import (
	"strings"

	"github.com/vantagegate/vantagegate/internal/core"
	"github.com/vantagegate/vantagegate/internal/core/normalize"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

var (
	intradayIntervals  = []string{"1min", "5min", "15min", "30min", "60min"}
	indicatorIntervals = []string{"1min", "5min", "15min", "30min", "60min", "daily", "weekly", "monthly"}
	seriesTypes        = []string{"open", "high", "low", "close"}
	economicFunctions  = []string{
		"REAL_GDP", "REAL_GDP_PER_CAPITA", "TREASURY_YIELD", "FEDERAL_FUNDS_RATE", "CPI",
		"INFLATION", "RETAIL_SALES", "DURABLES", "UNEMPLOYMENT", "NONFARM_PAYROLL",
	}
)

func symbol(description string) Param {
	return Param{Name: "symbol", Kind: KindString, Description: description, Required: true, Upper: true}
}

func interval(values []string, def string) Param {
	return Param{Name: "interval", Kind: KindEnum, Enum: values, Default: def, Description: "Time interval between data points"}
}

func period(name string, def float64, description string) Param {
	return Param{Name: name, Kind: KindNumber, Default: def, Min: bound(1), Description: description}
}

var seriesType = Param{Name: "seriesType", Kind: KindEnum, Enum: seriesTypes, Default: "close", Description: "Price series used in the calculation"}

// query builds provider params from alternating name/value pairs.
func query(function string, pairs ...string) core.Params {
	params := core.Params{"function": function}
	for i := 0; i+1 < len(pairs); i += 2 {
		params[pairs[i]] = pairs[i+1]
	}
	return params
}

func number(args Args, name string) string {
	n, ok := args.Number(name)
	if !ok {
		return ""
	}
	return formatNumber(n)
}

func static(fn normalize.Func) func(Args) normalize.Func {
	return func(Args) normalize.Func { return fn }
}

func symbolOnly(function string) func(Args) core.Params {
	return func(args Args) core.Params {
		return query(function, "symbol", args.String("symbol"))
	}
}

func indicator(function string, fields []normalize.Mapping) func(Args) normalize.Func {
	return static(normalize.Indicator(function, fields))
}

// catalog returns the tool descriptors in registration order. Meta tools are
// bound to r.
func (r *Registry) catalog() []Descriptor {
	return []Descriptor{
		{
			Name:        "get_stock_quote",
			Description: "Get real-time stock quote for a symbol",
			Schema:      Schema{symbol("Stock symbol (e.g., AAPL, MSFT, GOOGL)")},
			Request:     symbolOnly("GLOBAL_QUOTE"),
			Normalize:   static(normalize.GlobalQuote),
		},
		{
			Name:        "get_stock_daily",
			Description: "Get daily historical stock data",
			Schema: Schema{
				symbol("Stock symbol"),
				{Name: "outputsize", Kind: KindEnum, Enum: []string{"compact", "full"}, Default: "compact", Description: "compact returns the latest 100 points"},
			},
			Request: func(args Args) core.Params {
				return query("TIME_SERIES_DAILY", "symbol", args.String("symbol"), "outputsize", args.String("outputsize"))
			},
			Normalize: static(normalize.Daily),
		},
		{
			Name:        "get_stock_intraday",
			Description: "Get intraday stock data with customizable intervals",
			Schema:      Schema{symbol("Stock symbol"), interval(intradayIntervals, "5min")},
			Request: func(args Args) core.Params {
				return query("TIME_SERIES_INTRADAY", "symbol", args.String("symbol"), "interval", args.String("interval"))
			},
			Normalize: func(args Args) normalize.Func {
				return normalize.Intraday(args.String("interval"))
			},
		},
		{
			Name:        "get_stock_weekly",
			Description: "Get weekly historical stock data",
			Schema:      Schema{symbol("Stock symbol")},
			Request:     symbolOnly("TIME_SERIES_WEEKLY"),
			Normalize:   static(normalize.Series(normalize.WeeklySeriesKey)),
		},
		{
			Name:        "get_stock_monthly",
			Description: "Get monthly historical stock data",
			Schema:      Schema{symbol("Stock symbol")},
			Request:     symbolOnly("TIME_SERIES_MONTHLY"),
			Normalize:   static(normalize.Series(normalize.MonthlySeriesKey)),
		},
		{
			Name:        "get_exchange_rate",
			Description: "Get current exchange rate between two currencies",
			Schema: Schema{
				{Name: "fromCurrency", Kind: KindString, Required: true, Upper: true, Description: "Source currency code (e.g., USD, EUR, JPY)"},
				{Name: "toCurrency", Kind: KindString, Required: true, Upper: true, Description: "Target currency code (e.g., USD, EUR, JPY)"},
			},
			Request: func(args Args) core.Params {
				return query("CURRENCY_EXCHANGE_RATE",
					"from_currency", args.String("fromCurrency"),
					"to_currency", args.String("toCurrency"))
			},
			Normalize: static(normalize.ExchangeRate),
		},
		{
			Name:        "get_crypto_daily",
			Description: "Get daily cryptocurrency data",
			Schema: Schema{
				symbol("Cryptocurrency symbol (e.g., BTC, ETH, ADA)"),
				{Name: "market", Kind: KindString, Default: "USD", Upper: true, Description: "Exchange market currency"},
			},
			Request: func(args Args) core.Params {
				return query("DIGITAL_CURRENCY_DAILY", "symbol", args.String("symbol"), "market", args.String("market"))
			},
			Normalize: static(normalize.CryptoDaily),
		},
		{
			Name:        "get_sma",
			Description: "Get Simple Moving Average (SMA) technical indicator",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("timePeriod", 20, "Number of data points per average"),
				seriesType,
			},
			Request:   movingIndicator("SMA"),
			Normalize: indicator("SMA", normalize.SMAFields),
		},
		{
			Name:        "get_rsi",
			Description: "Get Relative Strength Index (RSI) technical indicator",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("timePeriod", 14, "Number of data points per value"),
				seriesType,
			},
			Request:   movingIndicator("RSI"),
			Normalize: indicator("RSI", normalize.RSIFields),
		},
		{
			Name:        "get_macd",
			Description: "Get MACD technical indicator",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				seriesType,
			},
			Request: func(args Args) core.Params {
				return query("MACD",
					"symbol", args.String("symbol"),
					"interval", args.String("interval"),
					"series_type", args.String("seriesType"))
			},
			Normalize: indicator("MACD", normalize.MACDFields),
		},
		{
			Name:        "get_news_sentiment",
			Description: "Get news sentiment for stocks or topics",
			Schema: Schema{
				{Name: "tickers", Kind: KindStringList, Upper: true, Description: "Stock symbols to filter by"},
				{Name: "topics", Kind: KindStringList, Description: "News topics to filter by"},
				{Name: "limit", Kind: KindNumber, Default: float64(50), Min: bound(1), Max: bound(1000), Description: "Maximum number of articles"},
			},
			Request: func(args Args) core.Params {
				return query("NEWS_SENTIMENT",
					"tickers", strings.Join(args.List("tickers"), ","),
					"topics", strings.Join(args.List("topics"), ","),
					"limit", number(args, "limit"))
			},
			Normalize: static(normalize.NewsSentiment),
		},

		{
			Name:        "get_company_overview",
			Description: "Get company overview and fundamental data (Premium+ only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityPremium,
			Feature:     "Company Overview",
			Request:     symbolOnly("OVERVIEW"),
			Normalize:   static(normalize.CompanyOverview),
		},
		{
			Name:        "get_earnings",
			Description: "Get earnings data for a company (Premium+ only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityPremium,
			Feature:     "Earnings Data",
			Request:     symbolOnly("EARNINGS"),
			Normalize:   static(normalize.EarningsHistory),
		},
		{
			Name:        "get_balance_sheet",
			Description: "Get balance sheet data (Premium+ only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityPremium,
			Feature:     "Balance Sheet",
			Request:     symbolOnly("BALANCE_SHEET"),
			Normalize:   static(normalize.FinancialStatement(normalize.BalanceSheetFields)),
		},
		{
			Name:        "get_income_statement",
			Description: "Get income statement data (Premium+ only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityPremium,
			Feature:     "Income Statement",
			Request:     symbolOnly("INCOME_STATEMENT"),
			Normalize:   static(normalize.FinancialStatement(normalize.IncomeStatementFields)),
		},
		{
			Name:        "get_cash_flow",
			Description: "Get cash flow statement data (Premium+ only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityPremium,
			Feature:     "Cash Flow",
			Request:     symbolOnly("CASH_FLOW"),
			Normalize:   static(normalize.FinancialStatement(normalize.CashFlowFields)),
		},
		{
			Name:        "get_bollinger_bands",
			Description: "Get Bollinger Bands technical indicator (Premium+ only)",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("timePeriod", 20, "Number of data points per band"),
				seriesType,
				{Name: "nbdevup", Kind: KindNumber, Default: float64(2), Min: bound(1), Description: "Standard deviation multiplier of the upper band"},
				{Name: "nbdevdn", Kind: KindNumber, Default: float64(2), Min: bound(1), Description: "Standard deviation multiplier of the lower band"},
			},
			Capability: tier.CapabilityPremium,
			Feature:    "Bollinger Bands",
			Request: func(args Args) core.Params {
				return query("BBANDS",
					"symbol", args.String("symbol"),
					"interval", args.String("interval"),
					"time_period", number(args, "timePeriod"),
					"series_type", args.String("seriesType"),
					"nbdevup", number(args, "nbdevup"),
					"nbdevdn", number(args, "nbdevdn"))
			},
			Normalize: indicator("BBANDS", normalize.BBANDSFields),
		},
		{
			Name:        "get_stochastic",
			Description: "Get Stochastic Oscillator technical indicator (Premium+ only)",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("fastkPeriod", 5, "Time period of the fast K line"),
				period("slowkPeriod", 3, "Time period of the slow K line"),
				period("slowdPeriod", 3, "Time period of the slow D line"),
			},
			Capability: tier.CapabilityPremium,
			Feature:    "Stochastic Oscillator",
			Request: func(args Args) core.Params {
				return query("STOCH",
					"symbol", args.String("symbol"),
					"interval", args.String("interval"),
					"fastkperiod", number(args, "fastkPeriod"),
					"slowkperiod", number(args, "slowkPeriod"),
					"slowdperiod", number(args, "slowdPeriod"),
					"slowkmatype", "0",
					"slowdmatype", "0")
			},
			Normalize: indicator("STOCH", normalize.STOCHFields),
		},
		{
			Name:        "get_williams_r",
			Description: "Get Williams %R technical indicator (Premium+ only)",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("timePeriod", 14, "Number of data points per value"),
			},
			Capability: tier.CapabilityPremium,
			Feature:    "Williams %R",
			Request:    periodIndicator("WILLR"),
			Normalize:  indicator("WILLR", normalize.WILLRFields),
		},
		{
			Name:        "get_atr",
			Description: "Get Average True Range (ATR) technical indicator (Premium+ only)",
			Schema: Schema{
				symbol("Stock symbol"),
				interval(indicatorIntervals, "daily"),
				period("timePeriod", 14, "Number of data points per value"),
			},
			Capability: tier.CapabilityPremium,
			Feature:    "Average True Range",
			Request:    periodIndicator("ATR"),
			Normalize:  indicator("ATR", normalize.ATRFields),
		},

		{
			Name:        "get_options_data",
			Description: "Get options data for a stock (Enterprise only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityEnterprise,
			Feature:     "Options Data",
			Request:     symbolOnly("HISTORICAL_OPTIONS"),
			Normalize:   static(normalize.PassThrough),
		},
		{
			Name:        "get_etf_profile",
			Description: "Get ETF profile and holdings data (Enterprise only)",
			Schema:      Schema{symbol("ETF symbol")},
			Capability:  tier.CapabilityEnterprise,
			Feature:     "ETF Profile",
			Request:     symbolOnly("ETF_PROFILE"),
			Normalize:   static(normalize.PassThrough),
		},
		{
			Name:        "get_economic_indicator",
			Description: "Get economic indicator data (Enterprise only)",
			Schema: Schema{
				{Name: "functionName", Kind: KindEnum, Enum: economicFunctions, Required: true, Description: "Economic indicator function name"},
				interval([]string{"monthly", "quarterly", "annual"}, "monthly"),
			},
			Capability: tier.CapabilityEnterprise,
			Feature:    "Economic Indicators",
			Request: func(args Args) core.Params {
				return query(args.String("functionName"), "interval", args.String("interval"))
			},
			Normalize: static(normalize.EconomicIndicator),
		},
		{
			Name:        "get_real_time_quote",
			Description: "Get real-time stock quote with no delay (Enterprise only)",
			Schema:      Schema{symbol("Stock symbol")},
			Capability:  tier.CapabilityEnterprise,
			Feature:     "Real-time Data",
			Request:     symbolOnly("REAL_TIME_QUOTE"),
			Normalize:   static(normalize.PassThrough),
		},

		{
			Name:        "get_subscription_info",
			Description: "Get current Alpha Vantage subscription information and limits",
			Schema:      Schema{},
			Local:       r.subscriptionInfo,
		},
		{
			Name:        "get_available_features",
			Description: "Get list of available features based on current subscription",
			Schema:      Schema{},
			Local:       r.availableFeatures,
		},
	}
}

func movingIndicator(function string) func(Args) core.Params {
	return func(args Args) core.Params {
		return query(function,
			"symbol", args.String("symbol"),
			"interval", args.String("interval"),
			"time_period", number(args, "timePeriod"),
			"series_type", args.String("seriesType"))
	}
}

func periodIndicator(function string) func(Args) core.Params {
	return func(args Args) core.Params {
		return query(function,
			"symbol", args.String("symbol"),
			"interval", args.String("interval"),
			"time_period", number(args, "timePeriod"))
	}
}
