package normalize

import (
	"github.com/vantagegate/vantagegate/internal/core"
)

// Report caps for statement-shaped responses.
const (
	AnnualReportLimit    = 3
	QuarterlyReportLimit = 4
)

const (
	OverviewKey       = "Symbol"
	AnnualReportsKey  = "annualReports"
	AnnualEarningsKey = "annualEarnings"
)

var overviewFields = []Mapping{
	{"symbol", "Symbol"},
	{"name", "Name"},
	{"description", "Description"},
	{"exchange", "Exchange"},
	{"currency", "Currency"},
	{"country", "Country"},
	{"sector", "Sector"},
	{"industry", "Industry"},
	{"marketCap", "MarketCapitalization"},
	{"peRatio", "PERatio"},
	{"pegRatio", "PEGRatio"},
	{"bookValue", "BookValue"},
	{"dividendPerShare", "DividendPerShare"},
	{"dividendYield", "DividendYield"},
	{"eps", "EPS"},
	{"revenuePerShareTTM", "RevenuePerShareTTM"},
	{"profitMargin", "ProfitMargin"},
	{"operatingMarginTTM", "OperatingMarginTTM"},
	{"returnOnAssetsTTM", "ReturnOnAssetsTTM"},
	{"returnOnEquityTTM", "ReturnOnEquityTTM"},
	{"revenueTTM", "RevenueTTM"},
	{"grossProfitTTM", "GrossProfitTTM"},
	{"dilutedEPSTTM", "DilutedEPSTTM"},
	{"quarterlyEarningsGrowthYOY", "QuarterlyEarningsGrowthYOY"},
	{"quarterlyRevenueGrowthYOY", "QuarterlyRevenueGrowthYOY"},
	{"analystTargetPrice", "AnalystTargetPrice"},
	{"trailingPE", "TrailingPE"},
	{"forwardPE", "ForwardPE"},
	{"priceToSalesRatioTTM", "PriceToSalesRatioTTM"},
	{"priceToBookRatio", "PriceToBookRatio"},
	{"evToRevenue", "EVToRevenue"},
	{"evToEBITDA", "EVToEBITDA"},
	{"beta", "Beta"},
	{"week52High", "52WeekHigh"},
	{"week52Low", "52WeekLow"},
	{"day50MovingAverage", "50DayMovingAverage"},
	{"day200MovingAverage", "200DayMovingAverage"},
	{"sharesOutstanding", "SharesOutstanding"},
}

// CompanyOverview normalizes OVERVIEW. An empty object means the symbol is unknown.
func CompanyOverview(p core.Payload) (any, error) {
	root := p.Root()
	if !get(root, OverviewKey).Exists() {
		return nil, missing(OverviewKey)
	}
	return project(root, overviewFields), nil
}

// Statement is a company's annual and quarterly financial reports.
type Statement struct {
	Symbol           string   `json:"symbol"`
	AnnualReports    []Record `json:"annualReports"`
	QuarterlyReports []Record `json:"quarterlyReports"`
}

// StatementFields selects the annual and quarterly report fields of a statement.
type StatementFields struct {
	Annual    []Mapping
	Quarterly []Mapping
}

func same(keys ...string) []Mapping {
	out := make([]Mapping, len(keys))
	for i, k := range keys {
		out[i] = Mapping{Out: k, In: k}
	}
	return out
}

var (
	BalanceSheetFields = StatementFields{
		Annual: same(
			"fiscalDateEnding", "reportedCurrency", "totalAssets", "totalCurrentAssets",
			"totalLiabilities", "totalCurrentLiabilities", "totalShareholderEquity",
			"cashAndCashEquivalentsAtCarryingValue", "inventory", "currentNetReceivables",
			"propertyPlantEquipment", "goodwill", "longTermDebt", "retainedEarnings",
			"commonStock", "commonStockSharesOutstanding",
		),
		Quarterly: same("fiscalDateEnding", "totalAssets", "totalLiabilities", "totalShareholderEquity"),
	}

	IncomeStatementFields = StatementFields{
		Annual: same(
			"fiscalDateEnding", "reportedCurrency", "totalRevenue", "grossProfit",
			"operatingIncome", "netIncome", "costOfRevenue", "operatingExpenses",
			"researchAndDevelopment", "sellingGeneralAndAdministrative", "incomeBeforeTax",
			"incomeTaxExpense", "ebit", "ebitda",
		),
		Quarterly: same("fiscalDateEnding", "totalRevenue", "grossProfit", "operatingIncome", "netIncome"),
	}

	CashFlowFields = StatementFields{
		Annual: same(
			"fiscalDateEnding", "reportedCurrency", "operatingCashflow", "capitalExpenditures",
			"cashflowFromInvestment", "cashflowFromFinancing", "netIncome",
			"depreciationDepletionAndAmortization", "changeInReceivables", "changeInInventory",
			"dividendPayout", "changeInCashAndCashEquivalents",
		),
		Quarterly: same("fiscalDateEnding", "operatingCashflow", "capitalExpenditures", "netIncome"),
	}
)

// FinancialStatement returns a normalizer for BALANCE_SHEET, INCOME_STATEMENT
// or CASH_FLOW keeping the most recent annual and quarterly reports.
func FinancialStatement(fields StatementFields) Func {
	return func(p core.Payload) (any, error) {
		annual, err := array(p, AnnualReportsKey)
		if err != nil {
			return nil, err
		}

		out := Statement{
			Symbol:           p.Get("symbol").String(),
			AnnualReports:    make([]Record, 0),
			QuarterlyReports: make([]Record, 0),
		}
		for _, report := range limited(annual, AnnualReportLimit) {
			out.AnnualReports = append(out.AnnualReports, project(report, fields.Annual))
		}
		for _, report := range limited(p.Get("quarterlyReports"), QuarterlyReportLimit) {
			out.QuarterlyReports = append(out.QuarterlyReports, project(report, fields.Quarterly))
		}
		return out, nil
	}
}

// Earnings is a company's reported earnings history.
type Earnings struct {
	Symbol            string   `json:"symbol"`
	AnnualEarnings    []Record `json:"annualEarnings"`
	QuarterlyEarnings []Record `json:"quarterlyEarnings"`
}

var (
	annualEarningsFields    = same("fiscalDateEnding", "reportedEPS")
	quarterlyEarningsFields = same(
		"fiscalDateEnding", "reportedDate", "reportedEPS", "estimatedEPS",
		"surprise", "surprisePercentage",
	)
)

// EarningsHistory normalizes EARNINGS, keeping every reported period.
func EarningsHistory(p core.Payload) (any, error) {
	annual, err := array(p, AnnualEarningsKey)
	if err != nil {
		return nil, err
	}

	out := Earnings{
		Symbol:            p.Get("symbol").String(),
		AnnualEarnings:    make([]Record, 0),
		QuarterlyEarnings: make([]Record, 0),
	}
	for _, report := range annual.Array() {
		out.AnnualEarnings = append(out.AnnualEarnings, project(report, annualEarningsFields))
	}
	for _, report := range p.Get("quarterlyEarnings").Array() {
		out.QuarterlyEarnings = append(out.QuarterlyEarnings, project(report, quarterlyEarningsFields))
	}
	return out, nil
}
