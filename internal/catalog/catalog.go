// Package catalog owns the catalogue of tracked instruments. The catalogue
// is assembled once at startup and treated as immutable afterwards.
package catalog

import "github.com/index-back/pkg/models"

// Default returns the built-in instrument catalogue. Fallback prices and the
// forex nominal change are hardcoded display approximations kept on the
// config so the fallback path never needs live data.
func Default() []models.InstrumentConfig {
	return []models.InstrumentConfig{
		{
			ID: "sp500", Name: "S&P 500", Symbol: "SPY", Category: "US Equities",
			Family: models.FamilyStock, Icon: "chart-line", Color: "#1f77b4", Handle: "SPX",
			FallbackPrice: 450,
		},
		{
			ID: "nasdaq100", Name: "Nasdaq 100", Symbol: "QQQ", Category: "US Equities",
			Family: models.FamilyStock, Icon: "chart-line", Color: "#9467bd", Handle: "NDX",
			FallbackPrice: 380,
		},
		{
			ID: "apple", Name: "Apple Inc.", Symbol: "AAPL", Category: "US Equities",
			Family: models.FamilyStock, Icon: "device-mobile", Color: "#7f7f7f", Handle: "AAPL",
			FallbackPrice: 175,
		},
		{
			ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Category: "Crypto",
			Family: models.FamilyCrypto, Icon: "currency-bitcoin", Color: "#ff7f0e", Handle: "BTC",
			FallbackPrice: 43000,
		},
		{
			ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Category: "Crypto",
			Family: models.FamilyCrypto, Icon: "currency-ethereum", Color: "#2ca02c", Handle: "ETH",
			FallbackPrice: 2300,
		},
		{
			ID: "eurusd", Name: "Euro / US Dollar", Symbol: "EURUSD", Category: "Forex",
			Family: models.FamilyForex, Icon: "currency-euro", Color: "#17becf", Handle: "EUR/USD",
			FromSymbol: "EUR", ToSymbol: "USD",
			FallbackPrice: 1.09, NominalChangePct: 0.05,
		},
		{
			ID: "gbpusd", Name: "British Pound / US Dollar", Symbol: "GBPUSD", Category: "Forex",
			Family: models.FamilyForex, Icon: "currency-pound", Color: "#d62728", Handle: "GBP/USD",
			FromSymbol: "GBP", ToSymbol: "USD",
			FallbackPrice: 1.27, NominalChangePct: 0.05,
		},
		{
			ID: "wti", Name: "Crude Oil (WTI)", Symbol: "WTI", Category: "Commodities",
			Family: models.FamilyCommodity, Icon: "droplet", Color: "#8c564b", Handle: "WTI",
			Function:      "WTI",
			FallbackPrice: 75,
		},
		{
			ID: "copper", Name: "Copper", Symbol: "COPPER", Category: "Commodities",
			Family: models.FamilyCommodity, Icon: "box", Color: "#bcbd22", Handle: "HG",
			Function:      "COPPER",
			FallbackPrice: 3.8,
		},
		{
			ID: "cpi", Name: "US Consumer Price Index", Symbol: "CPI", Category: "Economy",
			Family: models.FamilyEconomic, Icon: "receipt", Color: "#e377c2", Handle: "CPI",
			Function:      "CPI",
			FallbackPrice: 310,
		},
		{
			ID: "unemployment", Name: "US Unemployment Rate", Symbol: "UNRATE", Category: "Economy",
			Family: models.FamilyEconomic, Icon: "users", Color: "#7b4173", Handle: "UNRATE",
			Function:      "UNEMPLOYMENT",
			FallbackPrice: 3.9,
		},
		{
			ID: "top-gainer", Name: "Top Market Gainer", Symbol: "GAINERS", Category: "Intelligence",
			Family: models.FamilyIntelligence, Icon: "trending-up", Color: "#2ca02c", Handle: "MOVERS",
		},
	}
}
