package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/coinfolio-backend/internal/usecase/market"
)

func text(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func amount(s *structpb.Struct, key string) decimal.Decimal {
	d, err := decimal.NewFromString(text(s, key))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func percent(d decimal.Decimal) string {
	sign := ""
	if d.IsPositive() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

// renderPortfolio renders holdings and totals as a markdown table
func renderPortfolio(p *structpb.Struct) string {
	currency := text(p, "currency")
	money := func(s *structpb.Struct, key string) string {
		return market.FormatMoney(amount(s, key), currency)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio (%s)\n\n", strings.ToUpper(currency))

	holdings := p.GetFields()["holdings"].GetListValue().GetValues()
	if len(holdings) == 0 {
		b.WriteString("No holdings yet.\n")
		return b.String()
	}

	b.WriteString("| Coin | Amount | Price | Value | P&L | P&L % | ID |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	for _, v := range holdings {
		h := v.GetStructValue()
		fmt.Fprintf(&b, "| %s (%s) | %s | %s | %s | %s | %s | `%s` |\n",
			text(h, "coin_name"),
			strings.ToUpper(text(h, "coin_symbol")),
			text(h, "amount"),
			money(h, "current_price"),
			money(h, "value"),
			money(h, "pnl"),
			percent(amount(h, "pnl_percentage")),
			text(h, "id"),
		)
	}

	fmt.Fprintf(&b, "\n**Total value:** %s  \n**Total cost:** %s  \n**P&L:** %s (%s)\n",
		money(p, "total_value"),
		money(p, "total_cost"),
		money(p, "total_pnl"),
		percent(amount(p, "total_pnl_percentage")),
	)
	return b.String()
}

// renderProjections renders one row per horizon
func renderProjections(resp *structpb.Struct) string {
	currency := text(resp, "currency")

	var b strings.Builder
	fmt.Fprintf(&b, "# Projections (%s)\n\n", strings.ToUpper(currency))
	fmt.Fprintf(&b, "Current value: %s\n\n", market.FormatMoney(amount(resp, "total_value"), currency))

	b.WriteString("| Horizon | Projected | Change | Forecasts |\n")
	b.WriteString("|---|---:|---:|---:|\n")
	for _, v := range resp.GetFields()["projections"].GetListValue().GetValues() {
		pr := v.GetStructValue()
		fmt.Fprintf(&b, "| %s | %s | %s | %d/%d |\n",
			text(pr, "label"),
			market.FormatMoney(amount(pr, "total"), currency),
			market.FormatMoney(amount(pr, "change"), currency),
			int(pr.GetFields()["covered"].GetNumberValue()),
			int(pr.GetFields()["holdings"].GetNumberValue()),
		)
	}

	if resp.GetFields()["predicting"].GetBoolValue() {
		b.WriteString("\n_Forecasts are being refreshed._\n")
	}
	return b.String()
}

// renderPreview renders the valuation and forecasts of a prospective holding
func renderPreview(resp *structpb.Struct, units string) string {
	coin := resp.GetFields()["coin"].GetStructValue()
	currency := "usd"
	if c := text(resp, "currency"); c != "" {
		currency = c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", units, text(coin, "name"))
	fmt.Fprintf(&b, "Value now: %s\n\n", market.FormatMoney(amount(resp, "value"), currency))

	b.WriteString("| Horizon | Forecast value |\n")
	b.WriteString("|---|---:|\n")
	for _, v := range resp.GetFields()["forecasts"].GetListValue().GetValues() {
		f := v.GetStructValue()
		value := "unavailable"
		if f.GetFields()["available"].GetBoolValue() {
			value = market.FormatMoney(amount(f, "projected_value"), currency)
		}
		fmt.Fprintf(&b, "| %s | %s |\n", text(f, "label"), value)
	}
	return b.String()
}
