package grpc

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/dashboard"
	"github.com/simaogato/coinfolio-backend/internal/usecase/projection"
	"google.golang.org/protobuf/types/known/structpb"
)

func str(s string) *structpb.Value                   { return structpb.NewStringValue(s) }
func decimalValue(d decimal.Decimal) *structpb.Value { return structpb.NewStringValue(d.String()) }
func num(n int) *structpb.Value                      { return structpb.NewNumberValue(float64(n)) }
func flag(b bool) *structpb.Value                    { return structpb.NewBoolValue(b) }

func ts(t time.Time) *structpb.Value {
	if t.IsZero() {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(t.UTC().Format(time.RFC3339))
}

func obj(fields map[string]*structpb.Value) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: fields})
}

func list(values []*structpb.Value) *structpb.Value {
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// holdingToValue converts a domain holding to its wire representation
func holdingToValue(h domain.Holding) *structpb.Value {
	return obj(map[string]*structpb.Value{
		"id":             str(h.ID.String()),
		"coin_id":        str(h.CoinID),
		"coin_name":      str(h.CoinName),
		"coin_symbol":    str(h.CoinSymbol),
		"coin_image":     str(h.CoinImage),
		"amount":         decimalValue(h.Amount),
		"purchase_price": decimalValue(h.PurchasePrice),
		"current_price":  decimalValue(h.CurrentPrice),
		"value":          decimalValue(h.Value),
		"cost_basis":     decimalValue(h.CostBasis),
		"pnl":            decimalValue(h.PnL),
		"pnl_percentage": decimalValue(h.PnLPercentage),
		"added_at":       ts(h.AddedAt),
	})
}

// portfolioToValue converts a portfolio with its holdings in display order
func portfolioToValue(p domain.Portfolio) *structpb.Value {
	holdings := make([]*structpb.Value, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		holdings = append(holdings, holdingToValue(h))
	}
	return obj(map[string]*structpb.Value{
		"user_id":              str(p.UserID),
		"currency":             str(p.Currency),
		"holdings":             list(holdings),
		"total_value":          decimalValue(p.TotalValue),
		"total_cost":           decimalValue(p.TotalCost),
		"total_pnl":            decimalValue(p.TotalPnL),
		"total_pnl_percentage": decimalValue(p.TotalPnLPercentage),
	})
}

func predictionToValue(p *domain.Prediction) *structpb.Value {
	if p == nil {
		return structpb.NewNullValue()
	}
	return obj(map[string]*structpb.Value{
		"predicted_price":         decimalValue(p.PredictedPrice),
		"conservative_prediction": decimalValue(p.ConservativePrediction),
		"optimistic_prediction":   decimalValue(p.OptimisticPrediction),
		"confidence":              decimalValue(p.Confidence),
		"trend":                   str(string(p.Trend)),
		"prediction_timestamp":    ts(p.PredictionTimestamp),
	})
}

func projectionToValue(pr projection.Projection) *structpb.Value {
	breakdown := make([]*structpb.Value, 0, len(pr.Breakdown))
	for _, hp := range pr.Breakdown {
		breakdown = append(breakdown, obj(map[string]*structpb.Value{
			"holding_id":      str(hp.HoldingID.String()),
			"coin_id":         str(hp.CoinID),
			"projected_value": decimalValue(hp.ProjectedValue),
			"change_percent":  decimalValue(hp.ChangePercent),
			"prediction":      predictionToValue(hp.Prediction),
		}))
	}
	return obj(map[string]*structpb.Value{
		"horizon_hours": num(int(pr.Horizon)),
		"label":         str(pr.Horizon.Label()),
		"total":         decimalValue(pr.Total),
		"change":        decimalValue(pr.Change),
		"covered":       num(pr.Covered),
		"holdings":      num(pr.Holdings),
		"complete":      flag(pr.Complete),
		"breakdown":     list(breakdown),
	})
}

// overviewToStruct builds the GetProjections response
func overviewToStruct(o *dashboard.Overview) *structpb.Struct {
	projections := make([]*structpb.Value, 0, len(o.Projections))
	for _, pr := range o.Projections {
		projections = append(projections, projectionToValue(pr))
	}

	fields := map[string]*structpb.Value{
		"currency":     str(o.Portfolio.Currency),
		"total_value":  decimalValue(o.Portfolio.TotalValue),
		"projections":  list(projections),
		"predicting":   flag(o.Predicting),
		"market_as_of": ts(o.MarketAsOf),
	}
	if o.Batch != nil {
		fields["batch_version"] = num(int(o.Batch.Version))
		fields["batch_committed_at"] = ts(o.Batch.CommittedAt)
	}
	return &structpb.Struct{Fields: fields}
}

func previewToStruct(r *dashboard.PreviewResult) *structpb.Struct {
	forecasts := make([]*structpb.Value, 0, len(r.Forecasts))
	for _, f := range r.Forecasts {
		forecasts = append(forecasts, obj(map[string]*structpb.Value{
			"horizon_hours":   num(int(f.Horizon)),
			"label":           str(f.Horizon.Label()),
			"projected_value": decimalValue(f.ProjectedValue),
			"available":       flag(f.Available),
		}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"coin": obj(map[string]*structpb.Value{
			"id":            str(r.Coin.ID),
			"symbol":        str(r.Coin.Symbol),
			"name":          str(r.Coin.Name),
			"current_price": decimalValue(r.Coin.CurrentPrice),
		}),
		"value":          decimalValue(r.Valuation.Value),
		"cost_basis":     decimalValue(r.Valuation.CostBasis),
		"pnl":            decimalValue(r.Valuation.PnL),
		"pnl_percentage": decimalValue(r.Valuation.PnLPercentage),
		"forecasts":      list(forecasts),
	}}
}

// stringField returns a string field, empty when absent
func stringField(s *structpb.Struct, key string) string {
	if v, ok := s.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

// decimalField parses a decimal given as a string or a number; nil when absent or null
func decimalField(s *structpb.Struct, key string) (*decimal.Decimal, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return nil, fmt.Errorf("invalid %s format: %v is not a finite number", key, kind.NumberValue)
		}
		d := decimal.NewFromFloat(kind.NumberValue)
		return &d, nil
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format: %w", key, err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("invalid %s format: expected string or number", key)
	}
}
