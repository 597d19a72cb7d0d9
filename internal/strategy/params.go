package strategy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/twbeatles/upbit-autotrader/internal/model"
)

// Kind selects the entry/exit rule set the engine runs.
type Kind string

const (
	KindVolatilityBreakout Kind = "volatility_breakout"
	KindGoldenCross        Kind = "golden_cross"
	KindRSIReversal        Kind = "rsi_reversal"
	KindGridTrading        Kind = "grid_trading"
)

// EntryPolicy defines how hard filters and entry scoring combine into one
// acceptance decision. There is exactly one policy per run; the filter path
// and the score path can never disagree silently.
type EntryPolicy string

const (
	// PolicyFilters: every enabled hard filter must pass; score is
	// computed for reporting only.
	PolicyFilters EntryPolicy = "filters"
	// PolicyScore: score ≥ threshold decides; hard filters contribute
	// to the score but do not gate.
	PolicyScore EntryPolicy = "score"
	// PolicyFiltersAndScore: both must hold.
	PolicyFiltersAndScore EntryPolicy = "filters_and_score"
)

// EntryWeights assigns score contributions per satisfied entry factor.
// The weights should sum to 100.
type EntryWeights struct {
	TargetBreak   float64 `json:"target_break"`
	MAFilter      float64 `json:"ma_filter"`
	RSIOptimal    float64 `json:"rsi_optimal"`
	MACDGolden    float64 `json:"macd_golden"`
	VolumeConfirm float64 `json:"volume_confirm"`
	BBPosition    float64 `json:"bb_position"`
}

// PartialLevel is one rung of the partial take-profit ladder.
type PartialLevel struct {
	TriggerRate  float64 `json:"trigger_rate"`  // profit % that arms this level
	SellFraction float64 `json:"sell_fraction"` // fraction of quantity to sell, (0,1)
}

// Parameters is the immutable configuration bundle for one run. It is
// constructed once and passed by value into the engine; nothing reads
// configuration at evaluation time.
type Parameters struct {
	Kind     Kind           `json:"kind"`
	Interval model.Interval `json:"interval"`

	// Volatility breakout
	K float64 `json:"k"` // breakout coefficient

	// Exits
	TrailingStart   float64 `json:"ts_start"` // % max profit that arms the trailing stop
	TrailingStop    float64 `json:"ts_stop"`  // % retrace from running high that fires it
	LossCut         float64 `json:"loss_cut"` // % stop-loss
	UseTimeExit     bool    `json:"use_time_exit"`
	MaxHoldingHours float64 `json:"max_holding_hours"`

	PartialLadder []PartialLevel `json:"partial_ladder,omitempty"`

	// Entry filters
	UseMAFilter        bool    `json:"use_ma_filter"`
	MAPeriod           int     `json:"ma_period"`
	UseRSIFilter       bool    `json:"use_rsi_filter"`
	RSIPeriod          int     `json:"rsi_period"`
	RSIUpper           float64 `json:"rsi_upper"`
	UseMACDFilter      bool    `json:"use_macd_filter"`
	MACDFast           int     `json:"macd_fast"`
	MACDSlow           int     `json:"macd_slow"`
	MACDSignal         int     `json:"macd_signal"`
	UseVolumeFilter    bool    `json:"use_volume_filter"`
	VolumePeriod       int     `json:"volume_period"`
	VolumeMultiplier   float64 `json:"volume_multiplier"`
	UseBollingerFilter bool    `json:"use_bollinger_filter"`
	BBPeriod           int     `json:"bb_period"`
	BBStdDev           float64 `json:"bb_stddev"`
	UseStochRSIFilter  bool    `json:"use_stochrsi_filter"`
	StochRSIUpper      float64 `json:"stochrsi_upper"`
	UseADXFilter       bool    `json:"use_adx_filter"`
	ADXPeriod          int     `json:"adx_period"`
	ADXMin             float64 `json:"adx_min"`

	// Entry scoring
	EntryPolicy    EntryPolicy  `json:"entry_policy"`
	EntryWeights   EntryWeights `json:"entry_weights"`
	EntryThreshold float64      `json:"entry_threshold"`

	// Multi-timeframe trend alignment
	UseMTF           bool           `json:"use_mtf"`
	MTFLongInterval  model.Interval `json:"mtf_long_interval"`
	MTFShortInterval model.Interval `json:"mtf_short_interval"`
	TrendPeriod      int            `json:"trend_period"`

	// Gap-based K adjustment
	UseGapAdjust  bool    `json:"use_gap_adjust"`
	GapThreshold  float64 `json:"gap_threshold"` // % gap vs previous close
	GapUpFactor   float64 `json:"gap_up_factor"`
	GapDownFactor float64 `json:"gap_down_factor"`

	// Breakout confirmation over recent tick observations
	UseBreakoutConfirm bool `json:"use_breakout_confirm"`
	ConfirmTicks       int  `json:"confirm_ticks"`

	// Position sizing and lifecycle
	BetRatio            float64 `json:"bet_ratio"` // % of balance per entry
	CooldownMinutes     int     `json:"cooldown_minutes"`
	UseDynamicSizing    bool    `json:"use_dynamic_sizing"`
	LossStreakThreshold int     `json:"loss_streak_threshold"`
	LossSizeFactor      float64 `json:"loss_size_factor"`
	WinStreakThreshold  int     `json:"win_streak_threshold"`
	WinSizeFactor       float64 `json:"win_size_factor"`
	MaxBetRatio         float64 `json:"max_bet_ratio"`

	// Portfolio risk gate
	MaxDailyLossPct float64 `json:"max_daily_loss_pct"`
	MaxHoldings     int     `json:"max_holdings"`

	// Golden-cross / RSI-reversal strategies
	ShortMAPeriod int     `json:"short_ma_period"`
	LongMAPeriod  int     `json:"long_ma_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`

	// Grid trading
	GridCount      int     `json:"grid_count"`
	GridSpacing    float64 `json:"grid_spacing"`     // % between levels
	GridTakeProfit float64 `json:"grid_take_profit"` // % gain per entry
}

// Defaults returns the stock volatility-breakout configuration.
func Defaults() Parameters {
	return Parameters{
		Kind:     KindVolatilityBreakout,
		Interval: model.IntervalMinute240,

		K:               0.4,
		TrailingStart:   5.0,
		TrailingStop:    2.0,
		LossCut:         3.0,
		UseTimeExit:     true,
		MaxHoldingHours: 24,

		PartialLadder: []PartialLevel{
			{TriggerRate: 3.0, SellFraction: 0.3},
			{TriggerRate: 5.0, SellFraction: 0.3},
			{TriggerRate: 10.0, SellFraction: 0.4},
		},

		UseMAFilter:      true,
		MAPeriod:         5,
		UseRSIFilter:     true,
		RSIPeriod:        14,
		RSIUpper:         70,
		UseMACDFilter:    false,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		UseVolumeFilter:  true,
		VolumePeriod:     20,
		VolumeMultiplier: 1.5,
		BBPeriod:         20,
		BBStdDev:         2.0,
		StochRSIUpper:    80,
		ADXPeriod:        14,
		ADXMin:           20,

		EntryPolicy: PolicyFilters,
		EntryWeights: EntryWeights{
			TargetBreak:   30,
			MAFilter:      15,
			RSIOptimal:    15,
			MACDGolden:    15,
			VolumeConfirm: 15,
			BBPosition:    10,
		},
		EntryThreshold: 60,

		MTFLongInterval:  model.IntervalDay,
		MTFShortInterval: model.IntervalMinute60,
		TrendPeriod:      5,

		GapThreshold:  3.0,
		GapUpFactor:   1.2,
		GapDownFactor: 0.8,

		ConfirmTicks: 3,

		BetRatio:            10.0,
		CooldownMinutes:     30,
		LossStreakThreshold: 3,
		LossSizeFactor:      0.5,
		WinStreakThreshold:  3,
		WinSizeFactor:       1.5,
		MaxBetRatio:         20.0,

		MaxDailyLossPct: 5.0,
		MaxHoldings:     5,

		ShortMAPeriod: 5,
		LongMAPeriod:  20,
		RSIOversold:   30,
		RSIOverbought: 70,

		GridCount:      5,
		GridSpacing:    2.0,
		GridTakeProfit: 1.0,
	}
}

// LoadParameters reads a JSON parameter file over the defaults.
func LoadParameters(path string) (Parameters, error) {
	p := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects configurations the engine cannot run.
func (p Parameters) Validate() error {
	if p.K <= 0 {
		return fmt.Errorf("k must be positive, got %.3f", p.K)
	}
	if p.BetRatio <= 0 || p.BetRatio > 100 {
		return fmt.Errorf("bet_ratio must be in (0,100], got %.2f", p.BetRatio)
	}
	if p.LossCut <= 0 {
		return fmt.Errorf("loss_cut must be positive, got %.2f", p.LossCut)
	}
	prev := 0.0
	for i, lv := range p.PartialLadder {
		if lv.TriggerRate <= prev {
			return fmt.Errorf("partial ladder level %d: trigger rates must be strictly increasing", i)
		}
		if lv.SellFraction <= 0 || lv.SellFraction >= 1 {
			return fmt.Errorf("partial ladder level %d: sell fraction must be in (0,1)", i)
		}
		prev = lv.TriggerRate
	}
	switch p.EntryPolicy {
	case PolicyFilters, PolicyScore, PolicyFiltersAndScore:
	default:
		return fmt.Errorf("unknown entry policy %q", p.EntryPolicy)
	}
	switch p.Kind {
	case KindVolatilityBreakout, KindGoldenCross, KindRSIReversal:
	case KindGridTrading:
		if p.GridCount < 1 {
			return fmt.Errorf("grid_count must be at least 1, got %d", p.GridCount)
		}
		if p.GridSpacing <= 0 {
			return fmt.Errorf("grid_spacing must be positive, got %.2f", p.GridSpacing)
		}
		if p.GridTakeProfit <= 0 {
			return fmt.Errorf("grid_take_profit must be positive, got %.2f", p.GridTakeProfit)
		}
	default:
		return fmt.Errorf("unknown strategy kind %q", p.Kind)
	}
	return nil
}
