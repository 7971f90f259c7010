// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Exchange describes market data connectivity for price feeds.
type Exchange struct {
	Provider    string      `yaml:"provider"` // stub|dexscreener|pumpfun
	Symbols     []string    `yaml:"symbols"`
	DexScreener DexScreener `yaml:"dexscreener"`
	Discovery   Discovery   `yaml:"discovery"`
}

// DexScreener configures the HTTP polling feed targeting Dexscreener pairs.
type DexScreener struct {
	BaseURL      string `yaml:"base_url"`
	DefaultChain string `yaml:"default_chain"`
	PollInterval int    `yaml:"poll_interval_ms"`
}

// Discovery configures automatic symbol discovery.
type Discovery struct {
	Enabled            bool     `yaml:"enabled"`
	Keywords           []string `yaml:"keywords"`
	Chains             []string `yaml:"chains"`
	MaxPairs           int      `yaml:"max_pairs"`
	RefreshInterval    int      `yaml:"refresh_interval_ms"`
	MinLiquidityUSD    float64  `yaml:"min_liquidity_usd"`
	MinVolumeUSD       float64  `yaml:"min_volume_usd"`
	MaxPairsPerKeyword int      `yaml:"max_pairs_per_keyword"`
}

// Chain defines the Solana node endpoints and on-chain collector tuning.
type Chain struct {
	RpcURL            string  `yaml:"rpc_url"`
	WssURL            string  `yaml:"wss_url"`
	Commitment        string  `yaml:"commitment"` // processed|confirmed|finalized
	MaxAccountRetries int     `yaml:"max_account_retries"`
	RetryDelayMs      int     `yaml:"retry_delay_ms"`
	CurvePollMs       int     `yaml:"curve_poll_ms"`
	MaxTracked        int     `yaml:"max_tracked"`
	MinInitialPrice   float64 `yaml:"min_initial_price"`
}

// Social configures the off-chain post collector.
type Social struct {
	Provider       string   `yaml:"provider"` // stub|http
	BaseURL        string   `yaml:"base_url"`
	Keywords       []string `yaml:"keywords"`
	PollInterval   int      `yaml:"poll_interval_ms"`
	BearerTokenEnv string   `yaml:"bearer_token_env"`
	PageLimit      int      `yaml:"page_limit"`
	WindowSecs     int      `yaml:"window_secs"`
	MinScore       float64  `yaml:"min_score"`
}

// Dataset points the synchronizer at its storage targets.
type Dataset struct {
	SQLitePath    string `yaml:"sqlite_path"`
	JSONLPath     string `yaml:"jsonl_path"`
	SyncTolerance int    `yaml:"sync_tolerance_ms"`
	FlushInterval int    `yaml:"flush_interval_ms"`
}

// Model groups training hyperparameters and the weights file location.
type Model struct {
	Path             string  `yaml:"path"`
	LearningRate     float64 `yaml:"learning_rate"`
	Epochs           int     `yaml:"epochs"`
	LabelHorizonSecs int     `yaml:"label_horizon_secs"`
	MinSamples       int     `yaml:"min_samples"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade  float64 `yaml:"max_notional_per_trade"`
	MaxDailyLoss         float64 `yaml:"max_daily_loss"`
	KillSwitchDrawdown   float64 `yaml:"kill_switch_drawdown"`
	MaxPortfolioNotional float64 `yaml:"max_portfolio_notional"`
}

// StrategyParams groups tunable knobs for a strategy implementation.
type StrategyParams struct {
	OBILevels         int     `yaml:"obi_levels"`
	OBIThreshold      float64 `yaml:"obi_threshold"`
	VolWindowSecs     int     `yaml:"vol_window_secs"`
	TrendThreshold    float64 `yaml:"trend_threshold"`
	TrendWindowSecs   int     `yaml:"trend_window_secs"`
	TrendMinVolumeUSD float64 `yaml:"trend_min_volume_usd"`
	AuraThreshold     float64 `yaml:"aura_threshold"`
	AuraModelWeight   float64 `yaml:"aura_model_weight"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Paper captures paper-trading account settings such as starting cash, per-symbol caps, and execution tuning.
type Paper struct {
	StartingCash           float64 `yaml:"starting_cash"`
	MaxPositionPerSymbol   float64 `yaml:"max_position_per_symbol"`
	MaxPositionNotionalUSD float64 `yaml:"max_position_notional_usd"`
	SlippageBps            float64 `yaml:"slippage_bps"`
	FeeBps                 float64 `yaml:"fee_bps"`
	MaxLatencyMs           int     `yaml:"max_latency_ms"`
	PartialFillProbability float64 `yaml:"partial_fill_probability"`
	MaxPartialFills        int     `yaml:"max_partial_fills"`
	FillsPath              string  `yaml:"fills_path"`
}

// Backtest narrows which stored samples a replay run consumes.
type Backtest struct {
	From          string   `yaml:"from"` // RFC3339, empty for open-ended
	To            string   `yaml:"to"`
	Symbols       []string `yaml:"symbols"`
	Seed          int64    `yaml:"seed"`
	OrderNotional float64  `yaml:"order_notional"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Chain    Chain    `yaml:"chain"`
	Social   Social   `yaml:"social"`
	Exchange Exchange `yaml:"exchange"`
	Dataset  Dataset  `yaml:"dataset"`
	Model    Model    `yaml:"model"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
	Backtest Backtest `yaml:"backtest"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyEnv()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
