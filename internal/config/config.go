package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Bridge  BridgeConfig
	Account AccountConfig
	Risk    RiskConfig
	Trading TradingConfig
	Runtime RuntimeConfig
}

type BridgeConfig struct {
	BaseURL string
	WSURL   string
	ApiKey  string
	Secret  string
	BotTag  string
}

type AccountConfig struct {
	InitialBalance float64
	ChallengeType  string
}

type RiskConfig struct {
	BaseRiskPerTrade   float64
	MaxConcurrentOpen  int
	MaxPerInstrument   int
	SignalThreshold    int
	MaxHoldHours       int
	ProfitLockFraction float64
}

type TradingConfig struct {
	PrimaryInstruments []string
	BackupInstruments  []string
	StartHourUTC       int
	EndHourUTC         int
	FridayCloseHourUTC int
}

type RuntimeConfig struct {
	StateFile    string
	CycleMinutes int
	DryRun       bool
	Log          LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {
	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	viper.SetDefault("account.initial_balance", 10000.0)
	viper.SetDefault("account.challenge_type", "ONE_STEP")
	viper.SetDefault("risk.base_risk_per_trade", 0.012)
	viper.SetDefault("risk.max_concurrent_open", 4)
	viper.SetDefault("risk.max_per_instrument", 2)
	viper.SetDefault("risk.signal_threshold", 4)
	viper.SetDefault("risk.max_hold_hours", 24)
	viper.SetDefault("risk.profit_lock_fraction", 0.02)
	viper.SetDefault("trading.primary_instruments", []string{"XAUUSD", "XAGUSD"})
	viper.SetDefault("trading.backup_instruments", []string{"EURUSD", "GBPUSD", "USDJPY"})
	viper.SetDefault("trading.start_hour_utc", 1)
	viper.SetDefault("trading.end_hour_utc", 22)
	viper.SetDefault("trading.friday_close_hour_utc", 21)
	viper.SetDefault("runtime.state_file", "bot_state.json")
	viper.SetDefault("runtime.cycle_minutes", 15)

	cfg.Bridge = BridgeConfig{
		BaseURL: viper.GetString("bridge.base_url"),
		WSURL:   viper.GetString("bridge.ws_url"),
		ApiKey:  envSub("bridge.api_key"),
		Secret:  envSub("bridge.secret"),
		BotTag:  viper.GetString("bridge.bot_tag"),
	}

	cfg.Account = AccountConfig{
		InitialBalance: viper.GetFloat64("account.initial_balance"),
		ChallengeType:  viper.GetString("account.challenge_type"),
	}

	cfg.Risk = RiskConfig{
		BaseRiskPerTrade:   viper.GetFloat64("risk.base_risk_per_trade"),
		MaxConcurrentOpen:  viper.GetInt("risk.max_concurrent_open"),
		MaxPerInstrument:   viper.GetInt("risk.max_per_instrument"),
		SignalThreshold:    viper.GetInt("risk.signal_threshold"),
		MaxHoldHours:       viper.GetInt("risk.max_hold_hours"),
		ProfitLockFraction: viper.GetFloat64("risk.profit_lock_fraction"),
	}

	cfg.Trading = TradingConfig{
		PrimaryInstruments: viper.GetStringSlice("trading.primary_instruments"),
		BackupInstruments:  viper.GetStringSlice("trading.backup_instruments"),
		StartHourUTC:       viper.GetInt("trading.start_hour_utc"),
		EndHourUTC:         viper.GetInt("trading.end_hour_utc"),
		FridayCloseHourUTC: viper.GetInt("trading.friday_close_hour_utc"),
	}

	cfg.Runtime = RuntimeConfig{
		StateFile:    viper.GetString("runtime.state_file"),
		CycleMinutes: viper.GetInt("runtime.cycle_minutes"),
		DryRun:       viper.GetBool("runtime.dry_run"),
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	return cfg, nil
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
