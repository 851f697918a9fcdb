package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PersistedState is the durable snapshot written on every state-changing
// transition. A crash loses at most one cycle of bookkeeping.
type PersistedState struct {
	AccountBalance    float64  `json:"account_balance"`
	CurrentEquity     float64  `json:"current_equity"`
	AllTimeHighEquity float64  `json:"all_time_high_equity"`
	TotalTrades       int      `json:"total_trades"`
	ProfitableDays    int      `json:"profitable_days"`
	TradingDays       []string `json:"trading_days"`
	TotalProfit       float64  `json:"total_profit"`
	ConsecutiveLosses int      `json:"consecutive_losses"`
}

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file is not an error: the bot
// starts fresh from challenge defaults.
func (s *Store) Load() (PersistedState, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return PersistedState{}, false, nil
	}
	if err != nil {
		return PersistedState{}, false, fmt.Errorf("read state file: %w", err)
	}

	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return PersistedState{}, false, fmt.Errorf("decode state file: %w", err)
	}
	return state, true, nil
}

// Save writes the snapshot through a temp file and rename so a crash cannot
// leave a torn file behind.
func (s *Store) Save(state PersistedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
