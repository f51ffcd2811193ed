package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"launchpad/native/sale"
)

// Rewards fixes the referral percentages applied by the purchase engine.
type Rewards struct {
	BaseOwnerPct   uint32 `toml:"BaseOwnerPct"`
	MasterOwnerPct uint32 `toml:"MasterOwnerPct"`
	WalletPromoPct uint32 `toml:"WalletPromoPct"`
}

type Config struct {
	RPCAddress     string  `toml:"RPCAddress"`
	DataDir        string  `toml:"DataDir"`
	StorageBackend string  `toml:"StorageBackend"`
	Environment    string  `toml:"Environment"`
	LogLevel       string  `toml:"LogLevel"`
	AdminAddress   string  `toml:"AdminAddress"`
	OwnerAddress   string  `toml:"OwnerAddress"`
	VaultAddress   string  `toml:"VaultAddress"`
	SaleEndTime    int64   `toml:"SaleEndTime"`
	Rewards        Rewards `toml:"Rewards"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8642"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./saled-data"
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = "leveldb"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Rewards == (Rewards{}) {
		defaults := sale.DefaultRewardParams()
		cfg.Rewards = Rewards{
			BaseOwnerPct:   defaults.BaseOwnerPct,
			MasterOwnerPct: defaults.MasterOwnerPct,
			WalletPromoPct: defaults.WalletPromoPct,
		}
	}
}

// Validate checks the loaded configuration for values the node cannot start
// with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unknown storage backend %q", cfg.StorageBackend)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", cfg.LogLevel)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"AdminAddress", cfg.AdminAddress},
		{"OwnerAddress", cfg.OwnerAddress},
		{"VaultAddress", cfg.VaultAddress},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("config: %s required", field.name)
		}
		if !common.IsHexAddress(field.value) {
			return fmt.Errorf("config: %s is not a hex address: %s", field.name, field.value)
		}
	}
	params := cfg.RewardParams()
	if err := params.Validate(); err != nil {
		return err
	}
	return nil
}

// RewardParams converts the configured percentages into engine parameters.
func (cfg *Config) RewardParams() sale.RewardParams {
	return sale.RewardParams{
		BaseOwnerPct:   cfg.Rewards.BaseOwnerPct,
		MasterOwnerPct: cfg.Rewards.MasterOwnerPct,
		WalletPromoPct: cfg.Rewards.WalletPromoPct,
	}
}

// Admin returns the configured admin address.
func (cfg *Config) Admin() [20]byte { return [20]byte(common.HexToAddress(cfg.AdminAddress)) }

// Owner returns the configured sale owner address.
func (cfg *Config) Owner() [20]byte { return [20]byte(common.HexToAddress(cfg.OwnerAddress)) }

// Vault returns the configured fund custody address.
func (cfg *Config) Vault() [20]byte { return [20]byte(common.HexToAddress(cfg.VaultAddress)) }

// createDefault creates and saves a default configuration file. The address
// fields are intentionally left empty so a fresh deployment fails validation
// until they are filled in.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("config: wrote default config to %s; fill in the address fields before starting", path)
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
