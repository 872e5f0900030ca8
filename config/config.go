package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"flashpool/crypto"
	"flashpool/native/common"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration. Amounts are decimal strings in the
// asset's base unit so TOML never truncates them.
type Config struct {
	ListenAddress       string            `toml:"ListenAddress"`
	Env                 string            `toml:"Env"`
	OwnerAddress        string            `toml:"OwnerAddress"`
	FlashMintingEnabled bool              `toml:"FlashMintingEnabled"`
	MaxFlashLoanAmount  string            `toml:"MaxFlashLoanAmount"`
	PoolFunding         string            `toml:"PoolFunding"`
	CallerTokens        map[string]string `toml:"CallerTokens"`
	RateLimitPerMinute  int               `toml:"RateLimitPerMinute"`
	PausedModules       []string          `toml:"PausedModules"`
}

const defaultListenAddress = "127.0.0.1:8645"

// Load reads the configuration from the given path, creating a commented
// default file when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.CallerTokens == nil {
		cfg.CallerTokens = map[string]string{}
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks address and amount fields parse.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	if _, err := crypto.DecodeAddress(c.OwnerAddress); err != nil {
		return fmt.Errorf("config: invalid OwnerAddress: %w", err)
	}
	if _, err := c.amount(c.MaxFlashLoanAmount); err != nil {
		return fmt.Errorf("config: invalid MaxFlashLoanAmount: %w", err)
	}
	if _, err := c.amount(c.PoolFunding); err != nil {
		return fmt.Errorf("config: invalid PoolFunding: %w", err)
	}
	for token, addr := range c.CallerTokens {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("config: empty caller token")
		}
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: invalid caller address %q: %w", addr, err)
		}
	}
	return nil
}

// Owner returns the parsed owner address. Call after Validate.
func (c *Config) Owner() crypto.Address {
	addr, err := crypto.DecodeAddress(c.OwnerAddress)
	if err != nil {
		panic(err)
	}
	return addr
}

// MaxFlashLoan returns the parsed minting ceiling, zero when unset.
func (c *Config) MaxFlashLoan() *big.Int {
	amount, err := c.amount(c.MaxFlashLoanAmount)
	if err != nil {
		panic(err)
	}
	return amount
}

// InitialPoolFunding returns the parsed custody pre-funding, zero when
// unset.
func (c *Config) InitialPoolFunding() *big.Int {
	amount, err := c.amount(c.PoolFunding)
	if err != nil {
		panic(err)
	}
	return amount
}

// Environment returns override when set, otherwise the configured Env.
func (c *Config) Environment(override string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(c.Env)
}

// Pauses builds the startup pause view from PausedModules.
func (c *Config) Pauses() common.StaticPauses {
	pauses := common.StaticPauses{}
	for _, name := range c.PausedModules {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			pauses[trimmed] = true
		}
	}
	return pauses
}

func (c *Config) amount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("must be non-negative: %q", raw)
	}
	return amount, nil
}

func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("config: generate default owner key: %w", err)
	}
	cfg := &Config{
		ListenAddress:      defaultListenAddress,
		OwnerAddress:       key.PubKey().Address().String(),
		MaxFlashLoanAmount: "0",
		PoolFunding:        "0",
		CallerTokens:       map[string]string{},
		RateLimitPerMinute: 60,
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
