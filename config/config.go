package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/predbot/internal/domain"
)

// DisabledDSN desactiva la persistencia (ledger noop).
const DisabledDSN = "none"

// Config es la configuración completa del bot.
type Config struct {
	Chain    ChainConfig   `yaml:"chain"`
	Bot      BotConfig     `yaml:"bot"`
	Fee      FeeConfig     `yaml:"fee"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Balance  BalanceConfig `yaml:"balance"`
	Storage  StorageConfig `yaml:"storage"`
	Log      LogConfig     `yaml:"log"`

	// PrivateKey solo se lee de PRIVATE_KEY (nunca del YAML).
	PrivateKey string `yaml:"-"`
}

// ChainConfig controla la conexión RPC.
type ChainConfig struct {
	RPC          string        `yaml:"rpc"` // http(s):// hace polling, ws(s):// se suscribe
	ChainID      int64         `yaml:"chain_id"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRPS       float64       `yaml:"max_rps"`
}

// BotConfig controla el comportamiento de cada ronda.
type BotConfig struct {
	Market        string        `yaml:"market"`     // pancake | candlegenie
	BetAmount     string        `yaml:"bet_amount"` // BNB, decimal
	WaitTime      time.Duration `yaml:"wait_time"`
	BlockTime     time.Duration `yaml:"block_time"`
	ClaimLookback int           `yaml:"claim_lookback"`
	ClaimWorkers  int           `yaml:"claim_workers"` // epochs comprobadas en paralelo
	QueueSize     int           `yaml:"queue_size"`
	DryRun        bool          `yaml:"dry_run"`
}

// FeeConfig controla el porcentaje de cada payout que se reenvía.
type FeeConfig struct {
	Bps       *int64 `yaml:"bps"`       // 200 = 2%; nil = default, 0 = sin fee
	Recipient string `yaml:"recipient"` // vacío = la propia cuenta
	Disabled  bool   `yaml:"disabled"`
}

// TimeoutConfig acota cada punto de espera de la ronda.
type TimeoutConfig struct {
	Read   time.Duration `yaml:"read"`   // lectura de pools
	Lookup time.Duration `yaml:"lookup"` // búsqueda de epochs reclamables
	Tx     time.Duration `yaml:"tx"`     // envío + confirmación
}

// BalanceConfig controla la comprobación periódica del saldo.
type BalanceConfig struct {
	CheckCron string `yaml:"check_cron"` // "" = solo al arrancar
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, ":memory:" o "none"
}

// LogConfig controla el formato, nivel y rotación del logging.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // vacío = solo stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un YAML inexistente no es error: se usan los defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba los valores que no tienen default sensato.
// No exige PrivateKey: su ausencia se trata aparte en el arranque.
func (c *Config) Validate() error {
	switch c.Bot.Market {
	case "pancake", "candlegenie":
	default:
		return fmt.Errorf("config.Validate: market %q: %w", c.Bot.Market, domain.ErrUnknownMarket)
	}
	amount, err := c.BetAmountWei()
	if err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("config.Validate: bet amount must be positive")
	}
	if c.Fee.Recipient != "" && !common.IsHexAddress(c.Fee.Recipient) {
		return fmt.Errorf("config.Validate: invalid fee recipient %q", c.Fee.Recipient)
	}
	if bps := c.Fee.Bps; bps != nil && (*bps < 0 || *bps > 10_000) {
		return fmt.Errorf("config.Validate: fee bps %d out of range", *bps)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config.Validate: log format %q", c.Log.Format)
	}
	return nil
}

// BetAmountWei devuelve el importe de la apuesta en wei.
func (c *Config) BetAmountWei() (*big.Int, error) {
	v, err := domain.ParseBNB(c.Bot.BetAmount)
	if err != nil {
		return nil, fmt.Errorf("config.BetAmountWei: %w", err)
	}
	return v, nil
}

// FeeBps devuelve los basis points efectivos (0 si las fees están desactivadas).
func (c *Config) FeeBps() int64 {
	if c.Fee.Disabled || c.Fee.Bps == nil {
		return 0
	}
	return *c.Fee.Bps
}

// FeeRecipient devuelve el destinatario configurado; zero address = la propia cuenta.
func (c *Config) FeeRecipient() common.Address {
	if c.Fee.Recipient == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Fee.Recipient)
}

// StorageEnabled indica si hay que abrir el ledger SQLite.
func (c *Config) StorageEnabled() bool {
	return c.Storage.DSN != DisabledDSN
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	cfg.PrivateKey = strings.TrimSpace(os.Getenv("PRIVATE_KEY"))

	if v := os.Getenv("RPC"); v != "" {
		cfg.Chain.RPC = v
	}
	if v := os.Getenv("MARKET"); v != "" {
		cfg.Bot.Market = v
	}
	if v := os.Getenv("BET_AMOUNT"); v != "" {
		cfg.Bot.BetAmount = v
	}
	if v := os.Getenv("FEE_RECIPIENT"); v != "" {
		cfg.Fee.Recipient = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Chain.RPC == "" {
		cfg.Chain.RPC = "https://bsc-dataseed.binance.org/"
	}
	if cfg.Chain.ChainID <= 0 {
		cfg.Chain.ChainID = 56
	}
	if cfg.Chain.PollInterval <= 0 {
		cfg.Chain.PollInterval = 3 * time.Second
	}
	if cfg.Chain.MaxRPS <= 0 {
		cfg.Chain.MaxRPS = 10
	}

	cfg.Bot.Market = strings.ToLower(strings.TrimSpace(cfg.Bot.Market))
	if cfg.Bot.Market == "" {
		cfg.Bot.Market = "pancake"
	}
	if cfg.Bot.BetAmount == "" {
		cfg.Bot.BetAmount = "0.10"
		if cfg.Bot.Market == "candlegenie" {
			cfg.Bot.BetAmount = "0.002"
		}
	}
	if cfg.Bot.WaitTime <= 0 {
		cfg.Bot.WaitTime = domain.DefaultWaitTime
	}
	if cfg.Bot.BlockTime <= 0 {
		cfg.Bot.BlockTime = domain.DefaultBlockTime
	}
	if cfg.Bot.ClaimLookback <= 0 {
		cfg.Bot.ClaimLookback = 5
	}
	if cfg.Bot.ClaimWorkers <= 0 {
		cfg.Bot.ClaimWorkers = cfg.Bot.ClaimLookback
	}
	if cfg.Bot.QueueSize <= 0 {
		cfg.Bot.QueueSize = 1
	}

	if cfg.Fee.Bps == nil {
		bps := int64(domain.DefaultFeeBps)
		cfg.Fee.Bps = &bps
	}

	if cfg.Timeouts.Read <= 0 {
		cfg.Timeouts.Read = 15 * time.Second
	}
	if cfg.Timeouts.Lookup <= 0 {
		cfg.Timeouts.Lookup = 45 * time.Second
	}
	if cfg.Timeouts.Tx <= 0 {
		cfg.Timeouts.Tx = 90 * time.Second
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "predbot.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 30
	}
}
