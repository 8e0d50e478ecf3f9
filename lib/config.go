package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/units"
	"github.com/canopy-network/amm/lib/crypto"
)

/* This file implements logic for 'user controlled' global configurations of each module of the node */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the node configuration
)

const (
	// DEFAULT PROGRAM IDS
	DefaultAmmProgramId = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8" // the program that owns every pool account
	DefaultDexProgramId = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin" // the order book program that owns markets
)

// Config is the structure of the user configuration options for an AMM node
type Config struct {
	MainConfig    // main options spanning over all modules
	RPCConfig     // rpc API options
	PoolConfig    // pool state machine options
	StoreConfig   // persistence options
	MetricsConfig // telemetry options
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:    DefaultMainConfig(),
		RPCConfig:     DefaultRPCConfig(),
		PoolConfig:    DefaultPoolConfig(),
		StoreConfig:   DefaultStoreConfig(),
		MetricsConfig: DefaultMetricsConfig(),
	}
}

// MAIN CONFIG BELOW

type MainConfig struct {
	LogLevel string `json:"logLevel"` // any level includes the levels above it: debug < info < warning < error
}

// DefaultMainConfig() sets log level to 'info'
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel: "info", // everything but debug is the default
	}
}

// GetLogLevel() parses the log string in the config file into a LogLevel Enum
func (m *MainConfig) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(m.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "inf"):
		return InfoLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(m.LogLevel), "err"):
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// RPC CONFIG BELOW

type RPCConfig struct {
	RPCPort        string `json:"rpcPort"`        // the port where the rpc server is hosted
	RPCUrl         string `json:"rpcURL"`         // the url where the rpc server is hosted
	TimeoutS       int    `json:"timeoutS"`       // the rpc request timeout in seconds
	MaxConnections int    `json:"maxConnections"` // the maximum simultaneous connections the rpc server accepts
	ClientRetries  uint64 `json:"clientRetries"`  // how many times the rpc client re-submits on a transport error or txn conflict
}

// DefaultRPCConfig() sets rpc url to localhost:50002
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		RPCPort:        "50002",                  // the rpc is served on localhost:50002
		RPCUrl:         "http://localhost:50002", // use a local rpc by default
		TimeoutS:       3,                        // the rpc timeout is 3 seconds
		MaxConnections: 256,                      // plenty for a local operator
		ClientRetries:  3,                        // retry a conflicted submission 3 times
	}
}

// POOL CONFIG BELOW

// PoolConfig defines the program identities and economic parameters new pools are initialized with
type PoolConfig struct {
	AmmProgramId    string `json:"ammProgramId"`    // base58 id of the amm program; the root of every derived pool address
	DexProgramId    string `json:"dexProgramId"`    // base58 id of the market program
	TradeFeeBps     uint64 `json:"tradeFeeBps"`     // swap fee in basis points retained by the pool
	MaxNonce        uint64 `json:"maxNonce"`        // the upper bound (inclusive) of the authority nonce search
	LockedLiquidity uint64 `json:"lockedLiquidity"` // LP units minted into the pool's own lp vault on initialize and never withdrawable
	Owner           string `json:"owner"`           // base58 admin allowed to change a pool's status; empty means the initializer
}

// DefaultPoolConfig() returns the developer recommended pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		AmmProgramId:    DefaultAmmProgramId,
		DexProgramId:    DefaultDexProgramId,
		TradeFeeBps:     25,  // 0.25%
		MaxNonce:        255, // a single byte nonce
		LockedLiquidity: 0,   // nothing locked by default
	}
}

// AmmProgram() parses the amm program id
func (p *PoolConfig) AmmProgram() (crypto.PublicKey, ErrorI) {
	return PublicKeyFromString(p.AmmProgramId)
}

// DexProgram() parses the market program id
func (p *PoolConfig) DexProgram() (crypto.PublicKey, ErrorI) {
	return PublicKeyFromString(p.DexProgramId)
}

// OwnerKey() parses the configured owner; ok is false when no owner is configured
func (p *PoolConfig) OwnerKey() (owner crypto.PublicKey, ok bool, err ErrorI) {
	if p.Owner == "" {
		return
	}
	owner, err = PublicKeyFromString(p.Owner)
	return owner, err == nil, err
}

// STORE CONFIG BELOW

// StoreConfig is user configurations for the key value database
type StoreConfig struct {
	DataDirPath      string `json:"dataDirPath"`      // path of the designated folder where the application stores its data
	DBName           string `json:"dbName"`           // name of the database
	InMemory         bool   `json:"inMemory"`         // non-disk database, only for testing
	MemTableSize     int64  `json:"memTableSize"`     // badger memtable size in bytes
	ValueLogFileSize int64  `json:"valueLogFileSize"` // badger value log file size in bytes
}

// DefaultDataDirPath() is $USERHOME/.amm
func DefaultDataDirPath() string {
	// get the user home
	home, err := os.UserHomeDir()
	// if unable to get the user home
	if err != nil {
		// fatal error
		panic(err)
	}
	// exit with full default data directory path
	return filepath.Join(home, ".amm")
}

// DefaultStoreConfig() returns the developer recommended store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDirPath:      DefaultDataDirPath(),   // use the default data dir path
		DBName:           "amm",                  // 'amm' database name
		InMemory:         false,                  // persist to disk, not memory
		MemTableSize:     int64(64 * units.MiB),  // 64 MiB memtable
		ValueLogFileSize: int64(256 * units.MiB), // 256 MiB value log files
	}
}

// METRICS CONFIG BELOW

// MetricsConfig represents the configuration for the metrics server
type MetricsConfig struct {
	Enabled           bool   `json:"enabled"`           // if the metrics are enabled
	PrometheusAddress string `json:"prometheusAddress"` // the address of the server
}

// DefaultMetricsConfig() returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:           true,           // enabled by default
		PrometheusAddress: "0.0.0.0:9090", // the default prometheus address
	}
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filepath string) error {
	// convert the config to indented 'pretty' json bytes
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	// if an error occurred during the conversion
	if err != nil {
		// exit with error
		return err
	}
	// write the config.json file to the data directory
	return os.WriteFile(filepath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a Config object from a JSON file
func NewConfigFromFile(filepath string) (Config, error) {
	// read the file into bytes using
	fileBytes, err := os.ReadFile(filepath)
	// if an error occurred
	if err != nil {
		// exit with error
		return Config{}, err
	}
	// define the default config to fill in any blanks in the file
	c := DefaultConfig()
	// populate the default config with the file bytes
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		// exit with error
		return Config{}, err
	}
	// exit
	return c, nil
}
