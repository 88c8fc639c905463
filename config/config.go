package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vulpemventures/go-elements/network"
)

const (
	// NetworkKey is the network to use. Either "liquid", "testnet" or "regtest"
	NetworkKey = "NETWORK"
	// ExplorerEndpointKey is the endpoint where the Esplora REST API is listening
	ExplorerEndpointKey = "EXPLORER_URL"
	// DatadirKey is the local data directory to store the wallet state
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DustAmountKey is the amount in satoshis under which change outputs are
	// not created
	DustAmountKey = "DUST_AMOUNT"
	// FeeRateKey is the fee rate in millisatoshis per virtual byte
	FeeRateKey = "FEE_RATE"
	// GapLimitKey is the number of consecutive unused scripts probed past the
	// used range when scanning
	GapLimitKey = "GAP_LIMIT"
	// TxFetchConcurrencyKey is the number of parallel transaction downloads
	// during a scan
	TxFetchConcurrencyKey = "TX_FETCH_CONCURRENCY"
	// ExplorerRequestsPerSecondKey throttles the calls to the explorer
	ExplorerRequestsPerSecondKey = "EXPLORER_REQUESTS_PER_SECOND"

	// DbLocation is the subdirectory of the datadir holding the database
	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("liquid-wallet", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("LW")
	vip.AutomaticEnv()

	vip.SetDefault(NetworkKey, network.Liquid.Name)
	vip.SetDefault(ExplorerEndpointKey, "https://blockstream.info/liquid/api")
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DustAmountKey, 450)
	vip.SetDefault(FeeRateKey, 100)
	vip.SetDefault(GapLimitKey, 20)
	vip.SetDefault(TxFetchConcurrencyKey, 5)
	vip.SetDefault(ExplorerRequestsPerSecondKey, 10)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetUint32 ...
func GetUint32(key string) uint32 {
	return vip.GetUint32(key)
}

//GetUint64 ...
func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

//GetNetwork ...
func GetNetwork() *network.Network {
	switch vip.GetString(NetworkKey) {
	case network.Regtest.Name:
		return &network.Regtest
	case network.Testnet.Name:
		return &network.Testnet
	default:
		return &network.Liquid
	}
}

// GetDatadir returns the network-specific data directory.
func GetDatadir() string {
	return filepath.Join(GetString(DatadirKey), GetString(NetworkKey))
}

// GetDbDir returns the directory the database lives in.
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	networkName := GetString(NetworkKey)
	if networkName != network.Liquid.Name &&
		networkName != network.Testnet.Name &&
		networkName != network.Regtest.Name {
		return fmt.Errorf(
			"network must be one of '%s', '%s' or '%s'",
			network.Liquid.Name, network.Testnet.Name, network.Regtest.Name,
		)
	}

	explorerEndpoint := GetString(ExplorerEndpointKey)
	if _, err := url.Parse(explorerEndpoint); err != nil {
		return fmt.Errorf("explorer endpoint is not a valid url: %s", err)
	}

	if GetUint64(DustAmountKey) == 0 {
		return fmt.Errorf("dust amount must be a positive number of satoshis")
	}
	if GetInt(FeeRateKey) < 100 {
		return fmt.Errorf("fee rate must be at least 100 millisatoshis per vbyte")
	}
	if GetUint32(GapLimitKey) == 0 {
		return fmt.Errorf("gap limit must be a positive number")
	}
	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
