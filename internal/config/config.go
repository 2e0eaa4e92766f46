package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"

	"github.com/b3pay/b3walletd/internal/core/application"
	"github.com/b3pay/b3walletd/internal/core/domain"
)

const (
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// OwnerKey is the hex encoded principal owning the wallet
	OwnerKey = "OWNER"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// SignerURLKey is the endpoint of the threshold-ECDSA signing oracle
	SignerURLKey = "SIGNER_URL"
	// SignerAuthSecretKey is the secret used to authenticate against the signer
	SignerAuthSecretKey = "SIGNER_AUTH_SECRET"
	// LocalSignerSecretKey enables the development signer deriving keys from
	// the given master secret. Mutually exclusive with SignerURLKey
	LocalSignerSecretKey = "LOCAL_SIGNER_SECRET"
	// RequestTimeoutKey is the timeout in seconds of the calls to the oracles
	// and the chain backends
	RequestTimeoutKey = "REQUEST_TIMEOUT"
	// BitcoinNetworkKey is the network of the Bitcoin and wrapped Bitcoin
	// chains. Either mainnet, testnet or regtest
	BitcoinNetworkKey = "BITCOIN_NETWORK"
	// EsploraURLKey is the endpoint of the Esplora REST API for Bitcoin
	EsploraURLKey = "ESPLORA_URL"
	// EsploraRPSKey is the max number of requests per second sent to Esplora
	EsploraRPSKey = "ESPLORA_RPS"
	// EvmRPCURLKey is the JSON-RPC endpoint of the EVM chain
	EvmRPCURLKey = "EVM_RPC_URL"
	// EvmChainIDKey is the id of the EVM chain served by EvmRPCURLKey
	EvmChainIDKey = "EVM_CHAIN_ID"
	// MinterURLKey is the endpoint of the wrapped Bitcoin minter
	MinterURLKey = "MINTER_URL"
	// MinterAuthSecretKey is the secret used to authenticate against the minter
	MinterAuthSecretKey = "MINTER_AUTH_SECRET"
	// AdminTokensKey is the comma separated list of tokens with admin role
	AdminTokensKey = "ADMIN_TOKENS"
	// SignerTokensKey is the comma separated list of tokens with signer role
	SignerTokensKey = "SIGNER_TOKENS"
	// TokenSecretKey is the secret used to sign and verify jwt caller tokens
	TokenSecretKey = "TOKEN_SECRET"
	// RedisAddrKey is the address of the redis instance used to make request
	// submission idempotent. Idempotency is disabled if not set
	RedisAddrKey = "REDIS_ADDR"
	// IdempotencyTTLKey is the duration in seconds an idempotency key is kept
	IdempotencyTTLKey = "IDEMPOTENCY_TTL"
	// EnableProfilerKey enables periodic logging of memory statistics
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"
	SnapshotFile     = "snapshot.json"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("b3walletd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("B3WALLET")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPListeningPortKey, 7390)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(RequestTimeoutKey, 30)
	vip.SetDefault(BitcoinNetworkKey, domain.Mainnet.String())
	vip.SetDefault(EsploraRPSKey, 10)
	vip.SetDefault(IdempotencyTTLKey, 86400)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %w", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %w", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

// GetStringSlice splits the comma separated value of key, dropping empty
// items.
func GetStringSlice(key string) []string {
	list := make([]string, 0)
	for _, s := range strings.Split(vip.GetString(key), ",") {
		if s = strings.TrimSpace(s); len(s) > 0 {
			list = append(list, s)
		}
	}
	return list
}

// GetSeconds interprets the integer value of key as seconds.
func GetSeconds(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetOwner() []byte {
	owner, _ := hex.DecodeString(GetString(OwnerKey))
	return owner
}

func GetBitcoinNetwork() domain.BitcoinNetwork {
	network, _ := domain.ParseBitcoinNetwork(GetString(BitcoinNetworkKey))
	return network
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	owner, err := hex.DecodeString(GetString(OwnerKey))
	if err != nil {
		return fmt.Errorf("%s must be hex encoded", OwnerKey)
	}
	if len(owner) <= 0 {
		return fmt.Errorf("missing owner")
	}

	dbType := GetString(DBTypeKey)
	if _, ok := application.SupportedDBType[dbType]; !ok {
		return fmt.Errorf("db type %q not supported", dbType)
	}

	signerURL, localSecret := GetString(SignerURLKey), GetString(LocalSignerSecretKey)
	if (signerURL == "") == (localSecret == "") {
		return fmt.Errorf(
			"exactly one between %s and %s must be set",
			SignerURLKey, LocalSignerSecretKey,
		)
	}

	if _, err := domain.ParseBitcoinNetwork(GetString(BitcoinNetworkKey)); err != nil {
		return err
	}

	if GetInt(EsploraRPSKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", EsploraRPSKey)
	}

	if GetString(EvmRPCURLKey) != "" && GetUint64(EvmChainIDKey) == 0 {
		return fmt.Errorf("%s requires %s to be set", EvmRPCURLKey, EvmChainIDKey)
	}

	if len(GetStringSlice(AdminTokensKey)) <= 0 && GetString(TokenSecretKey) == "" {
		return fmt.Errorf(
			"at least one between %s and %s must be set",
			AdminTokensKey, TokenSecretKey,
		)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
		return err
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
