// Package relayconfig loads runtime configuration for the relayer daemon,
// HTTP façade, and faucet binaries from gocore's settings.conf/environment
// layering, following the teacher's cmd/ convention of reading everything
// through gocore.Config() rather than a bespoke flags/env parser.
package relayconfig

import (
	"fmt"
	"time"

	"github.com/ordishs/gocore"
)

// RelayerConfig configures services/relayer: which node to poll, how often,
// and how many headers to batch per submission.
type RelayerConfig struct {
	RPCHost         string
	RPCPort         int
	RPCUser         string
	RPCPassword     string
	PollInterval    time.Duration
	HeadersPerBatch int
	Network         string // "mainnet", "testnet3", or "regtest"
	LogLevel        string

	// CheckpointHex is a hex-encoded header.CommittedBlockHeader record
	// (header.ParseCommittedBlockHeader) the operator trusts as the
	// relay's starting point. Required on first run; ignored once the
	// header cache already has a tip.
	CheckpointHex string

	// DepositPubkeyHashHex is the bridge vault's HASH160, hex-encoded.
	// Paired with the trusted checkpoint at Initialize time.
	DepositPubkeyHashHex string

	HeaderCachePath string
	BridgeUTXOPath  string

	HTTPAPIListenAddr string
}

// HTTPAPIConfig configures services/httpapi.
type HTTPAPIConfig struct {
	ListenAddr string
	LogLevel   string
}

// FaucetConfig configures cmd/faucet.
type FaucetConfig struct {
	RPCHost     string
	RPCPort     int
	RPCUser     string
	RPCPassword string
	PayoutSats  uint64
	ListenAddr  string
	DBPath      string
	LogLevel    string
}

// LoadRelayerConfig reads relayer settings from gocore.Config(), applying
// defaults for a mainnet node on localhost (RPC port 8332).
func LoadRelayerConfig() (RelayerConfig, error) {
	cfg := gocore.Config()

	rpcHost, _ := cfg.Get("relayer_rpc_host", "localhost")
	rpcPort, _ := cfg.GetInt("relayer_rpc_port", 8332)
	rpcUser, _ := cfg.Get("relayer_rpc_user", "")
	rpcPassword, _ := cfg.Get("relayer_rpc_password", "")
	network, _ := cfg.Get("relayer_network", "mainnet")
	checkpointHex, _ := cfg.Get("relayer_checkpoint_hex", "")
	depositPubkeyHashHex, _ := cfg.Get("relayer_deposit_pubkey_hash", "")
	headerCachePath, _ := cfg.Get("relayer_headercache_path", "./headercache.db")
	bridgeUTXOPath, _ := cfg.Get("relayer_bridgeutxo_path", "./bridgeutxo.db")
	httpAPIListenAddr, _ := cfg.Get("relayer_httpapi_listen_addr", ":8080")
	logLevel, _ := cfg.Get("logLevel", "INFO")

	pollSeconds, _ := cfg.GetInt("relayer_poll_interval_seconds", 30)
	headersPerBatch, _ := cfg.GetInt("relayer_headers_per_batch", 7)
	if headersPerBatch > 7 {
		return RelayerConfig{}, fmt.Errorf("relayer_headers_per_batch %d exceeds the per-batch maximum of 7", headersPerBatch)
	}

	return RelayerConfig{
		RPCHost:              rpcHost,
		RPCPort:              rpcPort,
		RPCUser:              rpcUser,
		RPCPassword:          rpcPassword,
		PollInterval:         time.Duration(pollSeconds) * time.Second,
		HeadersPerBatch:      headersPerBatch,
		Network:              network,
		LogLevel:             logLevel,
		CheckpointHex:        checkpointHex,
		DepositPubkeyHashHex: depositPubkeyHashHex,
		HeaderCachePath:      headerCachePath,
		BridgeUTXOPath:       bridgeUTXOPath,
		HTTPAPIListenAddr:    httpAPIListenAddr,
	}, nil
}

// LoadHTTPAPIConfig reads HTTP façade settings from gocore.Config().
func LoadHTTPAPIConfig() HTTPAPIConfig {
	cfg := gocore.Config()
	listenAddr, _ := cfg.Get("httpapi_listen_addr", ":8080")
	logLevel, _ := cfg.Get("logLevel", "INFO")
	return HTTPAPIConfig{ListenAddr: listenAddr, LogLevel: logLevel}
}

// LoadFaucetConfig reads faucet settings from gocore.Config().
func LoadFaucetConfig() FaucetConfig {
	cfg := gocore.Config()
	rpcHost, _ := cfg.Get("faucet_rpc_host", "localhost")
	rpcPort, _ := cfg.GetInt("faucet_rpc_port", 18332)
	rpcUser, _ := cfg.Get("faucet_rpc_user", "")
	rpcPassword, _ := cfg.Get("faucet_rpc_password", "")
	payoutSats, _ := cfg.GetInt("faucet_payout_sats", 100_000)
	listenAddr, _ := cfg.Get("faucet_listen_addr", ":8099")
	dbPath, _ := cfg.Get("faucet_db_path", "./faucet.db")
	logLevel, _ := cfg.Get("logLevel", "INFO")

	return FaucetConfig{
		RPCHost:     rpcHost,
		RPCPort:     rpcPort,
		RPCUser:     rpcUser,
		RPCPassword: rpcPassword,
		PayoutSats:  uint64(payoutSats),
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
		LogLevel:    logLevel,
	}
}
