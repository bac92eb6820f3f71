package configs

import "time"

// Ledger configures the gateway to the authoritative ledger. Mode
// selects the implementation: "rpc" talks to the wallet-mediated
// gateway at URL, "memory" runs the deterministic in-process ledger
// (dev mode).
type Ledger struct {
	// Mode is "rpc" or "memory".
	Mode string `env:"MODE" envDefault:"rpc"`
	// URL is the endpoint of the wallet-mediated RPC gateway.
	URL string `env:"URL" envDefault:"http://localhost:8545"`
	// ConfirmTimeout bounds how long a write waits for settlement
	// before being surfaced as pending-unknown.
	ConfirmTimeout time.Duration `env:"CONFIRM_TIMEOUT" envDefault:"30s"`
	// PollInterval is the tx status polling cadence in rpc mode.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	// SyncInterval enables periodic reconciliation when positive.
	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"0"`
	// FeeBps is the release-time fee skim in basis points, honoured
	// only by the memory ledger; the contract owns it in rpc mode.
	FeeBps int64 `env:"FEE_BPS" envDefault:"200"`
	// Seed inserts demo data into the memory ledger on startup.
	Seed bool `env:"SEED" envDefault:"false"`
}
