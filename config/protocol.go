package config

// =============================================================================
// Protocol Rules (consensus-critical)
// These MUST match across every consumer of the library or validation forks.
// =============================================================================

// NetworkVersion is the protocol version of the deployed network.
const NetworkVersion = 6

// Transaction versions.
const (
	TxVersion    = 1 // Current transaction version
	MaxTxVersion = 1 // Highest version accepted by validation
)

// Block header versions.
const (
	BlockVersion    = 1
	MaxBlockVersion = 1
)

// Script limits.
const (
	MaxScriptSize         = 10_000 // Max encoded script size in bytes
	MaxScriptOps          = 201    // Max non-push opcodes per script
	MaxStackSize          = 1000   // Max items on main + alt stack combined
	MaxScriptItemSize     = 520    // Max size of a single byte push
	MaxPubKeysPerMultisig = 20     // Max public keys in CHECKMULTISIG
)

// FinalStackDepth is the acceptance convention: after the unlocking and
// locking scripts run, exactly this many items must remain and the top one
// must be truthy.
const FinalStackDepth = 1

// LockTimeThreshold splits CHECKLOCKTIMEVERIFY operands: values below it
// are block heights, values at or above it are unix timestamps.
const LockTimeThreshold = 500_000_000

// Transaction and block limits.
const (
	MaxTxInputs  = 2500      // Max inputs per transaction
	MaxTxOutputs = 2500      // Max outputs per transaction
	MaxBlockTxs  = 500       // Max transactions per block
	MaxBlockSize = 2_000_000 // Max encoded block size in bytes
)

// Asset rules.
const (
	// MaxMetadataBytes bounds item metadata attached at creation.
	MaxMetadataBytes = 800

	// MaxItemsPerCreate bounds the total amount of the item minted by one
	// creation transaction, summed over all of its outputs.
	MaxItemsPerCreate = 1_000_000_000

	// TotalTokens is the fixed token supply in base units. No single output
	// and no coinbase may exceed it.
	TotalTokens uint64 = 72_072_000 * 5_000_000_000

	// DisplayPlaces is the number of base units per displayed token.
	DisplayPlaces = 72_072_000
)

// DRUID (dual double-entry) limits.
const (
	MaxDruidSize         = 64 // Max DRUID identifier length in bytes
	MaxDruidParticipants = 16 // Max legs of one trade
	MaxDruidExpectations = 64 // Max expectations carried by one leg
)
