package achievement

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ChainBSC is the only chain the anniversary contract is read on.
const ChainBSC int64 = 56

const anniversaryABI = `[
  {"inputs":[{"internalType":"address","name":"_user","type":"address"}],"name":"canClaim","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"claimAnniversaryPoints","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ErrNoSigner is returned by Claim when the contract was opened without a key.
var ErrNoSigner = errors.New("no signing key configured")

// Receipt is the mined outcome of a claim transaction.
type Receipt struct {
	TxHash string
	Status bool
}

// Contract reads eligibility and submits claims.
type Contract interface {
	CanClaim(ctx context.Context, account string) (bool, error)
	Claim(ctx context.Context, account string) (*Receipt, error)
}

// EthContract binds the anniversary achievement contract over JSON-RPC.
type EthContract struct {
	client  *ethclient.Client
	bound   *bind.BoundContract
	chainID *big.Int
	key     *ecdsa.PrivateKey
}

// Compile-time interface check.
var _ Contract = (*EthContract)(nil)

// DialContract connects to rpcURL and binds the contract at address.
// keyHex may be empty for read-only use.
func DialContract(ctx context.Context, rpcURL, address string, chainID int64, keyHex string) (*EthContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address %q", address)
	}

	parsed, err := abi.JSON(strings.NewReader(anniversaryABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	var key *ecdsa.PrivateKey
	if keyHex != "" {
		key, err = crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(keyHex), "0x"))
		if err != nil {
			return nil, fmt.Errorf("parse key: %w", err)
		}
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &EthContract{
		client:  client,
		bound:   bind.NewBoundContract(common.HexToAddress(address), parsed, client, client, client),
		chainID: big.NewInt(chainID),
		key:     key,
	}, nil
}

// Signer returns the address of the configured key, or "" without one.
func (c *EthContract) Signer() string {
	if c.key == nil {
		return ""
	}
	return strings.ToLower(crypto.PubkeyToAddress(c.key.PublicKey).Hex())
}

// CanClaim calls canClaim(account).
func (c *EthContract) CanClaim(ctx context.Context, account string) (bool, error) {
	var out []interface{}
	err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, "canClaim", common.HexToAddress(account))
	if err != nil {
		return false, fmt.Errorf("canClaim: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("canClaim: unexpected %d outputs", len(out))
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("canClaim: unexpected output type %T", out[0])
	}
	return ok, nil
}

// Claim sends claimAnniversaryPoints() from the configured key and waits for it to be mined.
// account must match the signer.
func (c *EthContract) Claim(ctx context.Context, account string) (*Receipt, error) {
	if c.key == nil {
		return nil, ErrNoSigner
	}
	if signer := c.Signer(); !strings.EqualFold(signer, account) {
		return nil, fmt.Errorf("account %s does not match signer %s", account, signer)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("transactor: %w", err)
	}
	opts.Context = ctx

	tx, err := c.bound.Transact(opts, "claimAnniversaryPoints")
	if err != nil {
		return nil, fmt.Errorf("claimAnniversaryPoints: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.client, tx)
	if err != nil {
		return nil, fmt.Errorf("wait mined: %w", err)
	}
	return &Receipt{
		TxHash: receipt.TxHash.Hex(),
		Status: receipt.Status == types.ReceiptStatusSuccessful,
	}, nil
}

// Close closes the RPC connection.
func (c *EthContract) Close() {
	c.client.Close()
}

// errorDataMessage extracts the message carried in a JSON-RPC error's data field.
func errorDataMessage(err error) string {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return ""
	}
	switch data := de.ErrorData().(type) {
	case string:
		return data
	case map[string]interface{}:
		if msg, ok := data["message"].(string); ok {
			return msg
		}
	}
	return ""
}
