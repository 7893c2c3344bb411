package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/domain/entity"
)

// ERC20 ABI minimal part for balanceOf
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			// Critical error during initialization, panic is appropriate.
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
	})
}

// EVMClient implements port.BlockchainClient for EVM-compatible chains.
// Used for exact balance reconciliation of reconstructed holdings.
type EVMClient struct {
	ethClient      *ethclient.Client
	chain          entity.ChainDefinition
	rpcCallTimeout time.Duration
}

// NewEVMClient connects to the chain's RPC endpoint.
func NewEVMClient(chain entity.ChainDefinition, connectionTimeout, rpcCallTimeout time.Duration) (port.BlockchainClient, error) {
	initParsedERC20ABI()
	if chain.RPCURL == "" {
		return nil, fmt.Errorf("chain %s has no RPC endpoint configured", chain.Key)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	ec, err := ethclient.DialContext(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC %s: %w", chain.RPCURL, err)
	}
	return &EVMClient{ethClient: ec, chain: chain, rpcCallTimeout: rpcCallTimeout}, nil
}

// NativeBalance fetches the native coin balance for a wallet.
func (c *EVMClient) NativeBalance(ctx context.Context, walletAddress string) (*big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	balance, err := c.ethClient.BalanceAt(callCtx, common.HexToAddress(walletAddress), nil)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance failed for %s on %s: %w", walletAddress, c.chain.Key, err)
	}
	return balance, nil
}

// TokenBalance fetches the ERC20 balance of a wallet via eth_call balanceOf.
func (c *EVMClient) TokenBalance(ctx context.Context, contractAddress, walletAddress string) (*big.Int, error) {
	callData, err := parsedERC20ABI.Pack("balanceOf", common.HexToAddress(walletAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	contract := common.HexToAddress(contractAddress)
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()

	raw, err := c.ethClient.CallContract(callCtx, ethereum.CallMsg{To: &contract, Data: callData}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed for %s on %s: %w", contractAddress, c.chain.Key, err)
	}
	if len(raw) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := parsedERC20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result for %s: %w", contractAddress, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("balanceOf unpack returned no data for %s", contractAddress)
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert balanceOf result to *big.Int for %s, got %T", contractAddress, unpacked[0])
	}
	return balance, nil
}
