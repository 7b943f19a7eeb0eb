package service

import (
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/onefish6223/web3-defi/exchange/factory"
	"github.com/onefish6223/web3-defi/exchange/oracle"
	"github.com/onefish6223/web3-defi/exchange/router"
	"github.com/onefish6223/web3-defi/exchange/trade"
	"github.com/onefish6223/web3-defi/internal/config"
	"github.com/onefish6223/web3-defi/token"
)

// Engine bundles the ledger, registry, router and per-pair oracles behind
// the HTTP services. One engine instance backs the whole server.
type Engine struct {
	Owner   common.Address
	Ledger  *token.Ledger
	Factory *factory.Factory
	Router  *router.Router

	oracles map[common.Address]*oracle.Oracle
	clock   trade.Clock
}

func deriveAddress(label string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(label))[12:])
}

// NewEngine builds an engine from seed configuration: issues the declared
// tokens, creates and funds the declared pools, and attaches an oracle to
// every funded pool.
func NewEngine(logger *slog.Logger, cfg *config.Config, clock trade.Clock) (*Engine, error) {
	if clock == nil {
		clock = trade.SystemClock
	}
	if !common.IsHexAddress(cfg.Owner) {
		return nil, ErrInvalidSeed
	}
	owner := common.HexToAddress(cfg.Owner)

	ledger := token.NewLedger()
	f := factory.NewFactory(deriveAddress("factory"), owner, ledger, clock)
	r := router.NewRouter(deriveAddress("router"), f, ledger, clock)

	if cfg.FeeTo != "" {
		if !common.IsHexAddress(cfg.FeeTo) {
			return nil, ErrInvalidSeed
		}
		if err := f.SetFeeTo(owner, common.HexToAddress(cfg.FeeTo)); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		Owner:   owner,
		Ledger:  ledger,
		Factory: f,
		Router:  r,
		oracles: map[common.Address]*oracle.Oracle{},
		clock:   clock,
	}

	for _, seed := range cfg.Tokens {
		if !common.IsHexAddress(seed.Address) {
			return nil, ErrInvalidSeed
		}
		if err := ledger.Issue(common.HexToAddress(seed.Address), seed.Name, seed.Symbol); err != nil {
			return nil, err
		}
	}

	for _, seed := range cfg.Pools {
		if err := e.seedPool(logger, seed, cfg.OraclePeriod); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) seedPool(logger *slog.Logger, seed config.PoolSeed, oraclePeriod uint64) error {
	if !common.IsHexAddress(seed.TokenA) || !common.IsHexAddress(seed.TokenB) {
		return ErrInvalidSeed
	}
	tokenA := common.HexToAddress(seed.TokenA)
	tokenB := common.HexToAddress(seed.TokenB)

	reserveA, okA := new(big.Int).SetString(seed.ReserveA, 10)
	reserveB, okB := new(big.Int).SetString(seed.ReserveB, 10)
	if !okA || !okB || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return ErrInvalidSeed
	}

	pair, err := e.Factory.CreatePair(e.Owner, tokenA, tokenB)
	if err != nil {
		return err
	}
	if err := e.Ledger.Mint(tokenA, e.Owner, reserveA); err != nil {
		return err
	}
	if err := e.Ledger.Mint(tokenB, e.Owner, reserveB); err != nil {
		return err
	}
	if _, _, _, err := e.Router.AddLiquidity(e.Owner, tokenA, tokenB, reserveA, reserveB, reserveA, reserveB, e.Owner, 0); err != nil {
		return err
	}

	o, err := oracle.NewOracle(pair, oraclePeriod, e.clock)
	if err != nil {
		return err
	}
	e.oracles[pair.Address()] = o

	logger.Info("pool seeded",
		"pair", pair.Address().Hex(),
		"token0", pair.Token0().Hex(),
		"token1", pair.Token1().Hex())
	return nil
}

// Oracle resolves the sampler attached to a pair, by the pair's tokens in
// either order.
func (e *Engine) Oracle(tokenA, tokenB common.Address) (*trade.UniSwap, *oracle.Oracle, error) {
	pair := e.Factory.GetPair(tokenA, tokenB)
	if pair == nil {
		return nil, nil, ErrUnknownPair
	}
	o, ok := e.oracles[pair.Address()]
	if !ok {
		return nil, nil, ErrNoOracle
	}
	return pair, o, nil
}
