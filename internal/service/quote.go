package service

import (
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/ethereum/go-ethereum/common"

	"github.com/onefish6223/web3-defi/exchange/oracle"
	"github.com/onefish6223/web3-defi/exchange/router"
)

// QuoteService answers read-only pricing questions against the engine. Spot
// quotes are memoized for a short TTL since the underlying reserves only
// move when a settlement lands.
type QuoteService struct {
	BaseService
	engine *Engine
	cache  gcache.Cache
	ttl    time.Duration
}

func NewQuoteService(logger *slog.Logger, engine *Engine, ttl time.Duration) *QuoteService {
	return &QuoteService{
		BaseService: BaseService{logger: logger},
		engine:      engine,
		cache:       gcache.New(1024).LRU().Build(),
		ttl:         ttl,
	}
}

// PairInfo is the external view of one pool.
type PairInfo struct {
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalSupply string `json:"total_supply"`
}

// Pairs lists every pool with its current reserves.
func (s *QuoteService) Pairs() []PairInfo {
	pairs := s.engine.Factory.AllPairs()
	out := make([]PairInfo, 0, len(pairs))
	for _, p := range pairs {
		reserve0, reserve1, _ := p.Reserves()
		out = append(out, PairInfo{
			Address:     p.Address().Hex(),
			Token0:      p.Token0().Hex(),
			Token1:      p.Token1().Hex(),
			Reserve0:    reserve0.String(),
			Reserve1:    reserve1.String(),
			TotalSupply: p.TotalSupply().String(),
		})
	}
	return out
}

func quoteKey(amountIn *big.Int, path []common.Address) string {
	var b strings.Builder
	b.WriteString(amountIn.String())
	for _, p := range path {
		b.WriteByte('|')
		b.WriteString(p.Hex())
	}
	return b.String()
}

// Quote prices a fixed input along a path without settling anything.
func (s *QuoteService) Quote(amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrAmountRequired
	}

	key := quoteKey(amountIn, path)
	if v, err := s.cache.Get(key); err == nil {
		s.logger.Debug("quote cache hit", "key", key)
		return v.([]*big.Int), nil
	}

	amounts, err := router.GetAmountsOut(s.engine.Factory, amountIn, path)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetWithExpire(key, amounts, s.ttl)
	return amounts, nil
}

// TWAPQuote converts an amount at a pair's time-weighted average price. The
// sampler is rolled forward first when a full period has elapsed; inside a
// period the previous average keeps serving.
func (s *QuoteService) TWAPQuote(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrAmountRequired
	}
	_, o, err := s.engine.Oracle(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if err := o.Update(); err != nil {
		if err != oracle.ErrPeriodNotElapsed {
			return nil, err
		}
		s.logger.Debug("twap period not elapsed, serving previous average")
	}
	return o.Consult(tokenIn, amountIn)
}
