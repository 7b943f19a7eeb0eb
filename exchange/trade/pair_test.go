package trade_test

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pair", func() {
	var fx *fixture

	BeforeEach(func() {
		fx = newFixture()
	})

	Describe("initialization", func() {
		It("binds the sorted token pair once", func() {
			Expect(fx.pair.Token0()).To(Equal(tokenA))
			Expect(fx.pair.Token1()).To(Equal(tokenB))

			err := fx.pair.Initialize(alice, tokenA, tokenB)
			Expect(err).To(MatchError(trade.ErrForbidden))

			err = fx.pair.Initialize(factoryAddr, tokenA, tokenB)
			Expect(err).To(MatchError(trade.ErrAlreadyInitialized))
		})
	})

	Describe("mint", func() {
		It("locks the minimum liquidity at genesis", func() {
			liquidity := fx.addLiquidity(e18(1), e18(4))

			Expect(liquidity).To(Equal(mustBig("1999999999999999000")))
			Expect(fx.pair.TotalSupply()).To(Equal(e18(2)))
			Expect(fx.pair.BalanceOf(alice)).To(Equal(mustBig("1999999999999999000")))
			Expect(fx.pair.BalanceOf(ZeroAddress)).To(Equal(big.NewInt(1000)))

			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(e18(1)))
			Expect(reserve1).To(Equal(e18(4)))
		})

		It("issues proportional shares after genesis", func() {
			fx.addLiquidity(e18(1), e18(4))
			liquidity := fx.addLiquidity(e18(1), e18(4))

			Expect(liquidity).To(Equal(e18(2)))
			Expect(fx.pair.TotalSupply()).To(Equal(e18(4)))
		})

		It("rejects an empty deposit", func() {
			fx.addLiquidity(e18(1), e18(4))
			_, err := fx.pair.Mint(alice)
			Expect(err).To(MatchError(trade.ErrInsufficientLiquidityMinted))
		})

		It("rejects balances beyond the reserve bound", func() {
			Expect(fx.ledger.Mint(fx.token0, fx.pair.Address(), AddC(MaxUint112, 1))).To(Succeed())
			Expect(fx.ledger.Mint(fx.token1, fx.pair.Address(), e18(1))).To(Succeed())
			_, err := fx.pair.Mint(alice)
			Expect(err).To(MatchError(trade.ErrOverflow))
		})
	})

	Describe("swap", func() {
		It("pays exactly the fee-adjusted constant product output", func() {
			fx.addLiquidity(e18(5), e18(10))
			expectedOut := mustBig("1662497915624478906")

			Expect(fx.ledger.Transfer(fx.token0, alice, fx.pair.Address(), e18(1))).To(Succeed())

			err := fx.pair.Swap(alice, big.NewInt(0), AddC(expectedOut, 1), alice, nil)
			Expect(err).To(MatchError(trade.ErrK))

			err = fx.pair.Swap(alice, big.NewInt(0), expectedOut, alice, nil)
			Expect(err).To(Succeed())

			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(e18(6)))
			Expect(reserve1).To(Equal(Sub(e18(10), expectedOut)))
			Expect(fx.ledger.BalanceOf(fx.token1, alice)).To(Equal(Add(Sub(e18(10000), e18(10)), expectedOut)))
		})

		It("settles a deep pool at the exact quoted amount", func() {
			fx.addLiquidity(e18(100000), e18(200000))
			swapAmount := e18(10)

			quoted, err := trade.GetAmountOut(swapAmount, e18(100000), e18(200000))
			Expect(err).To(Succeed())
			Expect(quoted).To(Equal(mustBig("19938012180185635492")))

			kBefore := Mul(e18(100000), e18(200000))
			Expect(fx.ledger.Transfer(fx.token0, alice, fx.pair.Address(), swapAmount)).To(Succeed())
			Expect(fx.pair.Swap(alice, big.NewInt(0), quoted, alice, nil)).To(Succeed())

			// the invariant never decreases across a swap
			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(Mul(reserve0, reserve1).Cmp(kBefore) >= 0).To(BeTrue())
		})

		It("leaves no state behind when the invariant check fails", func() {
			fx.addLiquidity(e18(5), e18(10))
			Expect(fx.ledger.Transfer(fx.token0, alice, fx.pair.Address(), e18(1))).To(Succeed())

			poolBalance1 := fx.ledger.BalanceOf(fx.token1, fx.pair.Address())
			err := fx.pair.Swap(alice, big.NewInt(0), e18(2), alice, nil)
			Expect(err).To(MatchError(trade.ErrK))
			Expect(fx.ledger.BalanceOf(fx.token1, fx.pair.Address())).To(Equal(poolBalance1))

			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(e18(5)))
			Expect(reserve1).To(Equal(e18(10)))
		})

		It("rejects empty and oversized outputs", func() {
			fx.addLiquidity(e18(5), e18(10))

			err := fx.pair.Swap(alice, big.NewInt(0), big.NewInt(0), alice, nil)
			Expect(err).To(MatchError(trade.ErrInsufficientOutputAmount))

			err = fx.pair.Swap(alice, big.NewInt(0), e18(10), alice, nil)
			Expect(err).To(MatchError(trade.ErrInsufficientLiquidity))
		})

		It("rejects output with no input", func() {
			fx.addLiquidity(e18(5), e18(10))
			err := fx.pair.Swap(alice, big.NewInt(0), e18(1), alice, nil)
			Expect(err).To(MatchError(trade.ErrInsufficientInputAmount))
		})
	})

	Describe("burn", func() {
		It("redeems shares pro rata", func() {
			liquidity := fx.addLiquidity(e18(3), e18(3))

			Expect(fx.pair.Transfer(alice, fx.pair.Address(), liquidity)).To(Succeed())
			amount0, amount1, err := fx.pair.Burn(alice)
			Expect(err).To(Succeed())

			Expect(amount0).To(Equal(SubC(e18(3), 1000)))
			Expect(amount1).To(Equal(SubC(e18(3), 1000)))
			Expect(fx.pair.TotalSupply()).To(Equal(big.NewInt(1000)))
			Expect(fx.ledger.BalanceOf(fx.token0, alice)).To(Equal(SubC(e18(10000), 1000)))
			Expect(fx.ledger.BalanceOf(fx.token1, alice)).To(Equal(SubC(e18(10000), 1000)))
		})

		It("rejects a burn without shares at the pool", func() {
			fx.addLiquidity(e18(3), e18(3))
			_, _, err := fx.pair.Burn(alice)
			Expect(err).To(MatchError(trade.ErrInsufficientLiquidityBurned))
		})
	})

	Describe("price accumulators", func() {
		It("advance by spot price times elapsed time", func() {
			fx.addLiquidity(e18(5), e18(10))
			fx.advance(100)
			Expect(fx.pair.Sync()).To(Succeed())

			// price0 = 2, price1 = 1/2, over 100 seconds
			var want0, want1 uint256.Int
			want0.Lsh(uint256.NewInt(2), 112)
			want0.Mul(&want0, uint256.NewInt(100))
			want1.Lsh(uint256.NewInt(100), 111)

			cum0 := fx.pair.Price0CumulativeLast()
			cum1 := fx.pair.Price1CumulativeLast()
			Expect(cum0.Eq(&want0)).To(BeTrue())
			Expect(cum1.Eq(&want1)).To(BeTrue())
		})

		It("do not move while no time elapses", func() {
			fx.addLiquidity(e18(5), e18(10))
			Expect(fx.pair.Sync()).To(Succeed())
			cum0 := fx.pair.Price0CumulativeLast()
			Expect(cum0.IsZero()).To(BeTrue())
		})
	})

	Describe("protocol fee", func() {
		It("mints one sixth of invariant growth to feeTo", func() {
			Expect(fx.factory.SetFeeTo(admin, feeTo)).To(Succeed())
			liquidity := fx.addLiquidity(e18(1000), e18(1000))

			swapAmount := e18(1)
			expectedOut := mustBig("996006981039903216")
			Expect(fx.ledger.Transfer(fx.token1, alice, fx.pair.Address(), swapAmount)).To(Succeed())
			Expect(fx.pair.Swap(alice, expectedOut, big.NewInt(0), alice, nil)).To(Succeed())

			Expect(fx.pair.Transfer(alice, fx.pair.Address(), liquidity)).To(Succeed())
			_, _, err := fx.pair.Burn(alice)
			Expect(err).To(Succeed())

			Expect(fx.pair.TotalSupply()).To(Equal(mustBig("249750499252388")))
			Expect(fx.pair.BalanceOf(feeTo)).To(Equal(mustBig("249750499251388")))

			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(mustBig("249501683698445")))
			Expect(reserve1).To(Equal(mustBig("250000187313969")))
		})

		It("mints nothing while feeTo is unset", func() {
			liquidity := fx.addLiquidity(e18(1000), e18(1000))

			swapAmount := e18(1)
			expectedOut := mustBig("996006981039903216")
			Expect(fx.ledger.Transfer(fx.token1, alice, fx.pair.Address(), swapAmount)).To(Succeed())
			Expect(fx.pair.Swap(alice, expectedOut, big.NewInt(0), alice, nil)).To(Succeed())

			Expect(fx.pair.Transfer(alice, fx.pair.Address(), liquidity)).To(Succeed())
			_, _, err := fx.pair.Burn(alice)
			Expect(err).To(Succeed())

			Expect(fx.pair.TotalSupply()).To(Equal(big.NewInt(1000)))
			Expect(fx.pair.KLast()).To(Equal(big.NewInt(0)))
		})
	})

	Describe("skim and sync", func() {
		It("skim pays out the excess over recorded reserves", func() {
			fx.addLiquidity(e18(5), e18(10))
			Expect(fx.ledger.Transfer(fx.token0, alice, fx.pair.Address(), e18(1))).To(Succeed())

			Expect(fx.pair.Skim(bob)).To(Succeed())
			Expect(fx.ledger.BalanceOf(fx.token0, bob)).To(Equal(e18(1)))

			reserve0, _, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(e18(5)))
		})

		It("sync lifts the reserves to the actual balances", func() {
			fx.addLiquidity(e18(5), e18(10))
			Expect(fx.ledger.Transfer(fx.token0, alice, fx.pair.Address(), e18(1))).To(Succeed())

			Expect(fx.pair.Sync()).To(Succeed())
			reserve0, reserve1, _ := fx.pair.Reserves()
			Expect(reserve0).To(Equal(e18(6)))
			Expect(reserve1).To(Equal(e18(10)))
		})
	})
})
