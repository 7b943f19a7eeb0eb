package trade_test

import (
	"math/big"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Library", func() {
	Describe("SortTokens", func() {
		It("orders by byte comparison regardless of argument order", func() {
			t0, t1, err := trade.SortTokens(tokenB, tokenA)
			Expect(err).To(Succeed())
			Expect(t0).To(Equal(tokenA))
			Expect(t1).To(Equal(tokenB))

			t0, t1, err = trade.SortTokens(tokenA, tokenB)
			Expect(err).To(Succeed())
			Expect(t0).To(Equal(tokenA))
			Expect(t1).To(Equal(tokenB))
		})

		It("rejects identical and zero addresses", func() {
			_, _, err := trade.SortTokens(tokenA, tokenA)
			Expect(err).To(MatchError(trade.ErrIdenticalAddresses))

			_, _, err = trade.SortTokens(ZeroAddress, tokenA)
			Expect(err).To(MatchError(trade.ErrZeroAddress))
		})
	})

	Describe("PairFor", func() {
		It("derives the same address for both argument orders", func() {
			a1, err := trade.PairFor(factoryAddr, tokenA, tokenB)
			Expect(err).To(Succeed())
			a2, err := trade.PairFor(factoryAddr, tokenB, tokenA)
			Expect(err).To(Succeed())
			Expect(a1).To(Equal(a2))
			Expect(a1).NotTo(Equal(ZeroAddress))

			// distinct pairs land on distinct addresses
			a3, err := trade.PairFor(factoryAddr, tokenA, tokenC)
			Expect(err).To(Succeed())
			Expect(a3).NotTo(Equal(a1))
		})
	})

	Describe("Quote", func() {
		It("converts at the reserve ratio without fee", func() {
			out, err := trade.Quote(e18(1), e18(5), e18(10))
			Expect(err).To(Succeed())
			Expect(out).To(Equal(e18(2)))
		})

		It("rejects zero amounts and empty reserves", func() {
			_, err := trade.Quote(big.NewInt(0), e18(5), e18(10))
			Expect(err).To(MatchError(trade.ErrInsufficientAmount))

			_, err = trade.Quote(e18(1), big.NewInt(0), e18(10))
			Expect(err).To(MatchError(trade.ErrInsufficientLiquidity))
		})
	})

	DescribeTable("GetAmountOut",
		func(amountIn, reserveIn, reserveOut, expected *big.Int) {
			out, err := trade.GetAmountOut(amountIn, reserveIn, reserveOut)
			Expect(err).To(Succeed())
			Expect(out).To(Equal(expected))
		},
		Entry("1:5:10", e18(1), e18(5), e18(10), mustBig("1662497915624478906")),
		Entry("tiny pool", big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(1_000_000), big.NewInt(996)),
	)

	Describe("GetAmountIn", func() {
		It("rounds up so the forward check always passes", func() {
			in, err := trade.GetAmountIn(e18(1), e18(5), e18(10))
			Expect(err).To(Succeed())
			Expect(in).To(Equal(mustBig("557227237267357629")))

			// round trip: the input needed for GetAmountOut's result is the
			// original input
			out, err := trade.GetAmountOut(e18(1), e18(5), e18(10))
			Expect(err).To(Succeed())
			back, err := trade.GetAmountIn(out, e18(5), e18(10))
			Expect(err).To(Succeed())
			Expect(back).To(Equal(e18(1)))
		})

		It("rejects an output that drains the reserve", func() {
			_, err := trade.GetAmountIn(e18(10), e18(5), e18(10))
			Expect(err).To(MatchError(trade.ErrInsufficientLiquidity))
		})

		It("rejects zero output", func() {
			_, err := trade.GetAmountIn(big.NewInt(0), e18(5), e18(10))
			Expect(err).To(MatchError(trade.ErrInsufficientOutputAmount))
		})
	})
})
