package trade_test

import (
	"math/big"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LPToken", func() {
	var fx *fixture

	BeforeEach(func() {
		fx = newFixture()
		fx.addLiquidity(e18(1), e18(4))
	})

	It("transfers shares between holders", func() {
		Expect(fx.pair.Transfer(alice, bob, e18(1))).To(Succeed())
		Expect(fx.pair.BalanceOf(bob)).To(Equal(e18(1)))
		Expect(fx.pair.BalanceOf(alice)).To(Equal(mustBig("999999999999999000")))

		err := fx.pair.Transfer(bob, alice, e18(2))
		Expect(err).To(MatchError(trade.ErrTransferExceedBalance))
	})

	It("never lets the zero address be a transfer party", func() {
		err := fx.pair.Transfer(ZeroAddress, alice, big.NewInt(1))
		Expect(err).To(MatchError(trade.ErrTransferZeroAddress))

		err = fx.pair.Transfer(alice, ZeroAddress, big.NewInt(1))
		Expect(err).To(MatchError(trade.ErrTransferZeroAddress))
	})

	It("spends and decrements allowances", func() {
		Expect(fx.pair.Approve(alice, bob, e18(1))).To(Succeed())
		Expect(fx.pair.Allowance(alice, bob)).To(Equal(e18(1)))

		Expect(fx.pair.TransferFrom(bob, alice, bob, e18(1))).To(Succeed())
		Expect(fx.pair.Allowance(alice, bob)).To(Equal(big.NewInt(0)))
		Expect(fx.pair.BalanceOf(bob)).To(Equal(e18(1)))

		err := fx.pair.TransferFrom(bob, alice, bob, big.NewInt(1))
		Expect(err).To(MatchError(trade.ErrTransferExceedAllowed))
	})

	It("treats the maximum allowance as unlimited", func() {
		Expect(fx.pair.Approve(alice, bob, MaxUint256)).To(Succeed())
		Expect(fx.pair.TransferFrom(bob, alice, bob, e18(1))).To(Succeed())
		Expect(fx.pair.Allowance(alice, bob)).To(Equal(MaxUint256))
	})
})
