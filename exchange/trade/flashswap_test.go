package trade_test

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var borrowerAddr = common.HexToAddress("0x00000000000000000000000000000000000000b0")

// repayingCallee pays a fixed amount back to the pool from its own account
// inside the callback.
type repayingCallee struct {
	fx     *fixture
	token  common.Address
	amount *big.Int
}

func (c *repayingCallee) FlashSwapCall(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error {
	return c.fx.ledger.Transfer(c.token, borrowerAddr, c.fx.pair.Address(), c.amount)
}

type failingCallee struct{}

func (c *failingCallee) FlashSwapCall(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error {
	return errors.New("borrower gave up")
}

// reentrantCallee tries to swap again on the same pool from inside the
// callback.
type reentrantCallee struct {
	fx  *fixture
	err error
}

func (c *reentrantCallee) FlashSwapCall(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error {
	c.err = c.fx.pair.Swap(sender, big.NewInt(1), big.NewInt(0), borrowerAddr, nil)
	return c.err
}

var _ = Describe("FlashSwap", func() {
	var fx *fixture

	BeforeEach(func() {
		fx = newFixture()
		fx.addLiquidity(e18(5), e18(10))
	})

	It("settles a loan repaid in the borrowed asset plus fee", func() {
		// minimum repayment for borrowing 1e18: ceil(1e18 * 1000/997)
		repay := mustBig("1003009027081243732")
		Expect(fx.ledger.Mint(fx.token0, borrowerAddr, e18(1))).To(Succeed())

		fx.factory.RegisterCallee(borrowerAddr, &repayingCallee{fx: fx, token: fx.token0, amount: repay})
		err := fx.pair.Swap(alice, e18(1), big.NewInt(0), borrowerAddr, []byte("loan"))
		Expect(err).To(Succeed())

		// borrower keeps the borrowed amount minus the repayment
		Expect(fx.ledger.BalanceOf(fx.token0, borrowerAddr)).To(Equal(Sub(Add(e18(1), e18(1)), repay)))
		reserve0, reserve1, _ := fx.pair.Reserves()
		Expect(reserve0).To(Equal(Add(Sub(e18(5), e18(1)), repay)))
		Expect(reserve1).To(Equal(e18(10)))
	})

	It("rejects an underpaying loan and discards its transfers", func() {
		repay := mustBig("1003009027081243731") // one unit short
		Expect(fx.ledger.Mint(fx.token0, borrowerAddr, e18(1))).To(Succeed())

		fx.factory.RegisterCallee(borrowerAddr, &repayingCallee{fx: fx, token: fx.token0, amount: repay})
		err := fx.pair.Swap(alice, e18(1), big.NewInt(0), borrowerAddr, []byte("loan"))
		Expect(err).To(MatchError(trade.ErrK))

		Expect(fx.ledger.BalanceOf(fx.token0, borrowerAddr)).To(Equal(e18(1)))
		Expect(fx.ledger.BalanceOf(fx.token0, fx.pair.Address())).To(Equal(e18(5)))
	})

	It("unwinds everything when the callback fails", func() {
		fx.factory.RegisterCallee(borrowerAddr, &failingCallee{})
		err := fx.pair.Swap(alice, e18(1), big.NewInt(0), borrowerAddr, []byte("loan"))
		Expect(err).To(MatchError("borrower gave up"))

		Expect(fx.ledger.BalanceOf(fx.token0, borrowerAddr)).To(Equal(big.NewInt(0)))
		Expect(fx.ledger.BalanceOf(fx.token0, fx.pair.Address())).To(Equal(e18(5)))
		reserve0, _, _ := fx.pair.Reserves()
		Expect(reserve0).To(Equal(e18(5)))
	})

	It("fails when callback data targets an unregistered recipient", func() {
		err := fx.pair.Swap(alice, e18(1), big.NewInt(0), borrowerAddr, []byte("loan"))
		Expect(err).To(MatchError(trade.ErrNoFlashSwapCallee))
		Expect(fx.ledger.BalanceOf(fx.token0, fx.pair.Address())).To(Equal(e18(5)))
	})

	It("refuses re-entry from inside the callback", func() {
		callee := &reentrantCallee{fx: fx}
		fx.factory.RegisterCallee(borrowerAddr, callee)

		err := fx.pair.Swap(alice, e18(1), big.NewInt(0), borrowerAddr, []byte("loan"))
		Expect(err).To(MatchError(trade.ErrLocked))
		Expect(callee.err).To(MatchError(trade.ErrLocked))

		// the whole outer swap unwound
		Expect(fx.ledger.BalanceOf(fx.token0, fx.pair.Address())).To(Equal(e18(5)))
	})
})
