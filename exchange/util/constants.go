package util

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	Zero = big.NewInt(0)
	One  = big.NewInt(1)

	// MaxUint112 is the largest value a pool reserve may take. Reserves are
	// bounded to 112 bits so that a price fraction of two reserves always
	// fits a UQ112x112 word.
	MaxUint112 = Sub(Exp(big.NewInt(2), big.NewInt(112)), big.NewInt(1))
	MaxUint256 = Sub(Exp(big.NewInt(2), big.NewInt(256)), big.NewInt(1))

	ZeroAddress = common.Address{}
)
