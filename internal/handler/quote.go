package handler

import (
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v3"

	"github.com/onefish6223/web3-defi/internal/service"
)

type QuoteHandler struct {
	BaseHandler
	service *service.QuoteService
}

func NewQuoteHandler(logger *slog.Logger, svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: BaseHandler{logger: logger},
		service:     svc,
	}
}

// Pairs serves GET /pairs: every pool with its live reserves.
func (h *QuoteHandler) Pairs() fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(h.service.Pairs())
	}
}

type QuoteRequest struct {
	Path     string `query:"path" json:"path"`
	AmountIn string `query:"amount_in" json:"amount_in"`
}

type QuoteResponse struct {
	Amounts   []string `json:"amounts"`
	AmountOut string   `json:"amount_out"`
}

// Quote serves GET /quote: a spot quote for a fixed input along a
// comma-separated token path.
func (h *QuoteHandler) Quote() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req QuoteRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}

		path, err := parsePath(req.Path)
		if err != nil {
			return err
		}
		amountIn, err := parseAmount(req.AmountIn)
		if err != nil {
			return err
		}

		amounts, err := h.service.Quote(amountIn, path)
		if err != nil {
			return h.handleServiceError(err)
		}

		resp := QuoteResponse{Amounts: make([]string, len(amounts))}
		for i, a := range amounts {
			resp.Amounts[i] = a.String()
		}
		resp.AmountOut = resp.Amounts[len(resp.Amounts)-1]

		h.logger.Debug("quote computed", "path", req.Path, "in", req.AmountIn, "out", resp.AmountOut)
		return c.JSON(resp)
	}
}

type TWAPRequest struct {
	TokenIn  string `query:"token_in" json:"token_in"`
	TokenOut string `query:"token_out" json:"token_out"`
	AmountIn string `query:"amount_in" json:"amount_in"`
}

type TWAPResponse struct {
	AmountOut string `json:"amount_out"`
}

// TWAP serves GET /twap: converts an amount at the pair's time-weighted
// average price.
func (h *QuoteHandler) TWAP() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req TWAPRequest
		if err := c.Bind().Query(&req); err != nil {
			h.logger.Debug("failed to bind query parameters", "err", err)
			return ErrInvalidQueryParameters
		}

		tokenIn, err := parseAddress("token_in", req.TokenIn)
		if err != nil {
			return err
		}
		tokenOut, err := parseAddress("token_out", req.TokenOut)
		if err != nil {
			return err
		}
		amountIn, err := parseAmount(req.AmountIn)
		if err != nil {
			return err
		}

		amountOut, err := h.service.TWAPQuote(tokenIn, tokenOut, amountIn)
		if err != nil {
			return h.handleServiceError(err)
		}

		h.logger.Debug("twap computed", "token_in", req.TokenIn, "in", req.AmountIn, "out", amountOut.String())
		return c.JSON(TWAPResponse{AmountOut: amountOut.String()})
	}
}

func parsePath(raw string) ([]common.Address, error) {
	parts := strings.Split(raw, ",")
	if raw == "" || len(parts) < 2 {
		return nil, ErrPathTooShort
	}
	path := make([]common.Address, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !common.IsHexAddress(p) {
			return nil, NewInvalidAddress("path")
		}
		path[i] = common.HexToAddress(p)
	}
	return path, nil
}

func parseAddress(field, raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, NewAddressRequired(field)
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, NewInvalidAddress(field)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, ErrAmountRequired
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, ErrInvalidAmountFormat
	}
	if amount.Sign() <= 0 {
		return nil, ErrAmountNonPositive
	}
	return amount, nil
}

func (h *QuoteHandler) handleServiceError(err error) error {
	switch err {
	case service.ErrUnknownPair, service.ErrNoOracle:
		return ErrUnknownPairNotFound
	case service.ErrInvalidPath:
		return ErrPathTooShort
	case service.ErrAmountRequired:
		return ErrAmountNonPositive
	default:
		h.logger.Error("quote failed", "err", err)
		return NewBadQuote(err)
	}
}
