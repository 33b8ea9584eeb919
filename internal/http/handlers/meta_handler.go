package handlers

import (
	"github.com/fluxapay/backend/internal/http/dto"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaCurrency struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Decimals int    `json:"decimals"` // smallest-unit scale
}

var supportedCurrencies = []MetaCurrency{
	{ID: "TON", Label: "Toncoin", Decimals: 9},
	{ID: "USDT", Label: "Tether USD (jetton)", Decimals: 6},
	{ID: "USDC", Label: "USD Coin (jetton)", Decimals: 6},
}

var supportedNetworks = []string{"mainnet", "testnet"}

func (h *MetaHandler) GetCurrencies(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: supportedCurrencies})
}

func (h *MetaHandler) GetNetworks(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: supportedNetworks})
}
