package handler

import (
	"log/slog"

	"bazaar/internal/delivery/api/response"
	"bazaar/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type ExchangeHandlerParams struct {
	fx.In

	ExchangeUC usecase.ExchangeUsecase
	Logger     *slog.Logger
}

// ExchangeHandler trades LINE ID tokens and WeChat codes for bearer tokens.
type ExchangeHandler struct {
	exchangeUC usecase.ExchangeUsecase
	logger     *slog.Logger
}

func NewExchangeHandler(params ExchangeHandlerParams) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeUC: params.ExchangeUC,
		logger:     params.Logger,
	}
}

type ExchangeLineRequest struct {
	IDToken string `json:"idToken"`
}

type ExchangeWeChatRequest struct {
	Code string `json:"code"`
}

// ExchangeLine handles POST /auth/exchange/line. A malformed body is treated like a
// missing token so retries from flaky webviews get the same 400.
func (h *ExchangeHandler) ExchangeLine(c echo.Context) error {
	var req ExchangeLineRequest
	_ = c.Bind(&req)

	output, err := h.exchangeUC.ExchangeLine(c.Request().Context(), req.IDToken)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Token(c, output.Token)
}

// ExchangeWeChat handles POST /auth/exchange/wechat.
func (h *ExchangeHandler) ExchangeWeChat(c echo.Context) error {
	var req ExchangeWeChatRequest
	_ = c.Bind(&req)

	output, err := h.exchangeUC.ExchangeWeChat(c.Request().Context(), req.Code)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Token(c, output.Token)
}
