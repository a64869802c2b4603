package api

import (
	"errors"
	"net/http"
	"time"

	"RangePulse/internal/domain/models"
	domrepo "RangePulse/internal/domain/repository"
	"RangePulse/internal/services/sideways"
	"RangePulse/internal/usecase"
	xhttp "RangePulse/pkg/http"
	xlogger "RangePulse/pkg/logger"
	xutil "RangePulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// SignalsHandler exposes the detection pipeline over HTTP.
type SignalsHandler struct {
	logger  *xlogger.Logger
	scan    *usecase.ScanUseCase
	bt      *usecase.BacktestUseCase
	candles *usecase.CandlesUseCase
	signals domrepo.SignalStore
}

func NewSignalsHandler(
	logger *xlogger.Logger,
	scan *usecase.ScanUseCase,
	bt *usecase.BacktestUseCase,
	candles *usecase.CandlesUseCase,
	signals domrepo.SignalStore,
) *SignalsHandler {
	return &SignalsHandler{logger: logger, scan: scan, bt: bt, candles: candles, signals: signals}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/regime", h.Regime)
	g.GET("/signals", h.Signals)
	g.GET("/levels", h.Levels)
	g.GET("/backtest", h.Backtest)
	g.GET("/candles", h.Candles)
	e.GET("/healthz", h.Health)
}

func (h *SignalsHandler) Regime(c echo.Context) error {
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	rs, err := h.scan.Regime(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		return h.pipelineError(c, "regime", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, rs)
}

func (h *SignalsHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	sigs, err := h.scan.Signals(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		return h.pipelineError(c, "signals", err)
	}
	return xhttp.ListResponse(c, sigs, int64(len(sigs)))
}

func (h *SignalsHandler) Levels(c echo.Context) error {
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	lv, err := h.scan.Levels(c.Request().Context(), req.Symbol, models.SignalType(req.Side), req.Entry, req.N, tf)
	if err != nil {
		return h.pipelineError(c, "levels", err)
	}
	return xhttp.SuccessResponse(c, lv)
}

func (h *SignalsHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	from, ok := xutil.ParseTime(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid from time"))
	}
	to, ok := xutil.ParseTime(req.To)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid to time"))
	}
	from, to = xutil.AlignFromTo(from, to, string(tf))

	report, err := h.bt.Run(c.Request().Context(), usecase.RunBacktestParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
	})
	if err != nil {
		return h.pipelineError(c, "backtest", err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *SignalsHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	from, ok := xutil.ParseTime(req.From)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid from time"))
	}
	to, ok := xutil.ParseTime(req.To)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid to time"))
	}
	from, to = xutil.AlignFromTo(from, to, string(tf))

	res, err := h.candles.GetCandles(c.Request().Context(), usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		return h.pipelineError(c, "candles", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) Health(c echo.Context) error {
	if h.signals != nil {
		if err := h.signals.Health(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", xlogger.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// pipelineError maps detector sentinels to 400s; everything else is a 500.
func (h *SignalsHandler) pipelineError(c echo.Context, op string, err error) error {
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	if errors.Is(err, sideways.ErrInsufficientData) || errors.Is(err, sideways.ErrDegenerateInput) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.AppErrorResponse(c, xhttp.InternalError(op+" failed").WithError(err))
}
