package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"TradeSim/internal/domain/models"
	"TradeSim/internal/usecase"
	xhttp "TradeSim/pkg/http"
	"TradeSim/pkg/http/middleware"
	xlogger "TradeSim/pkg/logger"
)

// Simulations is the part of the simulator the handlers use.
type Simulations interface {
	Run(ctx context.Context, p usecase.SimulateParams, observe usecase.StepObserver) (*models.Report, error)
	LatestReport(ctx context.Context, symbol string) (*models.Report, error)
}

// SimulateEchoHandler serves the simulation API.
type SimulateEchoHandler struct {
	logger   *xlogger.Logger
	sim      Simulations
	limiter  middleware.Allower
	upgrader websocket.Upgrader
}

func NewSimulateEchoHandler(logger *xlogger.Logger, sim Simulations, limiter middleware.Allower) *SimulateEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SimulateEchoHandler{
		logger:  logger,
		sim:     sim,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *SimulateEchoHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	g := e.Group("/api")
	g.POST("/simulate", h.Simulate, mw...)
	g.GET("/simulate/chart", h.Chart)
	e.GET("/ws/simulate", h.Stream, mw...)
}

// Simulate trains or reuses the symbol's policy and returns the backtest report.
func (h *SimulateEchoHandler) Simulate(c echo.Context) error {
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	report, err := h.sim.Run(c.Request().Context(), usecase.SimulateParams{Symbol: req.Symbol}, nil)
	if err != nil {
		h.logger.Error("simulate usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, simulationError(err))
	}
	return c.JSON(http.StatusOK, report)
}

// Chart renders the portfolio value curve of the latest report as HTML.
func (h *SimulateEchoHandler) Chart(c echo.Context) error {
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	report, err := h.sim.LatestReport(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, usecase.ErrReportNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no simulation has run for this symbol yet").WithParam("symbol", req.Symbol))
		}
		h.logger.Error("chart report lookup failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	var buf bytes.Buffer
	if err := equityChart(report).Render(&buf); err != nil {
		h.logger.Error("chart render failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("chart render failed").WithError(err))
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func equityChart(r *models.Report) *charts.Line {
	dates := make([]string, len(r.DailyLog))
	values := make([]opts.LineData, len(r.DailyLog))
	for i, e := range r.DailyLog {
		dates[i] = e.Date
		values[i] = opts.LineData{Value: e.PortfolioValue}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Symbol + " backtest"}),
		charts.WithTitleOpts(opts.Title{
			Title:    r.Symbol + " portfolio value",
			Subtitle: fmt.Sprintf("%s to %s, return %.2f%%", r.StartDate, r.EndDate, r.Summary.Return),
		}),
	)
	line.SetXAxis(dates).AddSeries("portfolio", values)
	return line
}

// streamMessage is one websocket frame of /ws/simulate.
type streamMessage struct {
	Type    string      `json:"type"` // step | report | error
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

const streamWriteWait = 10 * time.Second

// Stream runs a simulation and pushes every replay day, then the report.
func (h *SimulateEchoHandler) Stream(c echo.Context) error {
	req := &models.SimulateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade error", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	var writeErr error
	write := func(m streamMessage) {
		if writeErr != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		writeErr = conn.WriteJSON(m)
	}

	report, err := h.sim.Run(c.Request().Context(), usecase.SimulateParams{Symbol: req.Symbol}, func(e models.DailyLogEntry) {
		write(streamMessage{Type: "step", Data: e})
	})
	if err != nil {
		h.logger.Error("stream simulate error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		var appErr *xhttp.AppError
		if errors.As(simulationError(err), &appErr) {
			write(streamMessage{Type: "error", Code: appErr.Code, Message: appErr.Message})
		}
	} else {
		write(streamMessage{Type: "report", Data: report})
	}
	if writeErr != nil {
		h.logger.Warn("ws write error", xlogger.Error(writeErr))
		return nil
	}

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}

func simulationError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrDataUnavailable):
		return xhttp.NewAppError("ERR_DATA_UNAVAILABLE", "symbol", "not enough price history to simulate this symbol", http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrUpstream):
		return xhttp.BadGatewayError("price history provider failed").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "simulation timed out", http.StatusGatewayTimeout).WithError(err)
	case errors.Is(err, context.Canceled):
		return xhttp.NewAppError("ERR_CANCELED", "", "request canceled", http.StatusRequestTimeout).WithError(err)
	case errors.Is(err, usecase.ErrSimulationFault):
		return xhttp.InternalError("simulation failed").WithError(err)
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
