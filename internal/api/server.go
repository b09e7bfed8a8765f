// Package api exposes the pool ledger over HTTP. Mutating endpoints
// require the admin API key; queries are open.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetpool/internal/auth"
	"assetpool/internal/ledger"
	"assetpool/internal/pool"
	"assetpool/internal/token"
)

// Server wires the ledger into HTTP handlers.
type Server struct {
	ledger   *ledger.Ledger
	apiKey   string
	gatherer prometheus.Gatherer
}

func NewServer(l *ledger.Ledger, apiKey string, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{ledger: l, apiKey: apiKey, gatherer: gatherer}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	r.GET("/v1/pool", s.handleStatus)

	admin := r.Group("/v1/pool", s.requireAdmin)
	admin.POST("/contribute", s.handleContribute)
	admin.POST("/redeem", s.handleRedeem)
	admin.POST("/withdraw", s.handleWithdraw)
	admin.POST("/deposit", s.handleDeposit)
	admin.POST("/external/increase", s.handleIncreaseExternal)
	admin.POST("/external/decrease", s.handleDecreaseExternal)
	admin.POST("/flashloan", s.handleFlashloan)

	return r
}

func (s *Server) requireAdmin(c *gin.Context) {
	if s.apiKey == "" || c.GetHeader("X-Api-Key") != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, buildErrorRespond(auth.ErrUnauthorized))
		return
	}
	c.Next()
}

// callerFrom names the journal entry after the X-Caller header when one
// is sent.
func callerFrom(c *gin.Context) auth.Caller {
	name := c.GetHeader("X-Caller")
	if name == "" {
		name = "api"
	}
	return auth.Caller{Name: name, Role: auth.RoleAdmin}
}

func buildErrorRespond(err error) APIRespond {
	errStr := err.Error()
	return APIRespond{Result: nil, Error: &errStr}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, pool.ErrInvalidAmount),
		errors.Is(err, pool.ErrResourceMismatch),
		errors.Is(err, token.ErrIndivisibleAmount),
		errors.Is(err, token.ErrUnknownReceipt):
		return http.StatusBadRequest
	case errors.Is(err, pool.ErrInsufficientLiquidity),
		errors.Is(err, pool.ErrInsufficientRepayment),
		errors.Is(err, pool.ErrOverdrawnExternalLiquidity),
		errors.Is(err, pool.ErrInvalidState),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrDanglingReceipt):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
