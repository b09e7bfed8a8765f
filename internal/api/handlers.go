package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"assetpool/internal/fixed"
	"assetpool/internal/pool"
	"assetpool/internal/token"
	"assetpool/internal/vault"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIRespond{Result: "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, APIRespond{Result: s.ledger.Status()})
}

func (s *Server) handleContribute(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	amount, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	minted, st, err := s.ledger.Contribute(c.Request.Context(), callerFrom(c), amount)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: ContributeRespond{UnitsMinted: minted.String(), Pool: st}})
}

func (s *Server) handleRedeem(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	units, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	out, st, err := s.ledger.Redeem(c.Request.Context(), callerFrom(c), units)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: RedeemRespond{AmountOut: out.String(), Pool: st}})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	amount, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	withdrawType, err := pool.ParseWithdrawType(req.WithdrawType)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	strategy := vault.WithdrawExact
	if req.Strategy != "" {
		strategy, err = vault.ParseStrategy(req.Strategy)
		if err != nil {
			c.JSON(http.StatusBadRequest, buildErrorRespond(err))
			return
		}
	}
	out, st, err := s.ledger.ProtectedWithdraw(c.Request.Context(), callerFrom(c), amount, withdrawType, strategy)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: WithdrawRespond{AmountOut: out.String(), Pool: st}})
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	amount, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	depositType, err := pool.ParseDepositType(req.DepositType)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	st, err := s.ledger.ProtectedDeposit(c.Request.Context(), callerFrom(c), amount, depositType)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: PoolRespond{Pool: st}})
}

func (s *Server) handleIncreaseExternal(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	amount, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	st, err := s.ledger.IncreaseExternalLiquidity(c.Request.Context(), callerFrom(c), amount)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: PoolRespond{Pool: st}})
}

func (s *Server) handleDecreaseExternal(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	amount, err := fixed.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	st, err := s.ledger.DecreaseExternalLiquidity(c.Request.Context(), callerFrom(c), amount)
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: PoolRespond{Pool: st}})
}

// handleFlashloan settles take and repay in one request: the declared
// repay amount is handed back to the pool inside the same operation.
func (s *Server) handleFlashloan(c *gin.Context) {
	var req FlashloanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	loanAmount, err := fixed.Parse(req.LoanAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	feeAmount, err := fixed.Parse(req.FeeAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	repayAmount, err := fixed.Parse(req.RepayAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, buildErrorRespond(err))
		return
	}
	change, st, err := s.ledger.Flashloan(c.Request.Context(), callerFrom(c), loanAmount, feeAmount,
		func(loan token.Bucket, _ token.FlashloanTerm) (token.Bucket, error) {
			return token.NewBucket(loan.Asset(), repayAmount)
		})
	if err != nil {
		c.JSON(statusFor(err), buildErrorRespond(err))
		return
	}
	c.JSON(http.StatusOK, APIRespond{Result: FlashloanRespond{Change: change.String(), Pool: st}})
}
