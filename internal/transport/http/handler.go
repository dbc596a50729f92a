package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ebupay/exchange-service/internal/repo"
	"github.com/ebupay/exchange-service/internal/service"
)

// writeError maps the service error taxonomy to HTTP. Infrastructure errors
// surface as a generic 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal status transition"})
	case errors.Is(err, repo.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient funds"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, try again later"})
	}
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

type createConversionReq struct {
	SourceAmount     string  `json:"sourceAmount" binding:"required"`
	SourceCurrency   string  `json:"sourceCurrency" binding:"required"`
	TargetAmount     string  `json:"targetAmount"`
	TargetCurrency   string  `json:"targetCurrency" binding:"required"`
	Rate             string  `json:"rate" binding:"required"`
	CommissionRate   string  `json:"commissionRate" binding:"required"`
	CommissionAmount string  `json:"commissionAmount"`
	PaymentAccountID *uint64 `json:"paymentAccountId"`
}

func createConversionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversionReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		in := service.CreateConversionInput{
			SourceCurrency:   req.SourceCurrency,
			TargetCurrency:   req.TargetCurrency,
			PaymentAccountID: req.PaymentAccountID,
		}
		var err error
		if in.SourceAmount, err = decimal.NewFromString(req.SourceAmount); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sourceAmount"})
			return
		}
		if in.Rate, err = decimal.NewFromString(req.Rate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate"})
			return
		}
		if in.CommissionRate, err = decimal.NewFromString(req.CommissionRate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commissionRate"})
			return
		}
		if req.TargetAmount != "" {
			if in.TargetAmount, err = decimal.NewFromString(req.TargetAmount); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid targetAmount"})
				return
			}
		}
		if req.CommissionAmount != "" {
			if in.CommissionAmount, err = decimal.NewFromString(req.CommissionAmount); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commissionAmount"})
				return
			}
		}
		t, err := svc.CreateConversion(c, principal(c), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

type attachProofReq struct {
	Proof string `json:"proof" binding:"required"`
}

func attachProofHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req attachProofReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no proof file reference provided"})
			return
		}
		t, err := svc.AttachPaymentProof(c, id, principal(c), req.Proof)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func listMyTransactionsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.ListMine(c, principal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

func getTransactionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := svc.GetByID(c, id, principal(c), c.GetBool("admin"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func getTransactionByCodeHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.GetByCode(c, c.Param("code"), principal(c), c.GetBool("admin"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func balanceHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bal, err := svc.GetBalance(c, principal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": bal})
	}
}

type createWithdrawalReq struct {
	Amount   string `json:"amount" binding:"required"`
	Method   string `json:"method" binding:"required"`
	Details  string `json:"details" binding:"required"`
	Currency string `json:"currency"`
}

func createWithdrawalHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createWithdrawalReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		amt, err := decimal.NewFromString(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		t, w, err := svc.CreateWithdrawal(c, principal(c), amt, req.Method, req.Details, req.Currency)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"withdrawal": w, "transaction": t})
	}
}

func listMyWithdrawalsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := svc.ListMyWithdrawals(c, principal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ws)
	}
}

func listRatesHandler(svc *service.RateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rates, err := svc.List(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, rates)
	}
}

func getRateHandler(svc *service.RateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		er, err := svc.Get(c, c.Param("pair"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, er)
	}
}

func listActivePaymentAccountsHandler(svc *service.PaymentAccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := svc.ListActive(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	}
}

func listNotificationsHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		unread := c.Query("unread") == "true"
		ns, err := svc.ListMine(c, principal(c), unread)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ns)
	}
}

func markNotificationReadHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		n, err := svc.MarkRead(c, id, principal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func markAllNotificationsReadHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.MarkAllRead(c, principal(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func deleteNotificationHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c, id, principal(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type identitySubmitReq struct {
	FrontID string `json:"frontId" binding:"required"`
	BackID  string `json:"backId" binding:"required"`
	Selfie  string `json:"selfie" binding:"required"`
}

func submitIdentityHandler(svc *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req identitySubmitReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "front, back and selfie document references are required"})
			return
		}
		if err := svc.SubmitDocuments(c, principal(c), req.FrontID, req.BackID, req.Selfie); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "identity documents received", "status": "pending"})
	}
}
