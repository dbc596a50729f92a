package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/service"
)

type updateStatusReq struct {
	Status     string  `json:"status" binding:"required"`
	AdminNotes *string `json:"adminNotes"`
}

func adminUpdateTransactionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req updateStatusReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		t, err := svc.AdminUpdateStatus(c, id, req.Status, req.AdminNotes)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func adminUpdateWithdrawalHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req updateStatusReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		w, err := svc.AdminUpdateWithdrawal(c, id, req.Status, req.AdminNotes)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, w)
	}
}

func adminListTransactionsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.ListAll(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

func adminListActiveTransactionsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := svc.ListActive(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, txs)
	}
}

func adminListWithdrawalsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := svc.ListActiveWithdrawals(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ws)
	}
}

type setRateReq struct {
	CurrencyPair   string `json:"currencyPair" binding:"required"`
	Rate           string `json:"rate" binding:"required"`
	CommissionRate string `json:"commissionRate" binding:"required"`
}

func adminSetRateHandler(svc *service.RateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setRateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rate, err := decimal.NewFromString(req.Rate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate"})
			return
		}
		commission, err := decimal.NewFromString(req.CommissionRate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commissionRate"})
			return
		}
		er, err := svc.Set(c, principal(c), req.CurrencyPair, rate, commission)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, er)
	}
}

type paymentAccountReq struct {
	AccountType    string  `json:"accountType" binding:"required"`
	AccountName    string  `json:"accountName" binding:"required"`
	AccountNumber  string  `json:"accountNumber" binding:"required"`
	BankName       *string `json:"bankName"`
	IBAN           *string `json:"iban"`
	SwiftCode      *string `json:"swiftCode"`
	BranchCode     *string `json:"branchCode"`
	AdditionalInfo *string `json:"additionalInfo"`
	IsActive       *bool   `json:"isActive"`
}

func adminListPaymentAccountsHandler(svc *service.PaymentAccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := svc.ListAll(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	}
}

func adminCreatePaymentAccountHandler(svc *service.PaymentAccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentAccountReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a := &model.PaymentAccount{
			AccountType:    req.AccountType,
			AccountName:    req.AccountName,
			AccountNumber:  req.AccountNumber,
			BankName:       req.BankName,
			IBAN:           req.IBAN,
			SwiftCode:      req.SwiftCode,
			BranchCode:     req.BranchCode,
			AdditionalInfo: req.AdditionalInfo,
			IsActive:       true,
		}
		if req.IsActive != nil {
			a.IsActive = *req.IsActive
		}
		created, err := svc.Create(c, a)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func adminUpdatePaymentAccountHandler(svc *service.PaymentAccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req paymentAccountReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := svc.Update(c, id, func(a *model.PaymentAccount) {
			a.AccountType = req.AccountType
			a.AccountName = req.AccountName
			a.AccountNumber = req.AccountNumber
			a.BankName = req.BankName
			a.IBAN = req.IBAN
			a.SwiftCode = req.SwiftCode
			a.BranchCode = req.BranchCode
			a.AdditionalInfo = req.AdditionalInfo
			if req.IsActive != nil {
				a.IsActive = *req.IsActive
			}
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func adminDeletePaymentAccountHandler(svc *service.PaymentAccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c, id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

type reviewIdentityReq struct {
	Verified *bool  `json:"verified" binding:"required"`
	Notes    string `json:"notes"`
}

func adminReviewIdentityHandler(svc *service.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req reviewIdentityReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.Review(c, id, *req.Verified, req.Notes); err != nil {
			writeError(c, err)
			return
		}
		status := "rejected"
		if *req.Verified {
			status = "verified"
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

type sendNotificationReq struct {
	UserID  uint64 `json:"userId"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

func adminSendNotificationHandler(svc *service.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendNotificationReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		n, err := svc.Send(c, principal(c), req.UserID, req.Title, req.Message, req.Type)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, n)
	}
}
