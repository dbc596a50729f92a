package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ebupay/exchange-service/internal/config"
	"github.com/ebupay/exchange-service/internal/repo"
	"github.com/ebupay/exchange-service/internal/service"
)

// Services bundles everything the router serves.
type Services struct {
	Transactions    *service.TransactionService
	Rates           *service.RateService
	PaymentAccounts *service.PaymentAccountService
	Notifications   *service.NotificationService
	Identity        *service.IdentityService
	Repo            repo.RepositoryInterface
}

func NewRouter(svcs Services, cfg *config.Config, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	RegisterHandlers(r, svcs, cfg.Auth.JWTSecret, log)
	return r
}

func RegisterHandlers(r *gin.Engine, svcs Services, jwtSecret string, log *zap.SugaredLogger) {
	// rates are public read
	r.GET("/v1/exchange-rates", listRatesHandler(svcs.Rates))
	r.GET("/v1/exchange-rates/:pair", getRateHandler(svcs.Rates))

	v1 := r.Group("/v1", AuthMiddleware(jwtSecret, log))
	{
		v1.GET("/payment-accounts/active", listActivePaymentAccountsHandler(svcs.PaymentAccounts))

		v1.POST("/transactions", createConversionHandler(svcs.Transactions))
		v1.GET("/transactions", listMyTransactionsHandler(svcs.Transactions))
		v1.GET("/transactions/:id", getTransactionHandler(svcs.Transactions))
		v1.GET("/transactions/code/:code", getTransactionByCodeHandler(svcs.Transactions))
		v1.POST("/transactions/:id/payment-proof", attachProofHandler(svcs.Transactions))

		v1.GET("/balance", balanceHandler(svcs.Transactions))

		v1.POST("/withdrawals", createWithdrawalHandler(svcs.Transactions))
		v1.GET("/withdrawals", listMyWithdrawalsHandler(svcs.Transactions))

		v1.GET("/notifications", listNotificationsHandler(svcs.Notifications))
		v1.PATCH("/notifications/:id/read", markNotificationReadHandler(svcs.Notifications))
		v1.POST("/notifications/mark-all-read", markAllNotificationsReadHandler(svcs.Notifications))
		v1.DELETE("/notifications/:id", deleteNotificationHandler(svcs.Notifications))

		v1.POST("/identity-verification", submitIdentityHandler(svcs.Identity))
	}

	admin := v1.Group("/admin", AdminOnly(log))
	{
		admin.GET("/users", adminListUsersHandler(svcs.Repo))
		admin.GET("/transactions", adminListTransactionsHandler(svcs.Transactions))
		admin.GET("/pending-transactions", adminListActiveTransactionsHandler(svcs.Transactions))
		admin.PATCH("/transactions/:id", adminUpdateTransactionHandler(svcs.Transactions))
		admin.GET("/withdrawals", adminListWithdrawalsHandler(svcs.Transactions))
		admin.PATCH("/withdrawals/:id", adminUpdateWithdrawalHandler(svcs.Transactions))
		admin.POST("/exchange-rates", adminSetRateHandler(svcs.Rates))
		admin.GET("/payment-accounts", adminListPaymentAccountsHandler(svcs.PaymentAccounts))
		admin.POST("/payment-accounts", adminCreatePaymentAccountHandler(svcs.PaymentAccounts))
		admin.PATCH("/payment-accounts/:id", adminUpdatePaymentAccountHandler(svcs.PaymentAccounts))
		admin.DELETE("/payment-accounts/:id", adminDeletePaymentAccountHandler(svcs.PaymentAccounts))
		admin.PATCH("/users/:id/verify-identity", adminReviewIdentityHandler(svcs.Identity))
		admin.POST("/notifications", adminSendNotificationHandler(svcs.Notifications))
	}
}

func adminListUsersHandler(r repo.RepositoryInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := r.ListUsers(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
