package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

// TransactionService owns the transaction lifecycle: creation, payment-proof
// attachment, admin status transitions and balance settlement. Every
// balance-affecting transition runs as one database transaction so that a
// status change and its settlement are never observable apart.
type TransactionService struct {
	repo     repo.RepositoryInterface
	notifier *NotificationService
	log      *zap.SugaredLogger
}

// NewTransactionService returns TransactionService.
func NewTransactionService(r repo.RepositoryInterface, n *NotificationService, logger *zap.SugaredLogger) *TransactionService {
	return &TransactionService{repo: r, notifier: n, log: logger}
}

// CreateConversionInput carries the snapshot a conversion is created with.
// Rate and commission come from the rate the user saw; the engine keeps them
// immutable on the transaction so later rate changes cannot rewrite history.
type CreateConversionInput struct {
	SourceAmount     decimal.Decimal
	SourceCurrency   string
	TargetAmount     decimal.Decimal
	TargetCurrency   string
	Rate             decimal.Decimal
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	PaymentAccountID *uint64
}

// ConversionQuote computes commission and target amounts for a source
// amount under a rate and commission fraction.
func ConversionQuote(source, rate, commissionRate decimal.Decimal) (commission, target decimal.Decimal) {
	gross := source.Mul(rate)
	commission = gross.Mul(commissionRate).Round(2)
	target = gross.Sub(commission).Round(2)
	return commission, target
}

// CreateConversion opens a pending conversion for the user.
func (s *TransactionService) CreateConversion(ctx context.Context, userID uint64, in CreateConversionInput) (*model.Transaction, error) {
	if in.SourceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("sourceAmount", "must be positive")
	}
	if in.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("rate", "must be positive")
	}
	if in.CommissionRate.IsNegative() || in.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, invalid("commissionRate", "must be a fraction in [0,1)")
	}
	if in.SourceCurrency == "" || in.TargetCurrency == "" {
		return nil, invalid("currency", "is required")
	}
	// fill the computed fields when the client did not supply them
	if in.CommissionAmount.IsZero() && in.TargetAmount.IsZero() {
		in.CommissionAmount, in.TargetAmount = ConversionQuote(in.SourceAmount, in.Rate, in.CommissionRate)
	}
	if in.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return nil, invalid("targetAmount", "must be positive")
	}

	t := &model.Transaction{
		UserID:           userID,
		Code:             model.NewCode(),
		Kind:             model.KindConversion,
		SourceAmount:     in.SourceAmount,
		SourceCurrency:   in.SourceCurrency,
		TargetAmount:     in.TargetAmount,
		TargetCurrency:   in.TargetCurrency,
		Rate:             in.Rate,
		CommissionRate:   in.CommissionRate,
		CommissionAmount: in.CommissionAmount,
		Status:           model.StatusPending,
		PaymentAccountID: in.PaymentAccountID,
	}
	if err := s.repo.CreateTransaction(ctx, s.repo.DB(ctx), t); err != nil {
		return nil, fmt.Errorf("create conversion: %w", err)
	}
	return t, nil
}

// CreateWithdrawal opens a pending withdrawal transaction together with its
// linked request. The balance check here is advisory; the binding check runs
// again at completion, inside the settlement transaction.
func (s *TransactionService) CreateWithdrawal(ctx context.Context, userID uint64, amount decimal.Decimal, method, details, currency string) (*model.Transaction, *model.WithdrawalRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, invalid("amount", "must be positive")
	}
	if method == "" {
		return nil, nil, invalid("method", "is required")
	}
	if details == "" {
		return nil, nil, invalid("details", "is required")
	}
	if currency == "" {
		currency = "TRY"
	}

	var (
		t *model.Transaction
		w *model.WithdrawalRequest
	)
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.repo.GetUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if u.Balance.LessThan(amount) {
			return repo.ErrInsufficientFunds
		}
		t = &model.Transaction{
			UserID:           userID,
			Code:             model.NewCode(),
			Kind:             model.KindWithdrawal,
			SourceAmount:     amount,
			SourceCurrency:   currency,
			TargetAmount:     amount,
			TargetCurrency:   currency,
			Rate:             decimal.NewFromInt(1),
			CommissionRate:   decimal.Zero,
			CommissionAmount: decimal.Zero,
			Status:           model.StatusPending,
			PaymentMethod:    &method,
			PaymentDetails:   &details,
		}
		if err := s.repo.CreateTransaction(ctx, tx, t); err != nil {
			return err
		}
		w = &model.WithdrawalRequest{
			UserID:        userID,
			TransactionID: t.ID,
			Amount:        amount,
			Method:        method,
			Details:       details,
			Status:        model.StatusPending,
		}
		return s.repo.CreateWithdrawalRequest(ctx, tx, w)
	})
	if err != nil {
		return nil, nil, err
	}
	return t, w, nil
}

// AttachPaymentProof stores the proof reference on the owner's transaction
// and forces it to processing. Terminal transactions are never overwritten.
func (s *TransactionService) AttachPaymentProof(ctx context.Context, transactionID, requesterID uint64, proofRef string) (*model.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.UserID != requesterID {
		return nil, ErrForbidden
	}
	if proofRef == "" {
		return nil, invalid("proof", "is required")
	}
	ok, err := s.repo.AttachProof(ctx, s.repo.DB(ctx), transactionID, proofRef)
	if err != nil {
		return nil, fmt.Errorf("attach proof: %w", err)
	}
	if !ok {
		return nil, ErrConflict
	}
	return s.repo.GetTransaction(ctx, transactionID)
}

// AdminUpdateStatus performs one transition of the state machine
// {pending,processing} -> {processing,completed,cancelled}. Status write,
// settlement, linked-request sync and outbox event commit atomically; the
// user notification is dispatched only after the commit.
func (s *TransactionService) AdminUpdateStatus(ctx context.Context, transactionID uint64, newStatus string, notes *string) (*model.Transaction, error) {
	switch newStatus {
	case model.StatusProcessing, model.StatusCompleted, model.StatusCancelled:
	case model.StatusPending:
		// regressions to pending are disallowed
		return nil, ErrConflict
	default:
		return nil, invalid("status", "is unknown")
	}

	var t *model.Transaction
	err := s.repo.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = s.repo.GetTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// The claim is a conditional update gated on the transaction still
		// being active; its affected-row count decides whether settlement
		// may run. Two concurrent completions can both reach here, but only
		// one claim succeeds.
		claimed, err := s.repo.ClaimTransition(ctx, tx, transactionID, newStatus, notes)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrConflict
		}

		if newStatus == model.StatusCompleted {
			if err := s.settle(ctx, tx, t); err != nil {
				return err
			}
		}
		if t.Kind == model.KindWithdrawal {
			if err := s.repo.SyncWithdrawalStatus(ctx, tx, t.ID, newStatus, notes); err != nil {
				return err
			}
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"transaction_id": t.ID,
			"code":           t.Code,
			"kind":           t.Kind,
			"user_id":        t.UserID,
			"status":         newStatus,
		})
		evt := &model.OutboxEvent{
			Aggregate: "Transaction", AggregateID: t.ID,
			EventType: "StatusChanged", Payload: string(payload),
		}
		return s.repo.CreateOutboxEvent(ctx, tx, evt)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, t, newStatus, notes)

	return s.repo.GetTransaction(ctx, transactionID)
}

// settle applies the single balance mutation of a completing transaction:
// credit of targetAmount for conversions, debit of sourceAmount for
// withdrawals. Runs under the user row lock inside the caller's transaction.
func (s *TransactionService) settle(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	u, err := s.repo.GetUserForUpdate(ctx, tx, t.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	var newBal decimal.Decimal
	switch t.Kind {
	case model.KindConversion:
		newBal = u.Balance.Add(t.TargetAmount)
	case model.KindWithdrawal:
		// the creation-time check may be stale by now
		if u.Balance.LessThan(t.SourceAmount) {
			return repo.ErrInsufficientFunds
		}
		newBal = u.Balance.Sub(t.SourceAmount)
	default:
		return invalid("kind", "is unknown")
	}
	if err := s.repo.UpdateBalance(ctx, tx, t.UserID, newBal, u.Version); err != nil {
		return err
	}
	if err := s.repo.CacheBalance(ctx, t.UserID, newBal); err != nil {
		s.log.Warn(err)
	}
	return nil
}

func (s *TransactionService) notifyStatusChange(ctx context.Context, t *model.Transaction, newStatus string, notes *string) {
	reason := "Not specified"
	if notes != nil && *notes != "" {
		reason = *notes
	}
	switch {
	case newStatus == model.StatusCompleted && t.Kind == model.KindConversion:
		s.notifier.NotifyUser(ctx, t.UserID,
			"Transaction Approved",
			fmt.Sprintf("Your conversion of %s %s has been approved. %s %s has been added to your balance.",
				t.SourceAmount, t.SourceCurrency, t.TargetAmount, t.TargetCurrency),
			model.NotifySuccess, "transaction", t.ID)
	case newStatus == model.StatusCancelled && t.Kind == model.KindConversion:
		s.notifier.NotifyUser(ctx, t.UserID,
			"Transaction Rejected",
			fmt.Sprintf("Your conversion of %s %s has been rejected. Reason: %s",
				t.SourceAmount, t.SourceCurrency, reason),
			model.NotifyError, "transaction", t.ID)
	case newStatus == model.StatusCompleted && t.Kind == model.KindWithdrawal:
		s.notifier.NotifyUser(ctx, t.UserID,
			"Withdrawal Approved",
			fmt.Sprintf("Your withdrawal of %s %s has been approved.",
				t.SourceAmount, t.SourceCurrency),
			model.NotifySuccess, "transaction", t.ID)
	case newStatus == model.StatusCancelled && t.Kind == model.KindWithdrawal:
		s.notifier.NotifyUser(ctx, t.UserID,
			"Withdrawal Rejected",
			fmt.Sprintf("Your withdrawal of %s %s has been rejected. Reason: %s",
				t.SourceAmount, t.SourceCurrency, reason),
			model.NotifyError, "transaction", t.ID)
	}
}

// AdminUpdateWithdrawal resolves a withdrawal request to its linked
// transaction and routes the update through the same state machine, so both
// records move together under the same guards.
func (s *TransactionService) AdminUpdateWithdrawal(ctx context.Context, withdrawalID uint64, newStatus string, notes *string) (*model.WithdrawalRequest, error) {
	w, err := s.repo.GetWithdrawalRequest(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.AdminUpdateStatus(ctx, w.TransactionID, newStatus, notes); err != nil {
		return nil, err
	}
	return s.repo.GetWithdrawalRequest(ctx, withdrawalID)
}

// GetByID fetches one transaction; non-admin callers see only their own.
func (s *TransactionService) GetByID(ctx context.Context, id, requesterID uint64, isAdmin bool) (*model.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && t.UserID != requesterID {
		return nil, ErrForbidden
	}
	return t, nil
}

// GetByCode fetches one transaction by its human-facing code.
func (s *TransactionService) GetByCode(ctx context.Context, code string, requesterID uint64, isAdmin bool) (*model.Transaction, error) {
	t, err := s.repo.GetTransactionByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && t.UserID != requesterID {
		return nil, ErrForbidden
	}
	return t, nil
}

// ListMine returns the caller's transactions, newest first.
func (s *TransactionService) ListMine(ctx context.Context, userID uint64) ([]model.Transaction, error) {
	return s.repo.ListUserTransactions(ctx, userID)
}

// ListAll returns every transaction, newest first.
func (s *TransactionService) ListAll(ctx context.Context) ([]model.Transaction, error) {
	return s.repo.ListAllTransactions(ctx)
}

// ListActive returns the admin work queue: pending and processing.
func (s *TransactionService) ListActive(ctx context.Context) ([]model.Transaction, error) {
	return s.repo.ListActiveTransactions(ctx)
}

// ListMyWithdrawals returns the caller's withdrawal requests.
func (s *TransactionService) ListMyWithdrawals(ctx context.Context, userID uint64) ([]model.WithdrawalRequest, error) {
	return s.repo.ListUserWithdrawalRequests(ctx, userID)
}

// ListActiveWithdrawals returns pending and processing withdrawal requests.
func (s *TransactionService) ListActiveWithdrawals(ctx context.Context) ([]model.WithdrawalRequest, error) {
	return s.repo.ListActiveWithdrawalRequests(ctx)
}

// GetBalance returns the user's current balance, cache first.
func (s *TransactionService) GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	bal, err := s.repo.GetCachedBalance(ctx, userID)
	if err == nil {
		return bal, nil
	}
	u, err := s.repo.GetUser(ctx, s.repo.DB(ctx), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	if err := s.repo.CacheBalance(ctx, userID, u.Balance); err != nil {
		s.log.Warn(err)
	}
	return u.Balance, nil
}

// Repo exposes underlying repository (unit tests helper).
func (s *TransactionService) Repo() repo.RepositoryInterface {
	return s.repo
}
