package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ebupay/exchange-service/internal/model"
	"github.com/ebupay/exchange-service/internal/repo"
)

// IdentityService runs the KYC approval workflow: the same submit-and-review
// pattern as transactions, but over the user's verification flag.
type IdentityService struct {
	repo     repo.RepositoryInterface
	notifier *NotificationService
	log      *zap.SugaredLogger
}

// NewIdentityService returns IdentityService.
func NewIdentityService(r repo.RepositoryInterface, n *NotificationService, logger *zap.SugaredLogger) *IdentityService {
	return &IdentityService{repo: r, notifier: n, log: logger}
}

// SubmitDocuments records the uploaded document references and flags the
// account for admin review. All three references are mandatory.
func (s *IdentityService) SubmitDocuments(ctx context.Context, userID uint64, frontID, backID, selfie string) error {
	if frontID == "" || backID == "" || selfie == "" {
		return invalid("documents", "front, back and selfie references are required")
	}
	u, err := s.repo.GetUser(ctx, s.repo.DB(ctx), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	docs, _ := json.Marshal([]string{frontID, backID, selfie})
	if err := s.repo.SetIdentityStatus(ctx, userID, false, string(docs)); err != nil {
		return err
	}

	s.notifier.NotifyAll(ctx, "New Identity Verification Request",
		fmt.Sprintf("%s %s (%s) has uploaded identity documents for review.",
			u.FirstName, u.LastName, u.Email),
		"identity_verification", "user", userID)
	s.notifier.NotifyUser(ctx, userID, "Identity Verification Received",
		"Your identity documents have been received and will be reviewed shortly. This usually takes 24-48 hours.",
		model.NotifyInfo, "user", userID)
	return nil
}

// Review approves or rejects a user's identity documents and notifies the
// user. Reject notes are passed through verbatim.
func (s *IdentityService) Review(ctx context.Context, userID uint64, verified bool, notes string) error {
	if _, err := s.repo.GetUser(ctx, s.repo.DB(ctx), userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.repo.SetIdentityStatus(ctx, userID, verified, ""); err != nil {
		return err
	}

	if verified {
		s.notifier.NotifyUser(ctx, userID, "Identity Verification Approved",
			"Your identity verification is complete. All platform features are now available to you.",
			model.NotifySuccess, "user", userID)
	} else {
		msg := notes
		if msg == "" {
			msg = "Your identity verification was rejected. Please contact support."
		}
		s.notifier.NotifyUser(ctx, userID, "Identity Verification Rejected",
			msg, model.NotifyWarning, "user", userID)
	}
	return nil
}
