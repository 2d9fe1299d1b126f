package service

import (
	"context"
	"errors"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/monitoring"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	FindByID(ctx context.Context, id int) (*entity.Purchase, error)
	FindByUserID(ctx context.Context, userID int) ([]*entity.Purchase, error)
	FindAll(ctx context.Context) ([]*entity.Purchase, error)
	MarkCompleted(ctx context.Context, id int, completedAt int64) error
}

type CompletePaymentRequest struct {
	LastFour string `json:"last_four" validate:"required,lastfour"`
}

type PurchaseResponse struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	PropertyID    int             `json:"property_id"`
	PropertyTitle string          `json:"property_title,omitempty"`
	AuctionID     *int            `json:"auction_id"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Status        string          `json:"status"`
	CompletedAt   *string         `json:"completed_at"`
	CreatedAt     string          `json:"created_at"`
}

type DefaultPurchaseService struct {
	PurchaseRepo PurchaseRepository
	PaymentRepo  PaymentRepository
	PropertyRepo PropertyRepository
	Tx           Transactor
	Validate     *validator.Validate
}

func NewPurchaseService(purchaseRepo PurchaseRepository, paymentRepo PaymentRepository, propertyRepo PropertyRepository, tx Transactor, validate *validator.Validate) *DefaultPurchaseService {
	return &DefaultPurchaseService{
		PurchaseRepo: purchaseRepo,
		PaymentRepo:  paymentRepo,
		PropertyRepo: propertyRepo,
		Tx:           tx,
		Validate:     validate,
	}
}

func (p *DefaultPurchaseService) GetPurchases(ctx context.Context, caller *auth.Principal) ([]*PurchaseResponse, apierror.ErrorResponse) {
	var (
		purchases []*entity.Purchase
		err       error
	)
	if caller.IsAdmin() {
		purchases, err = p.PurchaseRepo.FindAll(ctx)
	} else {
		purchases, err = p.PurchaseRepo.FindByUserID(ctx, caller.UserID)
	}
	if err != nil {
		log.Errorf("failed to list purchases for user %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*PurchaseResponse, len(purchases))
	for i, purchase := range purchases {
		resp[i] = toPurchaseResponse(purchase)
	}
	return resp, nil
}

// CompletePayment confirms a pending purchase when the claimed last four
// digits match the caller's verified instrument. The property is sold in the
// same transaction.
func (p *DefaultPurchaseService) CompletePayment(ctx context.Context, caller *auth.Principal, id int, req *CompletePaymentRequest) (*PurchaseResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	var purchase *entity.Purchase
	err := p.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		purchase, err = p.PurchaseRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if purchase == nil || purchase.UserID != caller.UserID {
			return apierror.NotFound("Purchase not found")
		}
		if purchase.Status != entity.PurchasePending {
			return apierror.PurchaseNotPendingError
		}

		instrument, err := p.PaymentRepo.FindVerified(ctx, caller.UserID)
		if err != nil {
			return err
		}
		if instrument == nil {
			return apierror.VerificationRequiredError
		}
		if instrument.LastFour != req.LastFour {
			return apierror.PaymentVerificationFailed
		}

		now := utils.NowUTC()
		err = p.PurchaseRepo.MarkCompleted(ctx, id, now)
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.PurchaseNotPendingError
		}
		if err != nil {
			return err
		}
		if err := p.PropertyRepo.UpdateStatus(ctx, purchase.PropertyID, entity.PropertySold); err != nil {
			return err
		}

		purchase.Status = entity.PurchaseCompleted
		purchase.CompletedAt = &now
		return nil
	})

	if apierr := fromTx(err, "failed to complete payment of purchase %d", id); apierr != nil {
		monitoring.RecordPayment(outcome(apierr))
		return nil, apierr
	}
	monitoring.RecordPayment("completed")
	return toPurchaseResponse(purchase), nil
}

func toPurchaseResponse(purchase *entity.Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:            purchase.ID,
		UserID:        purchase.UserID,
		PropertyID:    purchase.PropertyID,
		PropertyTitle: purchase.Property.Title,
		AuctionID:     purchase.AuctionID,
		PurchasePrice: purchase.PurchasePrice,
		Status:        string(purchase.Status),
		CompletedAt:   utils.FormatEpochPtr(purchase.CompletedAt),
		CreatedAt:     utils.FormatEpoch(purchase.CreatedAt),
	}
}
