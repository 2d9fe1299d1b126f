package service

import (
	"context"
	"strings"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type PaymentRepository interface {
	FindVerified(ctx context.Context, userID int) (*entity.PaymentInstrument, error)
	FindByUserID(ctx context.Context, userID int) ([]*entity.PaymentInstrument, error)
	Unverify(ctx context.Context, userID int) error
	Save(ctx context.Context, instrument *entity.PaymentInstrument) error
}

// AddPaymentMethodRequest carries the full card number only long enough to
// check it; nothing but the type and last four digits is stored.
type AddPaymentMethodRequest struct {
	Type       string `json:"type" validate:"required,oneof=visa mastercard amex discover"`
	CardNumber string `json:"card_number" validate:"required,credit_card"`
}

type PaymentMethodResponse struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	LastFour  string `json:"last_four"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"created_at"`
}

type DefaultPaymentService struct {
	PaymentRepo PaymentRepository
	Tx          Transactor
	Validate    *validator.Validate
}

func NewPaymentService(paymentRepo PaymentRepository, tx Transactor, validate *validator.Validate) *DefaultPaymentService {
	return &DefaultPaymentService{PaymentRepo: paymentRepo, Tx: tx, Validate: validate}
}

// AddPaymentMethod registers a card as the caller's verified instrument,
// replacing the previously verified one.
func (p *DefaultPaymentService) AddPaymentMethod(ctx context.Context, caller *auth.Principal, req *AddPaymentMethodRequest) (*PaymentMethodResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	req.CardNumber = strings.NewReplacer(" ", "", "-", "").Replace(req.CardNumber)
	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	instrument := &entity.PaymentInstrument{
		UserID:   caller.UserID,
		Type:     req.Type,
		LastFour: req.CardNumber[len(req.CardNumber)-4:],
		Verified: true,
	}

	err := p.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := p.PaymentRepo.Unverify(ctx, caller.UserID); err != nil {
			return err
		}
		return p.PaymentRepo.Save(ctx, instrument)
	})
	if apierr := fromTx(err, "failed to register payment method for user %d", caller.UserID); apierr != nil {
		return nil, apierr
	}
	return toPaymentMethodResponse(instrument), nil
}

func (p *DefaultPaymentService) ListPaymentMethods(ctx context.Context, caller *auth.Principal) ([]*PaymentMethodResponse, apierror.ErrorResponse) {
	instruments, err := p.PaymentRepo.FindByUserID(ctx, caller.UserID)
	if err != nil {
		log.Errorf("failed to list payment methods for user %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*PaymentMethodResponse, len(instruments))
	for i, instrument := range instruments {
		resp[i] = toPaymentMethodResponse(instrument)
	}
	return resp, nil
}

func toPaymentMethodResponse(instrument *entity.PaymentInstrument) *PaymentMethodResponse {
	return &PaymentMethodResponse{
		ID:        instrument.ID,
		Type:      instrument.Type,
		LastFour:  instrument.LastFour,
		Verified:  instrument.Verified,
		CreatedAt: utils.FormatEpoch(instrument.CreatedAt),
	}
}
