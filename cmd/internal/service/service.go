package service

import (
	"context"
	"errors"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/events"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the scale of every numeric(14,2) money column.
const moneyPlaces = 2

// checkMoney rejects amounts the money columns would round on insert.
func checkMoney(field string, amount decimal.Decimal) apierror.ErrorResponse {
	if !amount.Equal(amount.Round(moneyPlaces)) {
		return apierror.NewMoneyScaleError(field, moneyPlaces)
	}
	return nil
}

// Transactor runs fn in one database transaction carried by ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// fromTx turns the error returned by a transaction into the caller-facing
// error. ErrorResponses raised inside fn pass through unchanged after the
// rollback; anything else is logged and reported generically.
func fromTx(err error, format string, args ...any) apierror.ErrorResponse {
	if err == nil {
		return nil
	}
	var apierr apierror.ErrorResponse
	if errors.As(err, &apierr) {
		return apierr
	}
	log.Errorf(format+": %v", append(args, err)...)
	return apierror.InternalServerError
}

func requireAdmin(p *auth.Principal) apierror.ErrorResponse {
	if p == nil || !p.IsAdmin() {
		return apierror.ForbiddenError
	}
	return nil
}

func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	ev.OccurredAt = utils.FormatEpoch(utils.NowUTC())
	if err := pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warnf("failed to publish %s for auction %d: %v", ev.Type, ev.AuctionID, err)
	}
}
