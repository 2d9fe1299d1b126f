package service

import (
	"context"
	"net/http"
	"testing"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/stretchr/testify/require"
)

// wonPurchase ends an auction won by a bidder whose card ends in 4242.
func wonPurchase(t *testing.T) (*auctionSetup, *auth.Principal, int) {
	t.Helper()
	s := newAuctionSetup(t)
	winner := s.bidder(t)
	_, apierr := s.bid(winner, 105000)
	require.Nil(t, apierr)

	ended, apierr := s.svc.EndAuction(context.Background(), s.admin, s.auction.ID)
	require.Nil(t, apierr)
	require.NotNil(t, ended.PurchaseID)
	return s, winner, *ended.PurchaseID
}

func TestCompletePayment(t *testing.T) {
	t.Parallel()
	s, winner, id := wonPurchase(t)
	svc := s.f.purchaseService()
	ctx := context.Background()

	_, apierr := svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "1111"})
	require.Equal(t, apierror.PaymentVerificationFailed, apierr)
	purchase, err := s.f.purchases.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, entity.PurchasePending, purchase.Status)

	done, apierr := svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "4242"})
	require.Nil(t, apierr)
	require.Equal(t, "completed", done.Status)
	require.NotNil(t, done.CompletedAt)
	require.Equal(t, entity.PropertySold, s.f.propertyStatus(t, s.property.ID))

	_, apierr = svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "4242"})
	require.Equal(t, apierror.PurchaseNotPendingError, apierr)
}

func TestCompletePayment_Rejections(t *testing.T) {
	t.Parallel()
	s, winner, id := wonPurchase(t)
	svc := s.f.purchaseService()
	ctx := context.Background()

	stranger := s.bidder(t)
	_, apierr := svc.CompletePayment(ctx, stranger, id, &CompletePaymentRequest{LastFour: "4242"})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusNotFound, apierr.Code())

	_, apierr = svc.CompletePayment(ctx, winner, 999, &CompletePaymentRequest{LastFour: "4242"})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusNotFound, apierr.Code())

	_, apierr = svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "42a2"})
	require.NotNil(t, apierr)
	require.Equal(t, http.StatusBadRequest, apierr.Code())

	require.NoError(t, s.f.payments.Unverify(ctx, winner.UserID))
	_, apierr = svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "4242"})
	require.Equal(t, apierror.VerificationRequiredError, apierr)

	purchase, err := s.f.purchases.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, entity.PurchasePending, purchase.Status)
	require.Equal(t, entity.PropertyPending, s.f.propertyStatus(t, s.property.ID))
}

func TestCompletePayment_UsesLatestCard(t *testing.T) {
	t.Parallel()
	s, winner, id := wonPurchase(t)
	svc := s.f.purchaseService()
	ctx := context.Background()

	s.f.verify(t, winner, "4111 1111 1111 1111")

	_, apierr := svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "4242"})
	require.Equal(t, apierror.PaymentVerificationFailed, apierr)

	_, apierr = svc.CompletePayment(ctx, winner, id, &CompletePaymentRequest{LastFour: "1111"})
	require.Nil(t, apierr)
}

func TestGetPurchases(t *testing.T) {
	t.Parallel()
	s, winner, id := wonPurchase(t)
	svc := s.f.purchaseService()
	ctx := context.Background()

	own, apierr := svc.GetPurchases(ctx, winner)
	require.Nil(t, apierr)
	require.Len(t, own, 1)
	require.Equal(t, id, own[0].ID)
	require.Equal(t, s.property.Title, own[0].PropertyTitle)

	all, apierr := svc.GetPurchases(ctx, s.admin)
	require.Nil(t, apierr)
	require.Len(t, all, 1)

	none, apierr := svc.GetPurchases(ctx, s.f.user(t, entity.RoleClient))
	require.Nil(t, apierr)
	require.Empty(t, none)
}
