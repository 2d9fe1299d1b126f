package service

import (
	"context"
	"errors"
	"time"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/events"
	"estatehub/cmd/internal/monitoring"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

const (
	topBidsLimit       = 10
	extendByPeriod     = 24 * time.Hour
	maxAuctionDuration = 2160 * time.Hour
)

type AuctionRepository interface {
	Create(ctx context.Context, auction *entity.Auction) error
	FindByID(ctx context.Context, id int) (*entity.Auction, error)
	List(ctx context.Context, status entity.AuctionStatus) ([]*entity.Auction, error)
	ExistsActiveForProperty(ctx context.Context, propertyID int) (bool, error)
	UpdatePrice(ctx context.Context, id int, expected, amount decimal.Decimal, bidderID int) error
	Transition(ctx context.Context, id int, to entity.AuctionStatus, endsAt int64) error
	UpdateEndsAt(ctx context.Context, id int, endsAt int64) error
	AddParticipant(ctx context.Context, participant *entity.AuctionParticipant) error
	CountParticipants(ctx context.Context, auctionID int) (int64, error)
	CreateBid(ctx context.Context, bid *entity.Bid) error
	TopBids(ctx context.Context, auctionID, limit int) ([]*entity.Bid, error)
}

type AuctionSettings struct {
	// BidRetries bounds how often a bid is retried after losing a price race.
	BidRetries      int
	DefaultDuration time.Duration
}

type CreateAuctionRequest struct {
	PropertyID    int             `json:"property_id" validate:"required,gt=0"`
	StartingPrice decimal.Decimal `json:"starting_price" validate:"gt=0,lt=1000000000000"`
	DurationHours int             `json:"duration_hours" validate:"gte=0,lte=2160"`
	EndsAt        string          `json:"ends_at" validate:"omitempty,iso8601,excluded_with=DurationHours"`
}

type AuctionQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=active ended cancelled"`
}

type BidRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0,lt=1000000000000"`
}

type AuctionResponse struct {
	ID              int             `json:"id"`
	PropertyID      int             `json:"property_id"`
	PropertyTitle   string          `json:"property_title"`
	StartingPrice   decimal.Decimal `json:"starting_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	HighestBidderID *int            `json:"highest_bidder_id"`
	Status          string          `json:"status"`
	StartsAt        string          `json:"starts_at"`
	EndsAt          string          `json:"ends_at"`
	Participants    *int64          `json:"participants,omitempty"`
	PurchaseID      *int            `json:"purchase_id,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type BidResponse struct {
	ID        int             `json:"id"`
	AuctionID int             `json:"auction_id"`
	Amount    decimal.Decimal `json:"amount"`
	Bidder    string          `json:"bidder"`
	CreatedAt string          `json:"created_at"`
}

type DefaultAuctionService struct {
	AuctionRepo  AuctionRepository
	PropertyRepo PropertyRepository
	PurchaseRepo PurchaseRepository
	PaymentRepo  PaymentRepository
	UserRepo     UserRepository
	Tx           Transactor
	Publisher    events.Publisher
	Validate     *validator.Validate
	Settings     AuctionSettings
}

func NewAuctionService(
	auctionRepo AuctionRepository,
	propertyRepo PropertyRepository,
	purchaseRepo PurchaseRepository,
	paymentRepo PaymentRepository,
	userRepo UserRepository,
	tx Transactor,
	publisher events.Publisher,
	validate *validator.Validate,
	settings AuctionSettings,
) *DefaultAuctionService {
	return &DefaultAuctionService{
		AuctionRepo:  auctionRepo,
		PropertyRepo: propertyRepo,
		PurchaseRepo: purchaseRepo,
		PaymentRepo:  paymentRepo,
		UserRepo:     userRepo,
		Tx:           tx,
		Publisher:    publisher,
		Validate:     validate,
		Settings:     settings,
	}
}

func (a *DefaultAuctionService) ListAuctions(ctx context.Context, query *AuctionQuery) ([]*AuctionResponse, apierror.ErrorResponse) {
	if err := a.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	auctions, err := a.AuctionRepo.List(ctx, entity.AuctionStatus(query.Status))
	if err != nil {
		log.Errorf("failed to list auctions: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*AuctionResponse, len(auctions))
	for i, auction := range auctions {
		resp[i] = toAuctionResponse(auction)
	}
	return resp, nil
}

func (a *DefaultAuctionService) GetAuction(ctx context.Context, id int) (*AuctionResponse, apierror.ErrorResponse) {
	auction, apierr := a.findAuction(ctx, id)
	if apierr != nil {
		return nil, apierr
	}

	count, err := a.AuctionRepo.CountParticipants(ctx, id)
	if err != nil {
		log.Errorf("failed to count participants of auction %d: %v", id, err)
		return nil, apierror.InternalServerError
	}

	resp := toAuctionResponse(auction)
	resp.Participants = &count
	return resp, nil
}

// CreateAuction opens an auction on an available property that has no
// active auction yet. The current price starts at the starting price.
func (a *DefaultAuctionService) CreateAuction(ctx context.Context, caller *auth.Principal, req *CreateAuctionRequest) (*AuctionResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	if apierr := checkMoney("starting_price", req.StartingPrice); apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	endsAt, apierr := a.endsAt(req, now)
	if apierr != nil {
		return nil, apierr
	}

	var auction *entity.Auction
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		property, err := a.PropertyRepo.FindByID(ctx, req.PropertyID)
		if err != nil {
			return err
		}
		if property == nil {
			return apierror.NotFound("Property not found")
		}
		if property.Status != entity.PropertyAvailable {
			return apierror.PropertyNotAvailableError
		}

		running, err := a.AuctionRepo.ExistsActiveForProperty(ctx, property.ID)
		if err != nil {
			return err
		}
		if running {
			return apierror.AuctionAlreadyRunningError
		}

		auction = &entity.Auction{
			PropertyID:    property.ID,
			StartingPrice: req.StartingPrice,
			CurrentPrice:  req.StartingPrice,
			Status:        entity.AuctionActive,
			StartsAt:      now,
			EndsAt:        endsAt,
		}
		if err := a.AuctionRepo.Create(ctx, auction); err != nil {
			return err
		}
		auction.Property = *property
		return nil
	})

	if apierr := fromTx(err, "failed to create auction for property %d", req.PropertyID); apierr != nil {
		return nil, apierr
	}
	return toAuctionResponse(auction), nil
}

// endsAt resolves the closing time: an explicit RFC 3339 ends_at, else
// duration_hours, else the configured default.
func (a *DefaultAuctionService) endsAt(req *CreateAuctionRequest, now int64) (int64, apierror.ErrorResponse) {
	if req.EndsAt == "" {
		duration := a.Settings.DefaultDuration
		if req.DurationHours > 0 {
			duration = time.Duration(req.DurationHours) * time.Hour
		}
		return now + duration.Milliseconds(), nil
	}

	endsAt, err := utils.FromEpoch(req.EndsAt)
	if err != nil {
		return 0, apierror.NewInvalidParamTypeError("ends_at", "RFC 3339 timestamp")
	}
	if endsAt <= now || endsAt-now > maxAuctionDuration.Milliseconds() {
		return 0, apierror.AuctionEndsAtError
	}
	return endsAt, nil
}

// PlaceBid accepts a bid strictly above the current price. The price update
// is conditional on the price read in the same transaction; losing that race
// rolls the attempt back and retries it against fresh state.
func (a *DefaultAuctionService) PlaceBid(ctx context.Context, caller *auth.Principal, auctionID int, req *BidRequest) (*BidResponse, apierror.ErrorResponse) {
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	if apierr := checkMoney("amount", req.Amount); apierr != nil {
		return nil, apierr
	}

	bidder, err := a.UserRepo.FindByID(ctx, caller.UserID)
	if err != nil {
		log.Errorf("failed to fetch bidder %d: %v", caller.UserID, err)
		return nil, apierror.InternalServerError
	}
	if bidder == nil {
		return nil, apierror.UnknownUserError
	}

	var (
		bid     *entity.Bid
		auction *entity.Auction
	)
	for attempt := 0; ; attempt++ {
		err = a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			auction, bid, err = a.bid(ctx, caller.UserID, auctionID, req.Amount)
			return err
		})
		if !errors.Is(err, repository.ErrBidConflict) {
			break
		}
		if attempt >= a.Settings.BidRetries {
			monitoring.RecordBid("contention")
			return nil, apierror.BidContentionError
		}
		monitoring.RecordBidRetry()
	}

	if apierr := fromTx(err, "failed to place bid on auction %d", auctionID); apierr != nil {
		monitoring.RecordBid(outcome(apierr))
		return nil, apierr
	}
	monitoring.RecordBid("accepted")

	publish(ctx, a.Publisher, events.Event{
		Type:         events.BidPlaced,
		AuctionID:    auctionID,
		CurrentPrice: bid.Amount.String(),
		Bidder:       bidder.DisplayName(),
		EndsAt:       utils.FormatEpoch(auction.EndsAt),
	})

	bid.Bidder = *bidder
	return toBidResponse(bid), nil
}

// bid runs one check-then-write attempt. Checks run in a fixed order and the
// first failure wins.
func (a *DefaultAuctionService) bid(ctx context.Context, bidderID, auctionID int, amount decimal.Decimal) (*entity.Auction, *entity.Bid, error) {
	instrument, err := a.PaymentRepo.FindVerified(ctx, bidderID)
	if err != nil {
		return nil, nil, err
	}
	if instrument == nil {
		return nil, nil, apierror.VerificationRequiredError
	}

	auction, err := a.AuctionRepo.FindByID(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	if auction == nil {
		return nil, nil, apierror.NotFound("Auction not found")
	}
	if auction.Status != entity.AuctionActive {
		return nil, nil, apierror.AuctionNotActiveError
	}
	if !amount.GreaterThan(auction.CurrentPrice) {
		return nil, nil, apierror.BidTooLowError
	}

	participant := &entity.AuctionParticipant{AuctionID: auctionID, UserID: bidderID, JoinedAt: utils.NowUTC()}
	if err := a.AuctionRepo.AddParticipant(ctx, participant); err != nil {
		return nil, nil, err
	}

	bid := &entity.Bid{AuctionID: auctionID, UserID: bidderID, Amount: amount}
	if err := a.AuctionRepo.CreateBid(ctx, bid); err != nil {
		return nil, nil, err
	}

	if err := a.AuctionRepo.UpdatePrice(ctx, auctionID, auction.CurrentPrice, amount, bidderID); err != nil {
		return nil, nil, err
	}
	auction.CurrentPrice = amount
	auction.HighestBidderID = &bidderID
	return auction, bid, nil
}

func (a *DefaultAuctionService) GetBids(ctx context.Context, auctionID int) ([]*BidResponse, apierror.ErrorResponse) {
	if _, apierr := a.findAuction(ctx, auctionID); apierr != nil {
		return nil, apierr
	}

	bids, err := a.AuctionRepo.TopBids(ctx, auctionID, topBidsLimit)
	if err != nil {
		log.Errorf("failed to fetch bids of auction %d: %v", auctionID, err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*BidResponse, len(bids))
	for i, bid := range bids {
		resp[i] = toBidResponse(bid)
	}
	return resp, nil
}

// EndAuction closes an active auction. A highest bidder gets a pending
// purchase at the final price and the property goes pending; without bids the
// property stays available.
func (a *DefaultAuctionService) EndAuction(ctx context.Context, caller *auth.Principal, id int) (*AuctionResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}

	var (
		auction  *entity.Auction
		purchase *entity.Purchase
	)
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if auction, err = a.activeAuction(ctx, id); err != nil {
			return err
		}

		if auction.HighestBidderID != nil {
			purchase = &entity.Purchase{
				UserID:        *auction.HighestBidderID,
				PropertyID:    auction.PropertyID,
				AuctionID:     &auction.ID,
				PurchasePrice: auction.CurrentPrice,
				Status:        entity.PurchasePending,
			}
			if err := a.PurchaseRepo.Create(ctx, purchase); err != nil {
				return err
			}
			if err := a.PropertyRepo.UpdateStatus(ctx, auction.PropertyID, entity.PropertyPending); err != nil {
				return err
			}
			auction.Property.Status = entity.PropertyPending
		}

		return a.transition(ctx, auction, entity.AuctionEnded)
	})

	if apierr := fromTx(err, "failed to end auction %d", id); apierr != nil {
		return nil, apierr
	}
	monitoring.RecordAuctionTransition(string(entity.AuctionEnded))

	resp := toAuctionResponse(auction)
	ev := events.Event{Type: events.AuctionEnded, AuctionID: id, CurrentPrice: auction.CurrentPrice.String(), EndsAt: resp.EndsAt}
	if purchase != nil {
		resp.PurchaseID = &purchase.ID
		ev.PurchaseID = &purchase.ID
	}
	publish(ctx, a.Publisher, ev)
	return resp, nil
}

// CancelAuction closes an active auction without a sale and releases the
// property.
func (a *DefaultAuctionService) CancelAuction(ctx context.Context, caller *auth.Principal, id int) (*AuctionResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}

	var auction *entity.Auction
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if auction, err = a.activeAuction(ctx, id); err != nil {
			return err
		}
		if err := a.PropertyRepo.UpdateStatus(ctx, auction.PropertyID, entity.PropertyAvailable); err != nil {
			return err
		}
		auction.Property.Status = entity.PropertyAvailable
		return a.transition(ctx, auction, entity.AuctionCancelled)
	})

	if apierr := fromTx(err, "failed to cancel auction %d", id); apierr != nil {
		return nil, apierr
	}
	monitoring.RecordAuctionTransition(string(entity.AuctionCancelled))

	resp := toAuctionResponse(auction)
	publish(ctx, a.Publisher, events.Event{Type: events.AuctionCancelled, AuctionID: id, EndsAt: resp.EndsAt})
	return resp, nil
}

// ExtendAuction pushes the end of an active auction to 24 hours past the
// later of its current end and now.
func (a *DefaultAuctionService) ExtendAuction(ctx context.Context, caller *auth.Principal, id int) (*AuctionResponse, apierror.ErrorResponse) {
	if apierr := requireAdmin(caller); apierr != nil {
		return nil, apierr
	}

	var auction *entity.Auction
	err := a.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if auction, err = a.activeAuction(ctx, id); err != nil {
			return err
		}

		endsAt := max(auction.EndsAt, utils.NowUTC()) + extendByPeriod.Milliseconds()
		err = a.AuctionRepo.UpdateEndsAt(ctx, id, endsAt)
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.AuctionNotActiveError
		}
		if err != nil {
			return err
		}
		auction.EndsAt = endsAt
		return nil
	})

	if apierr := fromTx(err, "failed to extend auction %d", id); apierr != nil {
		return nil, apierr
	}
	monitoring.RecordAuctionTransition("extended")

	resp := toAuctionResponse(auction)
	publish(ctx, a.Publisher, events.Event{
		Type:         events.AuctionExtended,
		AuctionID:    id,
		CurrentPrice: auction.CurrentPrice.String(),
		EndsAt:       resp.EndsAt,
	})
	return resp, nil
}

func (a *DefaultAuctionService) activeAuction(ctx context.Context, id int) (*entity.Auction, error) {
	auction, err := a.AuctionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, apierror.NotFound("Auction not found")
	}
	if auction.Status != entity.AuctionActive {
		return nil, apierror.AuctionNotActiveError
	}
	return auction, nil
}

func (a *DefaultAuctionService) transition(ctx context.Context, auction *entity.Auction, to entity.AuctionStatus) error {
	now := utils.NowUTC()
	err := a.AuctionRepo.Transition(ctx, auction.ID, to, now)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.AuctionNotActiveError
	}
	if err != nil {
		return err
	}
	auction.Status = to
	auction.EndsAt = now
	return nil
}

func (a *DefaultAuctionService) findAuction(ctx context.Context, id int) (*entity.Auction, apierror.ErrorResponse) {
	auction, err := a.AuctionRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch auction %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if auction == nil {
		return nil, apierror.NotFound("Auction not found")
	}
	return auction, nil
}

func toAuctionResponse(auction *entity.Auction) *AuctionResponse {
	return &AuctionResponse{
		ID:              auction.ID,
		PropertyID:      auction.PropertyID,
		PropertyTitle:   auction.Property.Title,
		StartingPrice:   auction.StartingPrice,
		CurrentPrice:    auction.CurrentPrice,
		HighestBidderID: auction.HighestBidderID,
		Status:          string(auction.Status),
		StartsAt:        utils.FormatEpoch(auction.StartsAt),
		EndsAt:          utils.FormatEpoch(auction.EndsAt),
		CreatedAt:       utils.FormatEpoch(auction.CreatedAt),
	}
}

func toBidResponse(bid *entity.Bid) *BidResponse {
	return &BidResponse{
		ID:        bid.ID,
		AuctionID: bid.AuctionID,
		Amount:    bid.Amount,
		Bidder:    bid.Bidder.DisplayName(),
		CreatedAt: utils.FormatEpoch(bid.CreatedAt),
	}
}
