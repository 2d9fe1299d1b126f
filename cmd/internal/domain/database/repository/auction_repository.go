package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultAuctionRepository struct {
	db *gorm.DB
}

func NewAuctionRepository(db *gorm.DB) *DefaultAuctionRepository {
	return &DefaultAuctionRepository{db: db}
}

func (a *DefaultAuctionRepository) Create(ctx context.Context, auction *entity.Auction) error {
	return database.Conn(ctx, a.db).Omit(clause.Associations).Create(auction).Error
}

func (a *DefaultAuctionRepository) FindByID(ctx context.Context, id int) (*entity.Auction, error) {
	var auction entity.Auction
	err := database.Conn(ctx, a.db).Preload("Property").First(&auction, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &auction, err
}

// List returns auctions newest first; an empty status means every status.
func (a *DefaultAuctionRepository) List(ctx context.Context, status entity.AuctionStatus) ([]*entity.Auction, error) {
	query := database.Conn(ctx, a.db).Preload("Property")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var auctions []*entity.Auction
	err := query.Order("created_at desc, id desc").Find(&auctions).Error
	return auctions, err
}

func (a *DefaultAuctionRepository) ExistsActiveForProperty(ctx context.Context, propertyID int) (bool, error) {
	var count int64
	err := database.Conn(ctx, a.db).Model(&entity.Auction{}).
		Where("property_id = ? AND status = ?", propertyID, entity.AuctionActive).
		Count(&count).Error
	return count > 0, err
}

// UpdatePrice raises the current price only if it still equals expected and
// the auction is still active. Otherwise it returns ErrBidConflict.
func (a *DefaultAuctionRepository) UpdatePrice(ctx context.Context, id int, expected, amount decimal.Decimal, bidderID int) error {
	res := database.Conn(ctx, a.db).Model(&entity.Auction{}).
		Where("id = ? AND status = ? AND current_price = ?", id, entity.AuctionActive, expected).
		Updates(map[string]any{
			"current_price":     amount,
			"highest_bidder_id": bidderID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBidConflict
	}
	return nil
}

// Transition closes an active auction. ErrNotFound means it was no longer active.
func (a *DefaultAuctionRepository) Transition(ctx context.Context, id int, to entity.AuctionStatus, endsAt int64) error {
	res := database.Conn(ctx, a.db).Model(&entity.Auction{}).
		Where("id = ? AND status = ?", id, entity.AuctionActive).
		Updates(map[string]any{"status": to, "ends_at": endsAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *DefaultAuctionRepository) UpdateEndsAt(ctx context.Context, id int, endsAt int64) error {
	res := database.Conn(ctx, a.db).Model(&entity.Auction{}).
		Where("id = ? AND status = ?", id, entity.AuctionActive).
		Update("ends_at", endsAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddParticipant records the user as a participant; repeated joins are ignored.
func (a *DefaultAuctionRepository) AddParticipant(ctx context.Context, participant *entity.AuctionParticipant) error {
	return database.Conn(ctx, a.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(participant).Error
}

func (a *DefaultAuctionRepository) CountParticipants(ctx context.Context, auctionID int) (int64, error) {
	var count int64
	err := database.Conn(ctx, a.db).Model(&entity.AuctionParticipant{}).
		Where("auction_id = ?", auctionID).
		Count(&count).Error
	return count, err
}

func (a *DefaultAuctionRepository) CreateBid(ctx context.Context, bid *entity.Bid) error {
	return database.Conn(ctx, a.db).Omit(clause.Associations).Create(bid).Error
}

// TopBids returns the highest bids first, newest first among equal amounts.
func (a *DefaultAuctionRepository) TopBids(ctx context.Context, auctionID, limit int) ([]*entity.Bid, error) {
	var bids []*entity.Bid
	err := database.Conn(ctx, a.db).
		Preload("Bidder").
		Where("auction_id = ?", auctionID).
		Order("amount desc, created_at desc, id desc").
		Limit(limit).
		Find(&bids).Error
	return bids, err
}
