package routes

import (
	"context"
	"net/http"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/service"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/labstack/echo/v4"
)

type AuctionService interface {
	ListAuctions(ctx context.Context, query *service.AuctionQuery) ([]*service.AuctionResponse, apierror.ErrorResponse)
	GetAuction(ctx context.Context, id int) (*service.AuctionResponse, apierror.ErrorResponse)
	CreateAuction(ctx context.Context, caller *auth.Principal, req *service.CreateAuctionRequest) (*service.AuctionResponse, apierror.ErrorResponse)
	PlaceBid(ctx context.Context, caller *auth.Principal, auctionID int, req *service.BidRequest) (*service.BidResponse, apierror.ErrorResponse)
	GetBids(ctx context.Context, auctionID int) ([]*service.BidResponse, apierror.ErrorResponse)
	EndAuction(ctx context.Context, caller *auth.Principal, id int) (*service.AuctionResponse, apierror.ErrorResponse)
	CancelAuction(ctx context.Context, caller *auth.Principal, id int) (*service.AuctionResponse, apierror.ErrorResponse)
	ExtendAuction(ctx context.Context, caller *auth.Principal, id int) (*service.AuctionResponse, apierror.ErrorResponse)
}

type DefaultAuctionRoute struct {
	AuctionService AuctionService
}

func NewAuctionDefault(auctionService AuctionService) *DefaultAuctionRoute {
	return &DefaultAuctionRoute{AuctionService: auctionService}
}

func (a *DefaultAuctionRoute) ListAuctions(c echo.Context) error {
	query := service.AuctionQuery{Status: c.QueryParam("status")}

	auctions, apierr := a.AuctionService.ListAuctions(c.Request().Context(), &query)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"auctions": auctions})
}

func (a *DefaultAuctionRoute) GetAuction(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}

	auction, apierr := a.AuctionService.GetAuction(c.Request().Context(), id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, auction)
}

func (a *DefaultAuctionRoute) CreateAuction(c echo.Context) error {
	var req service.CreateAuctionRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	auction, apierr := a.AuctionService.CreateAuction(c.Request().Context(), caller, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, auction)
}

func (a *DefaultAuctionRoute) PlaceBid(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	var req service.BidRequest
	if apierr := bind(c, &req); apierr != nil {
		return fail(c, apierr)
	}

	bid, apierr := a.AuctionService.PlaceBid(c.Request().Context(), caller, id, &req)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusCreated, bid)
}

func (a *DefaultAuctionRoute) GetBids(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}

	bids, apierr := a.AuctionService.GetBids(c.Request().Context(), id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, echo.Map{"bids": bids})
}

func (a *DefaultAuctionRoute) EndAuction(c echo.Context) error {
	return a.lifecycle(c, a.AuctionService.EndAuction)
}

func (a *DefaultAuctionRoute) CancelAuction(c echo.Context) error {
	return a.lifecycle(c, a.AuctionService.CancelAuction)
}

func (a *DefaultAuctionRoute) ExtendAuction(c echo.Context) error {
	return a.lifecycle(c, a.AuctionService.ExtendAuction)
}

type auctionTransition func(ctx context.Context, caller *auth.Principal, id int) (*service.AuctionResponse, apierror.ErrorResponse)

func (a *DefaultAuctionRoute) lifecycle(c echo.Context, apply auctionTransition) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return fail(c, apierr)
	}
	caller, apierr := principal(c)
	if apierr != nil {
		return fail(c, apierr)
	}

	auction, apierr := apply(c.Request().Context(), caller, id)
	if apierr != nil {
		return fail(c, apierr)
	}
	return respond(c, http.StatusOK, auction)
}
