package service

import (
	"context"
	"encoding/json"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/utils"
	"estatehub/cmd/internal/utils/apierror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PropertyRepository interface {
	FindByID(ctx context.Context, id int) (*entity.Property, error)
	List(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, error)
	Save(ctx context.Context, property *entity.Property) error
	UpdateStatus(ctx context.Context, id int, status entity.PropertyStatus) error
}

type PropertyQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=available pending sold cancelled"`
	City     string `query:"city" validate:"max=80"`
	AgentID  int    `query:"agent_id" validate:"gte=0"`
	MinPrice string `query:"min_price" validate:"omitempty,numeric"`
	MaxPrice string `query:"max_price" validate:"omitempty,numeric"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

type CreatePropertyRequest struct {
	AgentID     int             `json:"agent_id" validate:"gte=0"`
	Title       string          `json:"title" validate:"required,max=160"`
	Description string          `json:"description" validate:"max=5000"`
	Address     string          `json:"address" validate:"required,max=255"`
	City        string          `json:"city" validate:"required,max=80"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,lt=1000000000000"`
	Bedrooms    int             `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms   int             `json:"bathrooms" validate:"gte=0,lte=100"`
	AreaSqFt    int             `json:"area_sqft" validate:"gte=0"`
	Images      []string        `json:"images" validate:"max=30,dive,url"`
}

type PropertyResponse struct {
	ID          int             `json:"id"`
	AgentID     int             `json:"agent_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	Price       decimal.Decimal `json:"price"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	AreaSqFt    int             `json:"area_sqft"`
	Images      []string        `json:"images"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type DefaultPropertyService struct {
	PropertyRepo PropertyRepository
	UserRepo     UserRepository
	Validate     *validator.Validate
}

func NewPropertyService(propertyRepo PropertyRepository, userRepo UserRepository, validate *validator.Validate) *DefaultPropertyService {
	return &DefaultPropertyService{PropertyRepo: propertyRepo, UserRepo: userRepo, Validate: validate}
}

func (p *DefaultPropertyService) ListProperties(ctx context.Context, query *PropertyQuery) ([]*PropertyResponse, apierror.ErrorResponse) {
	utils.Sanitize(query)
	if err := p.Validate.Struct(query); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	filter := entity.PropertyFilter{
		Status:  entity.PropertyStatus(query.Status),
		City:    query.City,
		AgentID: query.AgentID,
		Limit:   query.Limit,
		Offset:  query.Offset,
	}
	if query.MinPrice != "" {
		lo, err := decimal.NewFromString(query.MinPrice)
		if err != nil {
			return nil, apierror.NewInvalidParamTypeError("min_price", "decimal")
		}
		filter.MinPrice = &lo
	}
	if query.MaxPrice != "" {
		hi, err := decimal.NewFromString(query.MaxPrice)
		if err != nil {
			return nil, apierror.NewInvalidParamTypeError("max_price", "decimal")
		}
		filter.MaxPrice = &hi
	}

	properties, err := p.PropertyRepo.List(ctx, filter)
	if err != nil {
		log.Errorf("failed to list properties: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*PropertyResponse, len(properties))
	for i, property := range properties {
		resp[i] = toPropertyResponse(property)
	}
	return resp, nil
}

func (p *DefaultPropertyService) GetProperty(ctx context.Context, id int) (*PropertyResponse, apierror.ErrorResponse) {
	property, err := p.PropertyRepo.FindByID(ctx, id)
	if err != nil {
		log.Errorf("failed to fetch property by id %d: %v", id, err)
		return nil, apierror.InternalServerError
	}
	if property == nil {
		return nil, apierror.NotFoundError
	}
	return toPropertyResponse(property), nil
}

// CreateProperty lists a property. Agents list for themselves; admins must
// name the listing agent.
func (p *DefaultPropertyService) CreateProperty(ctx context.Context, caller *auth.Principal, req *CreatePropertyRequest) (*PropertyResponse, apierror.ErrorResponse) {
	if !caller.HasRole(entity.RoleAgent, entity.RoleAdmin) {
		return nil, apierror.ForbiddenError
	}

	utils.Sanitize(req)
	if err := p.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}
	if apierr := checkMoney("price", req.Price); apierr != nil {
		return nil, apierr
	}

	agentID := req.AgentID
	if caller.IsAgent() {
		agentID = caller.UserID
	} else if agentID == 0 {
		return nil, apierror.NewMissingParamError("agent_id")
	}

	agent, err := p.UserRepo.FindByID(ctx, agentID)
	if err != nil {
		log.Errorf("failed to fetch agent %d: %v", agentID, err)
		return nil, apierror.InternalServerError
	}
	if agent == nil || agent.Role != entity.RoleAgent {
		return nil, apierror.NotFound("Agent not found")
	}

	images, err := json.Marshal(nonNil(req.Images))
	if err != nil {
		log.Errorf("failed to encode property images: %v", err)
		return nil, apierror.InternalServerError
	}

	property := &entity.Property{
		AgentID:     agentID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		AreaSqFt:    req.AreaSqFt,
		Images:      datatypes.JSON(images),
		Status:      entity.PropertyAvailable,
	}

	if err := p.PropertyRepo.Save(ctx, property); err != nil {
		log.Errorf("failed to save property: %v", err)
		return nil, apierror.InternalServerError
	}
	return toPropertyResponse(property), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toPropertyResponse(property *entity.Property) *PropertyResponse {
	var images []string
	if len(property.Images) > 0 {
		if err := json.Unmarshal(property.Images, &images); err != nil {
			log.Warnf("property %d has malformed images: %v", property.ID, err)
		}
	}

	return &PropertyResponse{
		ID:          property.ID,
		AgentID:     property.AgentID,
		Title:       property.Title,
		Description: property.Description,
		Address:     property.Address,
		City:        property.City,
		Price:       property.Price,
		Bedrooms:    property.Bedrooms,
		Bathrooms:   property.Bathrooms,
		AreaSqFt:    property.AreaSqFt,
		Images:      nonNil(images),
		Status:      string(property.Status),
		CreatedAt:   utils.FormatEpoch(property.CreatedAt),
		UpdatedAt:   utils.FormatEpoch(property.UpdatedAt),
	}
}
