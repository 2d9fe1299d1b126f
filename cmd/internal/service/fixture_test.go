package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"estatehub/cmd/internal/auth"
	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/database/repository"
	"estatehub/cmd/internal/domain/entity"
	"estatehub/cmd/internal/events"
	"estatehub/cmd/internal/utils/validators"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// monday and tuesday lie far enough ahead never to count as past dates.
const (
	monday  = "2030-01-07"
	tuesday = "2030-01-08"
)

type fixture struct {
	db        *gorm.DB
	users     *repository.DefaultUserRepository
	props     *repository.DefaultPropertyRepository
	avail     *repository.DefaultAvailabilityRepository
	appts     *repository.DefaultAppointmentRepository
	auctions  *repository.DefaultAuctionRepository
	purchases *repository.DefaultPurchaseRepository
	payments  *repository.DefaultPaymentRepository
	messages  *repository.DefaultMessageRepository
	tx        *database.Transactor
	validate  *validator.Validate
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	return &fixture{
		db:        db,
		users:     repository.NewUserRepository(db),
		props:     repository.NewPropertyRepository(db),
		avail:     repository.NewAvailabilityRepository(db),
		appts:     repository.NewAppointmentRepository(db),
		auctions:  repository.NewAuctionRepository(db),
		purchases: repository.NewPurchaseRepository(db),
		payments:  repository.NewPaymentRepository(db),
		messages:  repository.NewMessageRepository(db),
		tx:        database.NewTransactor(db),
		validate:  validators.New(),
	}
}

func (f *fixture) user(t *testing.T, role entity.Role) *auth.Principal {
	t.Helper()
	f.seq++
	sub := fmt.Sprintf("sub-%d", f.seq)
	user := &entity.User{
		SubUUID:       sub,
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         sub + "@example.com",
		Role:          role,
		EmailVerified: true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return &auth.Principal{UserID: user.ID, Sub: sub, Role: role}
}

func (f *fixture) property(t *testing.T, agentID int) *entity.Property {
	t.Helper()
	property := &entity.Property{
		AgentID: agentID,
		Title:   "Riverside loft",
		Address: "12 Quay Street",
		City:    "Porto",
		Price:   decimal.NewFromInt(100000),
		Status:  entity.PropertyAvailable,
	}
	require.NoError(t, f.db.Omit(clause.Associations).Create(property).Error)
	return property
}

func (f *fixture) propertyStatus(t *testing.T, id int) entity.PropertyStatus {
	t.Helper()
	property, err := f.props.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, property)
	return property.Status
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) propertyService() *DefaultPropertyService {
	return NewPropertyService(f.props, f.users, f.validate)
}

func (f *fixture) availabilityService() *DefaultAvailabilityService {
	return NewAvailabilityService(f.avail, f.users, f.validate, SchedulingSettings{})
}

func (f *fixture) appointmentService() *DefaultAppointmentService {
	return NewAppointmentService(f.appts, f.avail, f.props, f.users, f.availabilityService(), f.tx, f.validate)
}

func (f *fixture) paymentService() *DefaultPaymentService {
	return NewPaymentService(f.payments, f.tx, f.validate)
}

func (f *fixture) purchaseService() *DefaultPurchaseService {
	return NewPurchaseService(f.purchases, f.payments, f.props, f.tx, f.validate)
}

func (f *fixture) auctionService(pub events.Publisher) *DefaultAuctionService {
	return NewAuctionService(f.auctions, f.props, f.purchases, f.payments, f.users, f.tx, pub, f.validate,
		AuctionSettings{BidRetries: 3, DefaultDuration: 7 * 24 * time.Hour})
}

func (f *fixture) messageService() *DefaultMessageService {
	return NewMessageService(f.messages, f.users, f.props, f.validate)
}

// verify registers a card for p so that it may bid and pay.
func (f *fixture) verify(t *testing.T, p *auth.Principal, card string) {
	t.Helper()
	_, apierr := f.paymentService().AddPaymentMethod(context.Background(), p, &AddPaymentMethodRequest{Type: "visa", CardNumber: card})
	require.Nil(t, apierr)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
