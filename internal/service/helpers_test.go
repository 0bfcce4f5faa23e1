package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tourbook/config"
	"tourbook/internal/database"
	"tourbook/internal/domain"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/pkg/lock"
	"tourbook/pkg/payment"
	"tourbook/pkg/queue"
)

const testWebhookSecret = "sk_test_webhook"

// fakeGateway records calls and answers Verify from a per-reference table.
type fakeGateway struct {
	mu            sync.Mutex
	nextRef       string
	initErr       error
	verifyErr     error
	verifications map[string]*payment.Verification
	initCalls     int
	verifyCalls   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{verifications: make(map[string]*payment.Verification)}
}

func (g *fakeGateway) Initialize(_ context.Context, req payment.InitializeRequest) (*payment.Initialization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	ref := req.Reference
	if g.nextRef != "" {
		ref, g.nextRef = g.nextRef, ""
	}
	g.verifications[ref] = &payment.Verification{
		Status:      payment.StatusSuccess,
		Reference:   ref,
		Amount:      payment.FromMinor(payment.ToMinor(req.Amount)),
		AmountMinor: payment.ToMinor(req.Amount),
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}
	return &payment.Initialization{AuthorizationURL: "https://checkout.test/" + ref, AccessCode: "ac_" + ref, Reference: ref}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*payment.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	v, ok := g.verifications[reference]
	if !ok {
		return nil, &payment.GatewayError{Op: "verify", StatusCode: 404, Message: "not found"}
	}
	cp := *v
	return &cp, nil
}

func (g *fakeGateway) VerifySignature(rawBody []byte, signature string) bool {
	return payment.ValidSignature(rawBody, signature, testWebhookSecret)
}

// setProviderResult overrides what Verify reports for reference.
func (g *fakeGateway) setProviderResult(reference, status string, amountMinor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifications[reference] = &payment.Verification{
		Status:      status,
		Reference:   reference,
		Amount:      payment.FromMinor(amountMinor),
		AmountMinor: amountMinor,
		Currency:    "NGN",
	}
}

type recordingPusher struct {
	mu   sync.Mutex
	sent map[uint]int
}

func (p *recordingPusher) SendToUser(userID uint, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = make(map[uint]int)
	}
	p.sent[userID]++
}

type testEnv struct {
	store    *repository.Store
	gateway  *fakeGateway
	events   *queue.Recorder
	pusher   *recordingPusher
	bookings *BookingService
	payments *PaymentService
	notifier *NotificationService

	customer models.User
	other    models.User
	admin    models.User
}

func (e *testEnv) customerActor() Actor { return Actor{UserID: e.customer.ID, Role: domain.RoleCustomer} }
func (e *testEnv) otherActor() Actor    { return Actor{UserID: e.other.ID, Role: domain.RoleCustomer} }
func (e *testEnv) adminActor() Actor    { return Actor{UserID: e.admin.ID, Role: domain.RoleAdmin} }

func newTestEnv(t *testing.T, enforceTourCapacity bool) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log := logger.Discard()
	store := repository.NewStore(db)
	env := &testEnv{
		store:   store,
		gateway: newFakeGateway(),
		events:  &queue.Recorder{},
		pusher:  &recordingPusher{},
	}
	env.notifier = NewNotificationService(store, env.pusher, env.events, log)
	env.bookings = NewBookingService(store, NewInventoryGuard(enforceTourCapacity), env.notifier, log)
	env.payments = NewPaymentService(config.PaystackConfig{Currency: "NGN", CallbackURL: "http://localhost/cb", Timeout: time.Second},
		store, env.gateway, env.bookings, lock.NewLocal(), env.notifier, log)

	env.customer = models.User{Name: "Jane", Email: "jane@example.com", Role: domain.RoleCustomer}
	env.other = models.User{Name: "Joe", Email: "joe@example.com", Role: domain.RoleCustomer}
	env.admin = models.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}
	for _, u := range []*models.User{&env.customer, &env.other, &env.admin} {
		require.NoError(t, store.Users.Create(u))
	}
	return env
}

func (e *testEnv) seedTour(t *testing.T, id uint, price float64, maxGuests int) *models.Tour {
	t.Helper()
	tour := &models.Tour{ID: id, Title: "Safari", Destination: "Serengeti", Price: price, MaxGuests: maxGuests}
	require.NoError(t, e.store.Tours.Create(tour))
	return tour
}

func (e *testEnv) seedRoom(t *testing.T, available bool) *models.Room {
	t.Helper()
	h := &models.Hotel{Name: "Lakeside", Location: "Kisumu"}
	require.NoError(t, e.store.Hotels.Create(h))
	r := &models.Room{HotelID: h.ID, RoomType: "DOUBLE", Price: 80, Capacity: 2, Available: available}
	require.NoError(t, e.store.Rooms.Create(r))
	return r
}

func (e *testEnv) seedFlight(t *testing.T, seats int) *models.Flight {
	t.Helper()
	dep := time.Now().Add(48 * time.Hour)
	f := &models.Flight{
		Airline: "Test Air", FlightNumber: "TA100", Origin: "NBO", Destination: "LOS",
		DepartureTime: dep, ArrivalTime: dep.Add(5 * time.Hour), Price: 350, Capacity: seats, SeatsAvailable: seats,
	}
	require.NoError(t, e.store.Flights.Create(f))
	return f
}

func (e *testEnv) payment(t *testing.T, id uint) *models.Payment {
	t.Helper()
	p, err := e.store.Payments.GetByID(id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) booking(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := e.store.Bookings.Get(id)
	require.NoError(t, err)
	return b
}

func uintPtr(v uint) *uint        { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
func intPtr(v int) *int           { return &v }

func requireKind(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, err.Error())
}
