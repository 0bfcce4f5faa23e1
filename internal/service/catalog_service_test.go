package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/internal/domain"
	"tourbook/internal/logger"
)

type fakeUploader struct {
	n   int
	err error
}

func (u *fakeUploader) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	u.n++
	return "https://cdn.test/" + folder + "/" + publicID + ".jpg", nil
}

func newCatalog(t *testing.T, env *testEnv) (*CatalogService, *fakeUploader, *fakeAssets) {
	t.Helper()
	up, assets := &fakeUploader{}, &fakeAssets{}
	log := logger.Discard()
	return NewCatalogService(env.store, up, NewCompensator(assets, log), "tourbook", log), up, assets
}

func testImage() *ImageUpload {
	return &ImageUpload{File: strings.NewReader("jpeg bytes"), Filename: "a.jpg"}
}

func TestCatalogRequiresStaff(t *testing.T) {
	env := newTestEnv(t, false)
	cat, _, _ := newCatalog(t, env)
	ctx := context.Background()

	_, err := cat.CreateTour(ctx, env.customerActor(), TourInput{Title: strPtr("Safari")}, nil)
	requireKind(t, err, "FORBIDDEN")
	_, err = cat.CreateHotel(ctx, env.customerActor(), HotelInput{Name: strPtr("Inn")}, nil)
	requireKind(t, err, "FORBIDDEN")
	err = cat.DeleteFlight(ctx, env.customerActor(), 1)
	requireKind(t, err, "FORBIDDEN")
}

func TestTourImageReplacementDiscardsOldImage(t *testing.T) {
	env := newTestEnv(t, false)
	cat, up, assets := newCatalog(t, env)
	ctx := context.Background()

	tour, err := cat.CreateTour(ctx, env.adminActor(), TourInput{Title: strPtr("Safari"), Destination: strPtr("Mara"), Price: floatPtr(120), MaxGuests: intPtr(8)}, testImage())
	require.NoError(t, err)
	first := tour.ImageURL
	assert.True(t, strings.HasPrefix(first, "https://cdn.test/tourbook/tours/"))

	tour, err = cat.UpdateTour(ctx, env.adminActor(), tour.ID, TourInput{Price: floatPtr(150)}, testImage())
	require.NoError(t, err)
	assert.NotEqual(t, first, tour.ImageURL)
	assert.Equal(t, 150.0, tour.Price)
	assert.Equal(t, []string{first}, assets.deleted)
	assert.Equal(t, 2, up.n)

	require.NoError(t, cat.DeleteTour(ctx, env.adminActor(), tour.ID))
	assert.Equal(t, []string{first, tour.ImageURL}, assets.deleted)
	_, err = cat.GetTour(ctx, tour.ID)
	requireKind(t, err, "TOUR_NOT_FOUND")
}

func TestTourValidationSkipsUpload(t *testing.T) {
	env := newTestEnv(t, false)
	cat, up, _ := newCatalog(t, env)
	ctx := context.Background()

	_, err := cat.CreateTour(ctx, env.adminActor(), TourInput{Title: strPtr("  ")}, testImage())
	requireKind(t, err, "INVALID_TITLE")
	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = cat.CreateTour(ctx, env.adminActor(), TourInput{Title: strPtr("x"), StartDate: &start, EndDate: &end}, testImage())
	requireKind(t, err, "INVALID_DATES")
	assert.Zero(t, up.n)

	up.err = errors.New("cdn down")
	_, err = cat.CreateTour(ctx, env.adminActor(), TourInput{Title: strPtr("x")}, testImage())
	requireKind(t, err, "IMAGE_UPLOAD_FAILED")
}

func TestDeleteTourWithBookingsIsRejected(t *testing.T) {
	env := newTestEnv(t, false)
	cat, _, _ := newCatalog(t, env)
	env.seedTour(t, 5, 200, 10)
	ctx := context.Background()
	_, err := env.bookings.CreateBooking(ctx, env.customerActor(), CreateBookingInput{TourID: uintPtr(5)})
	require.NoError(t, err)

	err = cat.DeleteTour(ctx, env.adminActor(), 5)
	requireKind(t, err, "TOUR_HAS_BOOKINGS")

	_, err = cat.UpdateTour(ctx, env.adminActor(), 5, TourInput{MaxGuests: intPtr(0)}, nil)
	require.NoError(t, err)
}

func TestHotelRoomsLifecycle(t *testing.T) {
	env := newTestEnv(t, false)
	cat, _, _ := newCatalog(t, env)
	ctx := context.Background()

	h, err := cat.CreateHotel(ctx, env.adminActor(), HotelInput{Name: strPtr("Lakeside"), Location: strPtr("Kisumu"), Rating: floatPtr(4.5)}, nil)
	require.NoError(t, err)
	_, err = cat.CreateHotel(ctx, env.adminActor(), HotelInput{Name: strPtr("Bad"), Rating: floatPtr(6)}, nil)
	requireKind(t, err, "INVALID_RATING")

	_, err = cat.CreateRoom(ctx, env.adminActor(), 999, RoomInput{RoomType: strPtr("single"), Capacity: intPtr(1)})
	requireKind(t, err, "HOTEL_NOT_FOUND")

	r, err := cat.CreateRoom(ctx, env.adminActor(), h.ID, RoomInput{RoomType: strPtr("single"), Price: floatPtr(60), Capacity: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, "SINGLE", r.RoomType)
	assert.True(t, r.Available)

	_, err = env.bookings.CreateBooking(ctx, env.customerActor(), CreateBookingInput{RoomID: &r.ID})
	require.NoError(t, err)

	avail, err := cat.ListRooms(ctx, h.ID, true)
	require.NoError(t, err)
	assert.Empty(t, avail)
	all, err := cat.ListRooms(ctx, h.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = cat.DeleteRoom(ctx, env.adminActor(), r.ID)
	requireKind(t, err, "ROOM_HAS_BOOKINGS")
	err = cat.DeleteHotel(ctx, env.adminActor(), h.ID)
	requireKind(t, err, "HOTEL_HAS_BOOKINGS")
}

func TestFlightCapacityKeepsSoldSeats(t *testing.T) {
	env := newTestEnv(t, false)
	cat, _, _ := newCatalog(t, env)
	ctx := context.Background()
	dep := time.Now().Add(24 * time.Hour)
	in := FlightInput{
		Airline:       strPtr("Test Air"),
		FlightNumber:  strPtr("ta200"),
		Origin:        strPtr("NBO"),
		Destination:   strPtr("ACC"),
		DepartureTime: &dep,
		ArrivalTime:   timePtr(dep.Add(6 * time.Hour)),
		Price:         floatPtr(400),
		Capacity:      intPtr(3),
	}
	f, err := cat.CreateFlight(ctx, env.adminActor(), in)
	require.NoError(t, err)
	assert.Equal(t, "TA200", f.FlightNumber)
	assert.Equal(t, 3, f.SeatsAvailable)

	_, err = cat.CreateFlight(ctx, env.adminActor(), in)
	requireKind(t, err, "FLIGHT_NUMBER_EXISTS")

	_, err = env.bookings.CreateBooking(ctx, env.customerActor(), CreateBookingInput{FlightID: &f.ID})
	require.NoError(t, err)

	f, err = cat.UpdateFlight(ctx, env.adminActor(), f.ID, FlightInput{Capacity: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 4, f.SeatsAvailable)

	_, err = cat.UpdateFlight(ctx, env.adminActor(), f.ID, FlightInput{ArrivalTime: &dep})
	requireKind(t, err, "INVALID_SCHEDULE")
}

func timePtr(v time.Time) *time.Time { return &v }

func TestActorAccess(t *testing.T) {
	assert.False(t, Actor{}.Authenticated())
	assert.True(t, Actor{UserID: 1, Role: domain.RoleAgent}.IsStaff())
	assert.False(t, Actor{UserID: 1, Role: domain.RoleAgent}.IsAdmin())
	assert.True(t, Actor{UserID: 1, Role: domain.RoleCustomer}.CanAccess(1))
	assert.False(t, Actor{UserID: 1, Role: domain.RoleCustomer}.CanAccess(2))
	assert.True(t, Actor{UserID: 1, Role: domain.RoleAdmin}.CanAccess(2))
}
