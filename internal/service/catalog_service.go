package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImageUploader stores catalog images and returns their public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (string, error)
}

// ImageUpload is an image attached to a catalog write.
type ImageUpload struct {
	File     io.Reader
	Filename string
}

type CatalogService struct {
	store  *repository.Store
	images ImageUploader
	comp   *Compensator
	folder string
	log    *logrus.Logger
}

func NewCatalogService(store *repository.Store, images ImageUploader, comp *Compensator, folder string, log *logrus.Logger) *CatalogService {
	return &CatalogService{store: store, images: images, comp: comp, folder: folder, log: log}
}

func (s *CatalogService) upload(ctx context.Context, img *ImageUpload, kind string) (string, error) {
	if img == nil || img.File == nil {
		return "", nil
	}
	publicID := kind + "-" + uuid.NewString()
	url, err := s.images.UploadImage(ctx, img.File, path.Join(s.folder, kind), publicID)
	if err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("image upload failed")
		return "", domain.Validation("IMAGE_UPLOAD_FAILED", "image upload failed")
	}
	return url, nil
}

type TourInput struct {
	Title       *string
	Description *string
	Destination *string
	Price       *float64
	MaxGuests   *int
	StartDate   *time.Time
	EndDate     *time.Time
}

func (in TourInput) apply(t *models.Tour) error {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Destination != nil {
		t.Destination = strings.TrimSpace(*in.Destination)
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	if in.MaxGuests != nil {
		t.MaxGuests = *in.MaxGuests
	}
	if in.StartDate != nil {
		t.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		t.EndDate = in.EndDate
	}
	switch {
	case t.Title == "":
		return domain.Validation("INVALID_TITLE", "title is required")
	case t.Price < 0:
		return domain.ErrInvalidAmount
	case t.MaxGuests < 0:
		return domain.Validation("INVALID_MAX_GUESTS", "max_guests must not be negative")
	case t.MaxGuests < t.GuestsBooked:
		return domain.Validation("MAX_GUESTS_BELOW_BOOKED", "max_guests cannot be lower than guests already booked")
	case t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate):
		return domain.Validation("INVALID_DATES", "end_date must not be before start_date")
	}
	return nil
}

func (s *CatalogService) CreateTour(ctx context.Context, actor Actor, in TourInput, img *ImageUpload) (*models.Tour, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	t := &models.Tour{}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, img, "tours")
	if err != nil {
		return nil, err
	}
	t.ImageURL = url
	err = s.comp.Persist(ctx, url, "", func() error {
		return s.store.WithContext(ctx).Tours.Create(t)
	})
	if err != nil {
		return nil, domain.Internal("TOUR_CREATE_FAILED", err)
	}
	return t, nil
}

func (s *CatalogService) UpdateTour(ctx context.Context, actor Actor, id uint, in TourInput, img *ImageUpload) (*models.Tour, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	db := s.store.WithContext(ctx)
	t, err := db.Tours.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrTourNotFound, "TOUR_LOOKUP_FAILED")
	}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, img, "tours")
	if err != nil {
		return nil, err
	}
	oldURL := t.ImageURL
	if url != "" {
		t.ImageURL = url
	}
	if err := s.comp.Persist(ctx, url, oldURL, func() error { return db.Tours.Update(t) }); err != nil {
		return nil, domain.Internal("TOUR_UPDATE_FAILED", err)
	}
	return t, nil
}

func (s *CatalogService) GetTour(ctx context.Context, id uint) (*models.Tour, error) {
	t, err := s.store.WithContext(ctx).Tours.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrTourNotFound, "TOUR_LOOKUP_FAILED")
	}
	return t, nil
}

func (s *CatalogService) ListTours(ctx context.Context, f repository.TourFilter) ([]models.Tour, int64, error) {
	list, total, err := s.store.WithContext(ctx).Tours.List(f)
	if err != nil {
		return nil, 0, domain.Internal("TOUR_LIST_FAILED", err)
	}
	return list, total, nil
}

// DeleteTour removes a tour without bookings and then its image.
func (s *CatalogService) DeleteTour(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	var imageURL string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		t, err := tx.Tours.GetByID(id)
		if err != nil {
			return notFoundOr(err, domain.ErrTourNotFound, "TOUR_LOOKUP_FAILED")
		}
		n, err := tx.Bookings.CountByTour(id)
		if err != nil {
			return domain.Internal("BOOKING_COUNT_FAILED", err)
		}
		if n > 0 {
			return domain.ErrTourHasBookings
		}
		imageURL = t.ImageURL
		if err := tx.Tours.Delete(id); err != nil {
			return domain.Internal("TOUR_DELETE_FAILED", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.comp.Discard(ctx, imageURL, "tour deleted")
	return nil
}

type HotelInput struct {
	Name        *string
	Location    *string
	Description *string
	Rating      *float64
}

func (in HotelInput) apply(h *models.Hotel) error {
	if in.Name != nil {
		h.Name = strings.TrimSpace(*in.Name)
	}
	if in.Location != nil {
		h.Location = strings.TrimSpace(*in.Location)
	}
	if in.Description != nil {
		h.Description = *in.Description
	}
	if in.Rating != nil {
		h.Rating = *in.Rating
	}
	if h.Name == "" {
		return domain.Validation("INVALID_NAME", "name is required")
	}
	if h.Rating < 0 || h.Rating > 5 {
		return domain.Validation("INVALID_RATING", "rating must be between 0 and 5")
	}
	return nil
}

func (s *CatalogService) CreateHotel(ctx context.Context, actor Actor, in HotelInput, img *ImageUpload) (*models.Hotel, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	h := &models.Hotel{}
	if err := in.apply(h); err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, img, "hotels")
	if err != nil {
		return nil, err
	}
	h.ImageURL = url
	if err := s.comp.Persist(ctx, url, "", func() error { return s.store.WithContext(ctx).Hotels.Create(h) }); err != nil {
		return nil, domain.Internal("HOTEL_CREATE_FAILED", err)
	}
	return h, nil
}

func (s *CatalogService) UpdateHotel(ctx context.Context, actor Actor, id uint, in HotelInput, img *ImageUpload) (*models.Hotel, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	db := s.store.WithContext(ctx)
	h, err := db.Hotels.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrHotelNotFound, "HOTEL_LOOKUP_FAILED")
	}
	if err := in.apply(h); err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, img, "hotels")
	if err != nil {
		return nil, err
	}
	oldURL := h.ImageURL
	if url != "" {
		h.ImageURL = url
	}
	if err := s.comp.Persist(ctx, url, oldURL, func() error { return db.Hotels.Update(h) }); err != nil {
		return nil, domain.Internal("HOTEL_UPDATE_FAILED", err)
	}
	return h, nil
}

func (s *CatalogService) GetHotel(ctx context.Context, id uint) (*models.Hotel, error) {
	h, err := s.store.WithContext(ctx).Hotels.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrHotelNotFound, "HOTEL_LOOKUP_FAILED")
	}
	return h, nil
}

func (s *CatalogService) ListHotels(ctx context.Context, location string, page, limit int) ([]models.Hotel, int64, error) {
	list, total, err := s.store.WithContext(ctx).Hotels.List(location, page, limit)
	if err != nil {
		return nil, 0, domain.Internal("HOTEL_LIST_FAILED", err)
	}
	return list, total, nil
}

// DeleteHotel removes a hotel whose rooms were never booked, then its image.
func (s *CatalogService) DeleteHotel(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	var imageURL string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		h, err := tx.Hotels.GetByID(id)
		if err != nil {
			return notFoundOr(err, domain.ErrHotelNotFound, "HOTEL_LOOKUP_FAILED")
		}
		n, err := tx.Bookings.CountByHotel(id)
		if err != nil {
			return domain.Internal("BOOKING_COUNT_FAILED", err)
		}
		if n > 0 {
			return domain.ErrHotelHasRooms
		}
		imageURL = h.ImageURL
		if err := tx.Hotels.Delete(id); err != nil {
			return domain.Internal("HOTEL_DELETE_FAILED", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.comp.Discard(ctx, imageURL, "hotel deleted")
	return nil
}

type RoomInput struct {
	RoomType  *string
	Price     *float64
	Capacity  *int
	Available *bool
}

func (in RoomInput) apply(r *models.Room) error {
	if in.RoomType != nil {
		r.RoomType = strings.ToUpper(strings.TrimSpace(*in.RoomType))
	}
	if in.Price != nil {
		r.Price = *in.Price
	}
	if in.Capacity != nil {
		r.Capacity = *in.Capacity
	}
	if in.Available != nil {
		r.Available = *in.Available
	}
	switch {
	case r.RoomType == "":
		return domain.Validation("INVALID_ROOM_TYPE", "room_type is required")
	case r.Price < 0:
		return domain.ErrInvalidAmount
	case r.Capacity < 1:
		return domain.Validation("INVALID_CAPACITY", "capacity must be at least 1")
	}
	return nil
}

func (s *CatalogService) CreateRoom(ctx context.Context, actor Actor, hotelID uint, in RoomInput) (*models.Room, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	db := s.store.WithContext(ctx)
	if ok, err := db.Inventory.Exists(&models.Hotel{}, hotelID); err != nil {
		return nil, domain.Internal("HOTEL_LOOKUP_FAILED", err)
	} else if !ok {
		return nil, domain.ErrHotelNotFound
	}
	r := &models.Room{HotelID: hotelID, Available: true}
	if err := in.apply(r); err != nil {
		return nil, err
	}
	if err := db.Rooms.Create(r); err != nil {
		return nil, domain.Internal("ROOM_CREATE_FAILED", err)
	}
	return r, nil
}

func (s *CatalogService) UpdateRoom(ctx context.Context, actor Actor, id uint, in RoomInput) (*models.Room, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	db := s.store.WithContext(ctx)
	r, err := db.Rooms.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrRoomNotFound, "ROOM_LOOKUP_FAILED")
	}
	if err := in.apply(r); err != nil {
		return nil, err
	}
	if err := db.Rooms.Update(r); err != nil {
		return nil, domain.Internal("ROOM_UPDATE_FAILED", err)
	}
	return r, nil
}

func (s *CatalogService) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	r, err := s.store.WithContext(ctx).Rooms.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrRoomNotFound, "ROOM_LOOKUP_FAILED")
	}
	return r, nil
}

func (s *CatalogService) ListRooms(ctx context.Context, hotelID uint, onlyAvailable bool) ([]models.Room, error) {
	list, err := s.store.WithContext(ctx).Rooms.ListByHotel(hotelID, onlyAvailable)
	if err != nil {
		return nil, domain.Internal("ROOM_LIST_FAILED", err)
	}
	return list, nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Rooms.GetByID(id); err != nil {
			return notFoundOr(err, domain.ErrRoomNotFound, "ROOM_LOOKUP_FAILED")
		}
		n, err := tx.Bookings.CountByRoom(id)
		if err != nil {
			return domain.Internal("BOOKING_COUNT_FAILED", err)
		}
		if n > 0 {
			return domain.Conflict("ROOM_HAS_BOOKINGS", "room has bookings")
		}
		if err := tx.Rooms.Delete(id); err != nil {
			return domain.Internal("ROOM_DELETE_FAILED", err)
		}
		return nil
	})
}

type FlightInput struct {
	Airline        *string
	FlightNumber   *string
	Origin         *string
	Destination    *string
	DepartureTime  *time.Time
	ArrivalTime    *time.Time
	Price          *float64
	Capacity       *int
	SeatsAvailable *int
}

func (in FlightInput) apply(f *models.Flight, creating bool) error {
	if in.Airline != nil {
		f.Airline = strings.TrimSpace(*in.Airline)
	}
	if in.FlightNumber != nil {
		f.FlightNumber = strings.ToUpper(strings.TrimSpace(*in.FlightNumber))
	}
	if in.Origin != nil {
		f.Origin = strings.TrimSpace(*in.Origin)
	}
	if in.Destination != nil {
		f.Destination = strings.TrimSpace(*in.Destination)
	}
	if in.DepartureTime != nil {
		f.DepartureTime = *in.DepartureTime
	}
	if in.ArrivalTime != nil {
		f.ArrivalTime = *in.ArrivalTime
	}
	if in.Price != nil {
		f.Price = *in.Price
	}
	if in.Capacity != nil {
		// keep sold seats sold when the capacity changes
		sold := f.Capacity - f.SeatsAvailable
		f.Capacity = *in.Capacity
		f.SeatsAvailable = f.Capacity - sold
	}
	if in.SeatsAvailable != nil {
		f.SeatsAvailable = *in.SeatsAvailable
	} else if creating {
		f.SeatsAvailable = f.Capacity
	}
	switch {
	case f.Airline == "" || f.FlightNumber == "":
		return domain.Validation("INVALID_FLIGHT", "airline and flight_number are required")
	case f.Origin == "" || f.Destination == "":
		return domain.Validation("INVALID_ROUTE", "origin and destination are required")
	case f.DepartureTime.IsZero() || !f.ArrivalTime.After(f.DepartureTime):
		return domain.Validation("INVALID_SCHEDULE", "arrival_time must be after departure_time")
	case f.Price < 0:
		return domain.ErrInvalidAmount
	case f.Capacity < 1:
		return domain.Validation("INVALID_CAPACITY", "capacity must be at least 1")
	case f.SeatsAvailable < 0 || f.SeatsAvailable > f.Capacity:
		return domain.Validation("INVALID_SEATS", "seats_available must be between 0 and capacity")
	}
	return nil
}

func (s *CatalogService) CreateFlight(ctx context.Context, actor Actor, in FlightInput) (*models.Flight, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	f := &models.Flight{}
	if err := in.apply(f, true); err != nil {
		return nil, err
	}
	if err := s.store.WithContext(ctx).Flights.Create(f); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, domain.Conflict("FLIGHT_NUMBER_EXISTS", "flight number already exists")
		}
		return nil, domain.Internal("FLIGHT_CREATE_FAILED", err)
	}
	return f, nil
}

func (s *CatalogService) UpdateFlight(ctx context.Context, actor Actor, id uint, in FlightInput) (*models.Flight, error) {
	if !actor.IsStaff() {
		return nil, domain.ErrForbidden
	}
	db := s.store.WithContext(ctx)
	f, err := db.Flights.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrFlightNotFound, "FLIGHT_LOOKUP_FAILED")
	}
	if err := in.apply(f, false); err != nil {
		return nil, err
	}
	if err := db.Flights.Update(f); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, domain.Conflict("FLIGHT_NUMBER_EXISTS", "flight number already exists")
		}
		return nil, domain.Internal("FLIGHT_UPDATE_FAILED", err)
	}
	return f, nil
}

func (s *CatalogService) GetFlight(ctx context.Context, id uint) (*models.Flight, error) {
	f, err := s.store.WithContext(ctx).Flights.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrFlightNotFound, "FLIGHT_LOOKUP_FAILED")
	}
	return f, nil
}

func (s *CatalogService) ListFlights(ctx context.Context, f repository.FlightFilter) ([]models.Flight, int64, error) {
	list, total, err := s.store.WithContext(ctx).Flights.List(f)
	if err != nil {
		return nil, 0, domain.Internal("FLIGHT_LIST_FAILED", err)
	}
	return list, total, nil
}

func (s *CatalogService) DeleteFlight(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return domain.ErrForbidden
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Flights.GetByID(id); err != nil {
			return notFoundOr(err, domain.ErrFlightNotFound, "FLIGHT_LOOKUP_FAILED")
		}
		n, err := tx.Bookings.CountByFlight(id)
		if err != nil {
			return domain.Internal("BOOKING_COUNT_FAILED", err)
		}
		if n > 0 {
			return domain.Conflict("FLIGHT_HAS_BOOKINGS", "flight has bookings")
		}
		if err := tx.Flights.Delete(id); err != nil {
			return domain.Internal("FLIGHT_DELETE_FAILED", err)
		}
		return nil
	})
}
