package service

import (
	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"
)

// Item identifies the bookable unit a booking consumes.
type Item struct {
	Kind string // domain.BookingType*
	ID   uint
}

// ItemOf returns the item a booking row points at, in tour, room, flight order.
func ItemOf(b *models.Booking) (Item, bool) {
	switch {
	case b.TourID != nil:
		return Item{Kind: domain.BookingTypeTour, ID: *b.TourID}, true
	case b.RoomID != nil:
		return Item{Kind: domain.BookingTypeRoom, ID: *b.RoomID}, true
	case b.FlightID != nil:
		return Item{Kind: domain.BookingTypeFlight, ID: *b.FlightID}, true
	}
	return Item{}, false
}

// itemFromIDs requires exactly one non-nil id.
func itemFromIDs(tourID, roomID, flightID *uint) (Item, error) {
	var items []Item
	if tourID != nil {
		items = append(items, Item{Kind: domain.BookingTypeTour, ID: *tourID})
	}
	if roomID != nil {
		items = append(items, Item{Kind: domain.BookingTypeRoom, ID: *roomID})
	}
	if flightID != nil {
		items = append(items, Item{Kind: domain.BookingTypeFlight, ID: *flightID})
	}
	if len(items) != 1 || items[0].ID == 0 {
		return Item{}, domain.ErrInvalidBookingItem
	}
	return items[0], nil
}

// InventoryGuard reserves and releases one unit of capacity. Every write is a
// single conditional UPDATE run on the caller's transaction, so a failure
// leaves nothing behind once the transaction rolls back.
type InventoryGuard struct {
	enforceTourCapacity bool
}

func NewInventoryGuard(enforceTourCapacity bool) *InventoryGuard {
	return &InventoryGuard{enforceTourCapacity: enforceTourCapacity}
}

func (g *InventoryGuard) Reserve(tx *repository.Store, item Item) error {
	var (
		n   int64
		err error
	)
	switch item.Kind {
	case domain.BookingTypeRoom:
		n, err = tx.Inventory.ReserveRoom(item.ID)
	case domain.BookingTypeFlight:
		n, err = tx.Inventory.ReserveFlightSeat(item.ID)
	case domain.BookingTypeTour:
		if !g.enforceTourCapacity {
			return g.mustExist(tx, item)
		}
		n, err = tx.Inventory.ReserveTourGuest(item.ID)
	default:
		return domain.ErrInvalidBookingItem
	}
	if err != nil {
		return domain.Internal("INVENTORY_RESERVE_FAILED", err)
	}
	if n > 0 {
		return nil
	}
	if err := g.mustExist(tx, item); err != nil {
		return err
	}
	return domain.ErrCapacityExhausted
}

// Release gives the unit back. Releasing an already free unit is a no-op.
func (g *InventoryGuard) Release(tx *repository.Store, item Item) error {
	var err error
	switch item.Kind {
	case domain.BookingTypeRoom:
		_, err = tx.Inventory.ReleaseRoom(item.ID)
	case domain.BookingTypeFlight:
		_, err = tx.Inventory.ReleaseFlightSeat(item.ID)
	case domain.BookingTypeTour:
		if g.enforceTourCapacity {
			_, err = tx.Inventory.ReleaseTourGuest(item.ID)
		}
	}
	if err != nil {
		return domain.Internal("INVENTORY_RELEASE_FAILED", err)
	}
	return nil
}

// Price returns the list price of the item.
func (g *InventoryGuard) Price(tx *repository.Store, item Item) (float64, error) {
	switch item.Kind {
	case domain.BookingTypeTour:
		t, err := tx.Tours.GetByID(item.ID)
		if err != nil {
			return 0, notFoundOr(err, domain.ErrTourNotFound, "TOUR_LOOKUP_FAILED")
		}
		return t.Price, nil
	case domain.BookingTypeRoom:
		r, err := tx.Rooms.GetByID(item.ID)
		if err != nil {
			return 0, notFoundOr(err, domain.ErrRoomNotFound, "ROOM_LOOKUP_FAILED")
		}
		return r.Price, nil
	case domain.BookingTypeFlight:
		f, err := tx.Flights.GetByID(item.ID)
		if err != nil {
			return 0, notFoundOr(err, domain.ErrFlightNotFound, "FLIGHT_LOOKUP_FAILED")
		}
		return f.Price, nil
	}
	return 0, domain.ErrInvalidBookingItem
}

func (g *InventoryGuard) mustExist(tx *repository.Store, item Item) error {
	var (
		model    interface{}
		notFound *domain.Error
	)
	switch item.Kind {
	case domain.BookingTypeTour:
		model, notFound = &models.Tour{}, domain.ErrTourNotFound
	case domain.BookingTypeRoom:
		model, notFound = &models.Room{}, domain.ErrRoomNotFound
	case domain.BookingTypeFlight:
		model, notFound = &models.Flight{}, domain.ErrFlightNotFound
	default:
		return domain.ErrInvalidBookingItem
	}
	ok, err := tx.Inventory.Exists(model, item.ID)
	if err != nil {
		return domain.Internal("INVENTORY_LOOKUP_FAILED", err)
	}
	if !ok {
		return notFound
	}
	return nil
}

// notFoundOr maps gorm's not-found to nf and anything else to an internal error.
func notFoundOr(err error, nf *domain.Error, code string) error {
	if repository.IsNotFound(err) {
		return nf
	}
	return domain.Internal(code, err)
}
