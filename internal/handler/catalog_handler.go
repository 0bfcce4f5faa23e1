package handler

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"tourbook/internal/repository"
	"tourbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxImageSize = 10 << 20

type CatalogHandler struct {
	svc *service.CatalogService
	log *logrus.Logger
}

func NewCatalogHandler(svc *service.CatalogService, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

// TourRequest binds from JSON or multipart form; the optional image comes in
// the "image" form file.
type TourRequest struct {
	Title       *string    `json:"title" form:"title"`
	Description *string    `json:"description" form:"description"`
	Destination *string    `json:"destination" form:"destination"`
	Price       *float64   `json:"price" form:"price"`
	MaxGuests   *int       `json:"max_guests" form:"max_guests"`
	StartDate   *time.Time `json:"start_date" form:"start_date" time_format:"2006-01-02"`
	EndDate     *time.Time `json:"end_date" form:"end_date" time_format:"2006-01-02"`
}

func (r TourRequest) input() service.TourInput {
	return service.TourInput{
		Title:       r.Title,
		Description: r.Description,
		Destination: r.Destination,
		Price:       r.Price,
		MaxGuests:   r.MaxGuests,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
	}
}

type HotelRequest struct {
	Name        *string  `json:"name" form:"name"`
	Location    *string  `json:"location" form:"location"`
	Description *string  `json:"description" form:"description"`
	Rating      *float64 `json:"rating" form:"rating"`
}

func (r HotelRequest) input() service.HotelInput {
	return service.HotelInput{Name: r.Name, Location: r.Location, Description: r.Description, Rating: r.Rating}
}

type RoomRequest struct {
	RoomType  *string  `json:"room_type"`
	Price     *float64 `json:"price"`
	Capacity  *int     `json:"capacity"`
	Available *bool    `json:"available"`
}

func (r RoomRequest) input() service.RoomInput {
	return service.RoomInput{RoomType: r.RoomType, Price: r.Price, Capacity: r.Capacity, Available: r.Available}
}

type FlightRequest struct {
	Airline        *string    `json:"airline"`
	FlightNumber   *string    `json:"flight_number"`
	Origin         *string    `json:"origin"`
	Destination    *string    `json:"destination"`
	DepartureTime  *time.Time `json:"departure_time"`
	ArrivalTime    *time.Time `json:"arrival_time"`
	Price          *float64   `json:"price"`
	Capacity       *int       `json:"capacity"`
	SeatsAvailable *int       `json:"seats_available"`
}

func (r FlightRequest) input() service.FlightInput {
	return service.FlightInput{
		Airline:        r.Airline,
		FlightNumber:   r.FlightNumber,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		ArrivalTime:    r.ArrivalTime,
		Price:          r.Price,
		Capacity:       r.Capacity,
		SeatsAvailable: r.SeatsAvailable,
	}
}

// imageFrom returns the optional "image" form file. The caller closes it.
func imageFrom(c *gin.Context) (*service.ImageUpload, multipart.File, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil, true
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil, true
	}
	if fh.Size > maxImageSize {
		badRequest(c, "image too large (max 10MB)")
		return nil, nil, false
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		badRequest(c, "image must be an image file")
		return nil, nil, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "could not read image")
		return nil, nil, false
	}
	return &service.ImageUpload{File: f, Filename: fh.Filename}, f, true
}

// bindWithImage binds the request body and the optional image.
func bindWithImage(c *gin.Context, req interface{}) (*service.ImageUpload, func(), bool) {
	if err := c.ShouldBind(req); err != nil {
		badRequest(c, err.Error())
		return nil, nil, false
	}
	img, f, ok := imageFrom(c)
	if !ok {
		return nil, nil, false
	}
	closeFn := func() {
		if f != nil {
			f.Close()
		}
	}
	return img, closeFn, true
}

func (h *CatalogHandler) CreateTour(c *gin.Context) {
	var req TourRequest
	img, done, ok := bindWithImage(c, &req)
	if !ok {
		return
	}
	defer done()
	t, err := h.svc.CreateTour(c.Request.Context(), actorFrom(c), req.input(), img)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tour": t})
}

func (h *CatalogHandler) UpdateTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req TourRequest
	img, done, ok := bindWithImage(c, &req)
	if !ok {
		return
	}
	defer done()
	t, err := h.svc.UpdateTour(c.Request.Context(), actorFrom(c), id, req.input(), img)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tour": t})
}

func (h *CatalogHandler) GetTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetTour(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tour": t})
}

func (h *CatalogHandler) ListTours(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	list, total, err := h.svc.ListTours(c.Request.Context(), repository.TourFilter{
		Destination: c.Query("destination"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	listResponse(c, "tours", list, total, page, limit)
}

func (h *CatalogHandler) DeleteTour(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteTour(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CatalogHandler) CreateHotel(c *gin.Context) {
	var req HotelRequest
	img, done, ok := bindWithImage(c, &req)
	if !ok {
		return
	}
	defer done()
	hotel, err := h.svc.CreateHotel(c.Request.Context(), actorFrom(c), req.input(), img)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hotel": hotel})
}

func (h *CatalogHandler) UpdateHotel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req HotelRequest
	img, done, ok := bindWithImage(c, &req)
	if !ok {
		return
	}
	defer done()
	hotel, err := h.svc.UpdateHotel(c.Request.Context(), actorFrom(c), id, req.input(), img)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotel": hotel})
}

func (h *CatalogHandler) GetHotel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	hotel, err := h.svc.GetHotel(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotel": hotel})
}

func (h *CatalogHandler) ListHotels(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	list, total, err := h.svc.ListHotels(c.Request.Context(), c.Query("location"), page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	listResponse(c, "hotels", list, total, page, limit)
}

func (h *CatalogHandler) DeleteHotel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteHotel(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	hotelID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.svc.CreateRoom(c.Request.Context(), actorFrom(c), hotelID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": r})
}

func (h *CatalogHandler) ListRooms(c *gin.Context) {
	hotelID, ok := parseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListRooms(c.Request.Context(), hotelID, c.Query("available") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": list})
}

func (h *CatalogHandler) GetRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": r})
}

func (h *CatalogHandler) UpdateRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.svc.UpdateRoom(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": r})
}

func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteRoom(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *CatalogHandler) CreateFlight(c *gin.Context) {
	var req FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	f, err := h.svc.CreateFlight(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flight": f})
}

func (h *CatalogHandler) UpdateFlight(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	f, err := h.svc.UpdateFlight(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight": f})
}

func (h *CatalogHandler) GetFlight(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	f, err := h.svc.GetFlight(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight": f})
}

// ListFlights filters by origin, destination and departs_after.
func (h *CatalogHandler) ListFlights(c *gin.Context) {
	page, limit, ok := paging(c)
	if !ok {
		return
	}
	after, ok := queryTime(c, "departs_after")
	if !ok {
		return
	}
	list, total, err := h.svc.ListFlights(c.Request.Context(), repository.FlightFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		DepartAfter: after,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	listResponse(c, "flights", list, total, page, limit)
}

func (h *CatalogHandler) DeleteFlight(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteFlight(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
