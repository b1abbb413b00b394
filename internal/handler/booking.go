package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/corvexa/it-services-portal/internal/model"
    "github.com/corvexa/it-services-portal/internal/service"
)

// BookingHandler serves the public schedule, booking and contact endpoints.
type BookingHandler struct {
    Bookings *service.BookingService
}

func NewBookingHandler(b *service.BookingService) *BookingHandler {
    return &BookingHandler{Bookings: b}
}

type bookReq struct {
    Date    string `json:"date" validate:"required,isdate"`
    Time    string `json:"time" validate:"required,istime"`
    Name    string `json:"name" validate:"required,max=255"`
    Email   string `json:"email" validate:"required,isemail,max=255"`
    Service string `json:"service" validate:"required,max=255"`
    Message string `json:"message" validate:"max=5000"`
}

type contactReq struct {
    Name    string `json:"name" validate:"required,max=255"`
    Email   string `json:"email" validate:"required,isemail"`
    Message string `json:"message" validate:"required,max=5000"`
}

// Schedule lists the free times of ?date=YYYY-MM-DD.
func (h *BookingHandler) Schedule(c echo.Context) error {
    date := strings.TrimSpace(c.QueryParam("date"))
    if date == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Date is required"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    times, err := h.Bookings.Schedule(ctx, date)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, times)
}

// Book claims a slot.  A taken slot answers 409.
func (h *BookingHandler) Book(c echo.Context) error {
    var req bookReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    err := h.Bookings.Book(ctx, model.Booking{
        Date:    req.Date,
        Time:    req.Time,
        Name:    req.Name,
        Email:   req.Email,
        Service: req.Service,
        Message: req.Message,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.String(http.StatusOK, "Appointment booked successfully")
}

// Contact forwards a contact form to staff.
func (h *BookingHandler) Contact(c echo.Context) error {
    var req contactReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Bookings.Contact(ctx, service.ContactInput{Name: req.Name, Email: req.Email, Message: req.Message}); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Thank you, we will get back to you shortly"})
}
