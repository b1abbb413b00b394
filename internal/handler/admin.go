package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/corvexa/it-services-portal/internal/service"
)

// AdminHandler serves the back-office endpoints.
type AdminHandler struct {
    Bookings *service.BookingService
    Clients  *service.ClientService
}

func NewAdminHandler(b *service.BookingService, cl *service.ClientService) *AdminHandler {
    return &AdminHandler{Bookings: b, Clients: cl}
}

type availabilityReq struct {
    Date        string `json:"date" validate:"required,isdate"`
    Time        string `json:"time" validate:"required,istime"`
    IsAvailable *bool  `json:"isAvailable" validate:"required"`
}

type registerClientReq struct {
    CompanyName    string `json:"companyName" validate:"required,max=255"`
    CompanyEmail   string `json:"companyEmail" validate:"omitempty,isemail"`
    CompanyPhone   string `json:"companyPhone" validate:"max=64"`
    CompanyAddress string `json:"companyAddress" validate:"max=512"`
    FirstName      string `json:"firstName" validate:"required,max=100"`
    LastName       string `json:"lastName" validate:"required,max=100"`
    Email          string `json:"email" validate:"required,isemail,max=255"`
    Password       string `json:"password" validate:"omitempty,min=8,max=72"`
}

// ListBookings lists every booked slot.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    slots, err := h.Bookings.Bookings(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, slots)
}

// SetAvailability opens or blocks one slot.
func (h *AdminHandler) SetAvailability(c echo.Context) error {
    var req availabilityReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Bookings.SetAvailability(ctx, req.Date, req.Time, *req.IsAvailable); err != nil {
        return writeError(c, err)
    }
    return c.String(http.StatusOK, "Availability updated")
}

// ListClients lists client accounts with their company.
func (h *AdminHandler) ListClients(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    clients, err := h.Clients.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, clients)
}

// GetClient returns one client account.
func (h *AdminHandler) GetClient(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client id"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    client, err := h.Clients.Get(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, client)
}

// RegisterClient creates a company with its first user.
func (h *AdminHandler) RegisterClient(c echo.Context) error {
    var req registerClientReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Clients.Register(ctx, service.RegisterClientInput{
        CompanyName:    req.CompanyName,
        CompanyEmail:   req.CompanyEmail,
        CompanyPhone:   req.CompanyPhone,
        CompanyAddress: req.CompanyAddress,
        FirstName:      req.FirstName,
        LastName:       req.LastName,
        Email:          req.Email,
        Password:       req.Password,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "message":   "Client registered successfully",
        "companyId": res.CompanyID,
        "userId":    res.UserID,
    })
}
