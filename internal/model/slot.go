package model

// Date and time layouts used on the wire and in the appointment table.
const (
    DateLayout = "2006-01-02"
    TimeLayout = "15:04"
)

// Slot is one row of the `appointment` table: a (date, time) scheduling
// unit.  A slot is bookable when IsAvailable is true and ClientName is nil,
// booked when ClientName is set, and blocked when it is neither.
type Slot struct {
    Date        string  `json:"date"`
    Time        string  `json:"time"`
    IsAvailable bool    `json:"isAvailable"`
    ClientName  *string `json:"clientName"`
    Email       *string `json:"email"`
    Service     *string `json:"service"`
    Message     *string `json:"message"`
}

// Bookable reports whether the slot can be claimed.
func (s Slot) Bookable() bool { return s.IsAvailable && s.ClientName == nil }

// Booked reports whether a client is bound to the slot.
func (s Slot) Booked() bool { return s.ClientName != nil }

// Booking carries the client fields bound to a slot when it is claimed.
type Booking struct {
    Date    string
    Time    string
    Name    string
    Email   string
    Service string
    Message string
}
