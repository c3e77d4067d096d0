package models

import "time"

type Role string

const (
	RoleRider  Role = "user"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UserProfile is the authenticated actor. Exactly one is active per session.
type UserProfile struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CountryCode   string `json:"countryCode"`
	Gender        string `json:"gender,omitempty"`
	Location      string `json:"location,omitempty"`
	Role          Role   `json:"role"`
	VehicleType   string `json:"vehicleType,omitempty"`
	WalletBalance int    `json:"walletBalance"`

	// Driver onboarding captures these incrementally; they merge into the
	// roster entry once a driver is selected.
	ProfilePhoto        string `json:"profilePhoto,omitempty"`
	DriverLicenseNumber string `json:"driverLicenseNumber,omitempty"`
	DriverLicensePhoto  string `json:"driverLicensePhoto,omitempty"`
}

// FullName joins first and last name, falling back to email.
func (u *UserProfile) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// DriverInfo is the client-side driver summary shown in lists and
// mutated optimistically by rating submissions.
type DriverInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Rating      float64   `json:"rating"` // running average, one decimal
	Rides       int       `json:"rides"`
	Avatar      string    `json:"avatar"`
	EtaMin      int       `json:"etaMin"`
	DistanceKm  float64   `json:"distanceKm"`
	Price       int       `json:"price"`
	Passengers  int       `json:"passengers"`
	VehicleType string    `json:"vehicleType,omitempty"`
	LicenseNo   string    `json:"driverLicenseNumber,omitempty"`
	LicensePic  string    `json:"driverLicensePhoto,omitempty"`
	Updated     time.Time `json:"updated"`
}

// DriverRecord is the authoritative driver document returned by the backend.
type DriverRecord struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	VehicleMake   string  `json:"vehicleMake"`
	VehicleModel  string  `json:"vehicleModel"`
	PlateNumber   string  `json:"plateNumber"`
	Rating        float64 `json:"rating"`
	Rides         int     `json:"rides"`
	WalletBalance int     `json:"walletBalance"`
}

// DisplayName prefers first/last name over the flat name field.
func (d *DriverRecord) DisplayName() string {
	name := d.FirstName
	if d.LastName != "" {
		if name != "" {
			name += " "
		}
		name += d.LastName
	}
	if name == "" {
		return d.Name
	}
	return name
}

type VehicleClass string

const (
	VehicleGo       VehicleClass = "go"
	VehicleComfort  VehicleClass = "comfort"
	VehicleXL       VehicleClass = "xl"
	VehiclePrestige VehicleClass = "prestige"
)

type TripStatus string

const (
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Trip is one booked trip. At most one ongoing trip is tracked locally.
// UpdatedAt orders reconciliation: a server record only overwrites a local
// one when it is not older (last-writer-wins).
type Trip struct {
	ID          string       `json:"id"`
	Pickup      string       `json:"pickup"`
	Destination string       `json:"destination"`
	Fee         int          `json:"fee"`
	DriverID    string       `json:"driverId"`
	UserID      string       `json:"userId,omitempty"`
	Status      TripStatus   `json:"status"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     *time.Time   `json:"endedAt,omitempty"`
	Vehicle     VehicleClass `json:"vehicle,omitempty"`
	DistanceKm  *float64     `json:"distanceKm,omitempty"`
	Rating      *int         `json:"rating,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty"`
}

// PendingTrip is the draft between destination choice and confirmation.
// Survives reloads via session-scoped storage.
type PendingTrip struct {
	Pickup            string       `json:"pickup"`
	Destination       string       `json:"destination"`
	PickupCoords      *Coords      `json:"pickupCoords,omitempty"`
	DestinationCoords *Coords      `json:"destinationCoords,omitempty"`
	Vehicle           VehicleClass `json:"vehicle,omitempty"`
}

type EmergencyContact struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=6"`
	Relationship string `json:"relationship,omitempty"`
}

type PaymentMethod string

const (
	PayWallet PaymentMethod = "wallet"
	PayCash   PaymentMethod = "cash"
)

type TxType string

const (
	TxTransfer TxType = "transfer"
	TxRequest  TxType = "request"
	TxTopup    TxType = "topup"
	TxDeduct   TxType = "deduct"
)

type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxCompleted TxStatus = "completed"
)

// WalletTransaction is one ledger entry. Append-only from the client's
// perspective.
type WalletTransaction struct {
	ID            string    `json:"id"`
	Ts            time.Time `json:"ts"`
	Type          TxType    `json:"type"`
	From          string    `json:"from,omitempty"`
	To            string    `json:"to,omitempty"`
	ParticipantID string    `json:"participantId,omitempty"`
	Amount        int       `json:"amount"`
	Status        TxStatus  `json:"status"`
	TripID        string    `json:"tripId,omitempty"`
	Note          string    `json:"note,omitempty"`
}

type RideSettings struct {
	BaseFare         float64 `json:"baseFare"`
	CostPerKm        float64 `json:"costPerKm"`
	CostPerMinute    float64 `json:"costPerMinute"`
	SurgeEnabled     bool    `json:"surgeEnabled"`
	SurgeMultiplier  float64 `json:"surgeMultiplier"`
	MinDistanceKm    float64 `json:"minDistanceKm"`
	MaxDistanceKm    float64 `json:"maxDistanceKm"`
	CancelFee        float64 `json:"cancelFee"`
	WaitingPerMinute float64 `json:"waitingPerMinute"`
}

type PaymentSettings struct {
	DefaultMethods    []string `json:"defaultMethods"`
	CommissionPercent float64  `json:"commissionPercent"`
	WithdrawalMin     int      `json:"withdrawalMin"`
	WithdrawalFee     int      `json:"withdrawalFee"`
	WalletTopupMax    int      `json:"walletTopupMax"`
	AdminUserID       string   `json:"adminUserId"`
}

// AppSettings is the process-wide pricing/payment policy snapshot.
// Fetched once at startup, replaced on refresh (last-fetched-wins).
type AppSettings struct {
	AppName  string          `json:"appName"`
	Timezone string          `json:"timezone"`
	Currency string          `json:"currency"`
	Ride     RideSettings    `json:"ride"`
	Payments PaymentSettings `json:"payments"`
}

// RideSettingsPatch carries a partial update; nil fields are left untouched.
type RideSettingsPatch struct {
	BaseFare         *float64 `json:"baseFare,omitempty"`
	CostPerKm        *float64 `json:"costPerKm,omitempty"`
	CostPerMinute    *float64 `json:"costPerMinute,omitempty"`
	SurgeEnabled     *bool    `json:"surgeEnabled,omitempty"`
	SurgeMultiplier  *float64 `json:"surgeMultiplier,omitempty"`
	MinDistanceKm    *float64 `json:"minDistanceKm,omitempty"`
	MaxDistanceKm    *float64 `json:"maxDistanceKm,omitempty"`
	CancelFee        *float64 `json:"cancelFee,omitempty"`
	WaitingPerMinute *float64 `json:"waitingPerMinute,omitempty"`
}

type PaymentSettingsPatch struct {
	DefaultMethods    []string `json:"defaultMethods,omitempty"`
	CommissionPercent *float64 `json:"commissionPercent,omitempty"`
	WithdrawalMin     *int     `json:"withdrawalMin,omitempty"`
	WithdrawalFee     *int     `json:"withdrawalFee,omitempty"`
	WalletTopupMax    *int     `json:"walletTopupMax,omitempty"`
	AdminUserID       *string  `json:"adminUserId,omitempty"`
}

type SettingsPatch struct {
	AppName  *string               `json:"appName,omitempty"`
	Timezone *string               `json:"timezone,omitempty"`
	Currency *string               `json:"currency,omitempty"`
	Ride     *RideSettingsPatch    `json:"ride,omitempty"`
	Payments *PaymentSettingsPatch `json:"payments,omitempty"`
}

type PresenceEntry struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Online bool    `json:"online"`
}

type TrackPoint struct {
	Lat   float64   `json:"lat"`
	Lng   float64   `json:"lng"`
	Speed float64   `json:"speed"`
	Ts    time.Time `json:"ts,omitempty"`
}
