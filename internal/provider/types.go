package provider

// Wire types for the inventory provider API. Field names follow the
// provider's JSON; amounts arrive as decimal strings and are parsed by
// the pricing layer, never as floats.

type RoomOccupancy struct {
	Adults       int   `json:"adults"`
	ChildrenAges []int `json:"children"`
}

type SERPRequest struct {
	RegionID  int             `json:"region_id"`
	Checkin   string          `json:"checkin"`
	Checkout  string          `json:"checkout"`
	Guests    []RoomOccupancy `json:"guests"`
	Residency string          `json:"residency"`
	Language  string          `json:"language"`
	Currency  string          `json:"currency"`
}

type HotelPageRequest struct {
	ID        string          `json:"id"`
	Checkin   string          `json:"checkin"`
	Checkout  string          `json:"checkout"`
	Guests    []RoomOccupancy `json:"guests"`
	Residency string          `json:"residency"`
	Language  string          `json:"language"`
	Currency  string          `json:"currency"`
}

type Tax struct {
	Name               string `json:"name"`
	Amount             string `json:"amount"`
	CurrencyCode       string `json:"currency_code"`
	IncludedBySupplier bool   `json:"included_by_supplier"`
}

type TaxData struct {
	Taxes []Tax `json:"taxes"`
}

type PaymentType struct {
	Amount       string  `json:"amount"`
	ShowAmount   string  `json:"show_amount"`
	CurrencyCode string  `json:"currency_code"`
	Type         string  `json:"type"`
	TaxData      TaxData `json:"tax_data"`
}

type PaymentOptions struct {
	PaymentTypes []PaymentType `json:"payment_types"`
}

type CancellationPolicy struct {
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	AmountCharge string `json:"amount_charge"`
	AmountShow   string `json:"amount_show"`
}

type CancellationPenalties struct {
	FreeCancellationBefore string               `json:"free_cancellation_before"`
	Policies               []CancellationPolicy `json:"policies"`
}

type Rate struct {
	MatchHash      string                `json:"match_hash"`
	BookHash       string                `json:"book_hash"`
	RoomName       string                `json:"room_name"`
	Meal           string                `json:"meal"`
	Amenities      []string              `json:"amenities_data"`
	PaymentOptions PaymentOptions        `json:"payment_options"`
	Cancellation   CancellationPenalties `json:"cancellation_penalties"`
	Prepayment     bool                  `json:"no_show,omitempty"`
}

type SERPHotel struct {
	ID    string `json:"id"`
	HID   int64  `json:"hid"`
	Rates []Rate `json:"rates"`
}

type SERPResponse struct {
	Hotels      []SERPHotel `json:"hotels"`
	TotalHotels int         `json:"total_hotels"`
}

type HotelPageResponse struct {
	Hotels []SERPHotel `json:"hotels"`
}

type SuggestRegion struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	CountryCode string `json:"country_code"`
}

type SuggestHotel struct {
	ID       string `json:"id"`
	HID      int64  `json:"hid"`
	Name     string `json:"name"`
	RegionID int    `json:"region_id"`
}

type MulticompleteResponse struct {
	Regions []SuggestRegion `json:"regions"`
	Hotels  []SuggestHotel  `json:"hotels"`
}

type PrebookRequest struct {
	Hash                 string `json:"hash"`
	PriceIncreasePercent int    `json:"price_increase_percent,omitempty"`
}

type PrebookResponse struct {
	Hotels  []SERPHotel `json:"hotels"`
	Changes struct {
		PriceChanged bool `json:"price_changed"`
	} `json:"changes"`
}

type BookingFormRequest struct {
	PartnerOrderID string `json:"partner_order_id"`
	BookHash       string `json:"book_hash"`
	Language       string `json:"language"`
	UserIP         string `json:"user_ip"`
}

type BookingFormResponse struct {
	OrderID        int64         `json:"order_id"`
	PartnerOrderID string        `json:"partner_order_id"`
	PaymentTypes   []PaymentType `json:"payment_types"`
}

type BookingFinishGuest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type BookingFinishRequest struct {
	PartnerOrderID string `json:"partner_order_id"`
	User           struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"user"`
	Rooms []struct {
		Guests []BookingFinishGuest `json:"guests"`
	} `json:"rooms"`
	PaymentType struct {
		Type         string `json:"type"`
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currency_code"`
	} `json:"payment_type"`
}

type BookingFinishResponse struct {
	PartnerOrderID string `json:"partner_order_id"`
}

type BookingStatusResponse struct {
	PartnerOrderID string `json:"partner_order_id"`
	Status         string `json:"status"` // ok | processing | error
}

type OrderInfoResponse struct {
	OrderID        int64                 `json:"order_id"`
	PartnerOrderID string                `json:"partner_order_id"`
	Status         string                `json:"status"`
	Cancellation   CancellationPenalties `json:"cancellation_penalties"`
	Amount         string                `json:"amount"`
	CurrencyCode   string                `json:"currency_code"`
}

type CancelResponse struct {
	PartnerOrderID string `json:"partner_order_id"`
	Status         string `json:"status"`
	Refund         string `json:"amount_refunded"`
	Penalty        string `json:"amount_penalty"`
}
