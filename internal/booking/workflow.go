package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/models"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
)

type Status string

const (
	StatusCreated    Status = "created"
	StatusPrebooked  Status = "prebooked"
	StatusSubmitted  Status = "booking_submitted"
	StatusProcessing Status = "processing"
	StatusConfirmed  Status = "confirmed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Order is one booking order. Transitions are driven exclusively by
// provider responses; terminal states are never overridden locally
// except by an explicit cancel.
type Order struct {
	PartnerOrderID  string    `json:"partner_order_id"`
	ProviderOrderID int64     `json:"provider_order_id,omitempty"`
	BookHash        string    `json:"book_hash"`
	Status          Status    `json:"status"`
	SandboxMode     bool      `json:"sandbox_mode,omitempty"`
	RefundAmount    string    `json:"refund_amount,omitempty"`
	PenaltyAmount   string    `json:"penalty_amount,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Guest data captured at create time and replayed on finish.
	Email  string             `json:"-"`
	Phone  string             `json:"-"`
	Guests []models.GuestName `json:"-"`
}

// Gateway is the slice of the provider gateway the workflow drives.
type Gateway interface {
	Prebook(ctx context.Context, req *provider.PrebookRequest) (*provider.PrebookResponse, error)
	BookingForm(ctx context.Context, req *provider.BookingFormRequest) (*provider.BookingFormResponse, error)
	BookingFinish(ctx context.Context, req *provider.BookingFinishRequest) (*provider.BookingFinishResponse, error)
	BookingStatus(ctx context.Context, partnerOrderID string) (*provider.BookingStatusResponse, error)
	OrderInfo(ctx context.Context, partnerOrderID string) (*provider.OrderInfoResponse, error)
	Cancel(ctx context.Context, partnerOrderID string) (*provider.CancelResponse, error)
}

// Workflow sequences prebook, create, finish, status polling and
// cancellation against the provider. One transition per provider round
// trip; nothing here retries across states, the single exception being
// the transient prebook race.
type Workflow struct {
	gw     Gateway
	logger *slog.Logger

	mu     sync.Mutex
	orders map[string]*Order

	prebookRetryWait time.Duration
}

func NewWorkflow(gw Gateway, logger *slog.Logger) *Workflow {
	return &Workflow{
		gw:               gw,
		logger:           logger,
		orders:           make(map[string]*Order),
		prebookRetryWait: 2 * time.Second,
	}
}

// PrebookResult carries the book hash and whether the provider repriced
// the rate during prebook.
type PrebookResult struct {
	BookHash     string `json:"book_hash"`
	PriceChanged bool   `json:"price_changed"`
}

// Prebook exchanges a match hash for a book hash. Retries exactly once,
// after a short delay, on the provider's transient "no rates available"
// error; every other failure is reported immediately.
func (w *Workflow) Prebook(ctx context.Context, matchHash string) (*PrebookResult, error) {
	if matchHash == "" {
		return nil, provider.NewError(provider.KindValidation, "prebook", "match_hash is required")
	}

	req := &provider.PrebookRequest{Hash: matchHash}
	resp, err := w.gw.Prebook(ctx, req)
	if err != nil && provider.IsKind(err, provider.KindTransient) {
		w.logger.Warn("prebook hit transient rate race, retrying once", "error", err)
		select {
		case <-time.After(w.prebookRetryWait):
		case <-ctx.Done():
			return nil, provider.WrapError(provider.KindUnavailable, "prebook", ctx.Err())
		}
		resp, err = w.gw.Prebook(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if len(resp.Hotels) == 0 || len(resp.Hotels[0].Rates) == 0 {
		return nil, provider.NewError(provider.KindNotFound, "prebook", "rate no longer available")
	}
	return &PrebookResult{
		BookHash:     resp.Hotels[0].Rates[0].BookHash,
		PriceChanged: resp.Changes.PriceChanged,
	}, nil
}

// Create submits the booking form for a prebooked rate and registers the
// order locally.
func (w *Workflow) Create(ctx context.Context, req *models.BookingRequest, userIP string) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, provider.NewError(provider.KindValidation, "booking_form", err.Error())
	}

	order := &Order{
		PartnerOrderID: uuid.New().String(),
		BookHash:       req.BookHash,
		Status:         StatusCreated,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		Email:          req.Email,
		Phone:          req.Phone,
		Guests:         req.Guests,
	}

	resp, err := w.gw.BookingForm(ctx, &provider.BookingFormRequest{
		PartnerOrderID: order.PartnerOrderID,
		BookHash:       req.BookHash,
		Language:       "en",
		UserIP:         userIP,
	})
	if err != nil {
		return nil, err
	}

	order.ProviderOrderID = resp.OrderID
	order.Status = StatusSubmitted
	order.UpdatedAt = time.Now()

	w.mu.Lock()
	w.orders[order.PartnerOrderID] = order
	w.mu.Unlock()
	return cloned(order), nil
}

// Finish starts finalization of a submitted order. A sandbox-key
// restriction counts as a soft success: the order moves to processing
// with the sandbox flag set.
func (w *Workflow) Finish(ctx context.Context, partnerOrderID string, fin *models.FinishRequest) (*Order, error) {
	if err := fin.Validate(); err != nil {
		return nil, provider.NewError(provider.KindValidation, "booking_finish", err.Error())
	}
	order, err := w.get(partnerOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusSubmitted {
		return nil, provider.NewError(provider.KindValidation, "booking_finish",
			"order is "+string(order.Status)+", expected "+string(StatusSubmitted))
	}

	req := &provider.BookingFinishRequest{PartnerOrderID: partnerOrderID}
	req.User.Email = order.Email
	req.User.Phone = order.Phone
	req.Rooms = make([]struct {
		Guests []provider.BookingFinishGuest `json:"guests"`
	}, 1)
	for _, g := range order.Guests {
		req.Rooms[0].Guests = append(req.Rooms[0].Guests, provider.BookingFinishGuest{
			FirstName: g.First,
			LastName:  g.Last,
		})
	}
	req.PaymentType.Type = fin.PaymentType
	req.PaymentType.Amount = fin.Amount
	req.PaymentType.CurrencyCode = fin.Currency

	_, err = w.gw.BookingFinish(ctx, req)
	if err != nil {
		if provider.IsKind(err, provider.KindSandbox) {
			w.logger.Info("sandbox restriction on finish, treating as soft success",
				"order", partnerOrderID)
			return w.transition(partnerOrderID, StatusProcessing, func(o *Order) {
				o.SandboxMode = true
			})
		}
		return nil, err
	}
	return w.transition(partnerOrderID, StatusProcessing, nil)
}

// CheckStatus polls the provider for the order's finalization outcome.
func (w *Workflow) CheckStatus(ctx context.Context, partnerOrderID string) (*Order, error) {
	order, err := w.get(partnerOrderID)
	if err != nil {
		return nil, err
	}
	// Terminal states are never re-polled into something else.
	switch order.Status {
	case StatusConfirmed, StatusFailed, StatusCancelled:
		return order, nil
	}

	resp, err := w.gw.BookingStatus(ctx, partnerOrderID)
	if err != nil {
		return nil, err
	}
	switch resp.Status {
	case "ok":
		return w.transition(partnerOrderID, StatusConfirmed, nil)
	case "processing":
		return w.transition(partnerOrderID, StatusProcessing, nil)
	default:
		return w.transition(partnerOrderID, StatusFailed, nil)
	}
}

// CancellationInfo previews the refund and penalty for cancelling now,
// from the provider's cancellation-policy lookup.
type CancellationInfo struct {
	PartnerOrderID         string `json:"partner_order_id"`
	FreeCancellationBefore string `json:"free_cancellation_before,omitempty"`
	Amount                 string `json:"amount"`
	Currency               string `json:"currency"`
}

func (w *Workflow) CancellationInfo(ctx context.Context, partnerOrderID string) (*CancellationInfo, error) {
	if _, err := w.get(partnerOrderID); err != nil {
		return nil, err
	}
	info, err := w.gw.OrderInfo(ctx, partnerOrderID)
	if err != nil {
		return nil, err
	}
	return &CancellationInfo{
		PartnerOrderID:         partnerOrderID,
		FreeCancellationBefore: info.Cancellation.FreeCancellationBefore,
		Amount:                 info.Amount,
		Currency:               info.CurrencyCode,
	}, nil
}

// Cancel cancels a confirmed order and records the refund/penalty split
// reported by the provider.
func (w *Workflow) Cancel(ctx context.Context, partnerOrderID string) (*Order, error) {
	order, err := w.get(partnerOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusConfirmed {
		return nil, provider.NewError(provider.KindValidation, "cancel",
			"only confirmed orders can be cancelled, order is "+string(order.Status))
	}

	resp, err := w.gw.Cancel(ctx, partnerOrderID)
	if err != nil {
		return nil, err
	}
	return w.transition(partnerOrderID, StatusCancelled, func(o *Order) {
		o.RefundAmount = resp.Refund
		o.PenaltyAmount = resp.Penalty
	})
}

// Get returns the locally tracked order.
func (w *Workflow) Get(partnerOrderID string) (*Order, error) {
	return w.get(partnerOrderID)
}

func (w *Workflow) get(partnerOrderID string) (*Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	order, ok := w.orders[partnerOrderID]
	if !ok {
		return nil, provider.NewError(provider.KindNotFound, "order", "unknown order "+partnerOrderID)
	}
	return cloned(order), nil
}

func (w *Workflow) transition(partnerOrderID string, next Status, mutate func(*Order)) (*Order, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	order, ok := w.orders[partnerOrderID]
	if !ok {
		return nil, provider.NewError(provider.KindNotFound, "order", "unknown order "+partnerOrderID)
	}
	order.Status = next
	order.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(order)
	}
	return cloned(order), nil
}

func cloned(o *Order) *Order {
	c := *o
	return &c
}
