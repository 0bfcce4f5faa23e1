package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourbook/config"
	"tourbook/internal/domain"
	"tourbook/internal/models"
	"tourbook/internal/repository"
	"tourbook/pkg/lock"
	"tourbook/pkg/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Provider statuses that mean the customer has not finished paying yet.
var inFlightStatuses = map[string]bool{"ongoing": true, "pending": true, "processing": true, "queued": true}

type PaymentService struct {
	cfg      config.PaystackConfig
	store    *repository.Store
	gateway  payment.Gateway
	bookings *BookingService
	locker   lock.Locker
	notifier *NotificationService
	log      *logrus.Logger
}

func NewPaymentService(cfg config.PaystackConfig, store *repository.Store, gateway payment.Gateway, bookings *BookingService,
	locker lock.Locker, notifier *NotificationService, log *logrus.Logger) *PaymentService {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &PaymentService{cfg: cfg, store: store, gateway: gateway, bookings: bookings, locker: locker, notifier: notifier, log: log}
}

// PaymentInit is returned to the client to continue at the provider.
type PaymentInit struct {
	AuthorizationURL string `json:"authorization_url"`
	PaymentID        uint   `json:"payment_id"`
	Reference        string `json:"reference"`
}

func initOf(p *models.Payment) *PaymentInit {
	return &PaymentInit{AuthorizationURL: p.AuthorizationURL, PaymentID: p.ID, Reference: p.TransactionReference}
}

// CreatePayment opens a provider transaction for a PENDING booking. An
// existing PENDING payment of a still PENDING booking is returned as is. The payment row is written only
// after the provider accepted the initialization.
func (s *PaymentService) CreatePayment(ctx context.Context, actor Actor, bookingID uint, method string) (*PaymentInit, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !domain.IsPaymentMethod(method) {
		return nil, domain.ErrInvalidPaymentMethod
	}
	db := s.store.WithContext(ctx)
	b, err := db.Bookings.Get(bookingID)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
	}
	if !actor.CanAccess(b.UserID) {
		return nil, domain.ErrForbidden
	}
	existing, err := db.Payments.GetByBookingID(b.ID)
	switch {
	case err == nil:
		if existing.Status != domain.PaymentStatusPending {
			return nil, domain.ErrPaymentExists
		}
		if b.Status != domain.BookingStatusPending {
			return nil, domain.ErrBookingNotPending
		}
		return initOf(existing), nil
	case !repository.IsNotFound(err):
		return nil, domain.Internal("PAYMENT_LOOKUP_FAILED", err)
	}
	if b.Status != domain.BookingStatusPending {
		return nil, domain.ErrBookingNotPending
	}
	if payment.ToMinor(b.TotalPrice) <= 0 {
		return nil, domain.Validation("NOTHING_TO_PAY", "booking total must be greater than zero")
	}
	owner, err := db.Users.GetByID(b.UserID)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrUserNotFound, "USER_LOOKUP_FAILED")
	}

	reference := "TB-" + strings.ReplaceAll(uuid.NewString(), "-", "")
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout())
	defer cancel()
	started, err := s.gateway.Initialize(gctx, payment.InitializeRequest{
		Amount:      b.TotalPrice,
		Currency:    s.cfg.Currency,
		Email:       owner.Email,
		Reference:   reference,
		Channel:     payment.ChannelFor(method),
		CallbackURL: s.cfg.CallbackURL,
		Metadata: map[string]interface{}{
			"booking_id":     b.ID,
			"user_id":        b.UserID,
			"payment_method": method,
		},
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "reference": reference}).Warn("gateway initialize failed")
		return nil, domain.Gateway(err)
	}

	p := &models.Payment{
		BookingID:            b.ID,
		UserID:               b.UserID,
		Amount:               b.TotalPrice,
		Currency:             s.cfg.Currency,
		PaymentMethod:        method,
		Status:               domain.PaymentStatusPending,
		TransactionReference: started.Reference,
		AuthorizationURL:     started.AuthorizationURL,
		AccessCode:           started.AccessCode,
	}
	if err := db.Payments.Create(p); err != nil {
		if !repository.IsDuplicateKey(err) {
			return nil, domain.Internal("PAYMENT_CREATE_FAILED", err)
		}
		// lost the race on unique(booking_id): hand back the winner
		winner, lerr := db.Payments.GetByBookingID(b.ID)
		if lerr != nil {
			return nil, domain.Internal("PAYMENT_LOOKUP_FAILED", lerr)
		}
		if winner.Status != domain.PaymentStatusPending {
			return nil, domain.ErrPaymentExists
		}
		return initOf(winner), nil
	}
	s.log.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"booking_id": b.ID,
		"reference":  p.TransactionReference,
		"method":     method,
	}).Info("payment initialized")
	return initOf(p), nil
}

// CallbackResult is the envelope returned to the redirect callback. A failed
// payment is a business outcome: Success is false but no error is returned.
type CallbackResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    CallbackData `json:"data"`
}

type CallbackData struct {
	BookingID     uint    `json:"booking_id"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
}

func (s *PaymentService) HandleCallback(ctx context.Context, reference string) (*CallbackResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, domain.ErrMissingReference
	}
	p, err := s.store.WithContext(ctx).Payments.GetByReference(reference)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
	}
	p, err = s.reconcile(ctx, p)
	if err != nil {
		return nil, err
	}
	res := &CallbackResult{
		Success: p.Status == domain.PaymentStatusCompleted,
		Data: CallbackData{
			BookingID:     p.BookingID,
			Reference:     p.TransactionReference,
			Amount:        p.Amount,
			PaymentStatus: p.Status,
		},
	}
	switch p.Status {
	case domain.PaymentStatusCompleted:
		res.Message = "Payment verified successfully"
	case domain.PaymentStatusPending:
		res.Message = "Payment is still being processed"
	case domain.PaymentStatusRefunded:
		res.Message = "Payment has been refunded"
	default:
		res.Message = "Payment verification failed"
	}
	return res, nil
}

// WebhookResult describes what a webhook delivery did. Deliveries that pass
// the signature check are always acknowledged.
type WebhookResult struct {
	Event     string `json:"event"`
	Reference string `json:"reference,omitempty"`
	Handled   bool   `json:"handled"`
	Status    string `json:"payment_status,omitempty"`
}

// HandleWebhook authenticates a provider push and reconciles charge.success
// events. The payload's amount and status are ignored; the transaction is
// always verified again with the provider.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string, meta RequestMeta) (*WebhookResult, error) {
	if !s.gateway.VerifySignature(rawBody, signature) {
		s.log.WithFields(logrus.Fields{"ip": meta.IP, "event": "webhook.signature_rejected"}).Warn("security: webhook signature mismatch")
		entry := auditEntry(Actor{}, meta, "webhook.signature_rejected", "payment_webhook", 0, map[string]interface{}{
			"body_bytes":    len(rawBody),
			"had_signature": signature != "",
		})
		if err := writeAudit(s.store.WithContext(ctx), entry); err != nil {
			s.log.WithError(err).Warn("audit log write failed")
		}
		return nil, domain.ErrInvalidSignature.Wrap(payment.ErrInvalidSignature)
	}
	ev, err := payment.ParseWebhookEvent(rawBody)
	if err != nil {
		s.log.WithError(err).Warn("webhook: unparseable body acknowledged")
		return &WebhookResult{}, nil
	}
	res := &WebhookResult{Event: ev.Event, Reference: ev.Data.Reference}
	if ev.Event != payment.EventChargeSuccess {
		s.log.WithField("event", ev.Event).Debug("webhook: event ignored")
		return res, nil
	}
	log := s.log.WithFields(logrus.Fields{"event": ev.Event, "reference": ev.Data.Reference})
	if ev.Data.Reference == "" {
		log.Warn("webhook: charge.success without reference")
		return res, nil
	}
	p, err := s.store.WithContext(ctx).Payments.GetByReference(ev.Data.Reference)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("webhook: unknown reference")
		} else {
			log.WithError(err).Error("webhook: payment lookup failed")
		}
		return res, nil
	}
	p, err = s.reconcile(ctx, p)
	if err != nil {
		log.WithError(err).Error("webhook: reconciliation failed")
		return res, nil
	}
	res.Handled = true
	res.Status = p.Status
	return res, nil
}

// reconcile verifies a PENDING payment with the provider and applies the
// outcome. The transition is conditional on the row still being PENDING, so
// racing callbacks and webhooks apply it exactly once. Payments that are no
// longer PENDING are returned unchanged.
func (s *PaymentService) reconcile(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	if p.Status != domain.PaymentStatusPending {
		return p, nil
	}
	log := s.log.WithFields(logrus.Fields{"payment_id": p.ID, "booking_id": p.BookingID, "reference": p.TransactionReference})

	release, acquired, err := s.locker.Acquire(ctx, "payment:"+p.TransactionReference)
	switch {
	case err != nil:
		log.WithError(err).Warn("reconcile lock unavailable, continuing without it")
	case !acquired:
		log.Debug("reconcile already in progress elsewhere")
		return s.reload(ctx, p.ID)
	default:
		defer release()
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout())
	defer cancel()
	v, err := s.gateway.Verify(gctx, p.TransactionReference)
	if err != nil {
		log.WithError(err).Warn("gateway verify failed")
		return nil, domain.Gateway(err)
	}

	var (
		applied       bool
		bookingStatus string
	)
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.Get(p.BookingID)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		outcome := verificationOutcome(v, b.TotalPrice, p.Currency)
		if outcome == domain.PaymentStatusPending {
			return nil
		}
		if outcome == domain.PaymentStatusFailed {
			log.WithFields(logrus.Fields{"provider_status": v.Status, "provider_amount": v.Amount, "expected": b.TotalPrice}).Warn("payment verification failed")
		}
		var paidAt *time.Time
		if outcome == domain.PaymentStatusCompleted {
			now := time.Now()
			paidAt = &now
		}
		ok, err := tx.Payments.Transition(p.ID, domain.PaymentStatusPending, outcome, paidAt)
		if err != nil {
			return domain.Internal("PAYMENT_UPDATE_FAILED", err)
		}
		if !ok {
			return nil
		}
		if outcome == domain.PaymentStatusCompleted &&
			(b.Status == domain.BookingStatusPending || b.Status == domain.BookingStatusCancelled) {
			if err := s.bookings.setStatus(tx, b, domain.BookingStatusConfirmed); err != nil {
				return err
			}
		}
		applied = true
		bookingStatus = b.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	fresh, err := s.reload(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if applied {
		log.WithField("status", fresh.Status).Info("payment reconciled")
		s.notifier.PaymentChanged(ctx, fresh, bookingStatus)
	}
	return fresh, nil
}

// verificationOutcome decides the status a PENDING payment moves to. An
// amount or currency mismatch fails the payment whatever the provider says.
func verificationOutcome(v *payment.Verification, expected float64, currency string) string {
	if !payment.SameAmount(v.Amount, expected) {
		return domain.PaymentStatusFailed
	}
	if v.Currency != "" && currency != "" && !strings.EqualFold(v.Currency, currency) {
		return domain.PaymentStatusFailed
	}
	if v.Succeeded() {
		return domain.PaymentStatusCompleted
	}
	if inFlightStatuses[strings.ToLower(v.Status)] {
		return domain.PaymentStatusPending
	}
	return domain.PaymentStatusFailed
}

// UpdatePaymentStatus is the admin override. The paired booking status is
// written in the same transaction.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, actor Actor, paymentID uint, status string, meta RequestMeta) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !domain.IsPaymentStatus(status) {
		return nil, domain.ErrInvalidPaymentStatus
	}
	var (
		from          string
		bookingStatus string
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.GetByID(paymentID)
		if err != nil {
			return notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
		}
		from = p.Status
		if !CanTransition(from, status) {
			return domain.ErrInvalidTransition.Wrap(errors.New(from + " -> " + status))
		}
		if from != status {
			var ok bool
			now := time.Now()
			switch status {
			case domain.PaymentStatusRefunded:
				ok, err = tx.Payments.MarkRefunded(p.ID, from, status, "", now)
			case domain.PaymentStatusCompleted:
				ok, err = tx.Payments.Transition(p.ID, from, status, &now)
			default:
				ok, err = tx.Payments.Transition(p.ID, from, status, nil)
			}
			if err != nil {
				return domain.Internal("PAYMENT_UPDATE_FAILED", err)
			}
			if !ok {
				return domain.Conflict("PAYMENT_MODIFIED", "payment was modified concurrently, retry")
			}
		}
		b, err := tx.Bookings.Get(p.BookingID)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		target := bookingStatusFor(status)
		if !(b.Status == domain.BookingStatusCompleted && target == domain.BookingStatusConfirmed) {
			if err := s.bookings.setStatus(tx, b, target); err != nil {
				return err
			}
		}
		bookingStatus = b.Status
		return writeAudit(tx, auditEntry(actor, meta, "payment.status_updated", "payment", p.ID, map[string]interface{}{
			"from":           from,
			"to":             status,
			"booking_id":     b.ID,
			"booking_status": b.Status,
		}))
	})
	if err != nil {
		return nil, err
	}
	p, err := s.reload(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"payment_id": p.ID, "from": from, "to": status, "actor_id": actor.UserID}).Info("payment status updated")
	if from != status {
		s.notifier.PaymentChanged(ctx, p, bookingStatus)
	}
	return p, nil
}

// DeletePayment removes a payment that is not COMPLETED and puts its booking
// back to PENDING.
func (s *PaymentService) DeletePayment(ctx context.Context, actor Actor, paymentID uint, meta RequestMeta) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.GetByID(paymentID)
		if err != nil {
			return notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
		}
		if p.Status == domain.PaymentStatusCompleted {
			return domain.ErrPaymentCompleted
		}
		ok, err := tx.Payments.DeleteIfNot(p.ID, domain.PaymentStatusCompleted)
		if err != nil {
			return domain.Internal("PAYMENT_DELETE_FAILED", err)
		}
		if !ok {
			return domain.ErrPaymentCompleted
		}
		b, err := tx.Bookings.Get(p.BookingID)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		if err := s.bookings.setStatus(tx, b, domain.BookingStatusPending); err != nil {
			return err
		}
		return writeAudit(tx, auditEntry(actor, meta, "payment.deleted", "payment", p.ID, map[string]interface{}{
			"status":     p.Status,
			"reference":  p.TransactionReference,
			"booking_id": p.BookingID,
		}))
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"payment_id": paymentID, "actor_id": actor.UserID}).Info("payment deleted")
	return nil
}

// RefundPayment records a refund of a COMPLETED payment and cancels the
// booking. Money is not moved through the provider here; the
// payment.refunded event is the hand-off to whoever executes it.
func (s *PaymentService) RefundPayment(ctx context.Context, actor Actor, paymentID uint, reason string, meta RequestMeta) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	var bookingStatus string
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		p, err := tx.Payments.GetByID(paymentID)
		if err != nil {
			return notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
		}
		if p.Status != domain.PaymentStatusCompleted {
			return domain.ErrNotRefundable
		}
		ok, err := tx.Payments.MarkRefunded(p.ID, domain.PaymentStatusCompleted, domain.PaymentStatusRefunded, reason, time.Now())
		if err != nil {
			return domain.Internal("PAYMENT_UPDATE_FAILED", err)
		}
		if !ok {
			return domain.ErrNotRefundable
		}
		b, err := tx.Bookings.Get(p.BookingID)
		if err != nil {
			return notFoundOr(err, domain.ErrBookingNotFound, "BOOKING_LOOKUP_FAILED")
		}
		if err := s.bookings.setStatus(tx, b, domain.BookingStatusCancelled); err != nil {
			return err
		}
		bookingStatus = b.Status
		return writeAudit(tx, auditEntry(actor, meta, "payment.refunded", "payment", p.ID, map[string]interface{}{
			"reason":     reason,
			"amount":     p.Amount,
			"booking_id": p.BookingID,
		}))
	})
	if err != nil {
		return nil, err
	}
	p, err := s.reload(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"payment_id": p.ID, "reference": p.TransactionReference, "amount": p.Amount}).
		Warn("refund recorded locally; provider refund must be executed out of band")
	s.notifier.PaymentChanged(ctx, p, bookingStatus)
	return p, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, actor Actor, paymentID uint) (*models.Payment, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.store.WithContext(ctx).Payments.GetByID(paymentID)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
	}
	if !actor.CanAccess(p.UserID) {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, actor Actor, f repository.PaymentFilter) ([]models.Payment, int64, error) {
	if !actor.Authenticated() {
		return nil, 0, domain.ErrUnauthenticated
	}
	if f.Status != "" && !domain.IsPaymentStatus(f.Status) {
		return nil, 0, domain.ErrInvalidPaymentStatus
	}
	if f.Method != "" && !domain.IsPaymentMethod(f.Method) {
		return nil, 0, domain.ErrInvalidPaymentMethod
	}
	if f.Page < 0 || f.Limit < 0 {
		return nil, 0, domain.ErrInvalidFilter.Wrap(errors.New("page and limit must be positive"))
	}
	if !actor.IsStaff() {
		uid := actor.UserID
		f.UserID = &uid
	}
	list, total, err := s.store.WithContext(ctx).Payments.List(f)
	if err != nil {
		return nil, 0, domain.Internal("PAYMENT_LIST_FAILED", err)
	}
	return list, total, nil
}

func (s *PaymentService) reload(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.store.WithContext(ctx).Payments.GetByID(id)
	if err != nil {
		return nil, notFoundOr(err, domain.ErrPaymentNotFound, "PAYMENT_LOOKUP_FAILED")
	}
	return p, nil
}

func (s *PaymentService) gatewayTimeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return 15 * time.Second
}
