package payments

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/app/services/shared/storage"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/dto/requests"
	"clinic-service/internal/pkg/exceptions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fakePaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	events   map[string]map[string]models.PaymentEvent

	findErr    error
	updateErrs map[string]error
	linkErr    error
	linkLost   bool

	// beforeApply runs inside ApplyPaymentEvent before the ledger insert.
	beforeApply  func(input *contracts.ApplyPaymentEventInput)
	// beforeUpdate runs inside UpdateStatusIfPending before the status check.
	beforeUpdate func(paymentID string)
}

func newFakePaymentRepository(payments ...*models.Payment) *fakePaymentRepository {
	repo := &fakePaymentRepository{
		payments:   make(map[string]*models.Payment),
		events:     make(map[string]map[string]models.PaymentEvent),
		updateErrs: make(map[string]error),
	}
	for _, p := range payments {
		repo.payments[p.ID] = clonePayment(p)
	}
	return repo
}

func clonePayment(p *models.Payment) *models.Payment {
	c := *p
	c.Metadata = p.Metadata.Merge(nil)
	if p.AppointmentID != nil {
		id := *p.AppointmentID
		c.AppointmentID = &id
	}
	return &c
}

func (r *fakePaymentRepository) get(id string) *models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		return clonePayment(p)
	}
	return nil
}

func (r *fakePaymentRepository) setStatus(id string, status models.PaymentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[id].Status = status
}

func (r *fakePaymentRepository) eventIDs(paymentID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.events[paymentID]))
	for id := range r.events[paymentID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *fakePaymentRepository) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.get(paymentID), nil
}

func (r *fakePaymentRepository) FindByProviderTransactionID(ctx context.Context, reference string) ([]models.Payment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []models.Payment
	for _, p := range r.payments {
		if p.ProviderTransactionID != "" && p.ProviderTransactionID == reference {
			matches = append(matches, *clonePayment(p))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (r *fakePaymentRepository) FindStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []models.Payment
	for _, p := range r.payments {
		if p.Status == models.PaymentStatusPending && p.CreatedAt.Before(createdBefore) && p.ProviderTransactionID != "" {
			stale = append(stale, *clonePayment(p))
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *fakePaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.CreatedAt = testNow
	payment.UpdatedAt = testNow
	r.payments[payment.ID] = clonePayment(payment)
	return payment, nil
}

func (r *fakePaymentRepository) SetProviderTransactionID(ctx context.Context, paymentID, reference string, patch models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return exceptions.ErrPostgresDBUpdateData(errors.New("no rows"))
	}
	p.ProviderTransactionID = reference
	p.Metadata = p.Metadata.Merge(patch)
	return nil
}

func (r *fakePaymentRepository) MergeMetadata(ctx context.Context, paymentID string, patch models.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[paymentID]; ok {
		p.Metadata = p.Metadata.Merge(patch)
	}
	return nil
}

func (r *fakePaymentRepository) HasEvent(ctx context.Context, paymentID, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[paymentID][eventID]
	return ok, nil
}

func (r *fakePaymentRepository) insertEvent(event models.PaymentEvent) bool {
	if r.events[event.PaymentID] == nil {
		r.events[event.PaymentID] = make(map[string]models.PaymentEvent)
	}
	if _, exists := r.events[event.PaymentID][event.EventID]; exists {
		return false
	}
	r.events[event.PaymentID][event.EventID] = event
	return true
}

func (r *fakePaymentRepository) ApplyPaymentEvent(ctx context.Context, input *contracts.ApplyPaymentEventInput) (*contracts.ApplyPaymentEventResult, error) {
	if r.beforeApply != nil {
		r.beforeApply(input)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[input.Event.PaymentID]
	if !ok {
		return nil, exceptions.ErrPaymentNotFound(nil)
	}
	if !r.insertEvent(input.Event) {
		return &contracts.ApplyPaymentEventResult{Duplicate: true, Payment: clonePayment(p)}, nil
	}

	p.Metadata = p.Metadata.
		Merge(input.MetadataPatch).
		WithProcessedEvent(constvars.MetadataKeyProcessedEvents, input.Event.EventID, constvars.ProcessedEventsLedgerCap)

	transitioned := input.NewStatus != "" && input.NewStatus != p.Status && p.Status.IsOpen()
	if transitioned {
		p.Status = input.NewStatus
	}
	return &contracts.ApplyPaymentEventResult{Transitioned: transitioned, Payment: clonePayment(p)}, nil
}

func (r *fakePaymentRepository) UpdateStatusIfPending(ctx context.Context, paymentID string, status models.PaymentStatus, patch models.Metadata) (bool, error) {
	if err := r.updateErrs[paymentID]; err != nil {
		return false, err
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(paymentID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || !p.Status.IsOpen() {
		return false, nil
	}
	p.Status = status
	p.Metadata = p.Metadata.Merge(patch)
	return true, nil
}

func (r *fakePaymentRepository) LinkAppointment(ctx context.Context, paymentID, appointmentID string) (bool, error) {
	if r.linkErr != nil {
		return false, r.linkErr
	}
	if r.linkLost {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || p.HasAppointment() {
		return false, nil
	}
	id := appointmentID
	p.AppointmentID = &id
	return true, nil
}

type fakeAppointmentRepository struct {
	mu           sync.Mutex
	appointments map[string]*models.Appointment
	created      int
	deleted      []string
	createErr    error
}

func newFakeAppointmentRepository() *fakeAppointmentRepository {
	return &fakeAppointmentRepository{appointments: make(map[string]*models.Appointment)}
}

func (r *fakeAppointmentRepository) FindByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[appointmentID]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (r *fakeAppointmentRepository) CreateAppointment(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment.CreatedAt = testNow
	appointment.UpdatedAt = testNow
	c := *appointment
	r.appointments[appointment.ID] = &c
	r.created++
	return appointment, nil
}

func (r *fakeAppointmentRepository) DeleteAppointment(ctx context.Context, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.appointments, appointmentID)
	r.deleted = append(r.deleted, appointmentID)
	return nil
}

func (r *fakeAppointmentRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

// fakeGateway signs with a shared header and reads the reference from a
// provider-specific path so tests can shape payloads per provider.
type fakeGateway struct {
	mu            sync.Mutex
	provider      models.PaymentProvider
	secret        string
	referencePath string
	statusEvents  map[string]bool
	verifications map[string]*contracts.PaymentVerification
	verifyErrs    map[string]error
	verifyCalls   []string
	initOutput    *contracts.InitializePaymentOutput
	initErr       error
	initCalls     int
}

const fakeSignatureHeader = "x-test-signature"

func newFakeGateway(provider models.PaymentProvider, secret, referencePath string, statusEvents ...string) *fakeGateway {
	events := make(map[string]bool, len(statusEvents))
	for _, e := range statusEvents {
		events[e] = true
	}
	return &fakeGateway{
		provider:      provider,
		secret:        secret,
		referencePath: referencePath,
		statusEvents:  events,
		verifications: make(map[string]*contracts.PaymentVerification),
		verifyErrs:    make(map[string]error),
	}
}

func (g *fakeGateway) Provider() models.PaymentProvider { return g.provider }

func (g *fakeGateway) ExtractReferences(rawBody []byte) []string {
	if ref := gjson.GetBytes(rawBody, g.referencePath).String(); ref != "" {
		return []string{ref}
	}
	return nil
}

func (g *fakeGateway) VerifySignature(header http.Header, rawBody []byte) error {
	if g.secret == "" {
		return exceptions.ErrWebhookSecretNotConfigured(nil, string(g.provider))
	}
	signature := header.Get(fakeSignatureHeader)
	if signature == "" || signature != g.secret {
		return exceptions.ErrInvalidWebhookSignature(nil, string(g.provider))
	}
	return nil
}

func (g *fakeGateway) ParseEvent(rawBody []byte) (*contracts.WebhookEvent, error) {
	parsed := gjson.ParseBytes(rawBody)
	event := &contracts.WebhookEvent{
		Type:           parsed.Get("event").String(),
		Reference:      parsed.Get(g.referencePath).String(),
		ReportedStatus: parsed.Get("data.status").String(),
	}
	if g.statusEvents[event.Type] {
		event.Kind = contracts.WebhookEventStatusChange
	}
	return event, nil
}

func (g *fakeGateway) ResolveEventID(event *contracts.WebhookEvent, reference string) string {
	return string(g.provider) + ":" + eventTypeOrUnknown(event.Type) + ":" + reference
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*contracts.PaymentVerification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls = append(g.verifyCalls, reference)
	if err := g.verifyErrs[reference]; err != nil {
		return nil, err
	}
	if v, ok := g.verifications[reference]; ok {
		return v, nil
	}
	return &contracts.PaymentVerification{Status: models.PaymentStatusPending, GatewayStatus: "pending", Metadata: models.Metadata{}}, nil
}

func (g *fakeGateway) Initialize(ctx context.Context, input *contracts.InitializePaymentInput) (*contracts.InitializePaymentOutput, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	if g.initOutput != nil {
		return g.initOutput, nil
	}
	return &contracts.InitializePaymentOutput{Reference: input.Reference, CheckoutURL: "https://checkout.test/" + input.Reference}, nil
}

func (g *fakeGateway) verifyCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.verifyCalls)
}

func (g *fakeGateway) willVerify(reference string, status models.PaymentStatus, gatewayStatus string) {
	g.verifications[reference] = &contracts.PaymentVerification{
		Status:        status,
		GatewayStatus: gatewayStatus,
		Metadata:      models.Metadata{"gateway_status": gatewayStatus},
	}
}

type MockMailerService struct {
	mock.Mock
}

func (m *MockMailerService) SendEmail(ctx context.Context, request *requests.EmailPayload) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type fakeWebhookArchive struct {
	mu     sync.Mutex
	stored []*storage.ArchiveWebhookInput
	err    error
}

func (a *fakeWebhookArchive) ArchiveWebhook(ctx context.Context, in *storage.ArchiveWebhookInput) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored = append(a.stored, in)
	return in.Provider + "/" + in.PaymentID + "/" + in.EventID + ".json", nil
}

type testHarness struct {
	usecase      *paymentUsecase
	payments     *fakePaymentRepository
	appointments *fakeAppointmentRepository
	paystack     *fakeGateway
	flutterwave  *fakeGateway
	mailer       *MockMailerService
	archive      *fakeWebhookArchive
}

const (
	paystackTestSecret    = "paystack-secret"
	flutterwaveTestSecret = "flutterwave-secret"
)

func newTestHarness(payments ...*models.Payment) *testHarness {
	h := &testHarness{
		payments:     newFakePaymentRepository(payments...),
		appointments: newFakeAppointmentRepository(),
		paystack: newFakeGateway(models.PaymentProviderPaystack, paystackTestSecret, "data.reference",
			constvars.PaystackEventChargeSuccess, constvars.PaystackEventChargeFailed),
		flutterwave: newFakeGateway(models.PaymentProviderFlutterwave, flutterwaveTestSecret, "data.tx_ref",
			constvars.FlutterwaveEventChargeCompleted),
		mailer:  new(MockMailerService),
		archive: &fakeWebhookArchive{},
	}

	h.usecase = &paymentUsecase{
		PaymentRepository:     h.payments,
		AppointmentRepository: h.appointments,
		Gateways: map[models.PaymentProvider]contracts.PaymentGateway{
			models.PaymentProviderPaystack:    h.paystack,
			models.PaymentProviderFlutterwave: h.flutterwave,
		},
		MailerService:  h.mailer,
		WebhookArchive: h.archive,
		InternalConfig: &config.InternalConfig{
			Cron: config.AppCron{
				PendingGraceWindowInMinutes: 60,
				SweepBatchSize:              50,
			},
			Mailer: config.AppMailer{EmailSender: "no-reply@clinic.test"},
		},
		VerifyLimiter: rate.NewLimiter(rate.Inf, 1),
		Log:           zap.NewNop(),
		now:           func() time.Time { return testNow },
	}
	return h
}

func (h *testHarness) expectEmails() {
	h.mailer.On("SendEmail", mock.Anything, mock.AnythingOfType("*requests.EmailPayload")).Return(nil)
}

func pendingPayment(id string, provider models.PaymentProvider, reference string, age time.Duration) *models.Payment {
	return &models.Payment{
		ID:                    id,
		UserID:                "user-1",
		Provider:              provider,
		ProviderTransactionID: reference,
		Amount:                decimal.NewFromInt(15000),
		Currency:              "NGN",
		Status:                models.PaymentStatusPending,
		CustomerEmail:         "patient@example.com",
		Metadata:              models.Metadata{},
		CreatedAt:             testNow.Add(-age),
		UpdatedAt:             testNow.Add(-age),
	}
}

func withAppointmentData(p *models.Payment, data map[string]interface{}) *models.Payment {
	p.Metadata[constvars.MetadataKeyAppointmentData] = data
	return p
}

func validAppointmentData() map[string]interface{} {
	return map[string]interface{}{
		"branch_id":        "branch-lagos-1",
		"appointment_date": "2026-10-20",
		"appointment_time": "09:30",
		"treatment_type":   "dental_cleaning",
		"notes":            "first visit",
	}
}

func signedHeader(secret string) http.Header {
	header := http.Header{}
	header.Set(fakeSignatureHeader, secret)
	return header
}

func webhookRequest(body string, header http.Header) *requests.PaymentWebhook {
	return &requests.PaymentWebhook{RawBody: []byte(body), Header: header}
}
