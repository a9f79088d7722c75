package payment_gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// tx_ref is what we store, so it is tried first. The top-level fields come
// from the legacy v2 hook format.
var flutterwaveReferencePaths = []string{"data.tx_ref", "data.id", "data.flw_ref", "txRef", "id"}

const flutterwaveLegacyEventTypePath = `event\.type`

type flutterwaveService struct {
	client     *gatewayClient
	secretHash string
	Log        *zap.Logger
}

func NewFlutterwaveService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGateway {
	return &flutterwaveService{
		client: newGatewayClient(
			string(models.PaymentProviderFlutterwave),
			strings.TrimRight(internalConfig.Flutterwave.BaseUrl, "/"),
			internalConfig.Flutterwave.SecretKey,
			internalConfig.Flutterwave.RequestTimeoutInSeconds,
			logger,
		),
		secretHash: internalConfig.Flutterwave.SecretHash,
		Log:        logger,
	}
}

func (s *flutterwaveService) Provider() models.PaymentProvider {
	return models.PaymentProviderFlutterwave
}

func (s *flutterwaveService) ExtractReferences(rawBody []byte) []string {
	return extractReferences(rawBody, flutterwaveReferencePaths)
}

// VerifySignature prefers flutterwave-signature (base64 HMAC-SHA256 of the raw
// body keyed with the secret hash) and falls back to the static verif-hash.
func (s *flutterwaveService) VerifySignature(header http.Header, rawBody []byte) error {
	provider := string(s.Provider())
	if s.secretHash == "" {
		return exceptions.ErrWebhookSecretNotConfigured(nil, provider)
	}

	if signature := strings.TrimSpace(header.Get(constvars.HeaderFlutterwaveSignature)); signature != "" {
		mac := hmac.New(sha256.New, []byte(s.secretHash))
		mac.Write(rawBody)
		expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
			return exceptions.ErrInvalidWebhookSignature(errors.New("signature mismatch"), provider)
		}
		return nil
	}

	if verifHash := strings.TrimSpace(header.Get(constvars.HeaderFlutterwaveVerifHash)); verifHash != "" {
		if subtle.ConstantTimeCompare([]byte(s.secretHash), []byte(verifHash)) != 1 {
			return exceptions.ErrInvalidWebhookSignature(errors.New("verif-hash mismatch"), provider)
		}
		return nil
	}

	return exceptions.ErrInvalidWebhookSignature(errors.New("signature header missing"), provider)
}

func (s *flutterwaveService) ParseEvent(rawBody []byte) (*contracts.WebhookEvent, error) {
	if !gjson.ValidBytes(rawBody) {
		return nil, exceptions.ErrCannotParseJSON(errors.New("webhook body is not valid JSON"))
	}

	parsed := gjson.ParseBytes(rawBody)
	event := &contracts.WebhookEvent{
		Type:           parsed.Get("event").String(),
		Reference:      firstNonEmpty(parsed, flutterwaveReferencePaths),
		ReportedStatus: parsed.Get("data.status").String(),
		Data:           dataObject(parsed.Get("data")),
	}

	if event.Type == constvars.FlutterwaveEventChargeCompleted {
		event.Kind = contracts.WebhookEventStatusChange
		return event, nil
	}

	// v2 hooks put the transaction at the top level
	if legacyType := parsed.Get(flutterwaveLegacyEventTypePath).String(); legacyType != "" && event.Type == "" {
		event.Type = legacyType
		event.ReportedStatus = parsed.Get("status").String()
		event.Data = dataObject(parsed)
		if event.ReportedStatus != "" {
			event.Kind = contracts.WebhookEventStatusChange
		}
		return event, nil
	}

	event.Kind = contracts.WebhookEventUnhandled
	return event, nil
}

func (s *flutterwaveService) ResolveEventID(event *contracts.WebhookEvent, reference string) string {
	return buildEventID(s.Provider(), event, reference)
}

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID                int64   `json:"id"`
		TxRef             string  `json:"tx_ref"`
		FlwRef            string  `json:"flw_ref"`
		Amount            float64 `json:"amount"`
		Currency          string  `json:"currency"`
		Status            string  `json:"status"`
		ProcessorResponse string  `json:"processor_response"`
		PaymentType       string  `json:"payment_type"`
	} `json:"data"`
}

func (s *flutterwaveService) Verify(ctx context.Context, reference string) (*contracts.PaymentVerification, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("flutterwaveService.Verify called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, reference),
	)

	var response flutterwaveVerifyResponse
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	if err := s.client.doJSON(ctx, constvars.MethodGet, path, nil, &response); err != nil {
		return nil, exceptions.ErrPaymentGatewayVerify(err, string(s.Provider()))
	}
	if response.Status != "success" {
		return nil, exceptions.ErrPaymentGatewayVerify(fmt.Errorf("flutterwave: %s", response.Message), string(s.Provider()))
	}

	verification := &contracts.PaymentVerification{
		Status:        mapFlutterwaveStatus(response.Data.Status),
		GatewayStatus: response.Data.Status,
		Metadata: models.Metadata{
			"gateway_status":         response.Data.Status,
			"gateway_response":       response.Data.ProcessorResponse,
			"gateway_transaction_id": response.Data.ID,
			"flw_ref":                response.Data.FlwRef,
			"payment_type":           response.Data.PaymentType,
			"amount":                 response.Data.Amount,
			"currency":               response.Data.Currency,
			"verified_at":            time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.Log.Info("flutterwaveService.Verify succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, reference),
		zap.String(constvars.LoggingGatewayStatusKey, response.Data.Status),
	)
	return verification, nil
}

type flutterwaveInitializeRequest struct {
	TxRef       string                 `json:"tx_ref"`
	Amount      string                 `json:"amount"`
	Currency    string                 `json:"currency"`
	RedirectURL string                 `json:"redirect_url,omitempty"`
	Customer    flutterwaveCustomer    `json:"customer"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
}

type flutterwaveCustomer struct {
	Email string `json:"email"`
}

type flutterwaveInitializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (s *flutterwaveService) Initialize(ctx context.Context, input *contracts.InitializePaymentInput) (*contracts.InitializePaymentOutput, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("flutterwaveService.Initialize called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, input.Reference),
	)

	request := flutterwaveInitializeRequest{
		TxRef:       input.Reference,
		Amount:      input.Amount.StringFixed(2),
		Currency:    input.Currency,
		RedirectURL: input.CallbackURL,
		Customer:    flutterwaveCustomer{Email: input.CustomerEmail},
		Meta:        input.Metadata,
	}

	var response flutterwaveInitializeResponse
	if err := s.client.doJSON(ctx, constvars.MethodPost, "/v3/payments", request, &response); err != nil {
		return nil, exceptions.ErrPaymentGatewayInitialize(err, string(s.Provider()))
	}
	if response.Status != "success" {
		return nil, exceptions.ErrPaymentGatewayInitialize(fmt.Errorf("flutterwave: %s", response.Message), string(s.Provider()))
	}

	return &contracts.InitializePaymentOutput{
		Reference:   input.Reference,
		CheckoutURL: response.Data.Link,
	}, nil
}

func mapFlutterwaveStatus(status string) models.PaymentStatus {
	switch strings.ToLower(status) {
	case "successful":
		return models.PaymentStatusCompleted
	case "failed", "cancelled":
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}
