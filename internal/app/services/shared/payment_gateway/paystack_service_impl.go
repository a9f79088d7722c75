package payment_gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
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

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	paystackReferencePaths = []string{"data.reference"}
	minorUnitFactor        = decimal.NewFromInt(100)
)

type paystackService struct {
	client *gatewayClient
	Log    *zap.Logger
}

func NewPaystackService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGateway {
	return &paystackService{
		client: newGatewayClient(
			string(models.PaymentProviderPaystack),
			strings.TrimRight(internalConfig.Paystack.BaseUrl, "/"),
			internalConfig.Paystack.SecretKey,
			internalConfig.Paystack.RequestTimeoutInSeconds,
			logger,
		),
		Log: logger,
	}
}

func (s *paystackService) Provider() models.PaymentProvider {
	return models.PaymentProviderPaystack
}

func (s *paystackService) ExtractReferences(rawBody []byte) []string {
	return extractReferences(rawBody, paystackReferencePaths)
}

// VerifySignature compares x-paystack-signature against the hex HMAC-SHA512 of
// the raw body keyed with the secret key.
func (s *paystackService) VerifySignature(header http.Header, rawBody []byte) error {
	provider := string(s.Provider())
	if s.client.secretKey == "" {
		return exceptions.ErrWebhookSecretNotConfigured(nil, provider)
	}

	signature := strings.TrimSpace(header.Get(constvars.HeaderPaystackSignature))
	if signature == "" {
		return exceptions.ErrInvalidWebhookSignature(errors.New("signature header missing"), provider)
	}

	mac := hmac.New(sha512.New, []byte(s.client.secretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return exceptions.ErrInvalidWebhookSignature(errors.New("signature mismatch"), provider)
	}
	return nil
}

func (s *paystackService) ParseEvent(rawBody []byte) (*contracts.WebhookEvent, error) {
	if !gjson.ValidBytes(rawBody) {
		return nil, exceptions.ErrCannotParseJSON(errors.New("webhook body is not valid JSON"))
	}

	parsed := gjson.ParseBytes(rawBody)
	event := &contracts.WebhookEvent{
		Type:           parsed.Get("event").String(),
		Reference:      parsed.Get("data.reference").String(),
		ReportedStatus: parsed.Get("data.status").String(),
		Data:           dataObject(parsed.Get("data")),
	}

	switch event.Type {
	case constvars.PaystackEventChargeSuccess, constvars.PaystackEventChargeFailed:
		event.Kind = contracts.WebhookEventStatusChange
	default:
		event.Kind = contracts.WebhookEventUnhandled
	}
	return event, nil
}

func (s *paystackService) ResolveEventID(event *contracts.WebhookEvent, reference string) string {
	return buildEventID(s.Provider(), event, reference)
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID              int64  `json:"id"`
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		GatewayResponse string `json:"gateway_response"`
		Channel         string `json:"channel"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
}

func (s *paystackService) Verify(ctx context.Context, reference string) (*contracts.PaymentVerification, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("paystackService.Verify called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, reference),
	)

	var response paystackVerifyResponse
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := s.client.doJSON(ctx, constvars.MethodGet, path, nil, &response); err != nil {
		return nil, exceptions.ErrPaymentGatewayVerify(err, string(s.Provider()))
	}
	if !response.Status {
		return nil, exceptions.ErrPaymentGatewayVerify(fmt.Errorf("paystack: %s", response.Message), string(s.Provider()))
	}

	verification := &contracts.PaymentVerification{
		Status:        mapPaystackStatus(response.Data.Status),
		GatewayStatus: response.Data.Status,
		Metadata: models.Metadata{
			"gateway_status":         response.Data.Status,
			"gateway_response":       response.Data.GatewayResponse,
			"gateway_transaction_id": response.Data.ID,
			"channel":                response.Data.Channel,
			"amount_minor":           response.Data.Amount,
			"currency":               response.Data.Currency,
			"paid_at":                response.Data.PaidAt,
			"verified_at":            time.Now().UTC().Format(time.RFC3339),
		},
	}

	s.Log.Info("paystackService.Verify succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, reference),
		zap.String(constvars.LoggingGatewayStatusKey, response.Data.Status),
	)
	return verification, nil
}

type paystackInitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      string                 `json:"amount"`
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type paystackInitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (s *paystackService) Initialize(ctx context.Context, input *contracts.InitializePaymentInput) (*contracts.InitializePaymentOutput, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("paystackService.Initialize called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentReferenceKey, input.Reference),
	)

	// Paystack amounts are in the currency's minor unit.
	request := paystackInitializeRequest{
		Email:       input.CustomerEmail,
		Amount:      input.Amount.Mul(minorUnitFactor).Round(0).String(),
		Currency:    input.Currency,
		Reference:   input.Reference,
		CallbackURL: input.CallbackURL,
		Metadata:    input.Metadata,
	}

	var response paystackInitializeResponse
	if err := s.client.doJSON(ctx, constvars.MethodPost, "/transaction/initialize", request, &response); err != nil {
		return nil, exceptions.ErrPaymentGatewayInitialize(err, string(s.Provider()))
	}
	if !response.Status {
		return nil, exceptions.ErrPaymentGatewayInitialize(fmt.Errorf("paystack: %s", response.Message), string(s.Provider()))
	}

	reference := response.Data.Reference
	if reference == "" {
		reference = input.Reference
	}
	return &contracts.InitializePaymentOutput{
		Reference:   reference,
		CheckoutURL: response.Data.AuthorizationURL,
		AccessCode:  response.Data.AccessCode,
	}, nil
}

func mapPaystackStatus(status string) models.PaymentStatus {
	switch strings.ToLower(status) {
	case "success":
		return models.PaymentStatusCompleted
	case "failed", "reversed":
		return models.PaymentStatusFailed
	case "ongoing", "processing", "queued":
		return models.PaymentStatusProcessing
	default:
		// pending, abandoned and anything new stay open
		return models.PaymentStatusPending
	}
}
