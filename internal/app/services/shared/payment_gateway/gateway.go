package payment_gateway

import (
	"fmt"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const unknownEventType = "unknown"

// NewPaymentGateways returns every rail that has a webhook, keyed by provider.
// The manual rail has none.
func NewPaymentGateways(internalConfig *config.InternalConfig, logger *zap.Logger) map[models.PaymentProvider]contracts.PaymentGateway {
	return map[models.PaymentProvider]contracts.PaymentGateway{
		models.PaymentProviderPaystack:    NewPaystackService(internalConfig, logger),
		models.PaymentProviderFlutterwave: NewFlutterwaveService(internalConfig, logger),
	}
}

func buildEventID(provider models.PaymentProvider, event *contracts.WebhookEvent, reference string) string {
	eventType := unknownEventType
	if event != nil && event.Type != "" {
		eventType = event.Type
	}
	return fmt.Sprintf("%s:%s:%s", provider, eventType, reference)
}

func extractReferences(rawBody []byte, paths []string) []string {
	if !gjson.ValidBytes(rawBody) {
		return nil
	}

	results := gjson.GetManyBytes(rawBody, paths...)
	references := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, result := range results {
		if !result.Exists() || result.Type == gjson.Null {
			continue
		}
		reference := result.String()
		if reference == "" {
			continue
		}
		if _, ok := seen[reference]; ok {
			continue
		}
		seen[reference] = struct{}{}
		references = append(references, reference)
	}
	return references
}

func firstNonEmpty(parsed gjson.Result, paths []string) string {
	for _, path := range paths {
		if value := parsed.Get(path).String(); value != "" {
			return value
		}
	}
	return ""
}

func dataObject(result gjson.Result) map[string]interface{} {
	if !result.IsObject() {
		return nil
	}
	data, ok := result.Value().(map[string]interface{})
	if !ok {
		return nil
	}
	return data
}
