package utils

import (
	"fmt"
	"strings"
	"time"

	"clinic-service/internal/pkg/constvars"

	"github.com/google/uuid"
)

func GenerateRequestID() string {
	return fmt.Sprintf("%s%s", constvars.REQUEST_ID_PREFIX, uuid.New().String())
}

// GeneratePaymentReference returns a reference for rails that do not issue
// their own, e.g. CLNC-20261018-5f1c2a9b.
func GeneratePaymentReference() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", constvars.PaymentReferencePrefix, time.Now().UTC().Format("20060102"), strings.ToUpper(suffix))
}

func GenerateArchiveObjectName(provider, paymentID, eventID string) string {
	safeEventID := strings.NewReplacer(":", "_", "/", "_").Replace(eventID)
	return fmt.Sprintf("%s/%s/%s_%d.json", provider, paymentID, safeEventID, time.Now().UTC().UnixNano())
}
