package payment_gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxGatewayResponseBytes = 1 << 20

type gatewayClient struct {
	name       string
	baseUrl    string
	secretKey  string
	httpClient *http.Client
	Log        *zap.Logger
}

func newGatewayClient(name, baseUrl, secretKey string, timeoutInSeconds int, logger *zap.Logger) *gatewayClient {
	if timeoutInSeconds <= 0 {
		timeoutInSeconds = 15
	}
	return &gatewayClient{
		name:       name,
		baseUrl:    baseUrl,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: time.Duration(timeoutInSeconds) * time.Second},
		Log:        logger,
	}
}

// doJSON sends payload (when not nil) as JSON and decodes a 2xx response into out.
func (c *gatewayClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	requestID := utils.GetRequestID(ctx)
	url := c.baseUrl + path

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.Log.Error("gatewayClient.doJSON error creating HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentProviderKey, c.name),
			zap.Error(err),
		)
		return exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAuthorization, constvars.BearerTokenPrefix+c.secretKey)
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.Log.Error("gatewayClient.doJSON error sending HTTP request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPaymentProviderKey, c.name),
			zap.String(constvars.LoggingEndpointKey, path),
			zap.Error(err),
		)
		return exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayResponseBytes))
	if err != nil {
		return exceptions.ErrDecodeHTTPResponse(err, c.name)
	}

	c.Log.Debug("gatewayClient.doJSON received response",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaymentProviderKey, c.name),
		zap.String(constvars.LoggingEndpointKey, path),
		zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%s responded %d: %s", c.name, resp.StatusCode, truncate(raw, 256))
		return exceptions.ErrUnexpectedHTTPStatusCode(err, resp.StatusCode, c.name)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return exceptions.ErrDecodeHTTPResponse(err, c.name)
	}
	return nil
}

func truncate(raw []byte, limit int) string {
	if len(raw) <= limit {
		return string(raw)
	}
	return string(raw[:limit])
}
