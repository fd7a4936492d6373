package paymentlink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("invalid_payment_link_config")

type httpIssuer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      *zap.Logger
}

// NewHTTPIssuer builds an Issuer backed by the provider's REST endpoint.
func NewHTTPIssuer(endpoint, apiKey string, log *zap.Logger) Issuer {
	return &httpIssuer{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.Named("paymentlink"),
	}
}

type createLinkRequest struct {
	Reference string            `json:"reference"`
	Amount    linkAmount        `json:"amount"`
	ReturnURL string            `json:"returnUrl,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type linkAmount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

type createLinkResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *httpIssuer) Issue(ctx context.Context, req IssueRequest) (PaymentLink, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return PaymentLink{}, ErrInvalidConfig
	}

	body := createLinkRequest{
		Reference: req.InvoiceNumber,
		Amount: linkAmount{
			Currency: req.Currency,
			Value:    int64(req.Amount),
		},
		ReturnURL: req.ReturnURL,
		Metadata: map[string]string{
			"invoice_id": req.InvoiceID.String(),
			"org_id":     req.OrgID.String(),
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return PaymentLink{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/payment-links", bytes.NewReader(payload))
	if err != nil {
		return PaymentLink{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return PaymentLink{}, &ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.log.Warn("payment link request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("invoice_id", req.InvoiceID.String()),
		)
		return PaymentLink{}, &ProviderError{StatusCode: resp.StatusCode}
	}

	var linkResp createLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&linkResp); err != nil {
		return PaymentLink{}, &ProviderError{Err: err}
	}
	if linkResp.ID == "" || linkResp.URL == "" {
		return PaymentLink{}, &ProviderError{Err: errors.New("incomplete_provider_response")}
	}

	return PaymentLink{ID: linkResp.ID, URL: linkResp.URL}, nil
}
