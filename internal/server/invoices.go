package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/money"
)

type invoiceItemRequest struct {
	Description string         `json:"description"`
	Quantity    int64          `json:"quantity"`
	UnitAmount  money.Money    `json:"unit_amount"`
	TaxRateID   *string        `json:"tax_rate_id,omitempty"`
	DiscountID  *string        `json:"discount_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type createInvoiceRequest struct {
	CustomerID  *string              `json:"customer_id,omitempty"`
	Currency    string               `json:"currency"`
	Description string               `json:"description"`
	Items       []invoiceItemRequest `json:"items"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

type replaceInvoiceItemsRequest struct {
	Items []invoiceItemRequest `json:"items"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customerID, err := parseOptionalID(req.CustomerID)
	if err != nil {
		AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
		return
	}
	items, err := toItemInputs(req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	inv, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:  customerID,
		Currency:    req.Currency,
		Description: req.Description,
		Items:       items,
		Metadata:    req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inv})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	inv, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		PageToken   string `form:"page_token"`
		PageSize    int    `form:"page_size,default=25"`
		Status      string `form:"status"`
		CustomerID  string `form:"customer_id"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := invoicedomain.ListInvoiceRequest{}
	req.PageToken = query.PageToken
	req.PageSize = query.PageSize

	if status := strings.TrimSpace(query.Status); status != "" {
		parsed := invoicedomain.InvoiceStatus(strings.ToUpper(status))
		req.Status = &parsed
	}
	if raw := strings.TrimSpace(query.CustomerID); raw != "" {
		customerID, err := parseOptionalID(&raw)
		if err != nil {
			AbortWithError(c, newValidationError("customer_id", "invalid_customer_id", "invalid customer id"))
			return
		}
		req.CustomerID = customerID
	}
	createdFrom, err := parseOptionalTime(query.CreatedFrom)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	req.CreatedFrom = createdFrom
	createdTo, err := parseOptionalTime(query.CreatedTo)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}
	req.CreatedTo = createdTo

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReplaceInvoiceItems(c *gin.Context) {
	var req replaceInvoiceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	inv, err := s.invoiceSvc.ReplaceItems(c.Request.Context(), c.Param("id"), items)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) PayInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Void(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) MarkInvoiceUncollectible(c *gin.Context) {
	inv, err := s.invoiceSvc.MarkUncollectible(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func (s *Server) RecalculateInvoice(c *gin.Context) {
	inv, err := s.invoiceSvc.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

func toItemInputs(items []invoiceItemRequest) ([]invoicedomain.ItemInput, error) {
	out := make([]invoicedomain.ItemInput, 0, len(items))
	for _, item := range items {
		taxRateID, err := parseOptionalID(item.TaxRateID)
		if err != nil {
			return nil, newValidationError("tax_rate_id", "invalid_tax_rate_id", "invalid tax rate id")
		}
		discountID, err := parseOptionalID(item.DiscountID)
		if err != nil {
			return nil, newValidationError("discount_id", "invalid_discount_id", "invalid discount id")
		}
		out = append(out, invoicedomain.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxRateID:   taxRateID,
			DiscountID:  discountID,
			Metadata:    item.Metadata,
		})
	}
	return out, nil
}

func parseOptionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
