package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	"github.com/smallbiznis/folio/internal/money"
)

type createDiscountRequest struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	PercentOff float64     `json:"percent_off"`
	AmountOff  money.Money `json:"amount_off"`
	IsEnabled  *bool       `json:"is_enabled"`
}

func (s *Server) CreateDiscount(c *gin.Context) {
	var req createDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.discountSvc.Create(c.Request.Context(), discountdomain.CreateRequest{
		Name:       strings.TrimSpace(req.Name),
		Kind:       discountdomain.DiscountKind(strings.TrimSpace(req.Kind)),
		PercentOff: req.PercentOff,
		AmountOff:  req.AmountOff,
		IsEnabled:  req.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDiscounts(c *gin.Context) {
	var query struct {
		Name      string `form:"name"`
		IsEnabled string `form:"is_enabled"`
		SortBy    string `form:"sort_by"`
		OrderBy   string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isEnabled, err := parseOptionalBool(query.IsEnabled)
	if err != nil {
		AbortWithError(c, newValidationError("is_enabled", "invalid_is_enabled", "invalid is_enabled"))
		return
	}

	resp, err := s.discountSvc.List(c.Request.Context(), discountdomain.ListRequest{
		Name:      strings.TrimSpace(query.Name),
		IsEnabled: isEnabled,
		SortBy:    strings.TrimSpace(query.SortBy),
		OrderBy:   strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableDiscount(c *gin.Context) {
	resp, err := s.discountSvc.Disable(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
