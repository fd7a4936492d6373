package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/orgcontext"
)

// OrgContext resolves the active organization from the X-Org-ID header
// and stores it in the request context. Requests without a resolvable
// org fall back to the configured default, if any.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Org-ID"))
		if raw != "" {
			orgID, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, newValidationError("org_id", "invalid_org_id", "invalid org id"))
				return
			}
			c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), int64(orgID)))
			c.Next()
			return
		}

		if s.cfg.DefaultOrgID != 0 {
			c.Request = c.Request.WithContext(orgcontext.WithOrgID(c.Request.Context(), s.cfg.DefaultOrgID))
		}
		c.Next()
	}
}
