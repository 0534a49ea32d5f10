package auth

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/MikkelWestermann/turn-signal-sub000/middleware"
	"github.com/MikkelWestermann/turn-signal-sub000/models"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// TenantClaims carries the organisation tenant id Auth0 puts on tokens.
type TenantClaims struct {
	TenantId string `json:"https://turnsignal.dev/tenantId"`
}

func (c *TenantClaims) Validate(ctx context.Context) error {
	return nil
}

// AuthRequired validates an Auth0-issued bearer token and resolves the
// caller's organisation into the request context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {

		issuerURL, err := url.Parse("https://" + os.Getenv("AUTH0_DOMAIN") + "/")
		if err != nil {
			log.Fatalf("Failed to parse the issuer url: %v", err)
		}

		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

		jwtValidator, err := validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{os.Getenv("AUTH0_AUDIENCE")},
			validator.WithCustomClaims(func() validator.CustomClaims {
				return &TenantClaims{}
			}),
		)
		if err != nil {
			log.Fatalf("Failed to set up the jwt validator")
		}

		authHeader := c.Request.Header.Get("Authorization")
		authHeaderParts := strings.Split(authHeader, " ")
		if len(authHeaderParts) != 2 {
			terminateWithError(http.StatusUnauthorized, "Invalid Authorization Header", c)
			return
		}

		tokenInfo, err := jwtValidator.ValidateToken(c.Request.Context(), authHeaderParts[1])
		if err != nil {
			log.Printf("Error validating token: %v", err)
			terminateWithError(http.StatusUnauthorized, "token is not valid", c)
			return
		}

		claims, ok := tokenInfo.(*validator.ValidatedClaims)
		if !ok {
			terminateWithError(http.StatusUnauthorized, "token is not valid", c)
			return
		}

		tenantClaims, ok := claims.CustomClaims.(*TenantClaims)
		if !ok || tenantClaims.TenantId == "" {
			terminateWithError(http.StatusUnauthorized, "token carries no tenant", c)
			return
		}

		var org models.Organisation
		err = models.DB.GormDB.Take(&org, "external_source = ? AND external_id = ?", "auth0", tenantClaims.TenantId).Error
		if err != nil {
			log.Printf("Error while fetching organisation: %v", err)
			terminateWithError(http.StatusUnauthorized, "unknown organisation", c)
			return
		}

		c.Set(middleware.ORGANISATION_ID_KEY, org.ID)
		c.Next()
	}
}

func terminateWithError(statusCode int, message string, c *gin.Context) {
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}
