// Package jwks verifies bearer tokens issued by an external identity provider
// that publishes its signing keys as a JSON Web Key Set.
package jwks

import (
	"context"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/pkg/identity"

	"github.com/golang-jwt/jwt/v5"
)

const (
	cacheTTL = 5 * time.Minute
	// minRefreshInterval bounds refetches forced by unknown kids.
	minRefreshInterval = 30 * time.Second
)

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key. RSA keys carry N/E, OKP keys carry Crv/X.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Client struct {
	jwksURL    string
	issuer     string
	audience   string
	httpClient *http.Client
	cache      *jwksCache
	now        func() time.Time
}

type jwksCache struct {
	jwks      *JWKS
	fetchedAt time.Time
	expiresAt time.Time
	mutex     sync.RWMutex
}

var _ identity.Verifier = (*Client)(nil)

func NewClient(jwksURL, issuer, audience string) *Client {
	return &Client{
		jwksURL:  jwksURL,
		issuer:   issuer,
		audience: audience,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: &jwksCache{},
		now:   time.Now,
	}
}

func (c *Client) fetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS fetch failed with status %d", resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}
	return &set, nil
}

func (c *Client) getJWKS(ctx context.Context, refresh bool) (*JWKS, error) {
	if !refresh {
		c.cache.mutex.RLock()
		if c.cache.jwks != nil && c.now().Before(c.cache.expiresAt) {
			set := c.cache.jwks
			c.cache.mutex.RUnlock()
			return set, nil
		}
		c.cache.mutex.RUnlock()
	}

	c.cache.mutex.Lock()
	defer c.cache.mutex.Unlock()

	now := c.now()
	if c.cache.jwks != nil && now.Before(c.cache.expiresAt) {
		if !refresh || now.Sub(c.cache.fetchedAt) < minRefreshInterval {
			return c.cache.jwks, nil
		}
	}

	set, err := c.fetchJWKS(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.jwks = set
	c.cache.fetchedAt = now
	c.cache.expiresAt = now.Add(cacheTTL)
	return set, nil
}

// getKey looks kid up in the cached set and refetches once on a miss, which
// covers provider key rotation. A set younger than minRefreshInterval is not
// refetched, so tokens with made-up kids cannot drive traffic to the provider.
func (c *Client) getKey(ctx context.Context, kid string) (*JWK, error) {
	for _, refresh := range []bool{false, true} {
		set, err := c.getJWKS(ctx, refresh)
		if err != nil {
			return nil, err
		}
		for i := range set.Keys {
			if set.Keys[i].Kid == kid {
				return &set.Keys[i], nil
			}
		}
	}
	return nil, fmt.Errorf("key with kid %s not found", kid)
}

func publicKey(key *JWK) (interface{}, error) {
	switch key.Kty {
	case "RSA":
		n, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, fmt.Errorf("failed to decode modulus: %w", err)
		}
		e, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, fmt.Errorf("failed to decode exponent: %w", err)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}, nil
	case "OKP":
		if key.Crv != "Ed25519" {
			return nil, fmt.Errorf("unsupported curve %q", key.Crv)
		}
		x, err := base64.RawURLEncoding.DecodeString(key.X)
		if err != nil {
			return nil, fmt.Errorf("failed to decode public key: %w", err)
		}
		if len(x) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid Ed25519 key size %d", len(x))
		}
		return ed25519.PublicKey(x), nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", key.Kty)
	}
}

// ValidateJWT verifies signature, issuer, audience and expiry.
func (c *Client) ValidateJWT(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "EdDSA"}),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("missing or invalid kid in JWT header")
		}
		key, err := c.getKey(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("failed to get key: %w", err)
		}
		return publicKey(key)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to verify JWT: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT claims")
	}
	return claims, nil
}

func (c *Client) Verify(ctx context.Context, tokenString string) (*identity.User, error) {
	claims, err := c.ValidateJWT(ctx, tokenString)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindAuth, "Invalid token", err)
	}
	if claims.Subject == "" {
		return nil, apperror.Auth("Invalid token")
	}
	return &identity.User{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  identity.DisplayName(claims.Name, claims.Email),
	}, nil
}
