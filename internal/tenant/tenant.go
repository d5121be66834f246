// Package tenant resolves the store a chat request operates on.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
)

// ErrUnknownClient is returned when a client key matches no tenant
var ErrUnknownClient = errors.New("unknown client key")

// Backend names
const (
	BackendWoo  = "woo"
	BackendOdoo = "odoo"
)

// Context is everything a tool or wizard needs to act for one tenant
type Context struct {
	ID            string
	ClientKey     string
	Name          string
	AllowRealName bool
	Backend       string
	StoreURL      string
	Catalog       catalog.Catalog

	consumerKey    string
	consumerSecret string
}

// DisplayName is the name the assistant may use, empty when the tenant
// opted out or has no name on file.
func (c *Context) DisplayName() string {
	if c == nil || !c.AllowRealName {
		return ""
	}
	return strings.TrimSpace(c.Name)
}

// Masked renders the tenant for debug output with credentials hidden
func (c *Context) Masked() map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"id":            c.ID,
		"clientKey":     c.ClientKey,
		"name":          c.Name,
		"allowRealName": c.AllowRealName,
		"backend":       c.Backend,
		"storeUrl":      c.StoreURL,
		"wooCk":         mask(c.consumerKey),
		"wooCs":         mask(c.consumerSecret),
	}
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

// SessionKey indexes every per-conversation store
func SessionKey(tenantID, conversationID string) string {
	return fmt.Sprintf("tenant:%s:conv:%s", tenantID, conversationID)
}

// Resolver maps a client key to its tenant
type Resolver interface {
	ResolveByKey(ctx context.Context, clientKey string) (*Context, error)
}

// WithFallback serves anonymous and unknown clients from fallback
func WithFallback(primary, fallback Resolver) Resolver {
	return &fallbackResolver{primary: primary, fallback: fallback}
}

type fallbackResolver struct {
	primary  Resolver
	fallback Resolver
}

func (r *fallbackResolver) ResolveByKey(ctx context.Context, clientKey string) (*Context, error) {
	if strings.TrimSpace(clientKey) != "" {
		tc, err := r.primary.ResolveByKey(ctx, clientKey)
		if err == nil {
			return tc, nil
		}
		if !errors.Is(err, ErrUnknownClient) {
			return nil, err
		}
	}
	return r.fallback.ResolveByKey(ctx, clientKey)
}
