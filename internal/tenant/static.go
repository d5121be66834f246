package tenant

import (
	"context"
	"fmt"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/catalog/woo"
	"github.com/xelth-com/wooassist/internal/config"
	"github.com/xelth-com/wooassist/internal/logger"
)

// StaticResolver serves every request from one tenant configured in env
type StaticResolver struct {
	tenant *Context
}

// NewStaticResolver builds the env tenant. A missing store URL or key
// pair is an error, matching the credential check tools would hit anyway.
func NewStaticResolver(cfg config.WooConfig, log *logger.Logger) (*StaticResolver, error) {
	if cfg.URL == "" || cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("WooCommerce credentials are missing: set WOO_URL, WOO_CK and WOO_CS")
	}
	return &StaticResolver{tenant: &Context{
		ID:             "default",
		Name:           cfg.TenantName,
		AllowRealName:  true,
		Backend:        BackendWoo,
		StoreURL:       cfg.URL,
		Catalog:        woo.NewClient(cfg.URL, cfg.ConsumerKey, cfg.ConsumerSecret, log),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
	}}, nil
}

// NewStatic wraps an already-built catalog, used by tests and the REPL
func NewStatic(id, name string, cat catalog.Catalog) *StaticResolver {
	return &StaticResolver{tenant: &Context{
		ID:            id,
		Name:          name,
		AllowRealName: true,
		Backend:       BackendWoo,
		Catalog:       cat,
	}}
}

func (r *StaticResolver) ResolveByKey(_ context.Context, clientKey string) (*Context, error) {
	tc := *r.tenant
	tc.ClientKey = clientKey
	return &tc, nil
}
