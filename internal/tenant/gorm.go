package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/catalog/odoo"
	"github.com/xelth-com/wooassist/internal/catalog/woo"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/models"
	"github.com/xelth-com/wooassist/internal/utils"
	"gorm.io/gorm"
)

// GormResolver looks tenants up in the tenants table. Consumer secrets are
// stored sealed with ENC_KEY; with no key configured they are read as is.
type GormResolver struct {
	db     *gorm.DB
	encKey string
	log    *logger.Logger

	mu    sync.Mutex
	cache map[uint]cachedCatalog
}

type cachedCatalog struct {
	updatedAt time.Time
	catalog   catalog.Catalog
}

func NewGormResolver(db *gorm.DB, encKey string, log *logger.Logger) *GormResolver {
	return &GormResolver{
		db:     db,
		encKey: encKey,
		log:    log,
		cache:  make(map[uint]cachedCatalog),
	}
}

func (r *GormResolver) ResolveByKey(ctx context.Context, clientKey string) (*Context, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).
		Where("client_key = ? AND is_active = ?", clientKey, true).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownClient
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	secret := t.ConsumerSecret
	if r.encKey != "" && secret != "" {
		secret, err = utils.OpenSecret(r.encKey, t.ConsumerSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credentials for tenant %d: %w", t.ID, err)
		}
	}

	backend := t.Backend
	if backend == "" {
		backend = BackendWoo
	}

	tc := &Context{
		ID:             strconv.FormatUint(uint64(t.ID), 10),
		ClientKey:      t.ClientKey,
		Name:           t.FullName,
		AllowRealName:  allowRealName(t.Prefs),
		Backend:        backend,
		StoreURL:       t.StoreURL,
		consumerKey:    t.ConsumerKey,
		consumerSecret: secret,
	}

	tc.Catalog, err = r.catalogFor(&t, secret)
	if err != nil {
		return nil, err
	}
	return tc, nil
}

func (r *GormResolver) catalogFor(t *models.Tenant, secret string) (catalog.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[t.ID]; ok && c.updatedAt.Equal(t.UpdatedAt) {
		return c.catalog, nil
	}

	var cat catalog.Catalog
	switch t.Backend {
	case "", BackendWoo:
		cat = woo.NewClient(t.StoreURL, t.ConsumerKey, secret, r.log.With("tenant", t.ID))
	case BackendOdoo:
		client := odoo.NewClient(t.StoreURL, t.OdooDatabase, t.OdooUsername, secret)
		cat = odoo.NewCatalog(client, r.log.With("tenant", t.ID))
	default:
		return nil, fmt.Errorf("tenant %d has unknown backend %q", t.ID, t.Backend)
	}

	r.cache[t.ID] = cachedCatalog{updatedAt: t.UpdatedAt, catalog: cat}
	return cat, nil
}

// allowRealName defaults to true when prefs are absent or malformed
func allowRealName(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	var prefs models.TenantPrefs
	if err := json.Unmarshal(raw, &prefs); err != nil || prefs.AllowRealName == nil {
		return true
	}
	return *prefs.AllowRealName
}
