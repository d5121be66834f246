package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xelth-com/wooassist/internal/database"
	"github.com/xelth-com/wooassist/internal/models"
	"github.com/xelth-com/wooassist/internal/tenant"
	"github.com/xelth-com/wooassist/internal/utils"
	"gorm.io/datatypes"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage the stores served by the assistant",
}

var tenantAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a store under a client key",
	RunE:  runTenantAdd,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered stores",
	RunE:  runTenantList,
}

func init() {
	f := tenantAddCmd.Flags()
	f.String("client-key", "", "key clients send with every message")
	f.String("name", "", "store owner's name")
	f.String("backend", tenant.BackendWoo, "catalog backend: woo or odoo")
	f.String("url", "", "store URL")
	f.String("ck", "", "WooCommerce consumer key")
	f.String("cs", "", "WooCommerce consumer secret, or the Odoo password")
	f.String("odoo-db", "", "Odoo database")
	f.String("odoo-user", "", "Odoo login")
	f.Bool("hide-name", false, "never let the assistant use the owner's name")
	_ = tenantAddCmd.MarkFlagRequired("client-key")
	_ = tenantAddCmd.MarkFlagRequired("url")
	_ = tenantAddCmd.MarkFlagRequired("cs")

	tenantCmd.AddCommand(tenantAddCmd, tenantListCmd)
}

func openTenantDB() (*database.DB, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("tenants live in the database: set DB_ENABLED=true")
	}
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runTenantAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	get := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	hideName, _ := f.GetBool("hide-name")

	backend := get("backend")
	if backend != tenant.BackendWoo && backend != tenant.BackendOdoo {
		return fmt.Errorf("unknown backend %q", backend)
	}
	if backend == tenant.BackendWoo && get("ck") == "" {
		return fmt.Errorf("--ck is required for WooCommerce stores")
	}

	secret := get("cs")
	if cfg.EncKey != "" {
		sealed, err := utils.SealSecret(cfg.EncKey, secret)
		if err != nil {
			return fmt.Errorf("seal secret: %w", err)
		}
		secret = sealed
	} else {
		log.Warn("ENC_KEY is not set, storing the secret unsealed")
	}

	allow := !hideName
	prefs, err := json.Marshal(models.TenantPrefs{AllowRealName: &allow})
	if err != nil {
		return err
	}

	db, err := openTenantDB()
	if err != nil {
		return err
	}
	defer db.Close()

	t := models.Tenant{
		ClientKey:      get("client-key"),
		FullName:       get("name"),
		Backend:        backend,
		StoreURL:       get("url"),
		ConsumerKey:    get("ck"),
		ConsumerSecret: secret,
		OdooDatabase:   get("odoo-db"),
		OdooUsername:   get("odoo-user"),
		Prefs:          datatypes.JSON(prefs),
		IsActive:       true,
	}
	if err := db.WithContext(cmd.Context()).Create(&t).Error; err != nil {
		return fmt.Errorf("create tenant: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tenant %d registered for client key %s\n", t.ID, t.ClientKey)
	return nil
}

func runTenantList(cmd *cobra.Command, args []string) error {
	db, err := openTenantDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var tenants []models.Tenant
	if err := db.WithContext(cmd.Context()).Order("id").Find(&tenants).Error; err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCLIENT KEY\tNAME\tBACKEND\tSTORE\tACTIVE")
	for _, t := range tenants {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%v\n", t.ID, t.ClientKey, t.FullName, t.Backend, t.StoreURL, t.IsActive)
	}
	return w.Flush()
}
