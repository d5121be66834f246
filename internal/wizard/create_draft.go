package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xelth-com/wooassist/internal/catalog"
	"github.com/xelth-com/wooassist/internal/fields"
	"golang.org/x/sync/errgroup"
)

// ProductDraft holds the validated answers of a guided creation.
// Pointer fields distinguish "not answered" from false or zero.
type ProductDraft struct {
	Name             string `json:"name,omitempty"`
	Status           string `json:"status,omitempty"`
	RegularPrice     string `json:"regularPrice,omitempty"`
	SalePrice        string `json:"salePrice,omitempty"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"shortDescription,omitempty"`
	SKU              string `json:"sku,omitempty"`
	ManageStock      *bool  `json:"manageStock,omitempty"`
	StockQuantity    *int   `json:"stockQuantity,omitempty"`
	StockStatus      string `json:"stockStatus,omitempty"`

	Categories []string          `json:"categories,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	MetaData   []fields.MetaPair `json:"metaData,omitempty"`

	TaxStatus string `json:"taxStatus,omitempty"`
	TaxClass  string `json:"taxClass,omitempty"`

	Backorders       string `json:"backorders,omitempty"`
	LowStockAmount   *int   `json:"lowStockAmount,omitempty"`
	SoldIndividually *bool  `json:"soldIndividually,omitempty"`

	Weight        string `json:"weight,omitempty"`
	Length        string `json:"length,omitempty"`
	Width         string `json:"width,omitempty"`
	Height        string `json:"height,omitempty"`
	ShippingClass string `json:"shippingClass,omitempty"`

	Virtual        *bool             `json:"virtual,omitempty"`
	Downloadable   *bool             `json:"downloadable,omitempty"`
	Downloads      []fields.Download `json:"downloads,omitempty"`
	DownloadLimit  *int              `json:"downloadLimit,omitempty"`
	DownloadExpiry *int              `json:"downloadExpiry,omitempty"`

	UpsellIDs       []int64 `json:"upsellIds,omitempty"`
	CrossSellIDs    []int64 `json:"crossSellIds,omitempty"`
	GroupedProducts []int64 `json:"groupedProducts,omitempty"`

	Featured          *bool  `json:"featured,omitempty"`
	CatalogVisibility string `json:"catalogVisibility,omitempty"`

	ReviewsAllowed *bool  `json:"reviewsAllowed,omitempty"`
	PurchaseNote   string `json:"purchaseNote,omitempty"`

	MenuOrder *int `json:"menuOrder,omitempty"`
	ParentID  *int `json:"parentId,omitempty"`

	ExternalURL string `json:"externalUrl,omitempty"`
	ButtonText  string `json:"buttonText,omitempty"`
}

type applyFunc func(d *ProductDraft, answer string) error

// bind applies a parsed, non-skipped answer to the draft
func bind[T any](parse func(string) (fields.Result[T], error), set func(d *ProductDraft, v T)) applyFunc {
	return func(d *ProductDraft, answer string) error {
		res, err := parse(answer)
		if err != nil {
			return err
		}
		if !res.Skipped {
			set(d, res.Value)
		}
		return nil
	}
}

type question struct {
	key    string
	prompt string
	apply  applyFunc
}

var basicQuestions = []question{
	{"name", "Product name (required)",
		bind(fields.Required, func(d *ProductDraft, v string) { d.Name = v })},
	{"regular_price", "Regular price (number, for example 199.99). Type skip to leave empty",
		bind(fields.OptionalPrice, func(d *ProductDraft, v string) { d.RegularPrice = v })},
	{"sale_price", "Sale price (number) or type skip",
		bind(fields.OptionalPrice, func(d *ProductDraft, v string) { d.SalePrice = v })},
	{"description", "Full description (you can paste text or type skip)",
		bind(fields.OptionalText, func(d *ProductDraft, v string) { d.Description = v })},
	{"short_description", "Short description or type skip",
		bind(fields.OptionalText, func(d *ProductDraft, v string) { d.ShortDescription = v })},
	{"sku", "SKU (stock keeping unit) or type skip",
		bind(fields.OptionalText, func(d *ProductDraft, v string) { d.SKU = v })},
	{"manage_stock", "Do you want WooCommerce to manage stock for this product? yes or no (default no, you can type skip)",
		bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.ManageStock = &v })},
	{"stock_quantity", "Stock quantity (integer) or type skip",
		bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.StockQuantity = &v })},
	{"stock_status", "Stock status. Type one: instock, outofstock, onbackorder. Or type skip",
		bind(fields.OptionalStockStatus, func(d *ProductDraft, v string) { d.StockStatus = v })},
	{"categories", "Categories. Type existing category names separated by comma, for example: Shirts, Summer, Men. These categories must already exist in WooCommerce, I will try to match them. Or type skip",
		bind(fields.OptionalNameList, func(d *ProductDraft, v []string) { d.Categories = v })},
	{"tags", "Tags. You can type names separated by comma. Or type skip",
		bind(fields.OptionalNameList, func(d *ProductDraft, v []string) { d.Tags = v })},
	{"meta_data", "Do you want to add custom meta data now? Type key:value pairs separated by comma (for example: color:blue, brand:nike) or type skip",
		bind(fields.OptionalMetaPairs, func(d *ProductDraft, v []fields.MetaPair) { d.MetaData = v })},
}

type section struct {
	name      string
	label     string
	questions []question
}

var advancedSections = []section{
	{"pricing", "Advanced pricing and tax", []question{
		{"tax_status", "Tax status. Choose one: taxable, shipping, none. Or type skip",
			bind(fields.OptionalTaxStatus, func(d *ProductDraft, v string) { d.TaxStatus = v })},
		{"tax_class", "Tax class (leave empty or type skip if you do not use custom tax classes)",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.TaxClass = v })},
	}},
	{"stock", "Stock behavior and backorders", []question{
		{"backorders", "Backorders policy. Type one: no, notify, yes. Or type skip",
			bind(fields.OptionalBackorders, func(d *ProductDraft, v string) { d.Backorders = v })},
		{"low_stock_amount", "Low stock amount threshold (integer) or type skip",
			bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.LowStockAmount = &v })},
		{"sold_individually", "Sold individually (limit purchases to one item per order). Type yes, no or skip",
			bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.SoldIndividually = &v })},
	}},
	{"shipping", "Shipping settings and dimensions", []question{
		{"weight", "Weight (for example 0.5 or 1.2) or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.Weight = v })},
		{"dimensions_length", "Length or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.Length = v })},
		{"dimensions_width", "Width or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.Width = v })},
		{"dimensions_height", "Height or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.Height = v })},
		{"shipping_class", "Shipping class slug or name, or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.ShippingClass = v })},
	}},
	{"virtual", "Virtual product flags", []question{
		{"virtual", "Is this product virtual (no shipping) yes or no or skip",
			bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.Virtual = &v })},
	}},
	{"downloads", "Downloadable product settings", []question{
		{"downloadable", "Is this product downloadable yes or no or skip",
			bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.Downloadable = &v })},
		{"downloads", "If you want to set downloads, type one or more items in this format: name|fileUrl separated by comma. Example: Manual|https://example.com/manual.pdf, Setup|https://example.com/setup.zip. Or type skip",
			bind(fields.OptionalDownloads, func(d *ProductDraft, v []fields.Download) { d.Downloads = v })},
		{"download_limit", "Download limit (integer) or type skip",
			bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.DownloadLimit = &v })},
		{"download_expiry", "Download expiry in days (integer) or type skip",
			bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.DownloadExpiry = &v })},
	}},
	{"links", "Linked products such as upsells and cross sells", []question{
		{"upsell_ids", "Upsell product ids separated by comma (for example: 12, 15) or type skip",
			bind(fields.OptionalIDList, func(d *ProductDraft, v []int64) { d.UpsellIDs = v })},
		{"cross_sell_ids", "Cross sell product ids separated by comma or type skip",
			bind(fields.OptionalIDList, func(d *ProductDraft, v []int64) { d.CrossSellIDs = v })},
		{"grouped_products", "Grouped product ids separated by comma or type skip",
			bind(fields.OptionalIDList, func(d *ProductDraft, v []int64) { d.GroupedProducts = v })},
	}},
	{"visibility", "Catalog visibility and featured flag", []question{
		{"featured", "Featured product yes or no or skip",
			bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.Featured = &v })},
		{"catalog_visibility", "Catalog visibility. Type one: visible, catalog, search, hidden. Or type skip",
			bind(fields.OptionalVisibility, func(d *ProductDraft, v string) { d.CatalogVisibility = v })},
	}},
	{"reviews", "Reviews and purchase notes", []question{
		{"reviews_allowed", "Allow customer reviews yes or no or skip",
			bind(fields.OptionalBoolean, func(d *ProductDraft, v bool) { d.ReviewsAllowed = &v })},
		{"purchase_note", "Purchase note that will appear after checkout, or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.PurchaseNote = v })},
	}},
	{"menu", "Menu order and parent product", []question{
		{"menu_order", "Menu order (integer, used for ordering products) or type skip",
			bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.MenuOrder = &v })},
		{"parent_id", "Parent product id for grouped products or type skip",
			bind(fields.OptionalInteger, func(d *ProductDraft, v int) { d.ParentID = &v })},
	}},
	{"external", "External url and button text (usually used for external affiliate products)", []question{
		{"external_url", "External url (for external or affiliate product) or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.ExternalURL = v })},
		{"button_text", "Button text for external product (for example Buy on Amazon) or type skip",
			bind(fields.OptionalText, func(d *ProductDraft, v string) { d.ButtonText = v })},
	}},
}

func sectionByName(name string) (section, bool) {
	for _, s := range advancedSections {
		if s.name == name {
			return s, true
		}
	}
	return section{}, false
}

func sectionNames() []string {
	names := make([]string, len(advancedSections))
	for i, s := range advancedSections {
		names[i] = s.name
	}
	return names
}

// parseSections picks section names out of a comma or semicolon list.
// A token selects every section whose name it contains, so
// "shipping settings" selects shipping. Order follows the section list.
func parseSections(answer string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(answer), func(r rune) bool { return r == ',' || r == ';' })
	picked := make(map[string]bool)
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		for _, s := range advancedSections {
			if strings.Contains(token, s.name) {
				picked[s.name] = true
			}
		}
	}

	var out []string
	for _, s := range advancedSections {
		if picked[s.name] {
			out = append(out, s.name)
		}
	}
	return out
}

func boolText(b *bool) string {
	if b == nil {
		return ""
	}
	return catalog.DisplayValue(*b)
}

func intText(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func idsText(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

func metaText(meta []fields.MetaPair) string {
	parts := make([]string, len(meta))
	for i, m := range meta {
		parts[i] = m.Key + ":" + m.Value
	}
	return strings.Join(parts, ", ")
}

func downloadsText(downloads []fields.Download) string {
	parts := make([]string, len(downloads))
	for i, d := range downloads {
		parts[i] = d.Name
	}
	return strings.Join(parts, ", ")
}

func (d *ProductDraft) dimensions() string {
	var parts []string
	for _, v := range []string{d.Length, d.Width, d.Height} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " x ")
}

func namesOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

// summaryLines renders the draft for the confirmation text
func (d *ProductDraft) summaryLines() []string {
	status := d.Status
	if status == "" {
		status = "(not chosen yet)"
	}
	name := d.Name
	if name == "" {
		name = "(missing)"
	}
	return []string{
		"Name: " + name,
		"Regular price: " + orNone(d.RegularPrice),
		"Sale price: " + orNone(d.SalePrice),
		"Status: " + status,
		"SKU: " + orNone(d.SKU),
		"Stock quantity: " + orNone(intText(d.StockQuantity)),
		"Stock status: " + orNone(d.StockStatus),
		"Manage stock: " + orDash(boolText(d.ManageStock)),
		"",
		"Categories: " + namesOrNone(d.Categories),
		"Tags: " + namesOrNone(d.Tags),
		"",
		"Description: " + orDash(d.Description),
		"Short description: " + orDash(d.ShortDescription),
		"",
		"Virtual: " + orDash(boolText(d.Virtual)),
		"Downloadable: " + orDash(boolText(d.Downloadable)),
		"Weight: " + orDash(d.Weight),
		"Dimensions: " + orDash(d.dimensions()),
		"",
		"Backorders: " + orDash(d.Backorders),
		"Low stock amount: " + orDash(intText(d.LowStockAmount)),
		"Sold individually: " + orDash(boolText(d.SoldIndividually)),
		"",
		"Featured: " + orDash(boolText(d.Featured)),
		"Catalog visibility: " + orDash(d.CatalogVisibility),
		"",
		"Reviews allowed: " + orDash(boolText(d.ReviewsAllowed)),
		"Purchase note: " + orDash(d.PurchaseNote),
		"",
		"External url: " + orDash(d.ExternalURL),
		"Button text: " + orDash(d.ButtonText),
	}
}

// summary is the envelope's display map; unset fields are left out
func (d *ProductDraft) summary() map[string]string {
	all := map[string]string{
		"regular_price":      d.RegularPrice,
		"sale_price":         d.SalePrice,
		"status":             d.Status,
		"sku":                d.SKU,
		"stock_quantity":     intText(d.StockQuantity),
		"stock_status":       d.StockStatus,
		"manage_stock":       boolText(d.ManageStock),
		"categories":         strings.Join(d.Categories, ", "),
		"tags":               strings.Join(d.Tags, ", "),
		"description":        d.Description,
		"short_description":  d.ShortDescription,
		"virtual":            boolText(d.Virtual),
		"downloadable":       boolText(d.Downloadable),
		"downloads":          downloadsText(d.Downloads),
		"weight":             d.Weight,
		"dimensions":         d.dimensions(),
		"backorders":         d.Backorders,
		"low_stock_amount":   intText(d.LowStockAmount),
		"sold_individually":  boolText(d.SoldIndividually),
		"upsell_ids":         idsText(d.UpsellIDs),
		"cross_sell_ids":     idsText(d.CrossSellIDs),
		"featured":           boolText(d.Featured),
		"catalog_visibility": d.CatalogVisibility,
		"reviews_allowed":    boolText(d.ReviewsAllowed),
		"purchase_note":      d.PurchaseNote,
		"external_url":       d.ExternalURL,
		"button_text":        d.ButtonText,
		"meta_data":          metaText(d.MetaData),
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// payload builds the create body without term references; every unset
// field is absent.
func (d *ProductDraft) payload() map[string]any {
	p := map[string]any{"type": "simple", "name": d.Name}

	setString := func(key, v string) {
		if v != "" {
			p[key] = v
		}
	}
	setBool := func(key string, v *bool) {
		if v != nil {
			p[key] = *v
		}
	}
	setInt := func(key string, v *int) {
		if v != nil {
			p[key] = *v
		}
	}
	setIDs := func(key string, v []int64) {
		if len(v) > 0 {
			p[key] = v
		}
	}

	setString("status", d.Status)
	setString("regular_price", d.RegularPrice)
	setString("sale_price", d.SalePrice)
	setString("description", d.Description)
	setString("short_description", d.ShortDescription)
	setString("sku", d.SKU)
	setBool("manage_stock", d.ManageStock)
	setInt("stock_quantity", d.StockQuantity)
	setString("stock_status", d.StockStatus)
	if len(d.MetaData) > 0 {
		p["meta_data"] = d.MetaData
	}
	setString("tax_status", d.TaxStatus)
	setString("tax_class", d.TaxClass)
	setString("backorders", d.Backorders)
	setInt("low_stock_amount", d.LowStockAmount)
	setBool("sold_individually", d.SoldIndividually)
	setString("weight", d.Weight)

	dims := map[string]string{}
	for key, v := range map[string]string{"length": d.Length, "width": d.Width, "height": d.Height} {
		if v != "" {
			dims[key] = v
		}
	}
	if len(dims) > 0 {
		p["dimensions"] = dims
	}

	setString("shipping_class", d.ShippingClass)
	setBool("virtual", d.Virtual)
	setBool("downloadable", d.Downloadable)
	if len(d.Downloads) > 0 {
		p["downloads"] = d.Downloads
	}
	setInt("download_limit", d.DownloadLimit)
	setInt("download_expiry", d.DownloadExpiry)
	setIDs("upsell_ids", d.UpsellIDs)
	setIDs("cross_sell_ids", d.CrossSellIDs)
	setIDs("grouped_products", d.GroupedProducts)
	setBool("featured", d.Featured)
	setString("catalog_visibility", d.CatalogVisibility)
	setBool("reviews_allowed", d.ReviewsAllowed)
	setString("purchase_note", d.PurchaseNote)
	setInt("menu_order", d.MenuOrder)
	setInt("parent_id", d.ParentID)
	setString("external_url", d.ExternalURL)
	setString("button_text", d.ButtonText)
	return p
}

type termSearch func(ctx context.Context, term string, limit int) ([]catalog.Term, error)

// termSearchLimit mirrors the page size used when matching names
const termSearchLimit = 50

// resolveTerms maps names to [{id}] by taking the first search hit for
// each name. Names without a hit are dropped; input order is kept.
func resolveTerms(ctx context.Context, names []string, search termSearch) ([]map[string]any, error) {
	ids := make([]int64, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			terms, err := search(gctx, name, termSearchLimit)
			if err != nil {
				return fmt.Errorf("look up %q: %w", name, err)
			}
			if len(terms) > 0 {
				ids[i] = terms[0].ID
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, id := range ids {
		if id > 0 {
			out = append(out, map[string]any{"id": id})
		}
	}
	return out, nil
}
