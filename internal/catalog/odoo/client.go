// Package odoo serves the catalog from an Odoo instance over XML-RPC.
package odoo

import (
	"fmt"
	"strings"

	"github.com/kolo/xmlrpc"
)

// Client represents an Odoo XML-RPC client
type Client struct {
	URL       string
	Database  string
	Username  string
	Password  string
	Uid       int64
	CommonURL string
	ObjectURL string
}

// NewClient creates a new Odoo client
func NewClient(url, db, username, password string) *Client {
	url = strings.TrimRight(url, "/")
	return &Client{
		URL:       url,
		Database:  db,
		Username:  username,
		Password:  password,
		CommonURL: fmt.Sprintf("%s/xmlrpc/2/common", url),
		ObjectURL: fmt.Sprintf("%s/xmlrpc/2/object", url),
	}
}

// Authenticate authenticates with Odoo and stores the user ID
func (c *Client) Authenticate() (int64, error) {
	client, err := xmlrpc.NewClient(c.CommonURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	args := []interface{}{c.Database, c.Username, c.Password, map[string]interface{}{}}
	var uid interface{}
	if err := client.Call("authenticate", args, &uid); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}

	// Odoo answers false on bad credentials
	id, ok := uid.(int64)
	if !ok || id == 0 {
		return 0, fmt.Errorf("authentication failed: invalid credentials for %s", c.Username)
	}

	c.Uid = id
	return id, nil
}

// execute runs model.method through execute_kw
func (c *Client) execute(model, method string, args []interface{}, kwargs map[string]interface{}, result interface{}) error {
	client, err := xmlrpc.NewClient(c.ObjectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()

	params := []interface{}{c.Database, c.Uid, c.Password, model, method, args}
	if kwargs != nil {
		params = append(params, kwargs)
	}

	if err := client.Call("execute_kw", params, result); err != nil {
		return fmt.Errorf("failed to execute %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchRead performs a search_read and returns the raw records
func (c *Client) SearchRead(model string, domain []interface{}, fields []string, limit, offset int) ([]map[string]interface{}, error) {
	kwargs := map[string]interface{}{
		"fields": fields,
		"limit":  limit,
		"offset": offset,
	}
	var records []map[string]interface{}
	if err := c.execute(model, "search_read", []interface{}{domain}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Read reads records by IDs
func (c *Client) Read(model string, ids []int64, fields []string) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	err := c.execute(model, "read", []interface{}{ids}, map[string]interface{}{"fields": fields}, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Create creates a new record
func (c *Client) Create(model string, values map[string]interface{}) (int64, error) {
	var id int64
	if err := c.execute(model, "create", []interface{}{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// Write updates existing record(s)
func (c *Client) Write(model string, ids []int64, values map[string]interface{}) error {
	var success bool
	if err := c.execute(model, "write", []interface{}{ids, values}, nil, &success); err != nil {
		return err
	}
	if !success {
		return fmt.Errorf("write operation returned false")
	}
	return nil
}
