// internal/api/admin.go
package api

import (
	"context"
	"net/http"
)

// AdminMetrics returns usage metrics for the admin dashboard.
func (c *Client) AdminMetrics(ctx context.Context) (*Metrics, error) {
	var out Metrics
	if err := c.do(ctx, http.MethodGet, "/admin/metrics", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUsers lists registered users.
func (c *Client) AdminUsers(ctx context.Context) ([]AdminUser, error) {
	var out []AdminUser
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminRoles lists roles and their permissions.
func (c *Client) AdminRoles(ctx context.Context) ([]RoleRecord, error) {
	var out []RoleRecord
	if err := c.do(ctx, http.MethodGet, "/admin/roles", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminLogs returns recent system log entries.
func (c *Client) AdminLogs(ctx context.Context) ([]LogEntry, error) {
	var out []LogEntry
	if err := c.do(ctx, http.MethodGet, "/admin/logs", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}
