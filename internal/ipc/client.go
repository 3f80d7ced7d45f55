package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start asks the daemon to begin watching. An empty dir uses the configured
// watch directory.
func (c *Client) Start(dir string) (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Vlog.Start", StartRequest{Dir: dir}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to stop watching and drain pending work.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Vlog.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Vlog.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CatalogList returns all catalog records.
func (c *Client) CatalogList() (*CatalogListResponse, error) {
	var resp CatalogListResponse
	if err := c.client.Call("Vlog.CatalogList", CatalogListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CatalogRemove deletes one record by filename.
func (c *Client) CatalogRemove(filename string) (*CatalogRemoveResponse, error) {
	var resp CatalogRemoveResponse
	if err := c.client.Call("Vlog.CatalogRemove", CatalogRemoveRequest{Filename: filename}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CatalogKeep updates a record's keep flag.
func (c *Client) CatalogKeep(filename string, keep bool) (*CatalogKeepResponse, error) {
	var resp CatalogKeepResponse
	if err := c.client.Call("Vlog.CatalogKeep", CatalogKeepRequest{Filename: filename, Keep: keep}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CatalogStats returns aggregate catalog statistics.
func (c *Client) CatalogStats() (*CatalogStatsResponse, error) {
	var resp CatalogStatsResponse
	if err := c.client.Call("Vlog.CatalogStats", CatalogStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
