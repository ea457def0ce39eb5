package tor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// probeTimeout bounds CheckConnection.
const probeTimeout = 2 * time.Second

// maxRedirects is the redirect limit of clients built by NewHTTPClient.
const maxRedirects = 10

// Client dials through a Tor SOCKS5 proxy.
type Client struct {
	proxyAddress string
	dialer       proxy.ContextDialer
}

// NewClient returns a Client for the SOCKS5 proxy at proxyAddress ("host:port").
// It does not contact the proxy; use CheckConnection for that.
func NewClient(proxyAddress string) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// Tor's SOCKS port accepts unauthenticated clients.
	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("SOCKS5 dialer does not support contexts")
	}

	return &Client{proxyAddress: proxyAddress, dialer: cd}, nil
}

// isValidProxyAddress reports whether address is host:port with a
// non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// ProxyAddress returns the SOCKS5 proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// DialContext opens a connection to address through the proxy.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return c.dialer.DialContext(ctx, network, address)
}

// NewHTTPClient returns an HTTP client whose every connection goes through
// the proxy. Certificates are verified as usual, no cookie jar is attached,
// and compression is disabled to avoid size side channels. The client has
// no overall timeout; callers bound requests themselves.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: c.dialer.DialContext,
		// Each connection holds a Tor circuit, so the pool is kept small.
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		DisableCompression:    true,
	}

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// SOCKS5 wire constants.
const (
	socks5Version    = 0x05
	socks5AuthNone   = 0x00
	socks5CmdConnect = 0x01
	socks5AddrDomain = 0x03

	// probeOnion is a well-formed but unused v3 address. The proxy only has
	// to answer the CONNECT request, not reach the service.
	probeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"
	probePort  = 80
)

// CheckConnection probes the proxy with a SOCKS5 greeting and a CONNECT
// request for a .onion host. Any well-formed CONNECT reply, including a
// failure code, counts as a working Tor proxy.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return ProxyStatusCannotConnect
		}
	}

	if status := greet(conn); status != ProxyStatusOK {
		return status
	}
	return probeConnect(conn)
}

// greet offers the no-authentication method and checks the proxy accepts it.
func greet(conn net.Conn) ProxyStatus {
	if _, err := conn.Write([]byte{socks5Version, 1, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	reply := make([]byte, 2)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return readFailure(err)
	}
	if reply[0] != socks5Version || reply[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// probeConnect sends a CONNECT for probeOnion and checks the reply header.
func probeConnect(conn net.Conn) ProxyStatus {
	req := make([]byte, 0, 7+len(probeOnion))
	req = append(req, socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(probeOnion)))
	req = append(req, probeOnion...)
	req = append(req, byte(probePort>>8), byte(probePort&0xff))

	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	// version, reply code, reserved, address type
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return readFailure(err)
	}
	if header[0] != socks5Version {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// readFailure classifies an error reading a proxy reply.
func readFailure(err error) ProxyStatus {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return ProxyStatusTimeout
	}
	return ProxyStatusWrongType
}
