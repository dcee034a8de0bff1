package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/infrastructure/store"
)

type cli struct {
	t   *testing.T
	cfg config.Client
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	s := api.NewServer(store.NewMemoryStore(), auth.NewJWTService("cli-test-secret-key-long-enough!", time.Hour), nil)
	require.NoError(t, s.Seed(context.Background()))
	srv := httptest.NewServer(api.NewRouter(s))
	t.Cleanup(srv.Close)

	return &cli{t: t, cfg: config.Client{
		APIURL:      srv.URL,
		Timeout:     2 * time.Second,
		SessionFile: filepath.Join(t.TempDir(), "session"),
	}}
}

func (c *cli) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), c.cfg, args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

// ============================================
// Usage
// ============================================

func TestRun_NoCommand(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: storefront")
}

func TestRun_UnknownCommand(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("", "teleport")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "teleport"`)
}

func TestRun_BadArguments(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("", "login")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "login <username>")
}

func TestRun_NotSignedIn(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("", "cart")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not signed in")
}

// ============================================
// Shopping
// ============================================

func TestRun_BrowseAnonymously(t *testing.T) {
	c := newCLI(t)
	code, out, _ := c.run("", "products", "-category", "Jackets", "-sort", "price-asc")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Denim Jacket")
	assert.Contains(t, out, "Wool Overcoat")
	assert.NotContains(t, out, "Linen Shirt")
	assert.Less(t, strings.Index(out, "Denim Jacket"), strings.Index(out, "Wool Overcoat"))
}

func TestRun_LoginCartCheckout(t *testing.T) {
	c := newCLI(t)

	code, out, _ := c.run("shopper123\n", "login", "shopper")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Signed in as shopper")

	code, out, _ = c.run("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "shopper <shopper@example.com>")

	code, out, _ = c.run("", "cart", "add", "p-100", "2")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Classic White Tee")
	assert.Contains(t, out, "2 items")

	code, out, _ = c.run("", "checkout", "-address", "12 Market Street, Pune")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "placed (Pending)")

	code, out, _ = c.run("", "cart")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Your Cart is Empty")

	code, out, _ = c.run("", "orders")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Classic White Tee")
}

func TestRun_WrongPassword(t *testing.T) {
	c := newCLI(t)
	code, _, errOut := c.run("nope\n", "login", "shopper")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error:")
}

func TestRun_Logout(t *testing.T) {
	c := newCLI(t)
	code, _, _ := c.run("shopper123\n", "login", "shopper")
	require.Equal(t, 0, code)

	code, _, _ = c.run("", "logout")
	require.Equal(t, 0, code)

	code, out, _ := c.run("", "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Not signed in.")
}

// ============================================
// Admin
// ============================================

var placedRe = regexp.MustCompile(`Order (\S+) placed`)

func TestRun_AdminUpdatesOrderStatus(t *testing.T) {
	shopper := newCLI(t)
	code, _, _ := shopper.run("shopper123\n", "login", "shopper")
	require.Equal(t, 0, code)
	code, out, _ := shopper.run("", "checkout", "-buy-now", "p-106:1", "-address", "12 Market Street, Pune")
	require.Equal(t, 0, code)
	m := placedRe.FindStringSubmatch(out)
	require.Len(t, m, 2)
	orderID := m[1]

	code, _, errOut := shopper.run("", "admin", "orders")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "admin access required")

	admin := &cli{t: t, cfg: shopper.cfg}
	admin.cfg.SessionFile = filepath.Join(t.TempDir(), "admin-session")
	code, _, _ = admin.run("admin1234\n", "login", "admin")
	require.Equal(t, 0, code)

	code, out, _ = admin.run("", "admin", "status", orderID, "shipped")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "is now Shipped")

	code, out, _ = admin.run("", "admin", "orders", "-status", "Shipped")
	require.Equal(t, 0, code)
	assert.Contains(t, out, orderID)
	assert.Contains(t, out, "Shipped: 1")

	code, _, errOut = admin.run("", "admin", "status", orderID, "lost")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "storefront admin")
}

func TestRun_AdminUsers(t *testing.T) {
	admin := newCLI(t)
	code, _, _ := admin.run("admin1234\n", "login", "admin")
	require.Equal(t, 0, code)

	code, out, _ := admin.run("", "admin", "users", "-q", "shop")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "shopper@example.com")
	assert.NotContains(t, out, "admin@example.com")

	code, _, _ = admin.run("", "admin", "block", "user-shopper")
	require.Equal(t, 0, code)

	shopper := &cli{t: t, cfg: admin.cfg}
	shopper.cfg.SessionFile = filepath.Join(t.TempDir(), "shopper-session")
	code, _, errOut := shopper.run("shopper123\n", "login", "shopper")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "blocked")
}

func TestRun_AdminStock(t *testing.T) {
	admin := newCLI(t)
	code, _, _ := admin.run("admin1234\n", "login", "admin")
	require.Equal(t, 0, code)

	code, out, _ := admin.run("", "admin", "stock", "p-105", "7")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Stock of p-105 set to 7")

	code, out, _ = admin.run("", "product", "p-105")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Hooded Sweatshirt")
	assert.NotContains(t, out, "out of stock")
}
