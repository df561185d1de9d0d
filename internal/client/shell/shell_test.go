package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/telecombase/internal/client/api"
	"github.com/atinyakov/telecombase/internal/client/session"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// newShell wires a shell to a fake server. input feeds the prompts.
func newShell(t *testing.T, h http.Handler, input string) (*Shell, *api.Client, *bytes.Buffer) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c := api.New(ts.URL)
	out := &bytes.Buffer{}
	return New(c, nil, strings.NewReader(input), out, nil), c, out
}

func TestExec_RequiresLogin(t *testing.T) {
	sh, _, out := newShell(t, http.NotFoundHandler(), "")
	assert.False(t, sh.Exec(context.Background(), "vendors"))
	assert.Contains(t, out.String(), "not signed in")
}

func TestExec_ExitAndUnknown(t *testing.T) {
	sh, c, out := newShell(t, http.NotFoundHandler(), "")
	c.SetSession(api.Session{Token: "t", Username: "u", Role: api.RoleUser})

	assert.False(t, sh.Exec(context.Background(), ""))
	assert.False(t, sh.Exec(context.Background(), "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command")
	assert.True(t, sh.Exec(context.Background(), "exit"))
}

func TestLogin_PersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "secret123", body["password"])
		writeJSON(w, http.StatusOK, `{"token":"tok","username":"alice","role":"admin"}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	store, err := session.Load(filepath.Join(t.TempDir(), "s.json"))
	require.NoError(t, err)

	c := api.New(ts.URL)
	out := &bytes.Buffer{}
	sh := New(c, store, strings.NewReader("alice\nsecret123\n"), out, nil)

	assert.False(t, sh.Exec(context.Background(), "login"))
	assert.Contains(t, out.String(), "Signed in as alice (admin)")

	reloaded, err := session.Load(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "tok", reloaded.Token)
	assert.Equal(t, ts.URL, reloaded.BaseURL)

	assert.False(t, sh.Exec(context.Background(), "logout"))
	assert.False(t, c.Authenticated())
	reloaded, err = session.Load(store.Path())
	require.NoError(t, err)
	assert.Empty(t, reloaded.Token)
}

func TestRegister_PendingApproval(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":"account_pending_approval"}`)
	})
	sh, c, out := newShell(t, mux, "bob\nsecret123\n")

	sh.Exec(context.Background(), "register")
	assert.Contains(t, out.String(), "administrator has to approve")
	assert.False(t, c.Authenticated())
}

func TestLogin_PendingApproval(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"error":"account_pending_approval"}`)
	})
	sh, _, out := newShell(t, mux, "bob\nsecret123\n")

	sh.Exec(context.Background(), "login")
	assert.Contains(t, out.String(), "waiting for administrator approval")
}

func TestVendors_Table(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vendors", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Cisco","country":"US"},{"id":2,"name":"Huawei","country":"CN"}]`)
	})
	sh, c, out := newShell(t, mux, "")
	c.SetSession(api.Session{Token: "tok", Username: "u", Role: api.RoleUser})

	sh.Exec(context.Background(), "vendors")
	assert.Contains(t, out.String(), "Cisco")
	assert.Contains(t, out.String(), "Huawei")
	assert.Contains(t, out.String(), "COUNTRY")
}

func TestAdminCommands_RejectedForUsers(t *testing.T) {
	called := false
	sh, c, out := newShell(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), "")
	c.SetSession(api.Session{Token: "tok", Username: "u", Role: api.RoleUser})

	for _, line := range []string{"vendor-add", "vendor-rm 1", "users", "pending", "approve 3", "device-rm 2"} {
		sh.Exec(context.Background(), line)
	}
	assert.False(t, called)
	assert.Equal(t, 6, strings.Count(out.String(), "requires the admin role"))
}

func TestDevices_QueryKeepsSpaces(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		writeJSON(w, http.StatusOK, `[]`)
	})
	sh, c, out := newShell(t, mux, "")
	c.SetSession(api.Session{Token: "tok", Username: "u", Role: api.RoleUser})

	sh.Exec(context.Background(), "devices  ISR 4321 ")
	assert.Equal(t, "ISR 4321", gotQuery)
	assert.Contains(t, out.String(), "No devices")
}

func TestDeviceAdd_PromptsAndOmitsLocation(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /devices", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, `{"id":42}`)
	})
	// model, location (-), serial, inventory, status (default), bad date, date, description
	input := "7\n-\nSN1\nINV-1\n\n2024-13-01\n2024-03-01\nrack 4\n"
	sh, c, out := newShell(t, mux, input)
	c.SetSession(api.Session{Token: "tok", Username: "u", Role: api.RoleUser})

	sh.Exec(context.Background(), "device-add")
	assert.Contains(t, out.String(), "Device 42 created")
	assert.Contains(t, out.String(), `invalid date "2024-13-01"`)

	assert.Equal(t, float64(7), body["modelId"])
	assert.NotContains(t, body, "locationId")
	assert.Equal(t, "SN1", body["serialNumber"])
	assert.Equal(t, "active", body["status"])
	assert.Equal(t, "2024-03-01", body["installedAt"])
	assert.Equal(t, "rack 4", body["description"])
}

func TestDeviceEdit_KeepsCurrentValues(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices/5", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":5,"modelId":3,"locationId":9,"serialNumber":"S","inventoryNumber":"I","status":"active","installedAt":"2023-01-02","description":"d"}`)
	})
	mux.HandleFunc("PUT /devices/5", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, `{"id":5}`)
	})
	// Accept every default except status.
	sh, c, out := newShell(t, mux, "\n\n\n\nbroken\n\n\n")
	c.SetSession(api.Session{Token: "tok", Username: "u", Role: api.RoleUser})

	sh.Exec(context.Background(), "device-edit 5")
	assert.Contains(t, out.String(), "Device 5 updated")
	assert.Equal(t, float64(3), body["modelId"])
	assert.Equal(t, float64(9), body["locationId"])
	assert.Equal(t, "broken", body["status"])
	assert.Equal(t, "2023-01-02", body["installedAt"])
}

func TestRemove_AsksForConfirmation(t *testing.T) {
	deleted := 0
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /vendors/3", func(w http.ResponseWriter, r *http.Request) {
		deleted++
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	sh, c, out := newShell(t, mux, "n\ny\n")
	c.SetSession(api.Session{Token: "tok", Username: "root", Role: api.RoleAdmin})

	sh.Exec(context.Background(), "vendor-rm 3")
	assert.Equal(t, 0, deleted)
	sh.Exec(context.Background(), "vendor-rm 3")
	assert.Equal(t, 1, deleted)
	assert.Contains(t, out.String(), "Vendor 3 deleted")
}

func TestServerErrorIsShown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /vendors/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"error":"in_use"}`)
	})
	sh, c, out := newShell(t, mux, "y\n")
	c.SetSession(api.Session{Token: "tok", Username: "root", Role: api.RoleAdmin})

	sh.Exec(context.Background(), "vendor-rm 1")
	assert.Contains(t, out.String(), "Error: in_use (HTTP 409)")
}

func TestRun_StopsAtEndOfInput(t *testing.T) {
	sh, _, out := newShell(t, http.NotFoundHandler(), "help\n")
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "devices [query]")
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", assert.AnError, assert.AnError.Error()},
		{"pending", &api.Error{Kind: api.KindServer, Message: api.CodeAccountPendingApproval, Status: 403}, "your account is waiting for administrator approval"},
		{"timeout", &api.Error{Kind: api.KindTimeout, Message: api.CodeTimeout}, "the server did not answer in time"},
		{"protocol", &api.Error{Kind: api.KindProtocol, Message: api.CodeInvalidResponse, Status: 200}, "unexpected response from the server"},
		{"server", &api.Error{Kind: api.KindServer, Message: "not_found", Status: 404}, "not_found (HTTP 404)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.err))
		})
	}
}

func TestPassword_PipeFallsBackToLines(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = io.WriteString(w, "\n s3cret \n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out := &bytes.Buffer{}
	p := newPrompter(r, out)
	assert.Nil(t, p.tty, "a pipe is not a terminal")

	v, err := p.password("Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
	assert.Contains(t, out.String(), "password is required")

	_, err = p.password("Password")
	assert.ErrorIs(t, err, errInputClosed)
}
