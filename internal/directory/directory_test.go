package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zhubert/pischat/internal/chat"
	perrors "github.com/zhubert/pischat/internal/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(ts.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestLogin_Success(t *testing.T) {
	var got Credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing request id")
		}
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  200,
			"message": LoginSuccess,
			"data":    map[string]string{"user_uuid": "u-1", "username": "alice", "name": "Alice"},
		})
	})

	res, err := c.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.Username != "alice" || got.Password != "secret" {
		t.Errorf("server got %+v", got)
	}
	want := chat.User{ID: "u-1", Username: "alice", Name: "Alice"}
	if res.User != want || res.Message != LoginSuccess {
		t.Errorf("result = %+v", res)
	}
}

func TestRegister_OmitsRepeat(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&raw)
		writeJSON(w, http.StatusCreated, map[string]any{
			"status":  201,
			"message": RegisterSuccess,
			"data":    map[string]string{"user_uuid": "u-2", "username": "bob", "name": "Bob"},
		})
	})

	res, err := c.Register(context.Background(), Registration{Name: "Bob", Username: "bob", Password: "pw", Repeat: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.User.ID != "u-2" {
		t.Errorf("user = %+v", res.User)
	}
	if _, ok := raw["Repeat"]; ok || len(raw) != 3 {
		t.Errorf("request body = %v", raw)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		timeout    time.Duration
		wantKind   Kind
		wantStatus int
		wantMsg    string
	}{
		{
			name: "server error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"status": 401, "message": "wrong password"})
			},
			wantKind:   KindServer,
			wantStatus: 401,
			wantMsg:    "wrong password",
		},
		{
			name: "server error without status field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]any{"message": "user not found"})
			},
			wantKind:   KindServer,
			wantStatus: 404,
			wantMsg:    "user not found",
		},
		{
			name: "ok status without user",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "account locked"})
			},
			wantKind:   KindServer,
			wantStatus: 200,
			wantMsg:    "account locked",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				writeJSON(w, http.StatusOK, map[string]any{})
			},
			timeout:    20 * time.Millisecond,
			wantKind:   KindNoResponse,
			wantStatus: 504,
			wantMsg:    msgNoResponse,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("<html>oops</html>"))
			},
			wantKind:   KindUnexpected,
			wantStatus: 500,
			wantMsg:    msgUnexpected,
		},
		{
			name: "malformed error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("bad gateway"))
			},
			wantKind:   KindUnexpected,
			wantStatus: 500,
			wantMsg:    msgUnexpected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.timeout > 0 {
				opts = append(opts, WithTimeout(tt.timeout))
			}
			c := newTestClient(t, tt.handler, opts...)

			_, err := c.Login(context.Background(), Credentials{Username: "a", Password: "b"})
			de, ok := AsError(err)
			if !ok {
				t.Fatalf("error %v is not a *directory.Error", err)
			}
			if de.Kind != tt.wantKind || de.Status != tt.wantStatus || de.Message != tt.wantMsg {
				t.Errorf("got kind=%v status=%d msg=%q, want kind=%v status=%d msg=%q",
					de.Kind, de.Status, de.Message, tt.wantKind, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}

func TestNoServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c, _ := New(addr)
	_, err := c.Contacts(context.Background(), "u-1")
	if de, ok := AsError(err); !ok || de.Kind != KindNoResponse {
		t.Errorf("error = %v, want no response", err)
	}
}

func TestContacts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/user/u-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  200,
			"message": "ok",
			"data": []map[string]string{
				{"user_uuid": "u-1", "username": "alice", "name": "Alice"},
				{"user_uuid": "u-2", "username": "bob", "name": "Bob"},
				{"user_uuid": "u-3", "username": "carol", "name": "Carol"},
			},
		})
	})

	users, err := c.Contacts(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Contacts: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u-2" || users[1].ID != "u-3" {
		t.Errorf("users = %+v", users)
	}
}

func TestContacts_NullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": 200, "message": "ok", "data": nil})
	})
	users, err := c.Contacts(context.Background(), "u-1")
	if err != nil || len(users) != 0 {
		t.Errorf("Contacts = %v, %v", users, err)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"blank username", Credentials{Username: " ", Password: "x"}.Validate(), "Username"},
		{"blank password", Credentials{Username: "a"}.Validate(), "Password"},
		{"repeat mismatch", Registration{Name: "A", Username: "a", Password: "x", Repeat: "y"}.Validate(), "not the same"},
		{"blank name", Registration{Username: "a", Password: "x", Repeat: "x"}.Validate(), "Name"},
		{"blank register username", Registration{Name: "A", Password: "x", Repeat: "x"}.Validate(), "Username"},
		{"blank register password", Registration{Name: "A", Username: "a"}.Validate(), "Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !perrors.Is(tt.err, perrors.KindInvalid) {
				t.Fatalf("error = %v, want invalid kind", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", tt.err, tt.msg)
			}
		})
	}

	if err := (Credentials{Username: "a", Password: "b"}).Validate(); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}
}

func TestLogin_ValidatesBeforeRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	if _, err := c.Login(context.Background(), Credentials{}); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Error("request sent despite invalid credentials")
	}
}

func TestNew_BadAddress(t *testing.T) {
	for _, server := range []string{"", "ftp://host", "http://"} {
		if _, err := New(server); !perrors.Is(err, perrors.KindConfig) {
			t.Errorf("New(%q) error = %v", server, err)
		}
	}
	if _, err := New("127.0.0.1:3000"); err != nil {
		t.Errorf("bare host rejected: %v", err)
	}
}

func TestError_Message(t *testing.T) {
	err := error(&Error{Kind: KindServer, Status: 401, Message: "wrong password"})
	if err.Error() != "wrong password (401)" {
		t.Errorf("Error() = %q", err.Error())
	}
	wrapped := errors.Join(errors.New("ctx"), err)
	if _, ok := AsError(wrapped); !ok {
		t.Error("AsError did not unwrap")
	}
}
