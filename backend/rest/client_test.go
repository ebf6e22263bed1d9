package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"focusync/backend"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, APIKey: "anon-key", AccessToken: "user-token"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "not a url", "/relative"} {
		if _, err := NewClient(Config{URL: u}); err == nil {
			t.Errorf("NewClient(%q) should fail", u)
		}
	}
}

func TestSelect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/v1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.t1" {
			t.Errorf("id filter = %q", got)
		}
		if got := r.URL.Query().Get("select"); got != "updated_at" {
			t.Errorf("select = %q", got)
		}
		if r.Header.Get("apikey") != "anon-key" || r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		_, _ = io.WriteString(w, `[{"updated_at":"2024-03-01T09:00:00Z"}]`)
	})

	row, err := client.Select(context.Background(), backend.TableTasks, "t1", "updated_at")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	ts, err := row.Time("updated_at")
	if err != nil || ts == nil || ts.Year() != 2024 {
		t.Errorf("updated_at = %v, %v", ts, err)
	}
}

func TestList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/reminders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "id.asc" {
			t.Errorf("order = %q", got)
		}
		_, _ = io.WriteString(w, `[{"id":"r1","title":"Stretch"},{"id":"r2","title":"Water"}]`)
	})

	rows, err := client.List(context.Background(), backend.TableReminders)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rows) != 2 || rows[1].String("title") != "Water" {
		t.Errorf("rows = %v", rows)
	}
}

func TestSelectNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.Select(context.Background(), backend.TableTasks, "missing")
	if !backend.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpsert(t *testing.T) {
	var got []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Query().Get("on_conflict") != "id" {
			t.Errorf("missing on_conflict: %s", r.URL.RawQuery)
		}
		if p := r.Header.Get("Prefer"); p != "resolution=merge-duplicates,return=minimal" {
			t.Errorf("Prefer = %q", p)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Upsert(context.Background(), backend.TableReminders, "r1", backend.Row{"title": "stretch"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(got) != 1 || got[0]["id"] != "r1" || got[0]["title"] != "stretch" {
		t.Errorf("body = %v", got)
	}
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Prefer = %q", r.Header.Get("Prefer"))
		}
		_, _ = io.WriteString(w, `[]`)
	})
	ctx := context.Background()

	if err := client.Update(ctx, backend.TableTasks, "t1", backend.Row{"title": "x"}); !backend.IsNotFound(err) {
		t.Errorf("Update: expected not found, got %v", err)
	}
	if err := client.Delete(ctx, backend.TableTasks, "t1"); !backend.IsNotFound(err) {
		t.Errorf("Delete: expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Query().Get("id") != "eq.p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		_, _ = io.WriteString(w, `[{"id":"p1"}]`)
	})

	if err := client.Delete(context.Background(), backend.TablePomodoroSessions, "p1"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
}

func TestServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"database is restarting"}`)
	})

	err := client.Update(context.Background(), backend.TableTasks, "t1", backend.Row{})
	be, ok := err.(*backend.BackendError)
	if !ok {
		t.Fatalf("expected *BackendError, got %T", err)
	}
	if !be.IsServerError() || be.Message != "database is restarting" || be.Key != "t1" {
		t.Errorf("unexpected error: %+v", be)
	}
}

func TestCurrentIdentity(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{"signed in", http.StatusOK, `{"id":"u1","email":"a@example.com"}`, "u1", false},
		{"no session", http.StatusUnauthorized, `{"message":"invalid JWT"}`, "", false},
		{"server error", http.StatusInternalServerError, ``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/user" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := client.CurrentIdentity(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("identity = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, err := NewClient(Config{URL: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	server.Close()

	err = client.Ping(context.Background())
	if !backend.IsTransportError(err) {
		t.Errorf("expected transport error, got %v", err)
	}
	if _, err := client.Select(context.Background(), backend.TableTasks, "t1"); !backend.IsTransportError(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}
