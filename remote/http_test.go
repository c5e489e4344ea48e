package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func TestClient_Login(t *testing.T) {
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/users/login" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Token", "session-token-123")
		json.NewEncoder(w).Encode(map[string]string{"id": "u1", "username": "alice"})
	}))

	user, err := client.Login(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}
	if gotBody["login_id"] != "alice@example.com" || gotBody["password"] != "hunter2" {
		t.Errorf("unexpected login body: %v", gotBody)
	}

	client.mu.RLock()
	token := client.token
	client.mu.RUnlock()
	if token != "session-token-123" {
		t.Errorf("token = %q, want the Token header value", token)
	}
}

func TestClient_LoginWithoutCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))

	if _, err := client.Login(context.Background(), "", ""); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Login with empty credentials = %v, want ErrNoCredentials", err)
	}
}

func TestClient_BearerTokenSent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pat-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer pat-token")
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "u1"})
	}))

	client.SetToken("pat-token")
	if _, err := client.GetMe(context.Background()); err != nil {
		t.Fatalf("GetMe failed: %v", err)
	}
}

func TestClient_GetPostsQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/channels/c1/posts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("per_page") != "30" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"order": []string{"p1"},
			"posts": map[string]any{"p1": map[string]any{"id": "p1", "message": "hi"}},
		})
	}))

	list, err := client.GetPosts(context.Background(), "c1", 2, 30)
	if err != nil {
		t.Fatalf("GetPosts failed: %v", err)
	}
	posts := list.Ordered()
	if len(posts) != 1 || posts[0].Message != "hi" {
		t.Errorf("unexpected posts: %+v", posts)
	}
}

func TestClient_CreatePostReply(t *testing.T) {
	var gotBody map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v4/posts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "p9"})
	}))

	post, err := client.CreatePost(context.Background(), "c1", "hello", "root1")
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if post.ID != "p9" {
		t.Errorf("post id = %q, want %q", post.ID, "p9")
	}
	if gotBody["root_id"] != "root1" {
		t.Errorf("root_id = %q, want %q", gotBody["root_id"], "root1")
	}
}

func TestClient_SearchPostsBody(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/teams/t1/posts/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"order": []string{}, "posts": map[string]any{}})
	}))

	if _, err := client.SearchPosts(context.Background(), "t1", "from:alice deploy"); err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if gotBody["terms"] != "from:alice deploy" {
		t.Errorf("terms = %v, want the query", gotBody["terms"])
	}
	if gotBody["is_or_search"] != false {
		t.Errorf("is_or_search = %v, want false", gotBody["is_or_search"])
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		message  string
		sentinel error
	}{
		{"session expired", http.StatusUnauthorized, "Invalid or expired session, please login again.", ErrUnauthorized},
		{"unknown channel", http.StatusNotFound, "Unable to find the existing channel.", ErrNotFound},
		{"no permission", http.StatusForbidden, "You do not have the appropriate permissions.", ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"id":          "some.app_error",
					"message":     tt.message,
					"status_code": tt.status,
				})
			}))

			_, err := client.GetChannel(context.Background(), "c1")
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error %v should unwrap to %v", err, tt.sentinel)
			}

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatal("error should be a StatusError")
			}
			if statusErr.Message != tt.message {
				t.Errorf("Message = %q, want verbatim %q", statusErr.Message, tt.message)
			}
		})
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream fell over"))
	}))

	_, err := client.ListTeams(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", statusErr.StatusCode)
	}
}

func TestClient_UserAgent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "chatbridge" {
			t.Errorf("User-Agent = %q, want %q", got, "chatbridge")
		}
		json.NewEncoder(w).Encode([]any{})
	}))

	if _, err := client.ListTeams(context.Background()); err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
}

func TestClient_Logout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/users/logout" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	}))

	client.SetToken("tok")
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	client.mu.RLock()
	token := client.token
	client.mu.RUnlock()
	if token != "" {
		t.Error("Logout should forget the session token")
	}
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("NewClient without BaseURL should fail")
	}
}
