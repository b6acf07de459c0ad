package cfapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solvetrack/tagstat-engine/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.CodeforcesConfig{
		BaseURL:   baseURL,
		UserAgent: "tagstat-engine-test",
	})
}

func TestFetchUserData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user.status":
			if got := r.URL.Query().Get("handle"); got != "tester" {
				t.Errorf("unexpected handle %q", got)
			}
			w.Write([]byte(`{"status":"OK","result":[
				{"id":1,"contestId":100,"problem":{"contestId":100,"index":"A"},"verdict":"OK"}
			]}`))
		case "/problemset.problems":
			w.Write([]byte(`{"status":"OK","result":{"problems":[
				{"contestId":100,"index":"A","name":"Sum","rating":1500,"tags":["dp"]}
			]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	data, err := testClient(server.URL).FetchUserData(context.Background(), "tester")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if len(data.Submissions) != 1 || data.Submissions[0].Verdict != "OK" {
		t.Errorf("unexpected submissions: %+v", data.Submissions)
	}
	if len(data.Problems) != 1 || data.Problems[0].Name != "Sum" {
		t.Errorf("unexpected problems: %+v", data.Problems)
	}
	if data.Problems[0].Rating == nil || *data.Problems[0].Rating != 1500 {
		t.Errorf("unexpected rating: %v", data.Problems[0].Rating)
	}
}

func TestFetchUserDataFailsWhenEitherSourceFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/user.status" {
			w.Write([]byte(`{"status":"FAILED","comment":"handle: User not found"}`))
			return
		}
		w.Write([]byte(`{"status":"OK","result":{"problems":[]}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchUserData(context.Background(), "nobody")
	if err == nil {
		t.Fatal("expected fetch to fail")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchUserDataHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchUserData(context.Background(), "tester")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
