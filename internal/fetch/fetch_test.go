package fetch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jivas-io/jvmanager/internal/models"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

type countingNavigator struct {
	mu       sync.Mutex
	location string
	targets  []string
}

func (n *countingNavigator) Location() string {
	return n.location
}

func (n *countingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, path)
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses []int
	rejected int
}

func (o *recordingObserver) ObserveResponse(_ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) ObserveRejected() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected++
}

func storeWith(t *testing.T, values map[string]string) *sessions.MemoryStore {
	t.Helper()
	store := sessions.NewMemoryStore()
	for k, v := range values {
		require.NoError(t, store.Set(k, v))
	}
	return store
}

func TestFetch_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(storeWith(t, map[string]string{models.TokenKey: "abc"}), &countingNavigator{})

	_, err := client.Fetch(context.Background(), server.URL, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestFetch_NoTokenNoHeader(t *testing.T) {
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(sessions.NewMemoryStore(), &countingNavigator{})

	_, err := client.Fetch(context.Background(), server.URL, Options{})
	require.NoError(t, err)
	assert.False(t, present)
}

func TestFetch_PreservesCallerHeaders(t *testing.T) {
	var got http.Header
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(storeWith(t, map[string]string{models.TokenKey: "abc"}), &countingNavigator{})

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Correlation-ID", "corr-1")
	header.Set("Authorization", "Bearer caller")

	_, err := client.Fetch(context.Background(), server.URL, Options{
		Method: http.MethodPost,
		Header: header,
		Body:   []byte(`{"agent_id":"a1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "corr-1", got.Get("X-Correlation-ID"))
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "a1", body["agent_id"])
}

func TestFetch_KeepsMultiValuedHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(storeWith(t, nil), &countingNavigator{})

	header := http.Header{}
	header.Add("Accept", "application/json")
	header.Add("Accept", "text/plain")

	_, err := client.Fetch(context.Background(), server.URL, Options{Header: header})
	require.NoError(t, err)

	assert.Equal(t, []string{"application/json", "text/plain"}, got.Values("Accept"))
}

func TestFetch_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer server.Close()

	store := storeWith(t, map[string]string{
		models.TokenKey:  "abc",
		models.ExpiryKey: models.FormatExpiry(time.Now().Add(time.Hour)),
		models.HostKey:   server.URL,
	})
	navigator := &countingNavigator{location: "/dashboard"}
	observer := &recordingObserver{}
	client := New(store, navigator, WithObserver(observer))

	resp, err := client.Fetch(context.Background(), server.URL, Options{})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, resp)
	assert.Equal(t, map[string]string{models.HostKey: server.URL}, store.Snapshot())
	assert.Equal(t, []string{"/login"}, navigator.targets)
	assert.Equal(t, []int{http.StatusUnauthorized}, observer.statuses)
	assert.Equal(t, 1, observer.rejected)
}

func TestFetch_UnauthorizedOnLoginPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := storeWith(t, map[string]string{models.TokenKey: "abc"})
	navigator := &countingNavigator{location: "/login"}
	client := New(store, navigator)

	_, err := client.Fetch(context.Background(), server.URL, Options{})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, navigator.targets)
	assert.Empty(t, store.Snapshot())
}

func TestFetch_OtherStatusesPassThrough(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Upstream", "jivas")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"reports":[]}`))
			}))
			defer server.Close()

			values := map[string]string{models.TokenKey: "abc", models.ExpiryKey: "1"}
			store := storeWith(t, values)
			navigator := &countingNavigator{location: "/dashboard"}
			client := New(store, navigator)

			resp, err := client.Fetch(context.Background(), server.URL, Options{})
			require.NoError(t, err)

			assert.Equal(t, status, resp.StatusCode())
			assert.Equal(t, "jivas", resp.Header().Get("X-Upstream"))
			assert.Equal(t, `{"reports":[]}`, string(resp.Body()))
			assert.Equal(t, values, store.Snapshot())
			assert.Empty(t, navigator.targets)
		})
	}
}

func TestFetch_NoRetry(t *testing.T) {
	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rc := resty.New().
		SetRetryCount(3).
		AddRetryCondition(func(*resty.Response, error) bool { return true })

	client := New(sessions.NewMemoryStore(), &countingNavigator{}, WithRestyClient(rc))

	resp, err := client.Fetch(context.Background(), server.URL, Options{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestFetch_TransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	values := map[string]string{models.TokenKey: "abc"}
	store := storeWith(t, values)
	navigator := &countingNavigator{location: "/dashboard"}
	client := New(store, navigator)

	resp, err := client.Fetch(context.Background(), url, Options{})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, resp)
	assert.Equal(t, values, store.Snapshot())
	assert.Empty(t, navigator.targets)
}

func TestFetch_ConcurrentUnauthorizedIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := storeWith(t, map[string]string{models.TokenKey: "abc", models.ExpiryKey: "1"})
	navigator := NewPathNavigator("/actions")
	client := New(store, navigator)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Fetch(context.Background(), server.URL, Options{Method: http.MethodPost})
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	wg.Wait()

	target, ok := navigator.Target()
	assert.True(t, ok)
	assert.Equal(t, "/login", target)
	assert.Equal(t, 1, navigator.Calls())
	assert.Empty(t, store.Snapshot())
}

func TestPathNavigator(t *testing.T) {
	n := NewPathNavigator("/graph")
	assert.Equal(t, "/graph", n.Location())

	_, ok := n.Target()
	assert.False(t, ok)

	n.Navigate("/login")
	n.Navigate("/login")

	target, ok := n.Target()
	assert.True(t, ok)
	assert.Equal(t, "/login", target)
	assert.Equal(t, 1, n.Calls())
}
