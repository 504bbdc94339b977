package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediahub/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const challengePage = `<html><script>function go() {p=5;s=3;n=l;document.cookie="KEY="+n+"*"+p/n+":"+s+":1234:1";}</script></html>`

func testOptions(host string) Options {
	opts := DefaultOptions()
	opts.Host = host
	opts.RetryDelay = time.Millisecond
	opts.ChallengeCooldown = time.Millisecond
	opts.Timeout = 2 * time.Second
	return opts
}

func newTestClient(t testing.TB, opts Options, solver ChallengeSolver) (*Client, *telemetry.TestingAPI) {
	tel := telemetry.NewTestingAPI()
	client, err := New(opts, solver, tel)
	require.Nil(t, err)
	return client, tel
}

func TestResolve(t *testing.T) {
	opts := testOptions("https://www.example.com/")
	client, _ := newTestClient(t, opts, nil)

	require.Equal(t, "https://www.example.com/video/search?page=1", client.Resolve("video/search?page=1"))
	require.Equal(t, "https://www.example.com/video", client.Resolve("/video"))
	require.Equal(t, "https://cdn.example.net/seg-1.ts", client.Resolve("https://cdn.example.net/seg-1.ts"))

	opts.Language = "fr"
	client, _ = newTestClient(t, opts, nil)
	require.Equal(t, "https://www.fr.example.com/video", client.Resolve("video"))

	opts.Language = "xx"
	_, err := New(opts, nil, telemetry.NewTestingAPI())
	require.NotNil(t, err)
}

func TestCallRetriesRateLimit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.Write([]byte("<html><title>429</title></html>"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client, tel := newTestClient(t, testOptions(server.URL), nil)
	res, err := client.Call(context.Background(), Get("/"))
	require.Nil(t, err)
	require.Equal(t, "ok", res.Text())
	require.Equal(t, int32(3), atomic.LoadInt32(&hits))
	require.Len(t, tel.Find("warning", report_client_call), 2)
}

func TestCallExhausted(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<title>429</title>"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, testOptions(server.URL), nil)
	_, err := client.Call(context.Background(), Get("/"))

	var failure *ConnectionFailure
	require.True(t, errors.As(err, &failure))
	require.Equal(t, 4, failure.Attempts)
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestCallChallenge(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		cookie, err := r.Cookie("KEY")
		if err != nil || cookie.Value != "solved:1234" {
			w.Write([]byte(challengePage))
			return
		}
		w.Write([]byte("content"))
	}))
	defer server.Close()

	var solved []Challenge
	solver := ChallengeSolverFunc(func(_ context.Context, logic string, offset int) (string, error) {
		solved = append(solved, Challenge{Logic: logic, Offset: offset})
		return "solved:1234", nil
	})

	client, _ := newTestClient(t, testOptions(server.URL), solver)
	res, err := client.Call(context.Background(), Get("/"))
	require.Nil(t, err)
	require.Equal(t, "content", res.Text())
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))
	require.Equal(t, []Challenge{{Logic: "p=5;s=3;", Offset: 1234}}, solved)
}

func TestCallUnsolvedChallengeExhausts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(challengePage))
	}))
	defer server.Close()

	client, tel := newTestClient(t, testOptions(server.URL), nil)
	_, err := client.Call(context.Background(), Get("/"))

	var failure *ConnectionFailure
	require.True(t, errors.As(err, &failure))
	require.Len(t, tel.Find("warning", report_client_challenge), 4)
}

func TestCallStrict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	client, _ := newTestClient(t, testOptions(server.URL), nil)

	_, err := client.Call(context.Background(), Get("/missing"))
	var status *HttpStatusFailure
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusNotFound, status.StatusCode)

	res, err := client.Call(context.Background(), Request{Target: "/missing"})
	require.Nil(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.False(t, res.IsSuccess())
}

func TestCallPacingAcrossGoroutines(t *testing.T) {
	var mutex sync.Mutex
	var received []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		received = append(received, time.Now())
		mutex.Unlock()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	delay := 100 * time.Millisecond
	opts := testOptions(server.URL)
	opts.Delay = delay
	client, _ := newTestClient(t, opts, nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 2; j++ {
				_, err := client.Call(context.Background(), Get("/"))
				if err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, received, 6)
	sort.Slice(received, func(i, j int) bool { return received[i].Before(received[j]) })
	for i := 1; i < len(received); i++ {
		// small slack for the scheduling between the pacer and the handler
		require.GreaterOrEqual(t, received[i].Sub(received[i-1]), delay-10*time.Millisecond)
	}
}

func TestCallCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.Delay = time.Hour
	client, _ := newTestClient(t, opts, nil)

	_, err := client.Call(context.Background(), Get("/"))
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Call(ctx, Get("/"))
	require.NotNil(t, err)
}

func TestGeoBypassHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.BypassGeoBlocking = true
	client, _ := newTestClient(t, opts, nil)

	_, err := client.Call(context.Background(), Get("/"))
	require.Nil(t, err)

	h := <-headers
	require.Contains(t, geoBypassIPs, h.Get("X-Forwarded-For"))
	require.Equal(t, "fr", h.Get("Accept-Language"))
	require.Equal(t, "fr", h.Get("CF-IPCountry"))
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`<script>var token = "tok123",</script>`))
		case "/front/authenticate":
			r.ParseForm()
			if r.PostForm.Get("token") != "tok123" {
				w.Write([]byte(`{"success": "0", "message": "bad token"}`))
				return
			}
			if r.PostForm.Get("password") != "secret" {
				w.Write([]byte(`{"success": "0", "message": "wrong password"}`))
				return
			}
			w.Write([]byte(`{"success": "1", "message": "", "username": "someone"}`))
		}
	}))
	defer server.Close()

	client, _ := newTestClient(t, testOptions(server.URL), nil)

	result, err := client.Login(context.Background(), "a@b.c", "secret")
	require.Nil(t, err)
	require.True(t, result.Success)
	require.Equal(t, "someone", result.Raw["username"])

	_, err = client.Login(context.Background(), "a@b.c", "nope")
	var auth *AuthenticationFailure
	require.True(t, errors.As(err, &auth))
	require.Equal(t, "wrong password", auth.Reason)
}

func TestLoginMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte(`<script>var token = "tok123",</script>`))
			return
		}
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client, tel := newTestClient(t, testOptions(server.URL), nil)
	_, err := client.Login(context.Background(), "a@b.c", "secret")
	require.NotNil(t, err)
	require.Len(t, tel.Find("broken", report_client_login), 1)
}

func TestTruthy(t *testing.T) {
	testCases := []struct {
		value  any
		expect bool
	}{
		{value: true, expect: true},
		{value: false, expect: false},
		{value: float64(1), expect: true},
		{value: float64(0), expect: false},
		{value: "1", expect: true},
		{value: "0", expect: false},
		{value: "yes", expect: false},
		{value: nil, expect: false},
		{value: map[string]any{}, expect: false},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, truthy(tc.value), "%#v", tc.value)
	}
}

func TestReset(t *testing.T) {
	opts := testOptions("https://www.example.com/")
	client, _ := newTestClient(t, opts, nil)

	u, err := url.Parse("https://www.example.com/")
	require.Nil(t, err)
	_, jar := client.session()
	jar.SetCookies(u, []*http.Cookie{{Name: "KEY", Value: "x", Path: "/"}})
	require.Len(t, client.Cookies("/"), 1)

	require.Nil(t, client.Reset())
	require.Len(t, client.Cookies("/"), 0)
}

func TestCallDumpsExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dumped body"))
	}))
	defer server.Close()

	opts := testOptions(server.URL)
	opts.DumpDir = filepath.Join(t.TempDir(), "exchanges")
	client, _ := newTestClient(t, opts, nil)

	_, err := client.Call(context.Background(), Get("video/search"))
	require.Nil(t, err)

	contents, err := os.ReadFile(filepath.Join(opts.DumpDir, "0001-GET-video_search.txt"))
	require.Nil(t, err)
	require.Contains(t, string(contents), "dumped body")
}
