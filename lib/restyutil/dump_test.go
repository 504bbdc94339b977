package restyutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(name, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[name] = contents
}

func TestDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Served", "yes")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	Dump(client, out)

	_, err := client.R().SetFormData(map[string]string{"a": "b"}).Post(server.URL + "/video/search")
	require.Nil(t, err)
	_, err = client.R().Get(server.URL)
	require.Nil(t, err)

	require.Len(t, out.messages, 2)
	post := out.messages["0001-POST-video_search.txt"]
	require.Contains(t, post, "POST "+server.URL+"/video/search")
	require.Contains(t, post, "a=b")
	require.Contains(t, post, "418 ")
	require.Contains(t, post, "X-Served: yes")
	require.Contains(t, post, "short and stout")

	require.Contains(t, out.messages, "0002-GET-index.txt")
}

func TestExchangeName(t *testing.T) {
	u, err := url.Parse("https://example.com/view_video.php?viewkey=abc")
	require.Nil(t, err)
	require.Equal(t, "0012-GET-view_video_php.txt", exchangeName(12, "GET", u))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.Nil(t, os.MkdirAll(dir, 0777))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "stale.txt"), nil, 0600))

	out, err := NewFilesystemOutput(dir)
	require.Nil(t, err)
	out.Write("0001-GET-index.txt", "contents")

	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0001-GET-index.txt", entries[0].Name())
}
