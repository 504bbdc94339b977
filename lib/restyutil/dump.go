// Package restyutil dumps the http exchanges of a resty client, used to
// inspect what the platform actually served when a scrape breaks.
package restyutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type Output interface {
	Write(name string, contents string)
}

// Dump writes every response received by client to output, named after a
// sequence number, the method and the path requested.
func Dump(client *resty.Client, output Output) {
	var counter atomic.Uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if res.Request.RawRequest == nil {
			return nil
		}
		id := counter.Add(1)
		output.Write(exchangeName(id, res.Request.Method, res.Request.RawRequest.URL), formatExchange(res))
		return nil
	})
}

func exchangeName(id uint64, method string, u *url.URL) string {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		path = "index"
	}
	path = strings.NewReplacer("/", "_", "\\", "_", ".", "_").Replace(path)
	if len(path) > 64 {
		path = path[:64]
	}
	return fmt.Sprintf("%04d-%s-%s.txt", id, method, path)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput empties dir and writes exchanges into it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(name string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http exchange", "name", name, "err", err)
	}
}
