package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"mediahub/internal/components/assert"
	"mediahub/internal/components/chrono"
	"mediahub/internal/components/telemetry"
	"mediahub/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("mediahub.transport")

const (
	report_client_call      = "client.call"
	report_client_challenge = "client.challenge"
	report_client_login     = "client.login"
	report_client_token     = "client.token"
)

var rateLimitMarker = []byte("429</title>")

type Client struct {
	opts  Options
	root  *url.URL
	hosts map[string]string

	// pacer is shared by every goroutine issuing calls through this client,
	// rate.Limiter guards its own state with a mutex.
	pacer  *rate.Limiter
	solver ChallengeSolver
	clock  chrono.API
	tel    telemetry.API
	dump   restyutil.Output

	mutex sync.RWMutex
	http  *resty.Client
	jar   *cookiejar.Jar
}

// New creates a client. solver may be nil, in which case challenges still
// consume an attempt but are never answered.
func New(opts Options, solver ChallengeSolver, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Host)

	opts = opts.withDefaults()
	if !isSupportedLanguage(opts.Language) {
		return nil, fmt.Errorf("unsupported language %q", opts.Language)
	}

	root, err := url.Parse(opts.Host)
	if err != nil {
		return nil, fmt.Errorf("parse host: %w", err)
	}

	hosts := LanguageHosts(root)
	for lang, host := range opts.Hosts {
		hosts[lang] = host
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	c := &Client{
		opts:   opts,
		root:   root,
		hosts:  hosts,
		pacer:  rate.NewLimiter(limit, 1),
		solver: solver,
		clock:  chrono.StandardImpl{},
		tel:    telemetry.NewScopedAPI("transport", tel),
	}
	if opts.DumpDir != "" {
		c.dump, err = restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("prepare dump dir: %w", err)
		}
	}
	err = c.Reset()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetClock replaces the clock used for retry and cooldown sleeps.
func (c *Client) SetClock(clock chrono.API) {
	assert.NotNil(clock)
	c.clock = clock
}

// Reset discards the session: cookies (including solved challenges) are
// dropped and geo-bypass headers, if enabled, are rolled again.
func (c *Client) Reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	if c.opts.Proxy != "" {
		httpClient.SetProxy(c.opts.Proxy)
	}

	httpClient.SetHeader("user-agent", c.opts.UserAgent)
	httpClient.SetHeader("accept", "*/*")
	httpClient.SetHeader("accept-language", c.opts.Language)
	httpClient.SetTimeout(c.opts.Timeout)

	for name, value := range c.opts.Cookies {
		httpClient.SetCookie(&http.Cookie{Name: name, Value: value, Path: "/"})
	}

	if c.opts.BypassGeoBlocking {
		ip := geoBypassIPs[rand.Intn(len(geoBypassIPs))]
		httpClient.SetHeader("X-Forwarded-For", ip)
		httpClient.SetHeader("Accept-Language", geoBypassLocale)
		httpClient.SetHeader("CF-IPCountry", geoBypassLocale)
		c.tel.ReportDebug("using geo-bypass headers", ip)
	}

	telemetry.InstrumentResty(httpClient, c.tel)
	if c.dump != nil {
		restyutil.Dump(httpClient, c.dump)
	}

	c.mutex.Lock()
	c.http = httpClient
	c.jar = jar
	c.mutex.Unlock()
	return nil
}

// Resolve turns a relative target into an absolute url on the host of the
// configured language, absolute urls are returned unchanged.
func (c *Client) Resolve(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	host := c.hosts[c.opts.Language]
	return fmt.Sprintf("%s://%s/%s", c.root.Scheme, host, strings.TrimLeft(target, "/"))
}

func (c *Client) session() (*resty.Client, *cookiejar.Jar) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.http, c.jar
}

// Call issues req with pacing and retries.
//
// Every attempt waits for the shared pacer. An attempt fails on a transport
// error or on a rate limit page, and consumes itself without failing when the
// response carries a challenge (which is solved before the next attempt).
// The first attempt that does neither ends the loop.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	target := c.Resolve(req.Target)
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := tracer.Start(ctx, "Call")
	defer span.End()
	span.SetAttributes(
		attribute.String("url", target),
		attribute.String("method", method),
	)

	var last error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		err := c.pacer.Wait(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pacing interrupted")
			return Response{}, err
		}

		res, err := c.do(ctx, method, target, req)
		if err == nil && bytes.Contains(res.Body, rateLimitMarker) {
			err = ErrRateLimited
		}
		if err != nil {
			if ctx.Err() != nil {
				span.RecordError(ctx.Err())
				span.SetStatus(codes.Error, "call cancelled")
				return Response{}, ctx.Err()
			}
			last = err
			c.tel.ReportWarning(
				report_client_call,
				fmt.Errorf("attempt %d/%d: %w", attempt, c.opts.Attempts, err),
				target,
			)
			err = c.clock.Sleep(ctx, c.opts.RetryDelay)
			if err != nil {
				return Response{}, err
			}
			continue
		}

		challenge, found := FindChallenge(res.Body)
		if found {
			span.AddEvent("challenge")
			last = errChallenged
			c.answer(ctx, target, challenge)
			err = c.clock.Sleep(ctx, c.opts.ChallengeCooldown)
			if err != nil {
				return Response{}, err
			}
			continue
		}

		span.SetAttributes(
			attribute.Int("attempts", attempt),
			attribute.Int("status", res.StatusCode),
		)
		if req.Strict && !res.IsSuccess() {
			err := &HttpStatusFailure{Method: method, URL: target, StatusCode: res.StatusCode}
			span.RecordError(err)
			span.SetStatus(codes.Error, "unexpected status")
			return res, err
		}
		return res, nil
	}

	failure := &ConnectionFailure{URL: target, Attempts: c.opts.Attempts, Last: last}
	c.tel.ReportBroken(report_client_call, failure)
	span.RecordError(failure)
	span.SetStatus(codes.Error, "attempts exhausted")
	return Response{}, failure
}

func (c *Client) do(ctx context.Context, method, target string, req Request) (Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpClient, _ := c.session()
	r := httpClient.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Form != nil {
		r.SetFormDataFromValues(req.Form)
	} else if req.Body != nil {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(method, target)
	if err != nil {
		return Response{}, err
	}

	final := target
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL.String()
	}
	return Response{
		StatusCode: res.StatusCode(),
		Header:     res.Header(),
		Body:       res.Body(),
		URL:        final,
	}, nil
}

// answer solves a challenge and stores the result as the session cookie the
// platform expects on the next attempt.
func (c *Client) answer(ctx context.Context, target string, challenge Challenge) {
	if c.solver == nil {
		c.tel.ReportWarning(report_client_challenge, errors.New("no solver configured"), target)
		return
	}
	c.tel.ReportDebug("solving challenge", target, challenge.Offset)

	token, err := c.solver.Solve(ctx, challenge.Logic, challenge.Offset)
	if err != nil {
		c.tel.ReportWarning(report_client_challenge, fmt.Errorf("solve: %w", err), target)
		return
	}

	u, err := url.Parse(target)
	if err != nil {
		c.tel.ReportBroken(report_client_challenge, fmt.Errorf("parse target: %w", err), target)
		return
	}
	_, jar := c.session()
	jar.SetCookies(u, []*http.Cookie{{
		Name:    challengeCookie,
		Value:   token,
		Path:    "/",
		Expires: c.clock.Now().Add(24 * time.Hour),
	}})
}

// Cookies returns the session cookies that would be sent to target.
func (c *Client) Cookies(target string) []*http.Cookie {
	u, err := url.Parse(c.Resolve(target))
	if err != nil {
		return nil
	}
	_, jar := c.session()
	return jar.Cookies(u)
}
