package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/config"
	"github.com/edgecomet/pagination/internal/common/configtypes"
	"github.com/edgecomet/pagination/internal/common/redis"
	"github.com/edgecomet/pagination/internal/pagination/headlinks"
	"github.com/edgecomet/pagination/internal/pagination/rewrite"
	"github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/pagination/totals"
	"github.com/edgecomet/pagination/internal/service"
	"github.com/edgecomet/pagination/pkg/types"
)

const listingURL = "https://example.com/blog"

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []string
	rewrites []string
	links    []string
}

func (r *fakeRecorder) RecordRequest(endpoint string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, fmt.Sprintf("%s:%d", endpoint, status))
}

func (r *fakeRecorder) RecordRewrite(outcome string, totalPages int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rewrites = append(r.rewrites, fmt.Sprintf("%s:%d", outcome, totalPages))
}

func (r *fakeRecorder) RecordHeadLink(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, rel)
}

func themeWidget(current, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="mk-pagination" data-init-pagination="%d" data-max-pages="%d">`, current, total)
	b.WriteString(`<a class="mk-pagination-previous js-pagination-prev" href="#"></a>`)
	b.WriteString(`<div class="mk-pagination-inner">`)
	for p := 1; p <= total; p++ {
		class := "page-number js-pagination-page"
		if p == current {
			class += " current-page"
		}
		fmt.Fprintf(&b, `<a class="%s" href="#" data-page-id="%d">%d</a>`, class, p, p)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<a class="mk-pagination-next js-pagination-next" href="#"></a>`)
	b.WriteString(`</div>`)
	return b.String()
}

func call(svc *service.Service, method, path string, body interface{}, headers ...string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	for i := 0; i+1 < len(headers); i += 2 {
		ctx.Request.Header.Set(headers[i], headers[i+1])
	}
	switch b := body.(type) {
	case nil:
	case string:
		ctx.Request.SetBodyString(b)
	default:
		data, err := json.Marshal(b)
		Expect(err).NotTo(HaveOccurred())
		ctx.Request.SetBody(data)
	}
	svc.ServeHTTP(ctx)
	return ctx
}

func decode(ctx *fasthttp.RequestCtx, data interface{}) envelope {
	var env envelope
	Expect(json.Unmarshal(ctx.Response.Body(), &env)).To(Succeed())
	if data != nil && len(env.Data) > 0 {
		Expect(json.Unmarshal(env.Data, data)).To(Succeed())
	}
	return env
}

var _ = Describe("Pagination service", func() {
	var (
		mr          *miniredis.Miniredis
		redisClient *redis.Client
		recorder    *fakeRecorder
		svc         *service.Service
	)

	newService := func(cache signal.TotalsCache, health service.HealthChecker) *service.Service {
		resolver := signal.NewResolver(cache, zap.NewNop())
		s, err := service.New(service.Options{
			Rewriter: rewrite.NewRewriter(resolver, 8, zap.NewNop()),
			Resolver: resolver,
			Emitter:  headlinks.NewEmitter(nil),
			Metrics:  recorder,
			Cache:    health,
		}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())

		redisClient, err = redis.NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		recorder = &fakeRecorder{}
		store := totals.NewStore(redisClient, redis.NewKeyGenerator("test:"), zap.NewNop())
		svc = newService(store, redisClient)
	})

	AfterEach(func() {
		redisClient.Close()
		mr.Close()
	})

	Describe("construction", func() {
		It("requires a rewriter and a resolver", func() {
			_, err := service.New(service.Options{}, nil)
			Expect(err).To(MatchError(ContainSubstring("rewriter is required")))

			_, err = service.New(service.Options{Rewriter: rewrite.NewRewriter(nil, 0, nil)}, nil)
			Expect(err).To(MatchError(ContainSubstring("resolver is required")))
		})
	})

	Describe("POST /pagination/rewrite", func() {
		It("windows a long listing and links every control", func() {
			ctx := call(svc, "POST", service.PathRewrite, types.RewriteRequest{
				HTML:      themeWidget(5, 20),
				BaseURL:   listingURL + "/",
				ContentID: "42",
			})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			var resp types.RewriteResponse
			env := decode(ctx, &resp)
			Expect(env.Success).To(BeTrue())
			Expect(resp.Windowed).To(BeTrue())
			Expect(resp.Changed).To(BeTrue())
			Expect(resp.Widgets).To(Equal(1))
			Expect(resp.CurrentPage).To(Equal(5))
			Expect(resp.TotalPages).To(Equal(20))
			Expect(resp.HTML).To(ContainSubstring(`href="https://example.com/blog/page/6/"`))
			Expect(resp.HTML).To(ContainSubstring(`href="https://example.com/blog/page/20/"`))
			Expect(resp.HTML).NotTo(ContainSubstring("data-page-id"))
			Expect(resp.HTML).NotTo(ContainSubstring("js-pagination-page"))

			By("caching the total for later head-link renders")
			value, err := mr.Get("test:pagination_total_42")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("20"))

			Expect(recorder.rewrites).To(Equal([]string{"windowed:20"}))
			Expect(recorder.requests).To(Equal([]string{"rewrite:200"}))
		})

		It("corrects the current marker of a short listing", func() {
			ctx := call(svc, "POST", service.PathRewrite, types.RewriteRequest{
				HTML:    themeWidget(2, 3),
				BaseURL: listingURL,
			})

			var resp types.RewriteResponse
			decode(ctx, &resp)
			Expect(resp.Windowed).To(BeFalse())
			Expect(resp.HTML).To(ContainSubstring(`<span class="page-number current-page">2</span>`))
			Expect(resp.HTML).To(ContainSubstring(`href="https://example.com/blog"`))
			Expect(resp.HTML).To(ContainSubstring(`href="https://example.com/blog/page/3/"`))
		})

		It("is idempotent", func() {
			first := call(svc, "POST", service.PathRewrite, types.RewriteRequest{HTML: themeWidget(7, 15), BaseURL: listingURL})
			var once types.RewriteResponse
			decode(first, &once)

			second := call(svc, "POST", service.PathRewrite, types.RewriteRequest{HTML: once.HTML, BaseURL: listingURL})
			var twice types.RewriteResponse
			decode(second, &twice)

			Expect(twice.HTML).To(Equal(once.HTML))
			Expect(twice.Changed).To(BeFalse())
		})

		It("returns markup without pagination untouched", func() {
			src := `<article><p>No pages here</p></article>`
			ctx := call(svc, "POST", service.PathRewrite, types.RewriteRequest{HTML: src, BaseURL: listingURL})

			var resp types.RewriteResponse
			decode(ctx, &resp)
			Expect(resp.HTML).To(Equal(src))
			Expect(resp.Changed).To(BeFalse())
			Expect(resp.Widgets).To(BeZero())
			Expect(recorder.rewrites).To(BeEmpty())
		})

		DescribeTable("rejects bad requests",
			func(body interface{}, message string) {
				ctx := call(svc, "POST", service.PathRewrite, body)
				Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusBadRequest))

				env := decode(ctx, nil)
				Expect(env.Success).To(BeFalse())
				Expect(env.Message).To(ContainSubstring(message))
			},
			Entry("empty body", nil, "request body is empty"),
			Entry("invalid JSON", `{"html":`, "invalid JSON body"),
			Entry("missing base url", types.RewriteRequest{HTML: themeWidget(1, 3)}, "base url is required"),
			Entry("relative base url", types.RewriteRequest{HTML: themeWidget(1, 3), BaseURL: "/blog"}, "absolute http(s) URL"),
			Entry("unsupported scheme", types.RewriteRequest{HTML: themeWidget(1, 3), BaseURL: "ftp://example.com/blog"}, "absolute http(s) URL"),
		)
	})

	Describe("POST /pagination/head-links", func() {
		headLinks := func(req types.HeadLinksRequest) types.HeadLinksResponse {
			ctx := call(svc, "POST", service.PathHeadLinks, req)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			var resp types.HeadLinksResponse
			decode(ctx, &resp)
			return resp
		}

		It("emits prev and next inside the listing", func() {
			resp := headLinks(types.HeadLinksRequest{BaseURL: listingURL, Paged: 3, QueryTotal: 5})
			Expect(resp.Links).To(Equal([]types.HeadLink{
				{Rel: "prev", Href: "https://example.com/blog/page/2/"},
				{Rel: "next", Href: "https://example.com/blog/page/4/"},
			}))
			Expect(resp.HTML).To(Equal(
				`<link rel="prev" href="https://example.com/blog/page/2/" />` + "\n" +
					`<link rel="next" href="https://example.com/blog/page/4/" />` + "\n"))
			Expect(recorder.links).To(Equal([]string{"prev", "next"}))
		})

		It("floors an unknown total at the current page", func() {
			resp := headLinks(types.HeadLinksRequest{BaseURL: listingURL, Paged: 3})
			Expect(resp.TotalPages).To(Equal(3))
			Expect(resp.Links).To(Equal([]types.HeadLink{{Rel: "prev", Href: "https://example.com/blog/page/2/"}}))
		})

		It("uses the total cached by an earlier rewrite of the same listing", func() {
			call(svc, "POST", service.PathRewrite, types.RewriteRequest{HTML: themeWidget(1, 12), BaseURL: listingURL})

			resp := headLinks(types.HeadLinksRequest{BaseURL: listingURL + "/page/12/", Paged: 12})
			Expect(resp.TotalPages).To(Equal(12))
			Expect(resp.Links).To(Equal([]types.HeadLink{{Rel: "prev", Href: "https://example.com/blog/page/11/"}}))

			resp = headLinks(types.HeadLinksRequest{BaseURL: listingURL})
			Expect(resp.Links).To(Equal([]types.HeadLink{{Rel: "next", Href: "https://example.com/blog/page/2/"}}))
		})

		It("guesses from the content signature on an uncached first page", func() {
			resp := headLinks(types.HeadLinksRequest{BaseURL: listingURL, ContentSignature: `[vc_row][mk_blog style="grid"][/vc_row]`})
			Expect(resp.Links).To(Equal([]types.HeadLink{{Rel: "next", Href: "https://example.com/blog/page/2/"}}))

			resp = headLinks(types.HeadLinksRequest{BaseURL: listingURL, ContentSignature: "plain page"})
			Expect(resp.Links).To(BeEmpty())
			Expect(resp.HTML).To(BeEmpty())
		})
	})

	Describe("POST /pagination/document", func() {
		page := func(body string) string {
			return `<!DOCTYPE html><html><head><title>Blog</title>` +
				`<link rel="canonical" href="https://example.com/blog/page/2/">` +
				`<link rel="next" href="https://stale.example.com/">` +
				`</head><body>` + body + `</body></html>`
		}

		It("rewrites the body and injects head links after the canonical link", func() {
			ctx := call(svc, "POST", service.PathDocument, types.DocumentRequest{HTML: page(themeWidget(2, 5))})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			var resp types.DocumentResponse
			decode(ctx, &resp)
			Expect(resp.Changed).To(BeTrue())
			Expect(resp.CurrentPage).To(Equal(2))
			Expect(resp.TotalPages).To(Equal(5))
			Expect(resp.Links).To(Equal([]types.HeadLink{
				{Rel: "prev", Href: "https://example.com/blog"},
				{Rel: "next", Href: "https://example.com/blog/page/3/"},
			}))

			canonical := strings.Index(resp.HTML, `rel="canonical"`)
			prev := strings.Index(resp.HTML, `<link rel="prev" href="https://example.com/blog"/>`)
			Expect(canonical).To(BeNumerically(">=", 0))
			Expect(prev).To(BeNumerically(">", canonical))
			Expect(resp.HTML).NotTo(ContainSubstring("stale.example.com"))
			Expect(resp.HTML).To(ContainSubstring(`<span class="page-number current-page">2</span>`))
			Expect(resp.HTML).NotTo(ContainSubstring(headlinks.ScriptID))
		})

		It("appends the pager script once when asked to", func() {
			inject := true
			ctx := call(svc, "POST", service.PathDocument, types.DocumentRequest{HTML: page(themeWidget(2, 5)), InjectScript: &inject})
			var resp types.DocumentResponse
			decode(ctx, &resp)
			Expect(strings.Count(resp.HTML, headlinks.ScriptID)).To(Equal(1))

			ctx = call(svc, "POST", service.PathDocument, types.DocumentRequest{HTML: resp.HTML, InjectScript: &inject})
			var again types.DocumentResponse
			decode(ctx, &again)
			Expect(strings.Count(again.HTML, headlinks.ScriptID)).To(Equal(1))
		})

		It("needs a base url when the page has no canonical link", func() {
			ctx := call(svc, "POST", service.PathDocument, types.DocumentRequest{
				HTML: `<html><head></head><body>` + themeWidget(1, 3) + `</body></html>`,
			})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusBadRequest))
		})

		It("leaves a page without pagination untouched", func() {
			src := `<!DOCTYPE html><html><head><title>About</title>` +
				`<link rel="next" href="https://example.com/about/part-2/">` +
				`</head><body><article>About us</article></body></html>`

			ctx := call(svc, "POST", service.PathDocument, types.DocumentRequest{HTML: src, BaseURL: "https://example.com/about"})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			var resp types.DocumentResponse
			decode(ctx, &resp)
			Expect(resp.HTML).To(Equal(src))
			Expect(resp.Changed).To(BeFalse())
			Expect(resp.Links).To(BeEmpty())
			Expect(recorder.links).To(BeEmpty())
		})

		It("rejects an empty document", func() {
			ctx := call(svc, "POST", service.PathDocument, types.DocumentRequest{BaseURL: listingURL})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusBadRequest))
			Expect(decode(ctx, nil).Message).To(Equal("html is required"))
		})
	})

	Describe("static and health endpoints", func() {
		It("serves the pager script", func() {
			ctx := call(svc, "GET", service.PathScript, nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(ctx.Response.Header.ContentType())).To(HavePrefix("application/javascript"))
			Expect(string(ctx.Response.Body())).To(Equal(headlinks.DisableAjaxScript))
		})

		It("reports cache health", func() {
			var status map[string]string
			decode(call(svc, "GET", service.PathHealth, nil), &status)
			Expect(status).To(Equal(map[string]string{"status": "ok", "cache": "ok"}))

			mr.Close()
			ctx := call(svc, "GET", service.PathHealth, nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			decode(ctx, &status)
			Expect(status).To(Equal(map[string]string{"status": "degraded", "cache": "unavailable"}))
		})

		It("reports a disabled cache", func() {
			plain := newService(nil, nil)
			var status map[string]string
			decode(call(plain, "GET", service.PathHealth, nil), &status)
			Expect(status["cache"]).To(Equal("disabled"))
		})

		It("answers unknown routes with 404", func() {
			ctx := call(svc, "GET", "/pagination/rewrite", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusNotFound))
			Expect(recorder.requests).To(Equal([]string{"unknown:404"}))
		})

		It("propagates the request id", func() {
			ctx := call(svc, "GET", service.PathHealth, nil, "X-Request-ID", "render 77")
			id := string(ctx.Response.Header.Peek("X-Request-ID"))
			Expect(id).To(MatchRegexp(`^[0-9a-f]{5}-render-77$`))
			Expect(decode(ctx, nil).RequestID).To(Equal(id))
		})
	})

	Describe("Server", func() {
		It("serves the API over a listener and shuts down", func() {
			ln := fasthttputil.NewInmemoryListener()
			server := service.NewServer(configtypes.ServerConfig{MaxBodySize: 1 << 20}, svc.ServeHTTP, zap.NewNop())
			Expect(server.Serve(ln)).To(Succeed())
			Expect(server.Addr()).NotTo(BeEmpty())

			client := &fasthttp.Client{
				Dial: func(string) (net.Conn, error) { return ln.Dial() },
			}

			req := fasthttp.AcquireRequest()
			resp := fasthttp.AcquireResponse()
			defer fasthttp.ReleaseRequest(req)
			defer fasthttp.ReleaseResponse(resp)

			req.SetRequestURI("http://pagination.test" + service.PathHealth)
			req.SetConnectionClose()
			Expect(client.DoTimeout(req, resp, 5*time.Second)).To(Succeed())
			Expect(resp.StatusCode()).To(Equal(fasthttp.StatusOK))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			Expect(server.Shutdown(shutdownCtx)).To(Succeed())
		})
	})
})
