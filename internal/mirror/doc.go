// Package mirror turns a website into a local, browsable directory tree.
//
// # Components
//
//   - Classifier: decides whether a URL may be crawled (scheme, domain,
//     rejected suffixes, excluded path prefixes)
//   - ExtractLinks: yields href and src values from an HTML document
//   - LocalPath and Reference: map URLs to files under the mirror root
//   - Crawler: breadth-first traversal with a bounded worker pool
//   - Rewriter: converts absolute links in the stored HTML to relative ones
//
// # Usage
//
//	cfg, err := mirror.NewConfig("https://example.com/", ".", []string{"pdf"}, []string{"/private"}, true)
//	if err != nil {
//		return err
//	}
//	c, err := mirror.NewCrawler(cfg, mirror.NewHTTPFetcher(client), mirror.WithConcurrency(4))
//	if err != nil {
//		return err
//	}
//	report := model.NewMirrorReport(cfg.BaseURL.String())
//	if err := c.Crawl(ctx, report); err != nil {
//		return err
//	}
//	stats, err := mirror.NewRewriter(cfg.Root, mirror.WithHost(cfg.Domain)).Rewrite(ctx)
//
// # Link conversion
//
// The Rewriter only opens files ending in .html or .htm. Pages stored from
// extensionless URLs such as "/about" or "/list.php?page=2" keep their
// absolute links. Within a file only quoted href and src attribute values
// are changed; WithHost limits conversion to one host and WithExistingOnly
// skips links whose target was not saved.
//
// # Errors
//
// ErrInvalidBaseURL, ErrInvalidRejectToken and ErrCreateRoot stop a run
// before any request is made. A *FetchError ends only the branch of the URL
// that failed and is recorded in the report. A *StoreError aborts the crawl
// unless WithContinueOnStoreError is used.
package mirror
