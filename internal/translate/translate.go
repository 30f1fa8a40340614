// Package translate resolves non-ASCII text to usable ASCII through an
// ordered chain of providers: cache, networked services in configured order,
// then a deterministic offline fallback. The ordering trades cost for
// reliability: paid-but-accurate first, free-but-flaky second, degraded
// offline substitution last.
package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"docket/internal/logging"
	"docket/internal/services"
	"docket/internal/textutil"
	"docket/internal/transcache"
)

// Provider is one translation backend in the chain.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Result carries a resolved translation plus its provenance.
type Result struct {
	Text     string
	Provider string
	Degraded bool
	Chars    int
}

// Chain tries cache, then each provider in order, then the static fallback.
type Chain struct {
	cache     *transcache.Cache
	providers []Provider
	static    *Static
	lang      string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewChain builds a fallback chain. The cache may be nil (disabled).
func NewChain(cache *transcache.Cache, providers []Provider, lang string, ttl time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Chain{
		cache:     cache,
		providers: providers,
		static:    NewStatic(),
		lang:      lang,
		ttl:       ttl,
		logger:    logger,
	}
}

// Translate resolves text through the chain. It fails with
// ErrTranslationExhausted only when even the static fallback cannot produce
// usable ASCII; callers are expected to enqueue a retry rather than drop the
// document.
func (c *Chain) Translate(ctx context.Context, text string) (Result, error) {
	if cached, hit, err := c.cache.Get(ctx, text, c.lang); err != nil {
		c.logger.Warn("translation cache lookup failed", logging.Error(err))
	} else if hit {
		return Result{Text: cached, Provider: "cache"}, nil
	}

	for _, provider := range c.providers {
		if ctx.Err() != nil {
			return Result{}, services.Wrap(services.ErrTimeout, "translate", "chain", "run cancelled", ctx.Err())
		}
		translated, err := provider.Translate(ctx, text, c.lang)
		if err != nil {
			c.logger.Warn("translation provider failed",
				logging.String(logging.FieldProvider, provider.Name()),
				logging.Error(err))
			continue
		}
		translated = strings.TrimSpace(translated)
		if translated == "" {
			c.logger.Warn("translation provider returned empty result",
				logging.String(logging.FieldProvider, provider.Name()))
			continue
		}
		if err := c.cache.Put(ctx, text, c.lang, translated, c.ttl); err != nil {
			c.logger.Warn("translation cache store failed", logging.Error(err))
		}
		return Result{Text: translated, Provider: provider.Name(), Chars: len([]rune(text))}, nil
	}

	fallback := c.static.Translate(text)
	if strings.TrimSpace(fallback) == "" || textutil.Classify(fallback) != textutil.ScriptASCII {
		return Result{}, services.Wrap(
			services.ErrTranslationExhausted,
			"translate", "chain",
			"no provider produced usable text for "+text,
			nil,
		)
	}
	return Result{Text: fallback, Provider: "static", Degraded: true, Chars: len([]rune(text))}, nil
}

// TranslateFilename resolves a filename base: it splits on the delimiters
// contract scans use, translates each non-ASCII fragment, cleans every
// fragment, and joins the result with underscores. Fragment-level caching
// means a shared term like a document-type prefix is only ever paid for once.
func (c *Chain) TranslateFilename(ctx context.Context, base string) (Result, error) {
	fragments := textutil.SplitForTranslation(base)
	if len(fragments) == 0 {
		return Result{}, services.Wrap(
			services.ErrTranslationExhausted,
			"translate", "filename",
			"no translatable fragments in "+base,
			nil,
		)
	}

	out := make([]string, 0, len(fragments))
	combined := Result{Provider: "cache"}
	for _, frag := range fragments {
		if textutil.Classify(frag) == textutil.ScriptASCII {
			if cleaned := textutil.CleanTranslated(frag); cleaned != "" {
				out = append(out, cleaned)
			}
			continue
		}
		res, err := c.Translate(ctx, frag)
		if err != nil {
			return Result{}, err
		}
		cleaned := textutil.CleanTranslated(res.Text)
		if cleaned == "" {
			return Result{}, services.Wrap(
				services.ErrTranslationExhausted,
				"translate", "filename",
				"translation of "+frag+" cleaned to nothing",
				nil,
			)
		}
		out = append(out, cleaned)
		combined.Chars += res.Chars
		combined.Degraded = combined.Degraded || res.Degraded
		if res.Provider != "cache" {
			combined.Provider = res.Provider
		}
	}

	if len(out) == 0 {
		return Result{}, services.Wrap(
			services.ErrTranslationExhausted,
			"translate", "filename",
			"all fragments of "+base+" cleaned to nothing",
			nil,
		)
	}
	combined.Text = strings.Join(out, "_")
	return combined, nil
}
