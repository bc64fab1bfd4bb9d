package urlfilter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/filterforge/urlfilter/declarative"
	"github.com/filterforge/urlfilter/filterlist"
	"github.com/filterforge/urlfilter/internal/cache"
	"github.com/filterforge/urlfilter/rules"
)

// userRulesFilterID is the implicit filter id user-provided rules (outside
// any named filter) are parsed under, per spec §6 "user_rules ... (implicit
// filter id 0)".
const userRulesFilterID = 0

// allowlistFilterID is the implicit filter id the site-level allowlist's
// entries are parsed under, kept out of the 0..N user-facing id space.
const allowlistFilterID = -1

// snapshot is one fully built, immutable engine state: a rule storage plus
// the indexes built over it. The single-writer/many-reader model of §5 is
// implemented by swapping *snapshot pointers atomically rather than
// mutating engine state in place.
type snapshot struct {
	storage  *filterlist.RuleStorage
	network  *NetworkEngine
	cosmetic *CosmeticEngine

	allowlistDomains *rules.DomainList

	allowlistEnabled  bool
	allowlistInverted bool
}

func (s *snapshot) rulesCount() (n int) {
	if s == nil {
		return 0
	}

	return s.network.RulesCount + s.cosmetic.RulesCount
}

// requestCacheKey is the per-request result cache key, per spec §4.8:
// "(url, source_hostname, request_type)".
type requestCacheKey struct {
	url            string
	sourceHostname string
	requestType    rules.RequestType
}

// Engine is the filter-rule matching facade (§4.8): it owns one immutable
// snapshot at a time, swapped atomically by Configure, and the two bounded
// result caches layered in front of it.
type Engine struct {
	logger *slog.Logger
	mtrc   *Metrics

	cur atomic.Pointer[snapshot]

	// buildMu serializes Start/Configure calls, matching the
	// "single-writer" half of §5's concurrency model; readers never
	// acquire it.
	buildMu sync.Mutex

	resultCache      cache.Interface[requestCacheKey, *MatchingResult]
	sourceRulesCache cache.Interface[string, []*rules.NetworkRule]

	lastBuildErrs atomic.Pointer[[]*BuildError]
}

// NewEngine returns an unstarted Engine. Call Start before issuing any
// match calls; an unstarted Engine answers every query with an empty
// result, per §7's "match calls never fail ... on empty or uninitialized
// engines they return empty/no-match results".
func NewEngine() (e *Engine) { return &Engine{} }

// Start builds the engine's first snapshot from cfg. It is equivalent to
// Configure on a fresh Engine, kept as a distinct name because spec §4.8
// names start/configure separately.
func (e *Engine) Start(ctx context.Context, cfg Config) (err error) {
	return e.Configure(ctx, cfg)
}

// Configure builds a brand new snapshot from cfg and installs it with a
// single atomic pointer swap (§5: "constructs a new engine and installs it
// with a single atomic pointer swap; the previous engine is retired when no
// outstanding reader references remain"). It serializes with any concurrent
// Configure call but never blocks a concurrent match call.
func (e *Engine) Configure(ctx context.Context, cfg Config) (err error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	cfg = cfg.withDefaults()
	e.logger = cfg.Logger
	e.mtrc = cfg.Metrics

	if err = validateConfig(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	buildCtx := ctx
	var cancel context.CancelFunc
	if cfg.BuildTimeout.Duration > 0 {
		buildCtx, cancel = context.WithTimeout(ctx, cfg.BuildTimeout.Duration)
		defer cancel()
	}

	start := time.Now()

	snap, buildErrs, err := e.buildSnapshot(buildCtx, cfg)
	if err != nil {
		e.logger.WarnContext(ctx, "build aborted", "error", err)

		return err
	}

	e.mtrc.observeBuildDuration(time.Since(start).Seconds())
	e.mtrc.addBuildErrors(len(buildErrs))
	e.mtrc.setRulesCount("network", snap.network.RulesCount)
	e.mtrc.setRulesCount("cosmetic", snap.cosmetic.RulesCount)

	errsCopy := append([]*BuildError{}, buildErrs...)
	e.lastBuildErrs.Store(&errsCopy)

	e.ensureCaches(cfg)
	e.resultCache.Clear()
	e.sourceRulesCache.Clear()

	e.cur.Store(snap)

	e.logger.InfoContext(ctx, "reconfigured",
		"network_rules", snap.network.RulesCount,
		"cosmetic_rules", snap.cosmetic.RulesCount,
		"build_errors", len(buildErrs),
	)

	return nil
}

// Stop releases the resources held by the current snapshot. After Stop, the
// Engine behaves like one that was never started.
func (e *Engine) Stop() (err error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	snap := e.cur.Swap(nil)
	if snap == nil {
		return nil
	}

	return snap.storage.Close()
}

// ensureCaches builds the two result caches on the first Configure call.
// Later calls keep the existing caches as they are: a changed
// ResultCacheSize or SourceRulesCacheSize in cfg does not resize them.
func (e *Engine) ensureCaches(cfg Config) {
	if e.resultCache == nil {
		e.resultCache = cache.NewLRU[requestCacheKey, *MatchingResult](&cache.LRUConfig{
			Size: cfg.ResultCacheSize,
		})
		cfg.CacheManager.Add("urlfilter/result", e.resultCache)
	}

	if e.sourceRulesCache == nil {
		e.sourceRulesCache = cache.NewLRU[string, []*rules.NetworkRule](&cache.LRUConfig{
			Size: cfg.SourceRulesCacheSize,
		})
		cfg.CacheManager.Add("urlfilter/source-rules", e.sourceRulesCache)
	}
}

// validateConfig enforces the structural constraints Configure treats as
// fatal, per §7: "invalid configuration shape" is one of the two reserved
// fatal-error cases.
func validateConfig(cfg Config) (err error) {
	seen := make(map[int]struct{}, len(cfg.Filters))
	for _, f := range cfg.Filters {
		if _, ok := seen[f.FilterID]; ok {
			return fmt.Errorf("duplicate filter_id %d", f.FilterID)
		}

		seen[f.FilterID] = struct{}{}
	}

	if cfg.AllowlistInverted && !cfg.AllowlistEnabled {
		return fmt.Errorf("allowlist_inverted requires allowlist_enabled")
	}

	return nil
}

// buildSnapshot parses every configured list, builds a RuleStorage over
// them with cooperative chunking, and indexes the result into a fresh
// snapshot. It never mutates e's current snapshot.
func (e *Engine) buildSnapshot(
	ctx context.Context,
	cfg Config,
) (snap *snapshot, buildErrs []*BuildError, err error) {
	lists, err := buildLists(cfg)
	if err != nil {
		return nil, nil, err
	}

	yield := func() error {
		runtime.Gosched()

		return ctx.Err()
	}

	storage, err := filterlist.NewRuleStorageChunked(lists, cfg.ChunkSize, yield)
	if err != nil {
		return nil, nil, fmt.Errorf("building rule storage: %w", err)
	}

	for _, loadErr := range storage.Errors() {
		buildErrs = append(buildErrs, collectBuildError(loadErr.FilterListID, loadErr.Err))
	}

	allowlistDomains, allowlistErr := buildAllowlistDomains(cfg.AllowlistRules)
	if allowlistErr != nil {
		e.logger.WarnContext(ctx, "allowlist parse error", "error", allowlistErr)
	}

	snap = &snapshot{
		storage:           storage,
		network:           NewNetworkEngine(storage),
		cosmetic:          NewCosmeticEngine(storage),
		allowlistDomains:  allowlistDomains,
		allowlistEnabled:  cfg.AllowlistEnabled,
		allowlistInverted: cfg.AllowlistInverted,
	}

	return snap, buildErrs, nil
}

// buildLists turns a Config's Filters and UserRules into the filterlist
// sources NewRuleStorageChunked scans.
func buildLists(cfg Config) (lists []filterlist.Interface, err error) {
	for _, f := range cfg.Filters {
		size := uint64(len(f.Content))
		if limit := cfg.MaxRuleListSize.Bytes(); limit > 0 && size > limit {
			return nil, &UnavailableFilterSourceError{
				FilterID: f.FilterID,
				Err:      fmt.Errorf("content size %d exceeds limit %d", size, limit),
			}
		}

		lists = append(lists, filterlist.NewBytes(&filterlist.BytesConfig{
			RulesText: []byte(f.Content),
			ID:        f.FilterID,
		}))
	}

	if len(cfg.UserRules) > 0 {
		lists = append(lists, filterlist.NewString(userRulesFilterID, strings.Join(cfg.UserRules, "\n")))
	}

	return lists, nil
}

// buildAllowlistDomains parses a Config's AllowlistRules (plain hostnames,
// one per entry) into a DomainList usable with DomainList.Match.
func buildAllowlistDomains(entries []string) (list *rules.DomainList, err error) {
	if len(entries) == 0 {
		return nil, nil
	}

	permitted, _, err := rules.ParseDomainList(strings.Join(entries, "|"), '|')
	if err != nil {
		return nil, err
	}

	return permitted, nil
}

// MatchRequest resolves req against the current snapshot, applying the
// per-request result cache and the site-level allowlist override, per
// §4.8. On an unstarted or stopped engine it returns an empty, non-blocking
// result.
func (e *Engine) MatchRequest(req *rules.Request) (res *MatchingResult) {
	start := time.Now()
	defer func() { e.mtrc.observeMatchDuration(time.Since(start).Seconds()) }()

	snap := e.cur.Load()
	if snap == nil {
		return NewMatchingResult(nil, nil)
	}

	key := requestCacheKey{
		url:            req.URL,
		sourceHostname: req.SourceHostname,
		requestType:    req.RequestType,
	}

	if e.resultCache != nil {
		if cached, ok := e.resultCache.Get(key); ok {
			e.mtrc.observeCacheLookup("result", true)

			return cached
		}

		e.mtrc.observeCacheLookup("result", false)
	}

	requestRules := snap.network.MatchAll(req)
	sourceRules := e.sourceRules(snap, req.SourceURL)

	res = NewMatchingResult(requestRules, sourceRules)
	res = applySiteAllowlist(snap, req, res)

	if e.resultCache != nil {
		e.resultCache.Set(key, res)
	}

	return res
}

// sourceRules returns the network rules that match sourceURL itself,
// consulting and populating the source-rules cache (§4.8). This is how a
// $document allowlist on the framing page gets surfaced while matching a
// subresource it loads.
func (e *Engine) sourceRules(snap *snapshot, sourceURL string) (matched []*rules.NetworkRule) {
	if sourceURL == "" {
		return nil
	}

	if e.sourceRulesCache != nil {
		if cached, ok := e.sourceRulesCache.Get(sourceURL); ok {
			e.mtrc.observeCacheLookup("source-rules", true)

			return cached
		}

		e.mtrc.observeCacheLookup("source-rules", false)
	}

	sourceReq := rules.NewRequest(sourceURL, "", rules.RequestTypeDocument)
	matched = snap.network.MatchAll(sourceReq)

	if e.sourceRulesCache != nil {
		e.sourceRulesCache.Set(sourceURL, matched)
	}

	return matched
}

// applySiteAllowlist overrides res's basic rule per the site-level allowlist
// config, per spec §6: non-inverted mode allows listed sites outright;
// inverted mode blocks everything except listed sites. Network-rule
// matching (including $badfilter, $important, document allowlists, etc.)
// still runs first; this is a final override layered on top of it, not a
// replacement for it.
func applySiteAllowlist(snap *snapshot, req *rules.Request, res *MatchingResult) (out *MatchingResult) {
	if !snap.allowlistEnabled {
		return res
	}

	listed := snap.allowlistDomains != nil && snap.allowlistDomains.Match(req.Hostname)

	if snap.allowlistInverted {
		if listed {
			return res
		}

		return forcedBlockResult(req)
	}

	if listed {
		return NewMatchingResult(nil, nil)
	}

	return res
}

// forcedBlockResult synthesizes a MatchingResult blocking req outright, for
// inverted-allowlist mode's "blocked everywhere except listed" default.
func forcedBlockResult(req *rules.Request) (res *MatchingResult) {
	blockAll, err := rules.ParseNetworkRule("||"+req.Hostname+"^", allowlistFilterID)
	if err != nil {
		return NewMatchingResult(nil, nil)
	}

	return NewMatchingResult([]*rules.NetworkRule{blockAll}, nil)
}

// MatchFrame resolves the top-level navigation to frameURL and returns its
// basic rule, if any, per §4.8's "match_frame(frame_url) -> NetworkRule?".
func (e *Engine) MatchFrame(frameURL string) (rule *rules.NetworkRule) {
	req := rules.NewRequest(frameURL, "", rules.RequestTypeDocument)

	return e.MatchRequest(req).GetBasicResult()
}

// GetCosmeticResult resolves the cosmetic rules applicable to hostname and
// requestURL under opt, per §4.8. On an unstarted or stopped engine it
// returns an empty result.
func (e *Engine) GetCosmeticResult(hostname, requestURL string, opt CosmeticOption) (res *CosmeticResult) {
	snap := e.cur.Load()
	if snap == nil {
		return newCosmeticResult()
	}

	return snap.cosmetic.Match(hostname, requestURL, opt)
}

// GetRulesCount returns the total number of network and cosmetic rules
// indexed by the current snapshot, or 0 if the engine hasn't been started.
func (e *Engine) GetRulesCount() (n int) { return e.cur.Load().rulesCount() }

// ConvertToDeclarative lowers the current snapshot's network rules into a
// declarative rule set (§4.7), independently of runtime matching — it reads
// the snapshot's storage but never touches the result caches or the
// snapshot pointer itself. On an unstarted or stopped engine it returns an
// empty rule set rather than an error, matching the rest of the facade's
// "no match call ever fails" posture.
func (e *Engine) ConvertToDeclarative(limits declarative.Limits) (res *declarative.ConversionResult) {
	snap := e.cur.Load()
	if snap == nil {
		return declarative.ConvertRuleset(declarative.NewRuleSetID(), nil, limits)
	}

	var entries []declarative.SourceEntry

	scanner := snap.storage.NewRuleStorageScanner(filterlist.NetworkRules)
	for scanner.Scan() {
		rule, idx := scanner.Rule()
		nr, ok := rule.(*rules.NetworkRule)
		if !ok {
			continue
		}

		filterID, lineIndex, ok := snap.storage.EntryInfo(idx)
		if !ok {
			continue
		}

		entries = append(entries, declarative.SourceEntry{Rule: nr, FilterID: filterID, LineIndex: lineIndex})
	}

	return declarative.ConvertRuleset(declarative.NewRuleSetID(), entries, limits)
}

// LastBuildErrors returns the per-line errors collected during the most
// recent successful build, never nil after a successful Start/Configure.
func (e *Engine) LastBuildErrors() (errs []*BuildError) {
	p := e.lastBuildErrs.Load()
	if p == nil {
		return nil
	}

	return *p
}
