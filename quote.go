package brokerage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// SymbolPlaceholder is replaced by the query-escaped symbol in the URL of a
// QuoteService.
const SymbolPlaceholder = "{symbol}"

// DefaultQuoteTimeout bounds every request of a QuoteService created by
// NewQuoteService. Sell consults the lookup while the account is locked.
const DefaultQuoteTimeout = 10 * time.Second

// QuoteService is a PriceLookup backed by a remote JSON quote API.
//
// For each symbol it GETs URL, with SymbolPlaceholder replaced by the symbol,
// and reads the price at the JSONPath Path of the response. The price may be
// a JSON number or a decimal string. Quotes are kept for TTL.
type QuoteService struct {
	URL    string
	Path   string
	Client *http.Client
	TTL    time.Duration

	mu    sync.Mutex
	cache map[string]quote
	now   func() time.Time
}

type quote struct {
	price   Money
	expires time.Time
}

// NewQuoteService returns a QuoteService querying url and extracting the
// price at path. Requests time out after DefaultQuoteTimeout and quotes are
// cached for one minute.
func NewQuoteService(url, path string) *QuoteService {
	return &QuoteService{
		URL:    url,
		Path:   path,
		Client: &http.Client{Timeout: DefaultQuoteTimeout},
		TTL:    time.Minute,
	}
}

// PriceOf returns the latest quote of symbol.
func (q *QuoteService) PriceOf(symbol string) (Money, error) {
	return q.PriceOfContext(context.Background(), symbol)
}

// PriceOfContext is like PriceOf but the HTTP request is bound to ctx.
func (q *QuoteService) PriceOfContext(ctx context.Context, symbol string) (Money, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return Money{}, invalidf("symbol is missing")
	}
	if price, ok := q.cached(sym); ok {
		return price, nil
	}

	client := q.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultQuoteTimeout}
	}
	addr := strings.ReplaceAll(q.URL, SymbolPlaceholder, url.QueryEscape(sym))
	var jobj any
	if err := jwget(ctx, client, addr, &jobj); err != nil {
		return Money{}, fmt.Errorf("error retrieving quote for %q: %w", sym, err)
	}
	jval, err := jsonpath.Get(q.Path, jobj)
	if err != nil {
		return Money{}, invalidf("no quote for %q at %q: %v", sym, q.Path, err)
	}
	// jsonpath returns a list for wildcard paths, keep the first answer
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return Money{}, invalidf("no quote for %q at %q", sym, q.Path)
		}
		jval = jlist[0]
	}
	price, err := ToMoney(jval)
	if err != nil {
		return Money{}, fmt.Errorf("cannot read quote for %q: %w", sym, err)
	}
	if !price.IsPositive() {
		return Money{}, invalidf("quote for %q is not positive: %s", sym, price)
	}
	q.store(sym, price)
	return price, nil
}

func (q *QuoteService) clock() time.Time {
	if q.now != nil {
		return q.now()
	}
	return time.Now()
}

func (q *QuoteService) cached(sym string) (Money, bool) {
	if q.TTL <= 0 {
		return Money{}, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.cache[sym]
	if !ok || !q.clock().Before(e.expires) {
		return Money{}, false
	}
	return e.price, true
}

func (q *QuoteService) store(sym string, price Money) {
	if q.TTL <= 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cache == nil {
		q.cache = make(map[string]quote)
	}
	q.cache[sym] = quote{price: price, expires: q.clock().Add(q.TTL)}
}
