package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const listingPage = `<!DOCTYPE html>
<html><body>
  <div class="card">
    <a href="/articles/bitcoin-outlook-2026">
      <h3>Bitcoin Outlook For Institutional Portfolios</h3>
    </a>
  </div>
  <div class="card">
    <a href="/articles/genomics-update">
      <h3>Genomics Platform Deep Dive Analysis</h3>
    </a>
    <span>biotech, healthcare</span>
  </div>
  <div class="card">
    <a href="/articles/stablecoin-settlement">
      <h3>Stablecoin Settlement Rails Explained</h3>
    </a>
  </div>
  <div class="card">
    <a href="/articles/tagged-crypto"><h3>Tokenized Funds And Their Plumbing</h3></a>
    <span>digital asset strategy</span>
  </div>
  <a href="/about">About</a>
  <a href="/articles/bitcoin-outlook-2026"><h3>Bitcoin Outlook For Institutional Portfolios</h3></a>
  <a href="https://external.example.com/articles/ethereum-staking-report"><h3>Ethereum Staking Report</h3></a>
</body></html>`

func TestPageSourceFetchArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer srv.Close()

	src := NewPageSource("ark_invest", srv.URL+"/articles", "/articles/")

	items, err := src.FetchArticles(context.Background())
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}

	for _, item := range items {
		if !item.VIP {
			t.Errorf("scraped item %q must be vip", item.Title)
		}
		if item.Source != "ark_invest" {
			t.Errorf("Source = %q", item.Source)
		}
		if strings.Contains(item.Title, "Genomics") {
			t.Error("non-crypto article must be filtered out")
		}
		if !strings.HasPrefix(item.URL, "http") {
			t.Errorf("URL %q must be absolute", item.URL)
		}
	}

	titles := make(map[string]int)
	for _, item := range items {
		titles[item.Title]++
	}
	if titles["Bitcoin Outlook For Institutional Portfolios"] != 1 {
		t.Error("duplicate hrefs must be collapsed")
	}
	if titles["Stablecoin Settlement Rails Explained"] != 1 {
		t.Error("crypto keyword in title must pass the filter")
	}
	if titles["Tokenized Funds And Their Plumbing"] != 1 {
		t.Error("crypto keyword in the surrounding card must pass the filter")
	}
	if titles["Ethereum Staking Report"] != 1 {
		t.Error("absolute links matching the pattern must be kept")
	}
}

func TestPageSourceRelativeURLResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/articles/defi-now"><h2>DeFi Credit Markets Today</h2></a></body></html>`)
	}))
	defer srv.Close()

	src := NewPageSource("grayscale", srv.URL, "/articles/")

	items, err := src.FetchArticles(context.Background())
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	want := srv.URL + "/articles/defi-now"
	if items[0].URL != want {
		t.Errorf("URL = %q, want %q", items[0].URL, want)
	}
}

func TestPageSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewPageSource("ark_invest", srv.URL, "/articles/")
	if _, err := src.FetchArticles(context.Background()); err == nil {
		t.Error("non-200 response must surface an error")
	}
}
