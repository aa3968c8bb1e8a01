package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestNitterPostsFromFeed(t *testing.T) {
	now := time.Now()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel>
  <item>
    <title>Thread on stablecoin regulation and what comes next</title>
    <link>http://HOST/someanalyst/status/123456789</link>
    <pubDate>%s</pubDate>
  </item>
  <item>
    <title>Old take</title>
    <link>http://HOST/someanalyst/status/1</link>
    <pubDate>%s</pubDate>
  </item>
</channel></rss>`,
			now.Add(-time.Hour).Format(time.RFC1123Z),
			now.Add(-48*time.Hour).Format(time.RFC1123Z))
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	src := NewNitterSource([]string{host}, []Account{{Handle: "someanalyst", Category: "regulatory"}}, 12*time.Hour)
	src.now = func() time.Time { return now }

	// workingInstance dials https, which the test server cannot serve;
	// exercise the feed path directly instead.
	feed, err := src.parser.ParseURLWithContext(srv.URL+"/someanalyst/rss", context.Background())
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}

	posts := src.postsFromFeed(feed, Account{Handle: "someanalyst", Category: "regulatory"})
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1 (stale post dropped)", len(posts))
	}

	p := posts[0]
	if p.ID != "123456789" {
		t.Errorf("ID = %q, want last path segment", p.ID)
	}
	if p.Author != "someanalyst" || p.Category != "regulatory" {
		t.Errorf("account fields wrong: %+v", p)
	}
	if p.Likes != 0 || p.Retweets != 0 || p.Replies != 0 {
		t.Error("nitter exposes no metrics, counters must be zero")
	}
}

func TestNitterRewriteURL(t *testing.T) {
	src := NewNitterSource([]string{"nitter.net", "nitter.cz"}, nil, time.Hour)

	got := src.rewriteURL("https://nitter.cz/dev/status/42")
	if got != "https://twitter.com/dev/status/42" {
		t.Errorf("rewriteURL = %q", got)
	}
}

func TestNitterPostIDFallbackHash(t *testing.T) {
	src := NewNitterSource(nil, nil, time.Hour)

	a := src.postID(&gofeed.Item{Title: "same text"})
	b := src.postID(&gofeed.Item{Title: "same text"})
	c := src.postID(&gofeed.Item{Title: "other text"})

	if a != b {
		t.Error("hash fallback must be stable for identical text")
	}
	if a == c {
		t.Error("different text must hash differently")
	}
	if _, err := url.Parse(a); err != nil {
		t.Errorf("fallback id should be a plain token: %v", err)
	}
}
