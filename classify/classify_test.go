package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hazyhaar/presswatch/store"
)

func testArticle() *store.Article {
	return &store.Article{
		Title:          "Markets rally on rate cut hopes",
		Summary:        "Stocks climbed.",
		SourceDomain:   "example.com",
		ExternalSource: "https://example.com/2024/01/rate-cut.html",
	}
}

func TestClassify_Assignment(t *testing.T) {
	// WHAT: A healthy endpoint's assignment is returned as-is, and the
	// request carries the article and the known category list.
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Result{
			Success:  true,
			Category: Category{ID: "cat_1", Name: "Business", Slug: "business"},
		})
	}))
	defer srv.Close()

	g := NewGateway(Config{Endpoint: srv.URL})
	res := g.Classify(context.Background(), testArticle(), []store.Category{
		{ID: "cat_1", Name: "Business", Slug: "business"},
	})

	if !res.Success || res.Category.Slug != "business" {
		t.Errorf("result = %+v", res)
	}
	if got.Article.Title == "" || len(got.Categories) != 1 {
		t.Errorf("request payload = %+v", got)
	}
}

func TestClassify_MissingSlugDerived(t *testing.T) {
	// WHAT: An assignment without a slug gets one derived from the name.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Success: true, Category: Category{Name: "World News"}})
	}))
	defer srv.Close()

	res := NewGateway(Config{Endpoint: srv.URL}).Classify(context.Background(), testArticle(), nil)
	if res.Category.Slug != "world-news" {
		t.Errorf("slug = %q", res.Category.Slug)
	}
}

func TestClassify_FailuresFallBack(t *testing.T) {
	// WHAT: Every failure mode degrades to the uncategorized fallback —
	// Classify never surfaces an error.
	// WHY: Classification failure must never block persistence.
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"declined", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Result{Success: false})
		}},
		{"empty name", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Result{Success: true})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			res := NewGateway(Config{Endpoint: srv.URL}).Classify(context.Background(), testArticle(), nil)
			if res.Success {
				t.Error("expected fallback result")
			}
			if res.Category.Slug != store.PartitionUncategorized {
				t.Errorf("slug = %q", res.Category.Slug)
			}
		})
	}
}

func TestClassify_UnreachableEndpoint(t *testing.T) {
	// WHAT: A dead endpoint falls back instead of erroring.
	g := NewGateway(Config{Endpoint: "http://127.0.0.1:1", Timeout: time.Second})
	res := g.Classify(context.Background(), testArticle(), nil)
	if res.Success || res.Category.Name != "Uncategorized" {
		t.Errorf("result = %+v", res)
	}
}

func TestClassify_DisabledWithoutEndpoint(t *testing.T) {
	// WHAT: No endpoint configured means immediate fallback, no I/O.
	res := NewGateway(Config{}).Classify(context.Background(), testArticle(), nil)
	if res.Success || res.Category.Slug != store.PartitionUncategorized {
		t.Errorf("result = %+v", res)
	}
}
