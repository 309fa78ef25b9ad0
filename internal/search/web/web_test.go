package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/imdbot/internal/domain"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "search.html"))
	if err != nil {
		t.Fatalf("读取 fixture 失败：%v", err)
	}
	return b
}

func TestParse_Titles(t *testing.T) {
	got, err := Parse(readFixture(t), domain.KindTitle)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := []domain.SearchResult{
		{Text: "Inception (2010)", URL: "https://www.imdb.com/title/tt1375666/"},
		{Text: "Inception: The Cobol Job (Video 2010)", URL: "https://www.imdb.com/title/tt5295894/"},
	}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 条，实际 %d：%+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 条不符合预期：got=%+v want=%+v", i, got[i], want[i])
		}
	}
}

func TestParse_People(t *testing.T) {
	got, err := Parse(readFixture(t), domain.KindPerson)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 条，实际 %d：%+v", len(got), got)
	}
	want := domain.SearchResult{Text: "Christopher Nolan", Info: domain.Placeholder, URL: "https://www.imdb.com/name/nm0634240/"}
	if got[0] != want {
		t.Fatalf("结果不符合预期：got=%+v want=%+v", got[0], want)
	}
}

func TestSearch_ScopesQuery(t *testing.T) {
	var gotQ string
	fixture := readFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		_, _ = w.Write(fixture)
	}))
	defer srv.Close()

	got, err := Searcher{BaseURL: srv.URL}.Search(context.Background(), " christopher  nolan", domain.KindPerson, srv.Client())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if gotQ != "site:imdb.com/name christopher nolan" {
		t.Fatalf("查询串不符合预期：%q", gotQ)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 条，实际 %d", len(got))
	}
}
