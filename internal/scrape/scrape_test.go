package scrape

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/John-Robertt/imdbot/internal/domain"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("读取 fixture %s 失败：%v", name, err)
	}
	return b
}

func TestParseTitle_Movie(t *testing.T) {
	got, err := ParseTitle(readFixture(t, "title_inception.html"), "feature")
	if err != nil {
		t.Fatalf("ParseTitle 失败：%v", err)
	}

	want := domain.Title{
		Title:       "Inception (2010)",
		Score:       "8.8/10",
		Votes:       "2.6M",
		Tags:        []string{"Action Epic", "Heist", "Psychological Thriller", "Action"},
		Category:    "Movie",
		Description: "Inception: Directed by Christopher Nolan. With Leonardo DiCaprio, Joseph Gordon-Levitt, Elliot Page, Ken Watanabe. A thief who steals corporate secrets through the use of dream-sharing technology is given the inverse task of planting an idea into the mind of a C.E.O.",
		Duration:    "2h 28m",
		Rating:      "PG-13",
		Image:       "https://m.media-amazon.com/images/M/MV5BMjAxMzY3NjcxNF5BMl5BanBnXkFtZTcwNTI5OTM0Mw@@._V1_FMjpg_UX1000_.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("解析结果不符：\n实际=%#v\n期望=%#v", got, want)
	}
}

func TestParseTitle_SeriesSeasonsAndTagFallback(t *testing.T) {
	got, err := ParseTitle(readFixture(t, "title_series.html"), "TV series")
	if err != nil {
		t.Fatalf("ParseTitle 失败：%v", err)
	}
	if got.Title != "Breaking Bad (TV Series 2008–2013)" {
		t.Fatalf("title 不符：%q", got.Title)
	}
	if got.Score != "9.5/10" || got.Votes != "2.3M" {
		t.Fatalf("评分不符：score=%q votes=%q", got.Score, got.Votes)
	}
	if !reflect.DeepEqual(got.Tags, []string{"Crime", "Drama", "Thriller"}) {
		t.Fatalf("tags 应回退到 og:title：%v", got.Tags)
	}
	if got.Seasons != 5 {
		t.Fatalf("期望 5 季，实际=%d", got.Seasons)
	}
	if got.Duration != "45m" || got.Rating != "TV-MA" {
		t.Fatalf("时长/分级不符：%q %q", got.Duration, got.Rating)
	}
}

func TestParseTitle_SeasonsOnlyForTV(t *testing.T) {
	page := readFixture(t, "title_series.html")

	got, err := ParseTitle(page, "feature")
	if err != nil {
		t.Fatalf("ParseTitle 失败：%v", err)
	}
	if got.Seasons != 0 {
		t.Fatalf("非剧集不应有季数：%d", got.Seasons)
	}
}

func TestParseTitle_SeasonsSelectorEdgeCases(t *testing.T) {
	const head = `<html><head><meta property="og:title" content="Dark (2017) ⭐ 8.7 | Crime, Drama"></head><body>`
	cases := []struct {
		name string
		body string
		want int
	}{
		// 没有按季下拉框的剧集只有一季。
		{name: "无下拉框", body: `<div>no episodes widget</div>`, want: 1},
		{name: "标签无数字", body: `<select id="browse-episodes-season" aria-label="Seasons"></select>`, want: 0},
		{name: "标签为空", body: `<select id="browse-episodes-season" aria-label=""></select>`, want: 0},
		{name: "正常", body: `<select id="browse-episodes-season" aria-label="3 seasons"></select>`, want: 3},
	}
	for _, c := range cases {
		got, err := ParseTitle([]byte(head+c.body+`</body></html>`), "TV series")
		if err != nil {
			t.Fatalf("%s：ParseTitle 失败：%v", c.name, err)
		}
		if got.Seasons != c.want {
			t.Fatalf("%s：季数=%d，期望=%d", c.name, got.Seasons, c.want)
		}
	}
}

func TestParseTitle_MissingFieldsDegrade(t *testing.T) {
	got, err := ParseTitle(readFixture(t, "title_unreleased.html"), "")
	if err != nil {
		t.Fatalf("缺字段不应报错：%v", err)
	}
	if got.Title != "Untitled Project (2027)" {
		t.Fatalf("title 不符：%q", got.Title)
	}
	if got.Score != "" || got.Votes != "" {
		t.Fatalf("未上映作品不应有评分：%q %q", got.Score, got.Votes)
	}
	if len(got.Tags) != 0 || got.Duration != "" || got.Rating != "" || got.Image != "" || got.Description != "" {
		t.Fatalf("缺失字段应为空：%#v", got)
	}
	if got.Category != "" || got.Seasons != 0 {
		t.Fatalf("类别/季数应为空：%#v", got)
	}
}

func TestParseTitle_LinkedDataFallback(t *testing.T) {
	got, err := ParseTitle(readFixture(t, "title_ldonly.html"), "")
	if err != nil {
		t.Fatalf("ParseTitle 失败：%v", err)
	}

	want := domain.Title{
		Title:       "Chernobyl",
		Score:       "9.3/10",
		Votes:       "912K",
		Tags:        []string{"Drama"},
		Category:    "TV series",
		Description: "In April 1986, the city of Chernobyl in the Soviet Union suffers one of the worst nuclear disasters in the history of mankind's.",
		Duration:    "5h 30m",
		Rating:      "TV-MA",
		Image:       "https://m.media-amazon.com/images/M/cher._V1_.jpg",
		Seasons:     1,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("JSON-LD 回退结果不符：\n实际=%#v\n期望=%#v", got, want)
	}
}

func TestParseTitle_EmptyPage(t *testing.T) {
	if _, err := ParseTitle([]byte("  \n"), "feature"); err == nil {
		t.Fatalf("期望空页面报错")
	}
}

func TestParsePerson_Bio(t *testing.T) {
	got, err := ParsePerson(readFixture(t, "person_nolan.html"))
	if err != nil {
		t.Fatalf("ParsePerson 失败：%v", err)
	}
	if got.Name != "Christopher Nolan" || got.Roles != "Writer, Producer, Director" {
		t.Fatalf("姓名/角色不符：%q %q", got.Name, got.Roles)
	}
	if len(got.Paragraphs) != 3 {
		t.Fatalf("期望 3 段，实际=%d：%q", len(got.Paragraphs), got.Paragraphs)
	}
	if !strings.HasPrefix(got.Paragraphs[0], "Best known for his cerebral") ||
		!strings.Contains(got.Paragraphs[0], "Sir Christopher Nolan was born in London") {
		t.Fatalf("第一段不符：%q", got.Paragraphs[0])
	}
	if strings.Contains(got.Paragraphs[0], "\n") {
		t.Fatalf("段内换行应折叠为空格：%q", got.Paragraphs[0])
	}
	if !strings.HasPrefix(got.Paragraphs[2], "At 7 years old") {
		t.Fatalf("第三段不符：%q", got.Paragraphs[2])
	}
	if !strings.HasSuffix(got.Image, "._V1_.jpg") {
		t.Fatalf("image 不符：%q", got.Image)
	}
}

func TestParsePerson_Minimal(t *testing.T) {
	got, err := ParsePerson(readFixture(t, "person_minimal.html"))
	if err != nil {
		t.Fatalf("缺字段不应报错：%v", err)
	}
	if got.Name != "" || got.Roles != "" || got.Image != "" {
		t.Fatalf("缺失字段应为空：%#v", got)
	}
	if !reflect.DeepEqual(got.Paragraphs, []string{""}) {
		t.Fatalf("段落默认应为单个空串：%q", got.Paragraphs)
	}
}

func TestHumanCount(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, ""},
		{950, "950"},
		{1000, "1K"},
		{12345, "12.3K"},
		{912345, "912K"},
		{2000000, "2M"},
		{2600123, "2.6M"},
	}
	for _, c := range cases {
		if got := humanCount(c.in); got != c.want {
			t.Fatalf("humanCount(%d)=%q，期望=%q", c.in, got, c.want)
		}
	}
}

func TestIsoDuration(t *testing.T) {
	cases := map[string]string{
		"PT2H28M": "2h 28m",
		"PT45M":   "45m",
		"PT1H":    "1h",
		"PT0H5M":  "5m",
		"bogus":   "",
		"":        "",
	}
	for in, want := range cases {
		if got := isoDuration(in); got != want {
			t.Fatalf("isoDuration(%q)=%q，期望=%q", in, got, want)
		}
	}
}
