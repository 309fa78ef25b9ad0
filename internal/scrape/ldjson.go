package scrape

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// linkedData 是详情页 <script type="application/ld+json"> 中我们关心的子集。
// IMDb 的 JSON-LD 字段类型不稳定（字符串/数组/对象混用），这里统一吸收。
type linkedData struct {
	Type          string
	Name          string
	Description   string
	Image         string
	Genre         []string
	JobTitle      []string
	ContentRating string
	Duration      string
	Rating        *ldRating
}

type ldRating struct {
	Value string
	Count int
}

type rawLD struct {
	Type            flexStrings `json:"@type"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Image           flexImage   `json:"image"`
	Genre           flexStrings `json:"genre"`
	JobTitle        flexStrings `json:"jobTitle"`
	ContentRating   string      `json:"contentRating"`
	Duration        string      `json:"duration"`
	AggregateRating *struct {
		RatingValue flexNumber `json:"ratingValue"`
		RatingCount flexNumber `json:"ratingCount"`
	} `json:"aggregateRating"`
}

// findLD 返回第一个可解析且带 @type 的 JSON-LD 块；没有时返回零值。
func findLD(doc *goquery.Document) linkedData {
	var out linkedData
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var r rawLD
		if err := json.Unmarshal([]byte(s.Text()), &r); err != nil || len(r.Type) == 0 || r.Type[0] == "" {
			return true
		}
		out = linkedData{
			Type:          r.Type[0],
			Name:          unescape(r.Name),
			Description:   unescape(r.Description),
			Image:         strings.TrimSpace(string(r.Image)),
			Genre:         normList(r.Genre),
			JobTitle:      normList(r.JobTitle),
			ContentRating: strings.TrimSpace(r.ContentRating),
			Duration:      strings.TrimSpace(r.Duration),
		}
		if r.AggregateRating != nil && r.AggregateRating.RatingValue != "" {
			n, _ := strconv.Atoi(string(r.AggregateRating.RatingCount))
			out.Rating = &ldRating{Value: string(r.AggregateRating.RatingValue), Count: n}
		}
		return false
	})
	return out
}

func unescape(s string) string { return normSpace(html.UnescapeString(s)) }

var ldCategories = map[string]string{
	"Movie":        "Movie",
	"TVSeries":     "TV series",
	"TVMiniSeries": "TV mini-series",
	"TVEpisode":    "TV episode",
	"VideoGame":    "Video game",
	"CreativeWork": "",
}

func categoryFromLD(t string) string {
	if c, ok := ldCategories[t]; ok {
		return c
	}
	return t
}

var isoDurationRE = regexp.MustCompile(`^PT(?:([0-9]+)H)?(?:([0-9]+)M)?`)

// isoDuration 把 "PT2H28M" 转成页面写法 "2h 28m"。
func isoDuration(s string) string {
	m := isoDurationRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	if m[1] != "" && m[1] != "0" {
		parts = append(parts, m[1]+"h")
	}
	if m[2] != "" && m[2] != "0" {
		parts = append(parts, m[2]+"m")
	}
	return strings.Join(parts, " ")
}

// flexStrings 接受 "a" 或 ["a","b"]。
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(b []byte) error {
	if strings.TrimSpace(string(b)) == "null" {
		*f = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*f = flexStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		*f = nil
		return nil
	}
	*f = many
	return nil
}

// flexImage 接受 "url" 或 {"url": "..."}。
type flexImage string

func (f *flexImage) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexImage(s)
		return nil
	}
	var o struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(b, &o); err == nil {
		*f = flexImage(o.URL)
	}
	return nil
}

// flexNumber 接受 8.8 或 "8.8"，保留原始文本。
type flexNumber string

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		*f = ""
		return nil
	}
	*f = flexNumber(s)
	return nil
}
