package scrape

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// splitAtBreaks 以 <br> 为界把节点的文本切成段落（去空白、丢弃空段）。
func splitAtBreaks(nodes []*html.Node) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := normSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "br":
				flush()
				return
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	flush()
	return out
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func normList(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = normSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// humanCount 把票数格式化为 IMDb 页面的写法：950、12K、2.6M。
func humanCount(n int) string {
	switch {
	case n <= 0:
		return ""
	case n < 1000:
		return strconv.Itoa(n)
	case n < 100_000:
		return trimZero(strconv.FormatFloat(float64(n)/1e3, 'f', 1, 64)) + "K"
	case n < 1_000_000:
		return strconv.Itoa(n/1000) + "K"
	default:
		return trimZero(strconv.FormatFloat(float64(n)/1e6, 'f', 1, 64)) + "M"
	}
}

func trimZero(s string) string { return strings.TrimSuffix(s, ".0") }
