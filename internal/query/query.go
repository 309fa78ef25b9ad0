package query

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/imdbot/internal/domain"
)

var (
	titleIDRE  = regexp.MustCompile(`(?i)^tt[0-9]{5,10}$`)
	personIDRE = regexp.MustCompile(`(?i)^nm[0-9]{5,10}$`)
)

// Normalize 去掉首尾空白并把连续空白折叠为单个空格。
func Normalize(s string) string { return strings.Join(strings.Fields(s), " ") }

// SuggestionKey 返回 suggestion 接口使用的分桶字符与查询键。
// 例如 "The Matrix" => ("t", "the_matrix")。
// 空查询返回 ok=false。
func SuggestionKey(s string) (bucket, key string, ok bool) {
	s = Normalize(s)
	if s == "" {
		return "", "", false
	}
	key = strings.ToLower(strings.ReplaceAll(s, " ", "_"))
	r, _ := utf8.DecodeRuneInString(key)
	return string(r), key, true
}

// DirectID 判断整个查询是否就是 IMDb ID（tt.../nm...）。
// ID 类型必须与 kind 一致，否则视为普通文本查询。
func DirectID(s string, kind domain.QueryKind) (string, bool) {
	s = Normalize(s)
	switch kind {
	case domain.KindTitle:
		if titleIDRE.MatchString(s) {
			return strings.ToLower(s), true
		}
	case domain.KindPerson:
		if personIDRE.MatchString(s) {
			return strings.ToLower(s), true
		}
	}
	return "", false
}

// PageURL 返回 ID 对应的规范化详情页 URL。
func PageURL(id string, kind domain.QueryKind) string {
	if kind == domain.KindPerson {
		return "https://www.imdb.com/name/" + id + "/"
	}
	return "https://www.imdb.com/title/" + id + "/"
}

// Command 是从聊天文本中识别出的一条命令。
type Command struct {
	Kind domain.QueryKind
	Arg  string // 已 Normalize；可能为空（此时应回复用法）
}

// ParseCommand 识别形如 "!imdb <title>" 与 "!imdb person <name>" 的文本。
// 与命令无关的文本返回 ok=false。
func ParseCommand(text, prefix, name string) (Command, bool) {
	text = strings.TrimSpace(text)
	head := prefix + name
	if head == "" || len(text) < len(head) || !strings.EqualFold(text[:len(head)], head) {
		return Command{}, false
	}
	rest := text[len(head):]
	// "!imdbfoo" 不是命令。
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if r != ' ' && r != '\t' && r != '\n' {
			return Command{}, false
		}
	}
	rest = Normalize(rest)

	sub, arg, _ := strings.Cut(rest, " ")
	if strings.EqualFold(sub, "person") {
		return Command{Kind: domain.KindPerson, Arg: Normalize(arg)}, true
	}
	return Command{Kind: domain.KindTitle, Arg: rest}, true
}
