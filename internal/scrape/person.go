package scrape

import (
	"strings"

	"github.com/John-Robertt/imdbot/internal/domain"
)

// ParsePerson 把人物详情页解析为 Person。
func ParsePerson(page []byte) (domain.Person, error) {
	doc, err := newDocument(page)
	if err != nil {
		return domain.Person{}, err
	}
	ld := findLD(doc)

	var p domain.Person

	// og:title 形如 "Christopher Nolan | Writer, Producer, Director"。
	name, roles, _ := strings.Cut(metaProperty(doc, "og:title"), "|")
	p.Name = normSpace(name)
	p.Roles = normSpace(roles)
	if p.Name == "" {
		p.Name = ld.Name
	}
	if p.Roles == "" && len(ld.JobTitle) > 0 {
		p.Roles = strings.Join(ld.JobTitle, ", ")
	}

	if bio := doc.Find("div[data-testid='bio-content']").First(); bio.Length() > 0 {
		p.Paragraphs = splitAtBreaks(bio.Nodes)
	}
	if len(p.Paragraphs) == 0 && ld.Description != "" {
		p.Paragraphs = []string{ld.Description}
	}
	if len(p.Paragraphs) == 0 {
		p.Paragraphs = []string{""}
	}

	p.Image = metaProperty(doc, "og:image")
	if p.Image == "" {
		p.Image = ld.Image
	}
	return p, nil
}
