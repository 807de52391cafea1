package notion

import (
	"strings"

	"github.com/jomei/notionapi"
)

// PropertyKind is the subset of Notion property types the importer understands.
type PropertyKind string

const (
	KindTitle       PropertyKind = "title"
	KindRichText    PropertyKind = "rich_text"
	KindSelect      PropertyKind = "select"
	KindNumber      PropertyKind = "number"
	KindFiles       PropertyKind = "files"
	KindUnsupported PropertyKind = "unsupported"
)

// Property is a decoded page property. Only the field matching Kind is set;
// the others keep their zero values.
type Property struct {
	Kind   PropertyKind
	Text   string
	Number float64
	Files  []string
}

func decodeProperty(prop notionapi.Property) Property {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return Property{Kind: KindTitle, Text: joinPlainText(p.Title)}
	case *notionapi.RichTextProperty:
		return Property{Kind: KindRichText, Text: joinPlainText(p.RichText)}
	case *notionapi.SelectProperty:
		return Property{Kind: KindSelect, Text: p.Select.Name}
	case *notionapi.NumberProperty:
		return Property{Kind: KindNumber, Number: p.Number}
	case *notionapi.FilesProperty:
		urls := make([]string, 0, len(p.Files))
		for _, f := range p.Files {
			switch {
			case f.File != nil && f.File.URL != "":
				urls = append(urls, f.File.URL)
			case f.External != nil && f.External.URL != "":
				urls = append(urls, f.External.URL)
			}
		}
		return Property{Kind: KindFiles, Files: urls}
	default:
		return Property{Kind: KindUnsupported}
	}
}

func joinPlainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.PlainText)
	}
	return b.String()
}

// Page is a database row with decoded properties.
type Page struct {
	ID         string
	Properties map[string]Property
}

// Text returns the text of a title, rich_text or select property, or "".
func (p Page) Text(name string) string {
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	switch prop.Kind {
	case KindTitle, KindRichText, KindSelect:
		return strings.TrimSpace(prop.Text)
	}
	return ""
}

// Number returns the value of a number property, or 0.
func (p Page) Number(name string) float64 {
	if prop, ok := p.Properties[name]; ok && prop.Kind == KindNumber {
		return prop.Number
	}
	return 0
}

// Files returns the URLs of a files property, or nil.
func (p Page) Files(name string) []string {
	if prop, ok := p.Properties[name]; ok && prop.Kind == KindFiles {
		return prop.Files
	}
	return nil
}
