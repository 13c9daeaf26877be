package tui

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// ToMarkdown turns results markup into text a terminal can show. Markup
// that cannot be converted is shown as-is.
func ToMarkdown(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	md, err := markdownConverter.ConvertString(markup)
	if err != nil {
		return markup
	}
	return strings.TrimSpace(md)
}
