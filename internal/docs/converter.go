package docs

import (
	"fmt"
	"strconv"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// softLineBreak is how the Docs API encodes a line break inside a paragraph.
const softLineBreak = ""

// DocumentToMarkdown converts a Google Doc to Markdown.
// Supports both legacy documents (doc.Body) and tabbed documents (doc.Tabs).
func DocumentToMarkdown(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}

	r := newMarkdownRenderer(doc)

	if doc.Title != "" {
		r.writeBlock("# "+doc.Title, false)
	}

	if len(doc.Tabs) > 0 {
		r.renderTabs(doc.Tabs, 2)
	} else if doc.Body != nil {
		r.renderBody(doc.Body)
	}

	return r.result(), nil
}

// DocumentToPlainText extracts plain text from a Google Doc.
// Supports both legacy documents (doc.Body) and tabbed documents (doc.Tabs).
func DocumentToPlainText(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}

	r := &textRenderer{}

	if doc.Title != "" {
		r.out.WriteString(doc.Title)
		r.out.WriteString("\n\n")
	}

	if len(doc.Tabs) > 0 {
		r.renderTabs(doc.Tabs, 0)
	} else if doc.Body != nil {
		r.renderBody(doc.Body)
	}

	return r.out.String(), nil
}

// markdownRenderer accumulates Markdown blocks. It carries the document's
// list and inline object catalogs so list items and images can resolve their
// referenced properties.
type markdownRenderer struct {
	out         strings.Builder
	lists       map[string]docs.List
	objects     map[string]docs.InlineObject
	lastWasItem bool
}

func newMarkdownRenderer(doc *docs.Document) *markdownRenderer {
	return &markdownRenderer{
		lists:   doc.Lists,
		objects: doc.InlineObjects,
	}
}

// writeBlock appends a block of Markdown. Consecutive list items sit on
// adjacent lines; every other pair of blocks is separated by a blank line.
func (r *markdownRenderer) writeBlock(text string, listItem bool) {
	if r.out.Len() > 0 {
		if listItem && r.lastWasItem {
			r.out.WriteString("\n")
		} else {
			r.out.WriteString("\n\n")
		}
	}
	r.out.WriteString(text)
	r.lastWasItem = listItem
}

func (r *markdownRenderer) result() string {
	if r.out.Len() == 0 {
		return ""
	}
	return r.out.String() + "\n"
}

// renderTabs walks the tab tree depth first. Tab titles become headings one
// level deeper than their parent, clamped at H6. The first untitled top-level
// tab gets no heading so single-tab documents read like flat ones.
func (r *markdownRenderer) renderTabs(tabs []*docs.Tab, level int) {
	if level > 6 {
		level = 6
	}

	for i, tab := range tabs {
		title := ""
		if tab.TabProperties != nil {
			title = tab.TabProperties.Title
		}
		if title == "" && (i > 0 || level > 2) {
			title = fmt.Sprintf("Tab %d", i+1)
		}
		if title != "" {
			r.writeBlock(strings.Repeat("#", level)+" "+title, false)
		}

		if tab.DocumentTab != nil {
			r.renderBody(tab.DocumentTab.Body)
		}

		r.renderTabs(tab.ChildTabs, level+1)
	}
}

func (r *markdownRenderer) renderBody(body *docs.Body) {
	if body == nil {
		return
	}
	for _, element := range body.Content {
		if element == nil {
			continue
		}
		switch {
		case element.Paragraph != nil:
			r.paragraph(element.Paragraph)
		case element.Table != nil:
			r.table(element.Table)
		}
		// Section breaks and tables of contents carry no renderable content
	}
}

func (r *markdownRenderer) paragraph(p *docs.Paragraph) {
	if p == nil || len(p.Elements) == 0 {
		return
	}

	var sb strings.Builder
	for _, elem := range p.Elements {
		switch {
		case elem.TextRun != nil:
			sb.WriteString(renderTextRun(elem.TextRun))
		case elem.InlineObjectElement != nil:
			sb.WriteString(r.renderInlineObject(elem.InlineObjectElement))
		case elem.HorizontalRule != nil:
			sb.WriteString("---")
		}
	}

	content := strings.TrimSuffix(sb.String(), "\n")
	content = strings.ReplaceAll(content, softLineBreak, "\n")
	if content == "" {
		return
	}

	if p.Bullet != nil {
		r.writeBlock(r.listItemPrefix(p.Bullet)+content, true)
		return
	}
	if level := headingLevel(p.ParagraphStyle); level > 0 {
		r.writeBlock(strings.Repeat("#", level)+" "+content, false)
		return
	}
	r.writeBlock(content, false)
}

// listItemPrefix renders the indentation and marker for a list item. The
// glyph type of the item's nesting level decides between ordered and bullet
// markers; Markdown renumbers ordered items itself, so "1." suffices.
func (r *markdownRenderer) listItemPrefix(bullet *docs.Bullet) string {
	indent := ""
	if bullet.NestingLevel > 0 {
		indent = strings.Repeat("    ", int(bullet.NestingLevel))
	}
	if r.isOrderedList(bullet.ListId, bullet.NestingLevel) {
		return indent + "1. "
	}
	return indent + "- "
}

func (r *markdownRenderer) isOrderedList(listID string, level int64) bool {
	list, ok := r.lists[listID]
	if !ok || list.ListProperties == nil {
		return false
	}
	levels := list.ListProperties.NestingLevels
	if level < 0 || int(level) >= len(levels) || levels[level] == nil {
		return false
	}
	switch levels[level].GlyphType {
	case "DECIMAL", "ZERO_DECIMAL", "ALPHA", "UPPER_ALPHA", "ROMAN", "UPPER_ROMAN":
		return true
	}
	return false
}

// renderInlineObject resolves an inline object reference to a Markdown image
// when it carries one, falling back to a bracketed placeholder.
func (r *markdownRenderer) renderInlineObject(elem *docs.InlineObjectElement) string {
	obj, ok := r.objects[elem.InlineObjectId]
	if !ok || obj.InlineObjectProperties == nil || obj.InlineObjectProperties.EmbeddedObject == nil {
		return "[inline object]"
	}

	embedded := obj.InlineObjectProperties.EmbeddedObject
	alt := embedded.Title
	if alt == "" {
		alt = embedded.Description
	}

	if embedded.ImageProperties != nil && embedded.ImageProperties.ContentUri != "" {
		if alt == "" {
			alt = "image"
		}
		return "![" + alt + "](" + embedded.ImageProperties.ContentUri + ")"
	}
	if alt != "" {
		return "[" + alt + "]"
	}
	return "[inline object]"
}

func (r *markdownRenderer) table(t *docs.Table) {
	if t == nil || len(t.TableRows) == 0 {
		return
	}

	var sb strings.Builder
	firstRow := true
	for rowIndex, row := range t.TableRows {
		if len(row.TableCells) == 0 {
			continue
		}
		if !firstRow {
			sb.WriteString("\n")
		}

		sb.WriteString("|")
		for _, cell := range row.TableCells {
			sb.WriteString(" ")
			sb.WriteString(strings.ReplaceAll(cellText(cell), "|", "\\|"))
			sb.WriteString(" |")
		}

		// The first row doubles as the header
		if rowIndex == 0 {
			sb.WriteString("\n|")
			for range row.TableCells {
				sb.WriteString(" --- |")
			}
		}
		firstRow = false
	}

	if sb.Len() > 0 {
		r.writeBlock(sb.String(), false)
	}
}

// renderTextRun applies Markdown formatting to a single text run. The run's
// trailing paragraph newline stays outside the formatting markers.
func renderTextRun(tr *docs.TextRun) string {
	content := tr.Content
	if content == "" {
		return ""
	}

	newline := ""
	if trimmed, ok := strings.CutSuffix(content, "\n"); ok {
		content, newline = trimmed, "\n"
	}

	style := tr.TextStyle
	if style == nil || content == "" {
		return content + newline
	}

	if style.Link != nil && style.Link.Url != "" {
		return "[" + strings.TrimSpace(content) + "](" + style.Link.Url + ")" + newline
	}
	if isCodeFont(style) {
		return "`" + strings.TrimSpace(content) + "`" + newline
	}

	if style.Strikethrough {
		content = "~~" + content + "~~"
	}
	switch {
	case style.Bold && style.Italic:
		content = "***" + content + "***"
	case style.Bold:
		content = "**" + content + "**"
	case style.Italic:
		content = "*" + content + "*"
	}
	return content + newline
}

// headingLevel maps named paragraph styles to Markdown heading depth.
func headingLevel(style *docs.ParagraphStyle) int {
	if style == nil {
		return 0
	}
	switch style.NamedStyleType {
	case "TITLE":
		return 1
	case "SUBTITLE":
		return 2
	}

	rest, ok := strings.CutPrefix(style.NamedStyleType, "HEADING_")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

// isCodeFont reports whether a run is set in a monospace face. Docs has no
// semantic code style, so the font family is the usual signal.
func isCodeFont(style *docs.TextStyle) bool {
	if style.WeightedFontFamily == nil {
		return false
	}
	family := style.WeightedFontFamily.FontFamily
	for _, mono := range []string{"Courier", "Consolas", "Roboto Mono", "Source Code"} {
		if strings.Contains(family, mono) {
			return true
		}
	}
	return false
}

// cellText flattens a table cell to a single line of whitespace-normalized
// text.
func cellText(cell *docs.TableCell) string {
	var sb strings.Builder
	for _, element := range cell.Content {
		if element.Paragraph == nil {
			continue
		}
		for _, elem := range element.Paragraph.Elements {
			if elem.TextRun != nil {
				sb.WriteString(elem.TextRun.Content)
			}
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// textRenderer accumulates the plain text projection of a document.
type textRenderer struct {
	out strings.Builder
}

// gap ensures a blank line separates the next write from prior content.
func (r *textRenderer) gap() {
	out := r.out.String()
	if out == "" || strings.HasSuffix(out, "\n\n") {
		return
	}
	if strings.HasSuffix(out, "\n") {
		r.out.WriteString("\n")
		return
	}
	r.out.WriteString("\n\n")
}

// renderTabs marks top-level tab titles with === and nested ones with ---.
// The first untitled top-level tab gets no marker.
func (r *textRenderer) renderTabs(tabs []*docs.Tab, depth int) {
	marker := "==="
	if depth > 0 {
		marker = "---"
	}

	for i, tab := range tabs {
		title := ""
		if tab.TabProperties != nil {
			title = tab.TabProperties.Title
		}
		if title == "" && (i > 0 || depth > 0) {
			title = fmt.Sprintf("Tab %d", i+1)
		}
		if title != "" {
			r.gap()
			r.out.WriteString(fmt.Sprintf("%s %s %s\n\n", marker, title, marker))
		}

		if tab.DocumentTab != nil {
			r.renderBody(tab.DocumentTab.Body)
		}

		r.renderTabs(tab.ChildTabs, depth+1)
	}
}

func (r *textRenderer) renderBody(body *docs.Body) {
	if body == nil {
		return
	}
	for _, element := range body.Content {
		if element == nil {
			continue
		}
		switch {
		case element.Paragraph != nil:
			r.paragraph(element.Paragraph)
		case element.Table != nil:
			r.table(element.Table)
		}
	}
}

func (r *textRenderer) paragraph(p *docs.Paragraph) {
	if p == nil {
		return
	}

	var sb strings.Builder
	for _, elem := range p.Elements {
		if elem.TextRun != nil {
			sb.WriteString(elem.TextRun.Content)
		}
	}

	text := strings.ReplaceAll(sb.String(), softLineBreak, "\n")
	if text == "" {
		return
	}

	r.out.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		r.out.WriteString("\n")
	}
}

func (r *textRenderer) table(t *docs.Table) {
	if t == nil {
		return
	}
	for _, row := range t.TableRows {
		if len(row.TableCells) == 0 {
			continue
		}
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			cells = append(cells, cellText(cell))
		}
		r.out.WriteString(strings.Join(cells, "\t"))
		r.out.WriteString("\n")
	}
}
