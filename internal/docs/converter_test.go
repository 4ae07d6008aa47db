package docs

import (
	"testing"

	docs "google.golang.org/api/docs/v1"
)

func textParagraph(content string) *docs.StructuralElement {
	return &docs.StructuralElement{
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{
				{TextRun: &docs.TextRun{Content: content}},
			},
		},
	}
}

func styledParagraph(content string, style *docs.TextStyle) *docs.StructuralElement {
	return &docs.StructuralElement{
		Paragraph: &docs.Paragraph{
			Elements: []*docs.ParagraphElement{
				{TextRun: &docs.TextRun{Content: content, TextStyle: style}},
			},
		},
	}
}

func headingParagraph(content, namedStyle string) *docs.StructuralElement {
	element := textParagraph(content)
	element.Paragraph.ParagraphStyle = &docs.ParagraphStyle{NamedStyleType: namedStyle}
	return element
}

func bulletParagraph(content, listID string, nestingLevel int64) *docs.StructuralElement {
	element := textParagraph(content)
	element.Paragraph.Bullet = &docs.Bullet{ListId: listID, NestingLevel: nestingLevel}
	return element
}

func tableCell(content string) *docs.TableCell {
	return &docs.TableCell{
		Content: []*docs.StructuralElement{textParagraph(content)},
	}
}

func bodyDocument(title string, content ...*docs.StructuralElement) *docs.Document {
	return &docs.Document{
		Title: title,
		Body:  &docs.Body{Content: content},
	}
}

func TestDocumentToMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		doc      *docs.Document
		expected string
		wantErr  bool
	}{
		{
			name:    "nil document",
			doc:     nil,
			wantErr: true,
		},
		{
			name:     "simple document with title",
			doc:      bodyDocument("Test Document", textParagraph("This is a test.\n")),
			expected: "# Test Document\n\nThis is a test.\n",
		},
		{
			name: "headings",
			doc: bodyDocument("Document",
				headingParagraph("Heading 1\n", "HEADING_1"),
				headingParagraph("Heading 2\n", "HEADING_2"),
				headingParagraph("Deep\n", "HEADING_6"),
			),
			expected: "# Document\n\n# Heading 1\n\n## Heading 2\n\n###### Deep\n",
		},
		{
			name: "title and subtitle styles",
			doc: bodyDocument("",
				headingParagraph("Big\n", "TITLE"),
				headingParagraph("Small\n", "SUBTITLE"),
			),
			expected: "# Big\n\n## Small\n",
		},
		{
			name: "bold italic and combined",
			doc: bodyDocument("Formatted Text",
				styledParagraph("Bold text\n", &docs.TextStyle{Bold: true}),
				styledParagraph("Italic text\n", &docs.TextStyle{Italic: true}),
				styledParagraph("Both\n", &docs.TextStyle{Bold: true, Italic: true}),
			),
			expected: "# Formatted Text\n\n**Bold text**\n\n*Italic text*\n\n***Both***\n",
		},
		{
			name: "strikethrough",
			doc: bodyDocument("Edits",
				styledParagraph("Removed text\n", &docs.TextStyle{Strikethrough: true}),
			),
			expected: "# Edits\n\n~~Removed text~~\n",
		},
		{
			name: "monospace font becomes code",
			doc: bodyDocument("Code",
				styledParagraph("fmt.Println\n", &docs.TextStyle{
					WeightedFontFamily: &docs.WeightedFontFamily{FontFamily: "Courier New"},
				}),
			),
			expected: "# Code\n\n`fmt.Println`\n",
		},
		{
			name: "link",
			doc: bodyDocument("Link Document",
				styledParagraph("Click here\n", &docs.TextStyle{
					Link: &docs.Link{Url: "https://example.com"},
				}),
			),
			expected: "# Link Document\n\n[Click here](https://example.com)\n",
		},
		{
			name: "bullet list items stay adjacent",
			doc: bodyDocument("List Document",
				bulletParagraph("Item 1\n", "list1", 0),
				bulletParagraph("Item 2\n", "list1", 0),
				textParagraph("After the list.\n"),
			),
			expected: "# List Document\n\n- Item 1\n- Item 2\n\nAfter the list.\n",
		},
		{
			name: "nested bullet list",
			doc: bodyDocument("Nested",
				bulletParagraph("Parent\n", "list1", 0),
				bulletParagraph("Child\n", "list1", 1),
			),
			expected: "# Nested\n\n- Parent\n    - Child\n",
		},
		{
			name: "ordered list via glyph type",
			doc: &docs.Document{
				Title: "Ordered",
				Lists: map[string]docs.List{
					"list1": {
						ListProperties: &docs.ListProperties{
							NestingLevels: []*docs.NestingLevel{
								{GlyphType: "DECIMAL"},
							},
						},
					},
				},
				Body: &docs.Body{Content: []*docs.StructuralElement{
					bulletParagraph("First\n", "list1", 0),
					bulletParagraph("Second\n", "list1", 0),
				}},
			},
			expected: "# Ordered\n\n1. First\n1. Second\n",
		},
		{
			name: "empty paragraphs are skipped",
			doc: bodyDocument("Sparse",
				textParagraph("First.\n"),
				textParagraph("\n"),
				textParagraph("Second.\n"),
			),
			expected: "# Sparse\n\nFirst.\n\nSecond.\n",
		},
		{
			name: "soft line break inside paragraph",
			doc: bodyDocument("",
				textParagraph("Line oneLine two\n"),
			),
			expected: "Line one\nLine two\n",
		},
		{
			name: "inline image resolves content URI",
			doc: &docs.Document{
				Title: "Image Doc",
				InlineObjects: map[string]docs.InlineObject{
					"kix.obj1": {
						InlineObjectProperties: &docs.InlineObjectProperties{
							EmbeddedObject: &docs.EmbeddedObject{
								Title: "Diagram",
								ImageProperties: &docs.ImageProperties{
									ContentUri: "https://example.com/image.png",
								},
							},
						},
					},
				},
				Body: &docs.Body{Content: []*docs.StructuralElement{
					{
						Paragraph: &docs.Paragraph{
							Elements: []*docs.ParagraphElement{
								{InlineObjectElement: &docs.InlineObjectElement{InlineObjectId: "kix.obj1"}},
							},
						},
					},
				}},
			},
			expected: "# Image Doc\n\n![Diagram](https://example.com/image.png)\n",
		},
		{
			name: "unresolved inline object gets placeholder",
			doc: bodyDocument("",
				&docs.StructuralElement{
					Paragraph: &docs.Paragraph{
						Elements: []*docs.ParagraphElement{
							{InlineObjectElement: &docs.InlineObjectElement{InlineObjectId: "missing"}},
						},
					},
				},
			),
			expected: "[inline object]\n",
		},
		{
			name: "tabbed document",
			doc: &docs.Document{
				Title: "Tabbed",
				Tabs: []*docs.Tab{
					{
						TabProperties: &docs.TabProperties{Title: "Overview"},
						DocumentTab: &docs.DocumentTab{
							Body: &docs.Body{Content: []*docs.StructuralElement{textParagraph("Intro.\n")}},
						},
						ChildTabs: []*docs.Tab{
							{
								TabProperties: &docs.TabProperties{Title: "Details"},
								DocumentTab: &docs.DocumentTab{
									Body: &docs.Body{Content: []*docs.StructuralElement{textParagraph("More.\n")}},
								},
							},
						},
					},
				},
			},
			expected: "# Tabbed\n\n## Overview\n\nIntro.\n\n### Details\n\nMore.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DocumentToMarkdown(tt.doc)

			if tt.wantErr {
				if err == nil {
					t.Errorf("DocumentToMarkdown() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("DocumentToMarkdown() unexpected error: %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("DocumentToMarkdown() =\n%q\nwant:\n%q", result, tt.expected)
			}
		})
	}
}

func TestDocumentToMarkdownTable(t *testing.T) {
	doc := bodyDocument("",
		&docs.StructuralElement{
			Table: &docs.Table{
				TableRows: []*docs.TableRow{
					{TableCells: []*docs.TableCell{tableCell("Header 1\n"), tableCell("Header 2\n")}},
					{TableCells: []*docs.TableCell{tableCell("Cell 1\n"), tableCell("Cell 2\n")}},
				},
			},
		},
	)

	result, err := DocumentToMarkdown(doc)
	if err != nil {
		t.Fatalf("DocumentToMarkdown() unexpected error: %v", err)
	}

	expected := "| Header 1 | Header 2 |\n| --- | --- |\n| Cell 1 | Cell 2 |\n"
	if result != expected {
		t.Errorf("DocumentToMarkdown() =\n%q\nwant:\n%q", result, expected)
	}
}

func TestDocumentToMarkdownTableEscapesPipes(t *testing.T) {
	doc := bodyDocument("",
		&docs.StructuralElement{
			Table: &docs.Table{
				TableRows: []*docs.TableRow{
					{TableCells: []*docs.TableCell{tableCell("a|b\n")}},
				},
			},
		},
	)

	result, err := DocumentToMarkdown(doc)
	if err != nil {
		t.Fatalf("DocumentToMarkdown() unexpected error: %v", err)
	}

	expected := "| a\\|b |\n| --- |\n"
	if result != expected {
		t.Errorf("DocumentToMarkdown() =\n%q\nwant:\n%q", result, expected)
	}
}

func TestDocumentToPlainText(t *testing.T) {
	tests := []struct {
		name     string
		doc      *docs.Document
		expected string
		wantErr  bool
	}{
		{
			name:    "nil document",
			doc:     nil,
			wantErr: true,
		},
		{
			name:     "simple document",
			doc:      bodyDocument("Test Document", textParagraph("This is plain text.\n")),
			expected: "Test Document\n\nThis is plain text.\n",
		},
		{
			name: "multiple paragraphs",
			doc: bodyDocument("Multi Paragraph",
				textParagraph("First paragraph.\n"),
				textParagraph("Second paragraph.\n"),
			),
			expected: "Multi Paragraph\n\nFirst paragraph.\nSecond paragraph.\n",
		},
		{
			name: "formatting is stripped",
			doc: bodyDocument("Formatted",
				styledParagraph("Bold text", &docs.TextStyle{Bold: true}),
			),
			expected: "Formatted\n\nBold text\n",
		},
		{
			name: "soft line break becomes newline",
			doc: bodyDocument("",
				textParagraph("Line oneLine two\n"),
			),
			expected: "Line one\nLine two\n",
		},
		{
			name: "table rows become tab-separated lines",
			doc: bodyDocument("",
				&docs.StructuralElement{
					Table: &docs.Table{
						TableRows: []*docs.TableRow{
							{TableCells: []*docs.TableCell{tableCell("Header 1\n"), tableCell("Header 2\n")}},
							{TableCells: []*docs.TableCell{tableCell("Cell 1\n"), tableCell("Cell 2\n")}},
						},
					},
				},
			),
			expected: "Header 1\tHeader 2\nCell 1\tCell 2\n",
		},
		{
			name: "tabbed document",
			doc: &docs.Document{
				Title: "Doc",
				Tabs: []*docs.Tab{
					{
						TabProperties: &docs.TabProperties{Title: "Overview"},
						DocumentTab: &docs.DocumentTab{
							Body: &docs.Body{Content: []*docs.StructuralElement{textParagraph("Intro.\n")}},
						},
						ChildTabs: []*docs.Tab{
							{
								TabProperties: &docs.TabProperties{Title: "Details"},
								DocumentTab: &docs.DocumentTab{
									Body: &docs.Body{Content: []*docs.StructuralElement{textParagraph("More.\n")}},
								},
							},
						},
					},
				},
			},
			expected: "Doc\n\n=== Overview ===\n\nIntro.\n\n--- Details ---\n\nMore.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DocumentToPlainText(tt.doc)

			if tt.wantErr {
				if err == nil {
					t.Errorf("DocumentToPlainText() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("DocumentToPlainText() unexpected error: %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("DocumentToPlainText() =\n%q\nwant:\n%q", result, tt.expected)
			}
		})
	}
}
