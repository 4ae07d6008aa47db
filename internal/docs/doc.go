// Package docs provides functionality for interacting with Google Docs API.
//
// This package includes a client for reading and writing document content
// and converting documents to various formats (Markdown, plain text).
//
// The package handles:
//   - Document retrieval via Google Docs API, including tabbed documents
//   - Document creation and text insertion via batch updates
//   - Document metadata retrieval via Google Drive API
//   - Document content conversion to Markdown and plain text formats
//
// Clients are constructed with a google.TokenProvider that supplies the
// OAuth token for a named account:
//
//	client, err := docs.NewClientForAccountWithProvider(ctx, "work", provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := client.GetDocument("1ABC123xyz")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	markdown, err := DocumentToMarkdown(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
package docs
