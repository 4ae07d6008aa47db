// Package drive provides a client for interacting with the Google Drive API.
//
// This package enables comprehensive Google Drive file management operations including:
//   - Uploading files with metadata
//   - Listing, searching, and browsing files and folders
//   - Reading file content, with automatic export of Google-native files
//   - Deleting files
//   - Creating folders
//   - Moving and renaming files
//   - Managing file sharing and permissions
//
// The client supports multi-account functionality, allowing management of multiple
// Google accounts simultaneously. Each client instance is bound to a specific account
// and built from a google.TokenProvider.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := drive.NewClientForAccountWithProvider(ctx, "work", provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload a file
//	file, err := client.UploadFile(ctx, "document.pdf", bytes.NewReader(content), &drive.UploadOptions{
//	    MimeType: "application/pdf",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List files
//	files, _, err := client.ListFiles(ctx, &drive.ListOptions{
//	    Query:      "mimeType='application/pdf'",
//	    MaxResults: 10,
//	})
package drive
