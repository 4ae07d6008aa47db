// Package drive_tools provides MCP (Model Context Protocol) tools for Google Drive operations.
//
// This package exposes Drive functionality to MCP clients (like AI assistants) through
// a set of tools that handle file management, folder operations, and permission sharing.
//
// Available tools:
//   - drive_upload_file: Upload files to Google Drive with metadata
//   - drive_list_files: List files with filtering via Drive's query language
//   - drive_search_files: Search file names and content for a term
//   - drive_get_files: Get metadata for one or more files
//   - drive_read_files: Read content of one or more files (Google-native files are exported)
//   - drive_delete_files: Delete one or more files
//   - drive_create_folder: Create new folders
//   - drive_list_folder: List the contents of a folder
//   - drive_move_file: Move or rename files
//   - drive_share_files: Share one or more files with specific permissions
//   - drive_list_permissions: List all permissions for a file
//   - drive_remove_permission: Remove a permission from a file
//
// All tools support multi-account functionality through an optional 'account' parameter,
// allowing management of multiple Google accounts simultaneously. Tools that modify
// Drive state (upload, delete, create, move, share, remove) are only registered when
// the server runs with write access enabled.
//
// Example tool usage:
//
//	drive_upload_file({
//	  account: "work",
//	  name: "report.pdf",
//	  content: "<base64-encoded-content>",
//	  isBase64: true,
//	  mimeType: "application/pdf",
//	  parentFolders: "folder_id"
//	})
//
//	drive_list_files({
//	  account: "personal",
//	  query: "mimeType='application/pdf' and name contains 'invoice'",
//	  maxResults: 10
//	})
package drive_tools
