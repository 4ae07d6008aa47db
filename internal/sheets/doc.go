// Package sheets provides functionality for interacting with Google Sheets API.
//
// This package includes a client for creating spreadsheets, reading and
// writing cell ranges in A1 notation, appending rows and managing sheets
// (tabs) within a spreadsheet.
//
// Cell values cross the API boundary as strings. Writes accept a value
// input option: RAW stores strings exactly as given, USER_ENTERED (the
// default) parses them the way the Sheets UI would, turning "=SUM(A1:A3)"
// into a formula.
//
// Clients are constructed with a google.TokenProvider that supplies the
// OAuth token for a named account:
//
//	client, err := sheets.NewClientForAccountWithProvider(ctx, "work", provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rows, err := client.ReadRange("1ABC123xyz", "Sheet1!A1:C10")
//	if err != nil {
//	    log.Fatal(err)
//	}
package sheets
