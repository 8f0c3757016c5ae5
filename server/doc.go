// Package server is the local HTTP bridge between the browser extension and
// a session.
//
// The extension's content script posts selections to /api/selection; the
// popup edits fields, reads summaries and submits through the other /api
// routes, and listens on /ws for pushed events:
//
//	UPDATE_SELECTED_TEXT  a new selection was captured
//	USAGE_UPDATED         the token summary changed
//	SETTINGS_UPDATED      settings were saved or changed on disk
//
// The server only listens on loopback addresses.
package server
