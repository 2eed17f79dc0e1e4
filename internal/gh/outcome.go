package gh

import (
	"fmt"
	"net/http"
)

// FailureMessage is the fixed outcome table for failed GitHub operations,
// keyed by HTTP status. op is a human phrase such as "create an issue in
// w3c/repo". Status 0 means the request never produced a response (timeout
// or transport failure) and reads the same as any other failure. This
// wording is the user-visible contract; change it deliberately.
func FailureMessage(op string, status int) string {
	switch status {
	case http.StatusForbidden:
		return fmt.Sprintf("Cannot %s: access forbidden (403). The token probably lacks permission.", op)
	case http.StatusUnauthorized:
		return fmt.Sprintf("Cannot %s: authentication failed (401). Check the configured token.", op)
	case http.StatusNotFound:
		return fmt.Sprintf("Cannot %s: not found (404). Does the repository exist, and can I see it?", op)
	case http.StatusGone:
		return fmt.Sprintf("Cannot %s: gone (410). It appears to have been deleted.", op)
	case http.StatusUnprocessableEntity:
		return fmt.Sprintf("Cannot %s: GitHub rejected the request (422). Check the data; assignees must be collaborators.", op)
	case http.StatusServiceUnavailable:
		return fmt.Sprintf("Cannot %s: GitHub is temporarily unavailable (503). Try again later.", op)
	case 0:
		return fmt.Sprintf("Cannot %s: no response from GitHub (network failure or timeout).", op)
	default:
		return fmt.Sprintf("Cannot %s: unexpected response from GitHub (%d).", op, status)
	}
}
