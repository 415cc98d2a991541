package conversation

import "strings"

var userTicketKeywords = []string{
	"problem",
	"issue",
	"bug",
	"error",
	"complaint",
	"help",
	"support",
	"not working",
	"broken",
}

var replyTicketPhrases = []string{"ticket", "support team", "human support"}

// ShouldCreateTicket reports whether a turn should escalate into a ticket:
// the user's message names a problem, or the assistant's reply offers one.
func ShouldCreateTicket(userMessage, reply string) bool {
	user := strings.ToLower(userMessage)
	for _, kw := range userTicketKeywords {
		if strings.Contains(user, kw) {
			return true
		}
	}
	answer := strings.ToLower(reply)
	for _, phrase := range replyTicketPhrases {
		if strings.Contains(answer, phrase) {
			return true
		}
	}
	return false
}
