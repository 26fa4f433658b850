package domain

import (
	"fmt"
	"net/url"
)

const WHATSAPP_COUNTRY_CODE = "91"

// Build a wa.me link that opens a chat with the devotee with message pre-filled
func ReminderLink(d Devotee, message string) string {
	link := fmt.Sprintf("https://wa.me/%s%s", WHATSAPP_COUNTRY_CODE, d.Phone)
	if message == "" {
		return link
	}
	return fmt.Sprintf("%s?text=%s", link, url.QueryEscape(message))
}

func DefaultReminderMessage(d Devotee) string {
	return fmt.Sprintf("Jai Shri Ram %s! Don't forget to record today's jaap.", d.Name)
}
