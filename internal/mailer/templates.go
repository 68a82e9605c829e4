package mailer

import "fmt"

// Template data for the three product emails. Bodies are deliberately
// simple table-free HTML; the text alternatives carry the same content.

type QuoteDeliveredData struct {
	ClientName string
	SenderName string
	QuoteURL   string
	ItemCount  int
}

// QuoteDelivered is the "you've received a quote" email to the client.
func QuoteDelivered(d QuoteDeliveredData) Message {
	items := ""
	if d.ItemCount == 1 {
		items = " with 1 item"
	} else if d.ItemCount > 1 {
		items = fmt.Sprintf(" with %d items", d.ItemCount)
	}
	text := fmt.Sprintf(`Hi %s,

%s has prepared a quote for you%s.

Click the link below to view the full details and pricing:
%s

If you have any questions about this quote, simply reply to this email and %s will get back to you.

Best regards,
%s

---
This quote was sent via PingQuote - https://pingquote.com`,
		d.ClientName, d.SenderName, items, d.QuoteURL, d.SenderName, d.SenderName)

	html := fmt.Sprintf(`<html><body>
<h1>You've received a quote</h1>
<p>Hi %s,</p>
<p>%s has prepared a quote for you%s.</p>
<p><a href="%s">View Quote</a></p>
<p>If you have any questions about this quote, simply reply to this email and %s will get back to you.</p>
<p>Best regards,<br><strong>%s</strong></p>
<p><small>This quote was sent via <a href="https://pingquote.com">PingQuote</a></small></p>
</body></html>`,
		d.ClientName, d.SenderName, items, d.QuoteURL, d.SenderName, d.SenderName)

	return Message{
		Subject: fmt.Sprintf("New quote from %s", d.SenderName),
		HTML:    html,
		Text:    text,
	}
}

type QuoteViewedData struct {
	SenderName   string
	ClientName   string
	QuoteURL     string
	DashboardURL string
}

// QuoteViewed is the one-per-quote first-view notification to the
// quote owner.
func QuoteViewed(d QuoteViewedData) Message {
	text := fmt.Sprintf(`🔥 Your quote was viewed!

Hi %s,

Great news! %s just viewed your quote.

💡 Pro Tip: This is a great time to follow up! Your quote is fresh in their mind.

View your dashboard: %s
View the quote: %s

You'll receive this notification only once per quote. Check your dashboard to see the full view history.

---
Sent by PingQuote - Know when your quotes are viewed
https://pingquote.com`,
		d.SenderName, d.ClientName, d.DashboardURL, d.QuoteURL)

	html := fmt.Sprintf(`<html><body>
<h1>🔥 Your quote was viewed!</h1>
<p>Hi %s,</p>
<p>Great news! <strong>%s</strong> just viewed your quote.</p>
<p>💡 Pro Tip: This is a great time to follow up! Your quote is fresh in their mind.</p>
<p><a href="%s">View Dashboard</a> &middot; <a href="%s">View Quote</a></p>
<p>You'll receive this notification only once per quote. Check your dashboard to see the full view history.</p>
<p><small>Sent by <a href="https://pingquote.com">PingQuote</a> - Know when your quotes are viewed</small></p>
</body></html>`,
		d.SenderName, d.ClientName, d.DashboardURL, d.QuoteURL)

	return Message{
		Subject: fmt.Sprintf("🔥 Your quote for %s was just viewed!", d.ClientName),
		HTML:    html,
		Text:    text,
	}
}

type TeamInviteData struct {
	InvitedEmail     string
	OrganizationName string
	InviterName      string
	InviteURL        string
}

// TeamInvite is the organization invitation email.
func TeamInvite(d TeamInviteData) Message {
	text := fmt.Sprintf(`Hi,

%s has invited you to join %s on PingQuote.

Accept the invite and create your account:
%s

This invite was sent to %s. If you weren't expecting it, you can ignore this email.

---
Sent by PingQuote - https://pingquote.com`,
		d.InviterName, d.OrganizationName, d.InviteURL, d.InvitedEmail)

	html := fmt.Sprintf(`<html><body>
<h1>You're invited</h1>
<p>%s has invited you to join <strong>%s</strong> on PingQuote.</p>
<p><a href="%s">Accept Invite</a></p>
<p><small>This invite was sent to %s. If you weren't expecting it, you can ignore this email.</small></p>
</body></html>`,
		d.InviterName, d.OrganizationName, d.InviteURL, d.InvitedEmail)

	return Message{
		Subject: fmt.Sprintf("You're invited to join %s on PingQuote", d.OrganizationName),
		HTML:    html,
		Text:    text,
	}
}
