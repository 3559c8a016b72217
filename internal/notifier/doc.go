// Package notifier formats and delivers new-showing notifications.
//
// FormatEmail renders a date-keyed set of showings as the HTML body of a
// notification. A Notifier delivers that body: GmailNotifier sends it through
// the Gmail API, DryRunNotifier writes it to a terminal instead.
package notifier
