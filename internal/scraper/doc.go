// Package scraper provides HTTP fetching and HTML parsing for the upcoming
// screenings page.
//
// The page lists screenings as a flat run of sibling elements: a date heading
// followed by one or more paragraphs holding bolded times, titles, directors and
// locations as loose text nodes. The parser converts the content element into a
// small node tree and walks it with a two-state machine (seeking a heading,
// collecting data blocks) to rebuild a date-keyed collection of showings.
package scraper
