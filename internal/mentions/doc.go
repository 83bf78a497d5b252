// Package mentions finds @username tokens in threads and comments, keeps the
// stored mention list of each piece of content current, and hands newly
// mentioned users to a notifier.
//
// Scanning is a pure function of the content text: the raw markdown is marked
// with token ordinals, rendered to HTML, stripped of code elements and then
// scanned text node by text node. The Worker runs scans asynchronously on a
// bounded pool and serializes scans of the same content.
package mentions
