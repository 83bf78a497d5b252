package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// DefaultFormat is table on a terminal and json otherwise.
func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

// Print renders a decoded API payload. Search results, notification lists
// and users get dedicated layouts; anything else falls back to JSON.
func Print(w io.Writer, payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	switch format {
	case "json":
		return printJSON(w, payload)
	case "table":
		return printTable(w, payload)
	case "plain":
		return printPlain(w, payload)
	case "md":
		return printMarkdown(w, payload)
	case "quiet":
		return printQuiet(w, payload)
	default:
		return errors.New("invalid --format value")
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printTable(w io.Writer, payload map[string]any) error {
	switch {
	case hasKey(payload, "collection"):
		printCorrection(w, payload)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCOMMENTS\tVOTES\tLAST_ACTIVITY")
		for _, row := range toObjectSlice(payload["collection"]) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				str(row["id"]), str(row["title"]), author(row), str(row["comments_count"]), str(row["votes"]), str(row["last_activity_at"]))
		}
		fmt.Fprintf(w, "%s results, %s pages\n", str(payload["total_results"]), str(payload["num_pages"]))
	case hasKey(payload, "notifications"):
		fmt.Fprintln(w, "ID\tTYPE\tFROM\tTHREAD\tCREATED")
		for _, row := range toObjectSlice(payload["notifications"]) {
			info := toObject(row["info"])
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				str(row["id"]), str(row["notification_type"]), str(info["actor_username"]), str(info["thread_title"]), str(row["created"]))
		}
	case hasKey(payload, "username"):
		fmt.Fprintln(w, "ID\tUSERNAME\tCREATED")
		fmt.Fprintf(w, "%s\t%s\t%s\n", str(payload["id"]), str(payload["username"]), str(payload["created"]))
	default:
		return printJSON(w, payload)
	}
	return nil
}

func printPlain(w io.Writer, payload map[string]any) error {
	switch {
	case hasKey(payload, "collection"):
		printCorrection(w, payload)
		for _, row := range toObjectSlice(payload["collection"]) {
			fmt.Fprintf(w, "%s %s %s\n", str(row["id"]), author(row), str(row["title"]))
		}
	case hasKey(payload, "notifications"):
		for _, row := range toObjectSlice(payload["notifications"]) {
			info := toObject(row["info"])
			fmt.Fprintf(w, "%s %s from=%s\n", str(row["id"]), str(row["notification_type"]), str(info["actor_username"]))
		}
	case hasKey(payload, "username"):
		fmt.Fprintf(w, "%s %s\n", str(payload["id"]), str(payload["username"]))
	default:
		return printJSON(w, payload)
	}
	return nil
}

func printMarkdown(w io.Writer, payload map[string]any) error {
	switch {
	case hasKey(payload, "collection"):
		if corrected := str(payload["corrected_text"]); corrected != "" {
			fmt.Fprintf(w, "_Showing results for **%s**_\n\n", corrected)
		}
		for _, row := range toObjectSlice(payload["collection"]) {
			fmt.Fprintf(w, "- `%s` **%s** by %s (%s comments)\n",
				str(row["id"]), str(row["title"]), author(row), str(row["comments_count"]))
		}
	case hasKey(payload, "notifications"):
		for _, row := range toObjectSlice(payload["notifications"]) {
			info := toObject(row["info"])
			fmt.Fprintf(w, "- `%s` %s from %s in **%s**\n",
				str(row["id"]), str(row["notification_type"]), str(info["actor_username"]), str(info["thread_title"]))
		}
	case hasKey(payload, "username"):
		fmt.Fprintf(w, "- `%s` %s\n", str(payload["id"]), str(payload["username"]))
	default:
		return printJSON(w, payload)
	}
	return nil
}

func printQuiet(w io.Writer, payload map[string]any) error {
	switch {
	case hasKey(payload, "collection"):
		for _, row := range toObjectSlice(payload["collection"]) {
			fmt.Fprintln(w, str(row["id"]))
		}
	case hasKey(payload, "notifications"):
		for _, row := range toObjectSlice(payload["notifications"]) {
			fmt.Fprintln(w, str(row["id"]))
		}
	default:
		if id, ok := payload["id"]; ok {
			fmt.Fprintln(w, str(id))
			return nil
		}
		return printJSON(w, payload)
	}
	return nil
}

func printCorrection(w io.Writer, payload map[string]any) {
	if corrected := str(payload["corrected_text"]); corrected != "" {
		fmt.Fprintf(w, "Showing results for %q\n", corrected)
	}
}

// author is the username of a search row, or "anonymous" when hidden.
func author(row map[string]any) string {
	if name := str(row["username"]); name != "" {
		return name
	}
	return "anonymous"
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
