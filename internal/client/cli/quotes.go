package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

// maxMessageWidth обрезает текст заявки в таблице
const maxMessageWidth = 40

// QuotesList выводит заявки таблицей или JSON
func (c *Cli) QuotesList(ctx context.Context, asJSON bool) error {
	quotes, err := c.auth.ListQuotes(ctx)
	if err != nil {
		return sessionError(err)
	}

	if asJSON {
		enc := json.NewEncoder(c.io)
		enc.SetIndent("", "  ")
		return enc.Encode(quotes)
	}

	if len(quotes) == 0 {
		c.io.Println("No quote requests.")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCREATED\tNAME\tPHONE\tEMAIL\tMESSAGE")
	for _, q := range quotes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			q.ID,
			q.CreatedAt.Local().Format("2006-01-02 15:04"),
			q.Name,
			q.Phone,
			q.Email,
			truncate(q.Message, maxMessageWidth))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	c.io.Printf("\nTotal: %d\n", len(quotes))
	return nil
}

// truncate укорачивает строку до n рун и убирает переводы строк
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
