package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	vecvstext "github.com/kailas-cloud/vecvstext/pkg/sdk"
)

// report is everything one compare run prints.
type report struct {
	Comparison      *vecvstext.Comparison `json:"comparison"`
	Projection      *vecvstext.Projection `json:"projection,omitempty"`
	ProjectionError string                `json:"projection_error,omitempty"`
	Words           *vecvstext.WordMatch  `json:"words,omitempty"`
	WordsError      string                `json:"words_error,omitempty"`
}

func writeJSON(w io.Writer, r report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// writeText prints both engines as two columns, one row per rank.
func writeText(w io.Writer, r report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cmp := r.Comparison

	fmt.Fprintf(tw, "#\tVECTOR\tTEXT\n")
	rows := max(len(cmp.Vector.Books), len(cmp.Text.Books), 1)
	for i := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, cell(cmp.Vector, i), cell(cmp.Text, i))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Projection != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(tw, "ID\tX\tY\n")
		for _, p := range r.Projection.Points {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", p.ID, p.X, p.Y)
		}
		if a := r.Projection.Anchor; a != nil {
			fmt.Fprintf(tw, "(%s)\t%.4f\t%.4f\n", a.ID, a.X, a.Y)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if r.ProjectionError != "" {
		fmt.Fprintf(w, "\nprojection: %s\n", r.ProjectionError)
	}

	if r.Words != nil {
		fmt.Fprintf(w, "\nwords for %s (book %s): %d indexed, matched: %s\n",
			r.Words.ID, r.Words.CanonicalID, len(r.Words.Words), joinOrDash(r.Words.Matches))
	}
	if r.WordsError != "" {
		fmt.Fprintf(w, "\nwords: %s\n", r.WordsError)
	}
	return nil
}

// cell renders rank i of one engine. Non-succeeded engines show their status
// on the first row only.
func cell(res vecvstext.EngineResult, i int) string {
	switch res.Status {
	case vecvstext.StatusSucceeded:
		if len(res.Books) == 0 && i == 0 {
			return "(no results)"
		}
		if i >= len(res.Books) {
			return ""
		}
		b := res.Books[i]
		return fmt.Sprintf("%s [%s] %.3f", b.Title, b.ID, b.Score)
	case vecvstext.StatusFailed:
		if i == 0 {
			return res.Error
		}
	case vecvstext.StatusLoading:
		if i == 0 {
			return "(timed out)"
		}
	}
	return ""
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
