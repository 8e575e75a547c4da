package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"briefcaster/internal/podcast"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(r podcast.BatchReport) string {
	summary := fmt.Sprintf("Users: %d  Successful: %d  Failed: %d  Skipped: %d",
		r.TotalUsers, r.Successful, r.Failed, r.Skipped)
	if len(r.Details) == 0 {
		return summary
	}
	return renderOutcomes(r.Details) + "\n" + summary
}

func renderOutcomes(outcomes []podcast.UserOutcome) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"User", "Status", "Podcast", "Topics", "Reason"})
	for _, o := range outcomes {
		podcastID := "-"
		if o.PodcastID != nil {
			podcastID = o.PodcastID.String()
		}
		topics := "-"
		if o.TopicsCount > 0 {
			topics = strconv.Itoa(o.TopicsCount)
		}
		tw.AppendRow(table.Row{o.UserID.String(), o.Status, podcastID, topics, o.Reason})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
