package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kagelump/vlog/internal/api"
	"github.com/kagelump/vlog/internal/catalog"
	"github.com/kagelump/vlog/internal/ipc"
	"github.com/kagelump/vlog/internal/services"
)

const descriptionPreviewLimit = 60

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the video catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))
	catalogCmd.AddCommand(newCatalogKeepCommand(ctx))
	catalogCmd.AddCommand(newCatalogStatsCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cataloged videos, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(client *ipc.Client, store *catalog.Catalog) error {
				var records []api.CatalogRecord
				if client != nil {
					resp, err := client.CatalogList()
					if err != nil {
						return err
					}
					records = resp.Records
				} else {
					recs, err := store.List(cmd.Context())
					if err != nil {
						return err
					}
					records = api.FromCatalogRecords(recs)
				}

				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}
				table := renderTable(
					[]string{"Filename", "Length", "Shot", "Keep", "Description"},
					buildCatalogListRows(records),
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <filename>",
		Short: "Show the full catalog entry for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := strings.TrimSpace(args[0])
			return ctx.withCatalog(func(client *ipc.Client, store *catalog.Catalog) error {
				var rec *api.CatalogRecord
				if client != nil {
					resp, err := client.CatalogList()
					if err != nil {
						return err
					}
					for i := range resp.Records {
						if resp.Records[i].Filename == filename {
							rec = &resp.Records[i]
							break
						}
					}
				} else {
					stored, err := store.Get(cmd.Context(), filename)
					if err != nil && !errors.Is(err, services.ErrNotFound) {
						return err
					}
					if stored != nil {
						converted := api.FromCatalogRecord(stored)
						rec = &converted
					}
				}

				if rec == nil {
					return fmt.Errorf("no catalog entry for %q", filename)
				}
				printCatalogRecord(cmd, rec)
				return nil
			})
		},
	}
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <filename>",
		Short: "Delete one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := strings.TrimSpace(args[0])
			return ctx.withCatalog(func(client *ipc.Client, store *catalog.Catalog) error {
				removed := false
				if client != nil {
					resp, err := client.CatalogRemove(filename)
					if err != nil {
						return err
					}
					removed = resp.Removed
				} else {
					ok, err := store.Remove(cmd.Context(), filename)
					if err != nil {
						return err
					}
					removed = ok
				}

				if !removed {
					return fmt.Errorf("no catalog entry for %q", filename)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the catalog\n", filename)
				return nil
			})
		},
	}
}

func newCatalogKeepCommand(ctx *commandContext) *cobra.Command {
	var discard bool
	cmd := &cobra.Command{
		Use:   "keep <filename>",
		Short: "Mark a video as kept (or discarded with --discard)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := strings.TrimSpace(args[0])
			keep := !discard
			return ctx.withCatalog(func(client *ipc.Client, store *catalog.Catalog) error {
				updated := false
				if client != nil {
					resp, err := client.CatalogKeep(filename, keep)
					if err != nil {
						return err
					}
					updated = resp.Updated
				} else {
					ok, err := store.SetKeep(cmd.Context(), filename, keep)
					if err != nil {
						return err
					}
					updated = ok
				}

				if !updated {
					return fmt.Errorf("no catalog entry for %q", filename)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s keep=%s\n", filename, yesNo(keep))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "Mark the video as discardable instead")
	return cmd
}

func newCatalogStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(client *ipc.Client, store *catalog.Catalog) error {
				var stats api.CatalogStats
				if client != nil {
					resp, err := client.CatalogStats()
					if err != nil {
						return err
					}
					stats = resp.Stats
				} else {
					summary, err := store.Summary(cmd.Context())
					if err != nil {
						return err
					}
					stats = api.CatalogStats{
						Total:        summary.Total,
						Kept:         summary.Kept,
						TotalSeconds: summary.TotalSeconds,
					}
				}

				table := renderTable(
					[]string{"Clips", "Kept", "Total Footage"},
					[][]string{{
						fmt.Sprintf("%d", stats.Total),
						fmt.Sprintf("%d", stats.Kept),
						formatFootage(stats.TotalSeconds),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func buildCatalogListRows(records []api.CatalogRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Filename,
			formatFootage(rec.VideoLengthSeconds),
			rec.ShotType,
			yesNo(rec.Keep),
			truncateText(rec.ShortDescription, descriptionPreviewLimit),
		})
	}
	return rows
}

func truncateText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func printCatalogRecord(cmd *cobra.Command, rec *api.CatalogRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filename:        %s\n", rec.Filename)
	fmt.Fprintf(out, "Length:          %s\n", formatFootage(rec.VideoLengthSeconds))
	if rec.VideoTimestamp != "" {
		fmt.Fprintf(out, "Recorded:        %s\n", rec.VideoTimestamp)
	}
	fmt.Fprintf(out, "Shot type:       %s\n", rec.ShotType)
	fmt.Fprintf(out, "Rating:          %.1f\n", rec.Rating)
	fmt.Fprintf(out, "Keep:            %s\n", yesNo(rec.Keep))
	if len(rec.Tags) > 0 {
		fmt.Fprintf(out, "Tags:            %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.SubtitlePath != "" {
		fmt.Fprintf(out, "Subtitles:       %s\n", rec.SubtitlePath)
	}
	if rec.ClassificationModel != "" {
		fmt.Fprintf(out, "Described by:    %s (%.1fs)\n", rec.ClassificationModel, rec.ClassificationSeconds)
	}
	if rec.ShortDescription != "" {
		fmt.Fprintf(out, "Summary:         %s\n", rec.ShortDescription)
	}
	if rec.Description != "" {
		fmt.Fprintf(out, "\n%s\n", rec.Description)
	}
}
