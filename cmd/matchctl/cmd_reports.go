package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/spf13/cobra"
)

var lostCmd = &cobra.Command{
	Use:   "lost",
	Short: "Manage lost-item reports",
}

var foundCmd = &cobra.Command{
	Use:   "found",
	Short: "Manage found-item reports",
}

var (
	lostReq    models.CreateLostItemRequest
	lostImage  string
	foundReq   models.CreateFoundItemRequest
	foundImage string
)

var lostAddCmd = &cobra.Command{
	Use:   "add",
	Short: "File a lost-item report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef(lostImage)
		if err != nil {
			return err
		}
		lostReq.Image = ref

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		item, err := newClient().CreateLostItem(ctx, lostReq)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lost item filed: %s\n", item.ID)
		return nil
	},
}

var lostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lost-item reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().ListLostItems(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tITEM\tOWNER\tLOST ON\tLOCATION")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.ItemName, item.Profile.FullName, item.DateLost, item.LastKnownLocation)
		}
		return w.Flush()
	},
}

var foundAddCmd = &cobra.Command{
	Use:   "add",
	Short: "File a found-item report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := imageRef(foundImage)
		if err != nil {
			return err
		}
		foundReq.Image = ref

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		item, err := newClient().CreateFoundItem(ctx, foundReq)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found item filed: %s\n", item.ID)
		return nil
	},
}

var foundListCmd = &cobra.Command{
	Use:   "list",
	Short: "List found-item reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		items, err := newClient().ListFoundItems(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tITEM\tFOUND ON\tLOCATION\tFINDER")
		for _, item := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.ItemName, item.DateFound, item.LocationFound, item.FinderName)
		}
		return w.Flush()
	},
}

func init() {
	f := lostAddCmd.Flags()
	f.StringVar(&lostReq.ItemName, "name", "", "item name")
	f.StringVar(&lostReq.Profile.FullName, "owner", "", "owner's full name")
	f.StringVar(&lostReq.Profile.SectionYear, "section", "", "owner's section and year")
	f.StringVar(&lostReq.Profile.ContactNumber, "contact", "", "owner's contact number")
	f.StringVar(&lostReq.DateLost, "date", "", "date lost (YYYY-MM-DD)")
	f.StringVar(&lostReq.LastKnownLocation, "location", "", "last known location")
	f.StringVar(&lostReq.Description, "description", "", "item description")
	f.StringVar(&lostImage, "image", "", "image file, URL or data URI")
	for _, name := range []string{"name", "owner", "section", "contact", "date", "location", "description", "image"} {
		_ = lostAddCmd.MarkFlagRequired(name)
	}

	f = foundAddCmd.Flags()
	f.StringVar(&foundReq.ItemName, "name", "", "item name")
	f.StringVar(&foundReq.DateFound, "date", "", "date found (YYYY-MM-DD)")
	f.StringVar(&foundReq.LocationFound, "location", "", "where the item was found")
	f.StringVar(&foundReq.Description, "description", "", "item description")
	f.StringVar(&foundReq.FinderName, "finder", "", "finder's name")
	f.StringVar(&foundReq.FinderContact, "finder-contact", "", "finder's contact")
	f.StringVar(&foundImage, "image", "", "image file, URL or data URI")
	for _, name := range []string{"name", "date", "location", "description", "image"} {
		_ = foundAddCmd.MarkFlagRequired(name)
	}

	lostCmd.AddCommand(lostAddCmd, lostListCmd)
	foundCmd.AddCommand(foundAddCmd, foundListCmd)
}
