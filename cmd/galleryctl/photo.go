package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var deletePhotoCmd = &cobra.Command{
	Use:   "delete-photo <photo-id> [photo-id...]",
	Short: "Delete photos and their stored objects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range ids {
			if err := a.svc.DeletePhoto(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete photo %d: %w", id, err)
			}
			fmt.Printf("Deleted photo %d\n", id)
		}
		return nil
	},
}

var purgeEmbeddingsCmd = &cobra.Command{
	Use:   "purge-embeddings <event-id>",
	Short: "Remove every face embedding of an event from the recognition service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		a, err := loadApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.svc.DeleteEventEmbeddings(cmd.Context(), ids[0]); err != nil {
			return err
		}
		fmt.Printf("Purged face embeddings of event %d\n", ids[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deletePhotoCmd)
	rootCmd.AddCommand(purgeEmbeddingsCmd)
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
