package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAttachmentsCommand(local *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachments",
		Aliases: []string{"attachment"},
		Short:   "Manage task attachments",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List the attachments of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.svc.ListAttachments(cc.Context(), args[0], page, size)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cc.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE")
			for _, a := range result.Content {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", a.ID, a.OriginalName, a.MimeType, a.Size)
			}
			w.Flush()
			fmt.Fprintf(cc.OutOrStdout(), "Page %d/%d, %d attachment(s) total\n",
				result.Number+1, max(result.TotalPages, 1), result.TotalElements)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	list.Flags().IntVar(&size, "size", 20, "Page size")

	upload := &cobra.Command{
		Use:   "upload <task-id> <file>",
		Short: "Upload a file as a task attachment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := e.svc.UploadAttachment(cc.Context(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cc.OutOrStdout(), "Uploaded %s (%d bytes) as %s\n", a.OriginalName, a.Size, a.ID)
			return nil
		},
	}

	var outPath string
	download := &cobra.Command{
		Use:   "download <attachment-id>",
		Short: "Download an attachment payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			d, err := e.svc.OpenAttachment(cc.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Content.Close()

			dest := outPath
			if dest == "" {
				dest = d.OriginalName
			}
			if dest == "" {
				dest = args[0]
			}

			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			n, err := io.Copy(f, d.Content)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cc.OutOrStdout(), "Saved %s (%d bytes)\n", dest, n)
			return nil
		},
	}
	download.Flags().StringVarP(&outPath, "output", "o", "", "Destination file (defaults to the attachment's name)")

	cmd.AddCommand(list, upload, download)
	return cmd
}
