package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type datasetPayload struct {
	Name       string          `json:"name"`
	Definition json.RawMessage `json:"definition"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func newDatasetsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage registered datasets",
	}
	cmd.AddCommand(newDatasetsListCmd(client))
	cmd.AddCommand(newDatasetsRegisterCmd(client))
	cmd.AddCommand(newDatasetsGetCmd(client))
	cmd.AddCommand(newDatasetsDeleteCmd(client))
	return cmd
}

func newDatasetsListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Data []datasetPayload `json:"data"`
			}
			if err := client.Do(cmd.Context(), http.MethodGet, "/v1/datasets", nil, &resp); err != nil {
				return err
			}

			if outputFormat(cmd) == "json" {
				return printJSON(cmd, resp.Data)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tUPDATED")
			for _, ds := range resp.Data {
				fmt.Fprintf(w, "%s\t%s\n", ds.Name, ds.UpdatedAt)
			}
			return w.Flush()
		},
	}
}

func newDatasetsRegisterCmd(client *Client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a dataset from a JSON definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := os.ReadFile(file) //nolint:gosec // user-supplied path
			if err != nil {
				return fmt.Errorf("read definition: %w", err)
			}

			var resp struct {
				Message string `json:"message"`
			}
			path := "/v1/datasets/" + url.PathEscape(args[0])
			if err := client.Do(cmd.Context(), http.MethodPut, path, definition, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON dataset definition")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDatasetsGetCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a registered dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ds datasetPayload
			path := "/v1/datasets/" + url.PathEscape(args[0])
			if err := client.Do(cmd.Context(), http.MethodGet, path, nil, &ds); err != nil {
				return err
			}
			return printJSON(cmd, ds)
		},
	}
}

func newDatasetsDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Unregister a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/datasets/" + url.PathEscape(args[0])
			if err := client.Do(cmd.Context(), http.MethodDelete, path, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dataset '%s' deleted\n", args[0])
			return nil
		},
	}
}

func outputFormat(cmd *cobra.Command) string {
	output, _ := cmd.Root().PersistentFlags().GetString("output")
	return output
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
