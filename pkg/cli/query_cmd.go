package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newQueryCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Compile and run semantic queries",
	}
	cmd.AddCommand(newQueryCompileCmd(client))
	cmd.AddCommand(newQueryExplainCmd(client))
	cmd.AddCommand(newQueryRunCmd(client))
	return cmd
}

// readQueryDocument loads the query JSON from --file, or from stdin when the
// flag is unset.
func readQueryDocument(cmd *cobra.Command, file string) ([]byte, error) {
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // user-supplied path
		if err != nil {
			return nil, fmt.Errorf("read query: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read query from stdin: %w", err)
	}
	return data, nil
}

func newQueryCompileCmd(client *Client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a semantic query to SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := readQueryDocument(cmd, file)
			if err != nil {
				return err
			}
			var resp struct {
				CompiledSQL string `json:"compiled_sql"`
			}
			if err := client.Do(cmd.Context(), http.MethodPost, "/v1/query/compile", query, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.CompiledSQL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON query document (default: stdin)")
	return cmd
}

func newQueryExplainCmd(client *Client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the compilation plan for a semantic query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := readQueryDocument(cmd, file)
			if err != nil {
				return err
			}
			var plan json.RawMessage
			if err := client.Do(cmd.Context(), http.MethodPost, "/v1/query/explain", query, &plan); err != nil {
				return err
			}
			return printJSON(cmd, plan)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON query document (default: stdin)")
	return cmd
}

func newQueryRunCmd(client *Client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compile and execute a semantic query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := readQueryDocument(cmd, file)
			if err != nil {
				return err
			}
			var resp struct {
				Plan struct {
					CompiledSQL string `json:"compiled_sql"`
				} `json:"plan"`
				Result struct {
					Columns  []string `json:"columns"`
					Rows     [][]any  `json:"rows"`
					RowCount int      `json:"row_count"`
				} `json:"result"`
			}
			if err := client.Do(cmd.Context(), http.MethodPost, "/v1/query/run", query, &resp); err != nil {
				return err
			}

			if outputFormat(cmd) == "json" {
				return printJSON(cmd, resp)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, col := range resp.Result.Columns {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, col)
			}
			fmt.Fprintln(w)
			for _, row := range resp.Result.Rows {
				for i, v := range row {
					if i > 0 {
						fmt.Fprint(w, "\t")
					}
					fmt.Fprintf(w, "%v", v)
				}
				fmt.Fprintln(w)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", resp.Result.RowCount)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the JSON query document (default: stdin)")
	return cmd
}
