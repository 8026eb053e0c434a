package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kalambet/chartdeck/internal/api"
	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/config"
	"github.com/kalambet/chartdeck/internal/inspect"
	"github.com/kalambet/chartdeck/internal/storage"
	"github.com/kalambet/chartdeck/internal/store"
	"github.com/kalambet/chartdeck/internal/upload"
)

// --- upload ---

var uploadCmd = &cobra.Command{
	Use:   "upload <slot> <file>",
	Short: "Upload a .xlsx, .xls or .csv file into a dataset slot",
	Long: `Upload a spreadsheet into one of the four dataset slots.

Slots: combinedSources, officialFacebook, officialInstagram, keywords.

Examples:
  chartdeck upload keywords ./keywords.csv
  chartdeck upload officialInstagram ./instagram.xlsx`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		res, err := uploadFile(cmd.Context(), client, args[0], args[1])
		if err != nil {
			return err
		}
		printSuccess("Loaded %d rows into %s from %s", res.Rows, res.Slot.Label(), res.FileName)
		outf("Columns: %s\n", strings.Join(res.Columns, ", "))
		return nil
	},
}

func uploadFile(ctx context.Context, client *apiClient, slot, path string) (upload.Result, error) {
	resp, err := client.upload(ctx, "/datasets/"+url.PathEscape(slot), path)
	if err != nil {
		return upload.Result{}, err
	}
	var res upload.Result
	if err := decodeJSON(resp, &res); err != nil {
		return upload.Result{}, err
	}
	return res, nil
}

// --- datasets ---

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Inspect uploaded datasets",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dataset slots and their upload status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/datasets")
		if err != nil {
			return err
		}
		var infos []api.DatasetInfo
		if err := decodeJSON(resp, &infos); err != nil {
			return err
		}
		printDatasets(infos)
		return nil
	},
}

func printDatasets(infos []api.DatasetInfo) {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tSTATUS\tROWS\tFILE\tCOLUMNS")
	for _, ds := range infos {
		status := string(ds.Status)
		switch ds.Status {
		case store.StatusSuccess:
			status = colorize(colorGreen, status)
		case store.StatusError:
			status = colorize(colorRed, status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", ds.Label, status, ds.Rows, ds.FileName, strings.Join(ds.Columns, ", "))
	}
	tw.Flush()
}

var datasetsShowCmd = &cobra.Command{
	Use:   "show <slot>",
	Short: "Show the columns and first rows of a dataset as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/datasets/%s?limit=%d", url.PathEscape(args[0]), limit))
		if err != nil {
			return err
		}
		var detail api.DatasetDetail
		if err := decodeJSON(resp, &detail); err != nil {
			return err
		}
		return printJSON(detail)
	},
}

func init() {
	datasetsShowCmd.Flags().Int("limit", 20, "maximum number of rows to show")
	datasetsCmd.AddCommand(datasetsListCmd)
	datasetsCmd.AddCommand(datasetsShowCmd)
}

// --- charts ---

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Create and list report charts",
}

var chartsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a chart and append it to the report",
	Long: `Create a chart from an uploaded dataset.

Axes are column names or zero-based column indexes. Unset axes default to the
first and second column.

Examples:
  chartdeck charts add --slot keywords --x Month --y Sales --kind bar
  chartdeck charts add --slot officialInstagram --kind pie --filter 'Likes > 100'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, _ := cmd.Flags().GetString("slot")
		x, _ := cmd.Flags().GetString("x")
		y, _ := cmd.Flags().GetString("y")
		kind, _ := cmd.Flags().GetString("kind")
		filter, _ := cmd.Flags().GetString("filter")

		if slot == "" {
			return fmt.Errorf("--slot is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		def, err := addChart(cmd.Context(), client, chartRequest(slot, x, y, kind, filter))
		if err != nil {
			return err
		}
		printSuccess("Added chart %s: %s (%d points)", shortID(def.ID), def.Title, len(def.Data))
		return nil
	},
}

// chartRequest builds the POST /charts body; numeric axes are sent as indexes.
func chartRequest(slot, x, y, kind, filter string) map[string]any {
	req := map[string]any{"slot": slot}
	for key, val := range map[string]string{"x": x, "y": y} {
		if val == "" {
			continue
		}
		if i, err := strconv.Atoi(val); err == nil {
			req[key] = i
		} else {
			req[key] = val
		}
	}
	if kind != "" {
		req["kind"] = kind
	}
	if filter != "" {
		req["filter"] = filter
	}
	return req
}

func addChart(ctx context.Context, client *apiClient, req map[string]any) (chart.Definition, error) {
	resp, err := client.post(ctx, "/charts", req)
	if err != nil {
		return chart.Definition{}, err
	}
	var def chart.Definition
	if err := decodeJSON(resp, &def); err != nil {
		return chart.Definition{}, err
	}
	return def, nil
}

var chartsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the charts in the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/charts")
		if err != nil {
			return err
		}
		var charts []api.ChartInfo
		if err := decodeJSON(resp, &charts); err != nil {
			return err
		}
		if len(charts) == 0 {
			outf("No charts yet.\n")
			return nil
		}
		for _, c := range charts {
			outf("%s  %-4s  %s  [%s, %d points]\n",
				colorize(colorCyan, shortID(c.ID)), c.Type, c.Title, c.DatasetName.Label(), c.Points)
		}
		return nil
	},
}

func init() {
	chartsAddCmd.Flags().String("slot", "", "dataset slot")
	chartsAddCmd.Flags().String("x", "", "x axis column name or index")
	chartsAddCmd.Flags().String("y", "", "y axis column name or index")
	chartsAddCmd.Flags().String("kind", "bar", "chart kind: bar, line or pie")
	chartsAddCmd.Flags().String("filter", "", "row filter expression, e.g. 'Sales > 10'")
	chartsCmd.AddCommand(chartsAddCmd)
	chartsCmd.AddCommand(chartsListCmd)
}

// --- report ---

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show or update report metadata",
}

var reportShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show report title, date and charts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/report")
		if err != nil {
			return err
		}
		var rep store.Report
		if err := decodeJSON(resp, &rep); err != nil {
			return err
		}
		outf("%s\n", colorize(colorBold, rep.Title))
		outf("Date:   %s\n", rep.Date)
		outf("Charts: %d\n", len(rep.Charts))
		return nil
	},
}

var reportSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the report title and/or date",
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch store.ReportPatch
		if cmd.Flags().Changed("title") {
			title, _ := cmd.Flags().GetString("title")
			patch.Title = &title
		}
		if cmd.Flags().Changed("date") {
			date, _ := cmd.Flags().GetString("date")
			patch.Date = &date
		}
		if patch.Title == nil && patch.Date == nil {
			return fmt.Errorf("one of --title or --date is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.patch(cmd.Context(), "/report", patch)
		if err != nil {
			return err
		}
		var rep store.Report
		if err := decodeJSON(resp, &rep); err != nil {
			return err
		}
		printSuccess("Report: %s (%s)", rep.Title, rep.Date)
		return nil
	},
}

func init() {
	reportSetCmd.Flags().String("title", "", "report title")
	reportSetCmd.Flags().String("date", "", "report date")
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportSetCmd)
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the report as PDF or slides",
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Export the report as a PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		var req api.PDFRequest
		req.Title, _ = cmd.Flags().GetString("title")
		req.PageSize, _ = cmd.Flags().GetString("page-size")
		req.Orientation, _ = cmd.Flags().GetString("orientation")
		req.GroupByDataset, _ = cmd.Flags().GetBool("group-by-dataset")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		path, err := exportDocument(cmd.Context(), client, "/export/pdf", req, out)
		if err != nil {
			return err
		}
		printSuccess("Saved %s", path)
		return nil
	},
}

var exportSlidesCmd = &cobra.Command{
	Use:   "slides",
	Short: "Export the report as a PPTX slide deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		var req api.SlidesRequest
		req.FileName, _ = cmd.Flags().GetString("file-name")
		req.TableSlot, _ = cmd.Flags().GetString("table-slot")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		path, err := exportDocument(cmd.Context(), client, "/export/slides", req, out)
		if err != nil {
			return err
		}
		printSuccess("Saved %s", path)
		return nil
	},
}

func exportDocument(ctx context.Context, client *apiClient, path string, req any, out string) (string, error) {
	resp, err := client.post(ctx, path, req)
	if err != nil {
		return "", err
	}
	return saveAttachment(resp, out)
}

func init() {
	exportPDFCmd.Flags().String("out", "", "output file or directory (default: report title in the current directory)")
	exportPDFCmd.Flags().String("title", "", "title override")
	exportPDFCmd.Flags().String("page-size", "", "a4, letter or legal (default from config)")
	exportPDFCmd.Flags().String("orientation", "", "portrait or landscape (default from config)")
	exportPDFCmd.Flags().Bool("group-by-dataset", false, "start a new page for each dataset")

	exportSlidesCmd.Flags().String("out", "", "output file or directory")
	exportSlidesCmd.Flags().String("file-name", "", "deck file name (default DataReport.pptx)")
	exportSlidesCmd.Flags().String("table-slot", "", "dataset listed on the table slides (default from config)")

	exportCmd.AddCommand(exportPDFCmd)
	exportCmd.AddCommand(exportSlidesCmd)
}

// --- exports ---

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "Show export history",
}

var exportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent export attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), fmt.Sprintf("/exports?limit=%d", limit))
		if err != nil {
			return err
		}
		var records []storage.ExportRecord
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}
		if len(records) == 0 {
			outf("No exports found.\n")
			return nil
		}
		for _, r := range records {
			status := colorize(colorGreen, r.Status)
			if r.Status != storage.StatusSuccess {
				status = colorize(colorRed, r.Status)
			}
			outf("%s  %s  %-4s  %-7s  %s  %d charts  %d bytes\n",
				colorize(colorCyan, shortID(r.ID)),
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				r.Kind, status, r.FileName, r.ChartCount, r.SizeBytes)
		}
		return nil
	},
}

func init() {
	exportsListCmd.Flags().Int("limit", 20, "maximum number of exports to list")
	exportsCmd.AddCommand(exportsListCmd)
}

// --- clear ---

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all datasets and charts and reset the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/datasets")
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Cleared all datasets and charts")
		return nil
	},
}

// --- inspect ---

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.pdf>",
	Short: "Show page sizes, image counts and text of an exported PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := inspect.File(args[0])
		if err != nil {
			return err
		}
		printSummary(sum)
		return nil
	},
}

func printSummary(sum inspect.Summary) {
	outf("%s: %d page(s), %d image(s)\n", colorize(colorBold, "PDF"), len(sum.Pages), sum.Images())
	for _, p := range sum.Pages {
		text := strings.Join(strings.Fields(p.Text), " ")
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		outf("  page %d  %.1f x %.1f mm  %d image(s)  %s\n", p.Number, p.WidthMM, p.HeightMM, p.Images, text)
	}
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			outf("  %s = %s  (%s)\n", colorize(colorBold, k.Key), k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		if key == "api.token" {
			printSuccess("Stored %s in the secret store", key)
			return nil
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
