package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/internal/render"
)

// Output formats accepted by --format.
var planFormats = []string{"table", "csv", "json", "geojson", "scatter", "xlsx", "shp", "markdown"}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Filter, score and recommend deployment regions",
	Long: "Runs one planning pass. Request values come from config defaults, then --request " +
		"(a YAML or JSON file), then explicitly set flags.",
	Example: "  planner plan --budget 150 --priority-area Urban --signal-min -90 --format json",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		req, err := buildPlanRequest(flags, cfg.Planner.Request())
		if err != nil {
			return err
		}

		format, _ := flags.GetString("format")
		output, _ := flags.GetString("output")
		datasetLoc, _ := flags.GetString("dataset")

		if !validFormat(format) {
			return eris.Errorf("plan: unknown format %q (want one of %s)", format, strings.Join(planFormats, ", "))
		}
		if format == "shp" && output == "" {
			return eris.New("plan: --output is required for shp format")
		}

		env, err := initPlanner(ctx, prometheus.NewRegistry(), datasetLoc)
		if err != nil {
			return err
		}
		defer env.Close()

		plan, err := env.Planner.Plan(ctx, req)
		if err != nil {
			return eris.Wrap(err, "plan")
		}

		if format == "shp" {
			return render.Shapefile(output, plan)
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return eris.Wrapf(err, "plan: create %s", output)
			}
			defer f.Close() //nolint:errcheck
			w = f
		}
		return writePlan(w, format, plan)
	},
}

func validFormat(format string) bool {
	for _, f := range planFormats {
		if f == format {
			return true
		}
	}
	return false
}

func writePlan(w io.Writer, format string, plan *model.Plan) error {
	switch format {
	case "csv":
		return render.CSV(w, plan)
	case "json":
		return render.JSON(w, plan)
	case "geojson":
		return render.JSON(w, render.Map(plan))
	case "scatter":
		return render.JSON(w, render.Scatter(plan))
	case "xlsx":
		return render.XLSX(w, plan)
	case "markdown":
		return render.Markdown(w, plan)
	default:
		return render.Table(w, plan)
	}
}

// buildPlanRequest layers the --request file and any changed flags over
// defaults.
func buildPlanRequest(flags *pflag.FlagSet, defaults model.PlanRequest) (model.PlanRequest, error) {
	req := defaults

	if path, _ := flags.GetString("request"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, eris.Wrapf(err, "plan: read request %s", path)
		}
		// YAML is a superset of JSON, so one decoder handles both.
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, eris.Wrapf(err, "plan: parse request %s", filepath.Base(path))
		}
	}

	if flags.Changed("seed") {
		req.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("budget") {
		req.BudgetMaxKUSD, _ = flags.GetInt("budget")
	}
	if flags.Changed("priority-area") {
		area, _ := flags.GetString("priority-area")
		req.PriorityArea = model.PriorityArea(area)
	}
	if flags.Changed("signal-min") {
		req.SignalMinDBM, _ = flags.GetInt("signal-min")
	}
	if flags.Changed("terrain-weight") {
		req.Terrain, _ = flags.GetFloat64("terrain-weight")
	}
	if flags.Changed("cost-weight") {
		req.Cost, _ = flags.GetFloat64("cost-weight")
	}
	if flags.Changed("climate-weight") {
		req.ClimateRisk, _ = flags.GetFloat64("climate-weight")
	}
	if flags.Changed("locations") {
		req.IncludeLocationNames, _ = flags.GetBool("locations")
	}
	return req, nil
}

// registerPlanFlags defines the plan flags on f.
func registerPlanFlags(f *pflag.FlagSet) {
	f.Int64("seed", 42, "dataset generator seed")
	f.Int("budget", 10, "maximum cost per region in $1000s")
	f.String("priority-area", "Rural", "priority area: Rural, Urban or Suburban")
	f.Int("signal-min", -80, "minimum signal strength in dBm (-120 to -30)")
	f.Float64("terrain-weight", 0.5, "terrain difficulty weight")
	f.Float64("cost-weight", 0.5, "cost weight")
	f.Float64("climate-weight", 0.5, "climate risk weight")
	f.Bool("locations", true, "reverse geocode location names for filtered regions")
	f.String("request", "", "YAML or JSON plan request file")
	f.String("dataset", "", "CSV, JSON or XLSX region dataset path or URL (default: generated)")
	f.String("format", "table", "output format: "+strings.Join(planFormats, ", "))
	f.StringP("output", "o", "", "write output to a file instead of stdout")
}

func init() {
	registerPlanFlags(planCmd.Flags())
	rootCmd.AddCommand(planCmd)
}
