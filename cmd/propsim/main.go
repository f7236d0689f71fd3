package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/engine"
	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/integrators"
	"github.com/avrek/propsim/internal/logging"
	"github.com/avrek/propsim/internal/propagation"
	"github.com/avrek/propsim/internal/storage"
	"github.com/avrek/propsim/internal/viz"
)

var (
	dataDir  string
	dt       float64
	refEpoch float64
	stepper  string
	runName  string
	verbose  bool
	// plot column selection
	column string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "propsim",
		Short: "declarative multi-body state propagation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".propsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "decode a propagation setup and report problems",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}
	validateCmd.Flags().Float64Var(&refEpoch, "epoch", math.NaN(), "reference epoch for ephemeris lookups")

	showCmd := &cobra.Command{
		Use:   "show [config]",
		Short: "print the fully resolved setup",
		Args:  cobra.ExactArgs(1),
		RunE:  showConfig,
	}
	showCmd.Flags().Float64Var(&refEpoch, "epoch", math.NaN(), "reference epoch for ephemeris lookups")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "propagate a setup and persist the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPropagation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 10.0, "integration step, seconds")
	runCmd.Flags().Float64Var(&refEpoch, "epoch", math.NaN(), "reference epoch for ephemeris lookups")
	runCmd.Flags().StringVar(&stepper, "stepper", "rk4", "integrator (rk4, euler)")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the config file name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "plot a single named column (x0.. or a variable id)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live [config]",
		Short: "propagate with a live trajectory view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", 10.0, "integration step, seconds")
	liveCmd.Flags().Float64Var(&refEpoch, "epoch", math.NaN(), "reference epoch for ephemeris lookups")
	liveCmd.Flags().StringVar(&stepper, "stepper", "rk4", "integrator (rk4, euler)")

	rootCmd.AddCommand(validateCmd, showCmd, runCmd, listCmd, plotCmd, exportCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func logger() *slog.Logger {
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}

// decodeFile loads a configuration document and decodes it against the
// builtin ephemeris. The returned tree has resolved initial states.
func decodeFile(path string) (confnode.Map, *propagation.MultiTypeSettings, error) {
	root, err := confnode.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	decoder := propagation.NewDecoder(ephemeris.Builtin(), refEpoch)
	decoder.Log = logger()
	settings, err := decoder.Decode(root)
	if err != nil {
		return nil, nil, err
	}
	exports, err := propagation.DecodeExports(root)
	if err != nil {
		return nil, nil, err
	}
	settings.ApplyExports(exports)
	return root, settings, nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	_, settings, err := decodeFile(args[0])
	if err != nil {
		fmt.Println(viz.StatusError.Render("invalid") + " " + args[0])
		return err
	}

	fmt.Println(viz.StatusOK.Render("valid") + " " + args[0])
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tBODIES\tALGORITHM")
	for _, arc := range settings.Propagators {
		algorithm := "-"
		if translational, ok := arc.(*propagation.TranslationalStateSettings); ok {
			algorithm = string(translational.Propagator)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", arc.StateType(), strings.Join(arc.Bodies(), ","), algorithm)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ntermination: %s\n", describeTermination(settings.Termination))
	if epoch := propagation.NearestFixedEpoch(settings.Termination); !math.IsNaN(epoch) {
		fmt.Printf("time bound: %.1f s\n", epoch)
	}
	if !math.IsNaN(settings.PrintInterval) {
		fmt.Printf("print interval: %.1f s\n", settings.PrintInterval)
	}
	if len(settings.SaveVariables) > 0 {
		ids := make([]string, len(settings.SaveVariables))
		for i, v := range settings.SaveVariables {
			ids[i] = v.ID()
		}
		fmt.Printf("saved variables: %s\n", strings.Join(ids, ", "))
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	_, settings, err := decodeFile(args[0])
	if err != nil {
		return err
	}
	encoded, err := propagation.EncodeSettings(settings)
	if err != nil {
		return err
	}
	data, err := encoded.ToYAML()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func describeTermination(cond propagation.TerminationSettings) string {
	switch c := cond.(type) {
	case *propagation.TimeTermination:
		return fmt.Sprintf("epoch >= %.1f", c.Epoch)
	case *propagation.VariableTermination:
		op := ">="
		if c.UseAsLowerLimit {
			op = "<="
		}
		return fmt.Sprintf("%s %s %.1f", c.Variable.ID(), op, c.Limit)
	case *propagation.HybridTermination:
		parts := make([]string, len(c.Conditions))
		for i, child := range c.Conditions {
			parts[i] = describeTermination(child)
		}
		mode := "all"
		if c.FulfillAny {
			mode = "any"
		}
		return fmt.Sprintf("%s(%s)", mode, strings.Join(parts, "; "))
	}
	return "none"
}

func chooseStepper(name string) (engine.Stepper, error) {
	switch name {
	case "rk4":
		return integrators.NewRK4(), nil
	case "euler":
		return integrators.NewEuler(), nil
	}
	return nil, fmt.Errorf("unknown stepper: %s (available: rk4, euler)", name)
}

func runPropagation(cmd *cobra.Command, args []string) error {
	root, settings, err := decodeFile(args[0])
	if err != nil {
		return err
	}
	step, err := chooseStepper(stepper)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	prop, err := engine.New(settings, ephemeris.Builtin(), step, dt)
	if err != nil {
		return err
	}
	prop.Log = logger()

	name := runName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	fmt.Printf("propagating %s...\n", name)
	start := time.Now()

	result, err := prop.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	bodies := []string{}
	for _, arc := range settings.Propagators {
		bodies = append(bodies, arc.Bodies()...)
	}
	varIDs := make([]string, len(settings.SaveVariables))
	for i, v := range settings.SaveVariables {
		varIDs[i] = v.ID()
	}

	runID, err := st.Save(storage.RunMetadata{
		Name:      name,
		Dt:        dt,
		Stepper:   stepper,
		Bodies:    bodies,
		Variables: varIDs,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Printf("final epoch: %.1f s\n", result.Epochs[len(result.Epochs)-1])

	exports, err := propagation.DecodeExports(root)
	if err != nil {
		return err
	}
	for _, spec := range exports {
		if err := writeExport(spec, result); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", spec.File)
	}
	return nil
}

// writeExport assembles one export block's columns from the run output.
func writeExport(spec propagation.ExportSettings, result *engine.Result) error {
	columns := []string{}
	series := [][]float64{}

	addColumn := func(name string, values []float64) {
		columns = append(columns, name)
		series = append(series, values)
	}

	if spec.EpochsInFirstColumn {
		addColumn("epoch", result.Epochs)
	}
	for _, v := range spec.Variables {
		switch variable := v.(type) {
		case propagation.EpochVariable:
			if !spec.EpochsInFirstColumn {
				addColumn("epoch", result.Epochs)
			}
		case propagation.StateVariable:
			if len(result.States) == 0 {
				continue
			}
			for i := range result.States[0] {
				values := make([]float64, len(result.States))
				for j := range result.States {
					values[j] = result.States[j][i]
				}
				addColumn(fmt.Sprintf("x%d", i), values)
			}
		case propagation.DependentVariable:
			addColumn(variable.ID(), result.Variables[variable.ID()])
		}
	}

	rows := make([][]float64, len(result.Epochs))
	for i := range rows {
		row := make([]float64, len(columns))
		for j, s := range series {
			if i < len(s) {
				row[j] = s[i]
			}
		}
		rows[i] = row
	}
	return storage.WriteSeries(spec.File, spec.Header, columns, rows)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tBODIES\tSTEPS\tDT\tSTEPPER")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2fs\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(run.Bodies, ","),
			run.Steps,
			run.Dt,
			run.Stepper,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	captions := make([]string, 0, len(rows[0]))
	for i := 0; i < meta.StateLength; i++ {
		captions = append(captions, fmt.Sprintf("x%d", i))
	}
	captions = append(captions, meta.Variables...)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(rows))

	selected := make([]int, 0, len(captions))
	if column != "" {
		for i, caption := range captions {
			if caption == column {
				selected = append(selected, i)
			}
		}
		if len(selected) == 0 {
			return fmt.Errorf("unknown column %q (available: %s)", column, strings.Join(captions, ", "))
		}
	} else {
		limit := len(captions)
		if limit > 6 {
			limit = 6
		}
		for i := 0; i < limit; i++ {
			selected = append(selected, i)
		}
	}

	for _, idx := range selected {
		data := make([]float64, len(rows))
		for i := range rows {
			if idx < len(rows[i]) {
				data[i] = rows[i][idx]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(captions[idx]+" vs epoch"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runLive(cmd *cobra.Command, args []string) error {
	_, settings, err := decodeFile(args[0])
	if err != nil {
		return err
	}
	step, err := chooseStepper(stepper)
	if err != nil {
		return err
	}

	prop, err := engine.New(settings, ephemeris.Builtin(), step, dt)
	if err != nil {
		return err
	}

	// find the first translational block to draw
	offset := 0
	body := ""
	for _, arc := range settings.Propagators {
		if arc.StateType() == propagation.StateTranslational {
			body = arc.Bodies()[0]
			break
		}
		offset += arc.StateType().BlockSize() * len(arc.Bodies())
	}
	if body == "" {
		return fmt.Errorf("no translational propagator to draw")
	}

	session, err := prop.Session()
	if err != nil {
		return err
	}

	m := viz.NewModel(session, body, offset)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
