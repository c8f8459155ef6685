package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rubytessa/shrubification-model/internal/canopy"
	"github.com/rubytessa/shrubification-model/internal/config"
	"github.com/rubytessa/shrubification-model/internal/dynamics"
	"github.com/rubytessa/shrubification-model/internal/growth"
	"github.com/rubytessa/shrubification-model/internal/integrators"
	"github.com/rubytessa/shrubification-model/internal/montecarlo"
	"github.com/rubytessa/shrubification-model/internal/ramet"
	"github.com/rubytessa/shrubification-model/internal/store"
	"github.com/rubytessa/shrubification-model/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	heights []float64
	us      []float64

	dt        float64
	duration  float64
	tolerance float64
	initDens  float64

	iterations int
	species    int
	bins       int
	axis       string
	traitMin   float64
	traitMax   float64
	seed       int64
	workers    int

	jsonOut bool
	noSave  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shrubsim",
		Short: "light-competition equilibria and dynamics for ramet communities",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".shrubsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset scenario")
	rootCmd.PersistentFlags().BoolVar(&noSave, "no-save", false, "skip writing run output")

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium",
		Short: "solve per-species equilibrium densities",
		RunE:  runEquilibrium,
	}
	equilibriumCmd.Flags().Float64SliceVar(&heights, "heights", nil, "species canopy heights")
	equilibriumCmd.Flags().Float64SliceVar(&us, "u", nil, "species light requirements (alternative to heights)")
	equilibriumCmd.Flags().BoolVar(&jsonOut, "json", false, "print table as JSON to stdout")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "integrate the community ODE forward in time",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64SliceVar(&heights, "heights", nil, "species canopy heights")
	simulateCmd.Flags().Float64SliceVar(&us, "u", nil, "species light requirements (alternative to heights)")
	simulateCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "initial timestep")
	simulateCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	simulateCmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "adaptive step tolerance")
	simulateCmd.Flags().Float64Var(&initDens, "init", config.DefaultDensity, "initial density per species")

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "batch equilibrium solves over random trait draws",
		RunE:  runMonteCarlo,
	}
	montecarloCmd.Flags().IntVar(&iterations, "iter", config.DefaultIterations, "number of iterations")
	montecarloCmd.Flags().IntVar(&species, "species", config.DefaultSpecies, "species per iteration")
	montecarloCmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "trait bins for the summary")
	montecarloCmd.Flags().StringVar(&axis, "axis", "height", "trait axis to draw (height|u)")
	montecarloCmd.Flags().Float64Var(&traitMin, "min", 0.8, "trait draw minimum")
	montecarloCmd.Flags().Float64Var(&traitMax, "max", 2.7, "trait draw maximum")
	montecarloCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	montecarloCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = NumCPU)")

	traitsCmd := &cobra.Command{
		Use:   "traits",
		Short: "print derived per-species rates",
		RunE:  runTraits,
	}
	traitsCmd.Flags().Float64SliceVar(&heights, "heights", nil, "species canopy heights")
	traitsCmd.Flags().Float64SliceVar(&us, "u", nil, "species light requirements (alternative to heights)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(equilibriumCmd, simulateCmd, montecarloCmd, traitsCmd, listCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, then config file, then built-in defaults.
func loadConfig() (*config.Config, error) {
	if preset != "" {
		cfg := config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		return cfg, nil
	}
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.DefaultConfig(), nil
}

// buildCommunity derives the community from CLI flags when given, the
// resolved config otherwise.
func buildCommunity(cfg *config.Config) (*ramet.Community, error) {
	consts := ramet.Constants{
		A:    cfg.Constants.A,
		R:    cfg.Constants.R,
		B:    cfg.Constants.B,
		Beta: cfg.Constants.Beta,
		M:    cfg.Constants.M,
		K:    cfg.Constants.K,
	}
	d, err := ramet.NewDeriver(consts)
	if err != nil {
		return nil, err
	}
	if len(cfg.Constants.CaptureOverrides) > 0 {
		d = d.WithCapture(cfg.Constants.CaptureOverrides)
	}

	hs := heights
	uvals := us
	if len(hs) == 0 && len(uvals) == 0 {
		hs = cfg.Traits.Heights
		uvals = cfg.Traits.LightRequirements
	}

	switch {
	case len(hs) > 0 && len(uvals) > 0:
		return nil, fmt.Errorf("give either heights or light requirements, not both")
	case len(hs) > 0:
		return d.FromHeights(hs)
	case len(uvals) > 0:
		return d.FromLightRequirements(uvals)
	default:
		return nil, fmt.Errorf("no species: set --heights or --u, or a config file")
	}
}

func openStore() (*store.Store, error) {
	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	community, err := buildCommunity(cfg)
	if err != nil {
		return err
	}

	table, err := canopy.NewSolver().Solve(community)
	if err != nil {
		return err
	}

	if jsonOut {
		if err := store.ExportEquilibriumJSON(os.Stdout, table, community.LightAboveTotal); err != nil {
			return err
		}
	} else {
		fmt.Println(viz.RenderEquilibrium(table))
	}

	for _, warn := range table.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warn)
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := st.SaveEquilibrium(table)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved: %s\n", runID)
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("dt") {
		dt = cfg.Sim.Dt
	}
	if !cmd.Flags().Changed("time") {
		duration = cfg.Sim.Duration
	}
	if !cmd.Flags().Changed("tolerance") {
		tolerance = cfg.Sim.Tolerance
	}
	if !cmd.Flags().Changed("init") {
		initDens = cfg.Sim.InitialDensity
	}

	community, err := buildCommunity(cfg)
	if err != nil {
		return err
	}

	sys := growth.NewRametSystem(community)
	sim := dynamics.New(sys, integrators.NewRK45())

	simCfg := dynamics.DefaultConfig()
	simCfg.Dt = dt
	simCfg.Duration = duration
	simCfg.Tolerance = tolerance
	if cfg.Sim.MaxDt > 0 {
		simCfg.MaxDt = cfg.Sim.MaxDt
	}

	y0 := make(dynamics.State, community.Len())
	for i := range y0 {
		y0[i] = initDens
	}

	result, runErr := sim.Run(context.Background(), y0, simCfg)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "integration aborted: %v\n", runErr)
	}
	if result == nil || len(result.States) == 0 {
		return runErr
	}

	fmt.Println(viz.PlotTrajectory(result, 15))
	final := result.Final()
	fmt.Printf("\nfinal densities at t=%.1f:\n", result.Times[len(result.Times)-1])
	for i, sp := range community.Species {
		fmt.Printf("  species %d (h=%.3f): %.4f\n", sp.ID, sp.Height, final[i])
	}

	if noSave {
		return runErr
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := st.SaveTrajectory(result, 0, duration)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved: %s\n", runID)
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mcCfg := montecarlo.Config{
		Iterations: iterations,
		Species:    species,
		Axis:       montecarlo.TraitAxis(axis),
		Min:        traitMin,
		Max:        traitMax,
		Bins:       bins,
		Seed:       seed,
		Workers:    workers,
		Constants: ramet.Constants{
			A:    cfg.Constants.A,
			R:    cfg.Constants.R,
			B:    cfg.Constants.B,
			Beta: cfg.Constants.Beta,
			M:    cfg.Constants.M,
			K:    cfg.Constants.K,
		},
	}
	if configFile != "" && !cmd.Flags().Changed("iter") {
		mcCfg.Iterations = cfg.MonteCarlo.Iterations
		mcCfg.Species = cfg.MonteCarlo.Species
		mcCfg.Axis = montecarlo.TraitAxis(cfg.MonteCarlo.Axis)
		mcCfg.Min = cfg.MonteCarlo.Min
		mcCfg.Max = cfg.MonteCarlo.Max
		mcCfg.Bins = cfg.MonteCarlo.Bins
		mcCfg.Seed = cfg.MonteCarlo.Seed
		mcCfg.Workers = cfg.MonteCarlo.Workers
	}

	runner, err := montecarlo.NewRunner(mcCfg)
	if err != nil {
		return err
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Println(viz.PlotBins(result.Bins, 12))
	fmt.Printf("\n%d iterations x %d species, %d bracket failure(s)\n",
		mcCfg.Iterations, mcCfg.Species, result.BracketFailures)

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := st.SaveMonteCarlo(result, mcCfg.Seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved: %s\n", runID)
	return nil
}

func runTraits(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	community, err := buildCommunity(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\theight\tbiomass\tfecundity\tmortality\tk\tu")
	for _, sp := range community.Species {
		fmt.Fprintf(w, "%d\t%.3f\t%.4f\t%.6f\t%.6f\t%.2f\t%.4f\n",
			sp.ID, sp.Height, sp.Biomass, sp.Fecundity, sp.Mortality,
			sp.LightCapture, sp.LightRequirement)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tkind\ttimestamp\tspecies\twarnings")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Kind, r.Timestamp.Format("2006-01-02 15:04:05"), r.Species, r.Warnings)
	}
	return w.Flush()
}
