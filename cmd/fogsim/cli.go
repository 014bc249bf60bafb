package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/iti/fogsim"
	"github.com/iti/fogsim/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "fogsim",
	Short: "Device/fog/cloud task offloading simulator",
	Long: `fogsim runs discrete-event simulations of task offloading policies over a
three-tier topology of devices, fog nodes and cloud nodes.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs one simulation",
	RunE:  runSimulation,
}

var gmlCmd = &cobra.Command{
	Use:   "gml <graph.gml>",
	Short: "Builds a topology description from a GML graph",
	Args:  cobra.ExactArgs(1),
	RunE:  convertGML,
}

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Lists the offloading policies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range fogsim.PolicyNames() {
			fmt.Println(name)
		}
	},
}

var configFile, gmlOut string

func Init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default fogsim-conf in /etc/fogsim, $HOME or .)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	bindFlag(rootCmd.PersistentFlags().Lookup("log-level"), config.LOG_LEVEL)

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("run", "r", "", "run configuration file (yaml or json); defaults apply if omitted")
	runCmd.Flags().StringP("topo", "t", "", "topology description file (yaml or json)")
	runCmd.Flags().StringP("policy", "p", "", "policy, overriding the run file: "+strings.Join(fogsim.PolicyNames(), ", "))
	runCmd.Flags().Int("requests", 0, "requests issued by every application")
	runCmd.Flags().Int("warmup", 0, "tasks per application left out of the statistics")
	runCmd.Flags().Float64("alpha", 0.5, "weight of the local queue in admission mixing")
	runCmd.Flags().String("discipline", "fifo", "queue discipline: fifo or lifo")
	runCmd.Flags().Int("fault-count", 0, "number of fog nodes failed during the fault window")
	runCmd.Flags().String("report", "", "report output file (yaml or json)")
	runCmd.Flags().String("trace", "", "per-task trace output file (yaml or json); enables tracing")
	runCmd.Flags().String("metrics", "", "metrics output file (prometheus text format)")
	bindFlag(runCmd.Flags().Lookup("run"), config.RUN_FILE)
	bindFlag(runCmd.Flags().Lookup("topo"), config.TOPO_FILE)
	bindFlag(runCmd.Flags().Lookup("policy"), config.RUN_POLICY)
	bindFlag(runCmd.Flags().Lookup("requests"), config.RUN_REQUESTS)
	bindFlag(runCmd.Flags().Lookup("warmup"), config.RUN_WARMUP)
	bindFlag(runCmd.Flags().Lookup("alpha"), config.RUN_ALPHA)
	bindFlag(runCmd.Flags().Lookup("discipline"), config.RUN_DISCIPLINE)
	bindFlag(runCmd.Flags().Lookup("fault-count"), config.FAULT_COUNT)
	bindFlag(runCmd.Flags().Lookup("report"), config.REPORT_FILE)
	bindFlag(runCmd.Flags().Lookup("trace"), config.TRACE_FILE)
	bindFlag(runCmd.Flags().Lookup("metrics"), config.METRICS_FILE)

	rootCmd.AddCommand(gmlCmd)
	gmlCmd.Flags().StringVarP(&gmlOut, "out", "o", "", "topology description output file (yaml or json)")
	gmlCmd.Flags().Int("fog-capacity", 16, "capacity of every fog node")
	gmlCmd.Flags().Int("cloud-capacity", 100, "capacity of every cloud node")
	gmlCmd.Flags().Float64("bandwidth", 1000.0, "bandwidth of the links between fogs")
	bindFlag(gmlCmd.Flags().Lookup("fog-capacity"), config.GML_FOG_CAPACITY)
	bindFlag(gmlCmd.Flags().Lookup("cloud-capacity"), config.GML_CLOUD_CAPACITY)
	bindFlag(gmlCmd.Flags().Lookup("bandwidth"), config.GML_BANDWIDTH)

	rootCmd.AddCommand(policiesCmd)

	cobra.OnInitialize(func() {
		if err := config.ReadConfiguration(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "config file parsing failed: %v\n", err)
			os.Exit(1)
		}
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func newLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "fogsim",
		Level:  hclog.LevelFromString(config.GetString(config.LOG_LEVEL, "info")),
		Output: os.Stderr,
	})
}

// runCfgFromConfig reads the run file, if any, and applies the overrides set
// by flags, the environment or the configuration file
func runCfgFromConfig() (*fogsim.RunCfg, error) {
	rc := fogsim.DefaultRunCfg()
	runFile := config.GetString(config.RUN_FILE, "")
	if runFile != "" {
		useYAML, err := fogsim.UseYAML(runFile)
		if err != nil {
			return nil, err
		}
		rc, err = fogsim.ReadRunCfg(runFile, useYAML, []byte{})
		if err != nil {
			return nil, err
		}
	}

	rc.Policy = config.GetString(config.RUN_POLICY, rc.Policy)
	rc.TotalRequests = config.GetInt(config.RUN_REQUESTS, rc.TotalRequests)
	rc.Warmup = config.GetInt(config.RUN_WARMUP, rc.Warmup)
	rc.Alpha = config.GetFloat(config.RUN_ALPHA, rc.Alpha)
	rc.Discipline = config.GetString(config.RUN_DISCIPLINE, rc.Discipline)
	rc.Fault.Count = config.GetInt(config.FAULT_COUNT, rc.Fault.Count)
	rc.Trace = config.GetBool(config.TRACE_ENABLED, rc.Trace) || config.GetString(config.TRACE_FILE, "") != ""
	return rc, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	topoFile := config.GetString(config.TOPO_FILE, "")
	if topoFile == "" {
		return fmt.Errorf("a topology description is needed (--topo or %s)", config.TOPO_FILE)
	}
	rc, err := runCfgFromConfig()
	if err != nil {
		return err
	}
	useYAML, err := fogsim.UseYAML(topoFile)
	if err != nil {
		return err
	}
	tc, err := fogsim.ReadTopoCfg(topoFile, useYAML, []byte{})
	if err != nil {
		return err
	}

	sim, err := fogsim.BuildSimulation(rc, tc, logger)
	if err != nil {
		return err
	}
	if err := sim.Run(); err != nil {
		return err
	}
	rpt, err := sim.Report()
	if err != nil {
		return err
	}

	fmt.Printf("run %s  policy %s  tasks %d  probes %d\n", rpt.RunID, rpt.Policy, rpt.Tasks, rpt.Probes)
	fmt.Printf("mean response %.6f over %d tasks (%d penalized)\n", rpt.Response.Mean, rpt.Response.Obs, rpt.Penalized)
	for _, tr := range rpt.Tiers {
		fmt.Printf("  %-6s %6d  %6.2f%%  mean %.6f\n", tr.Tier, tr.Count, tr.Percent, tr.Response.Mean)
	}

	return sim.WriteOutputs(config.GetString(config.REPORT_FILE, ""), config.GetString(config.TRACE_FILE, ""),
		config.GetString(config.METRICS_FILE, ""))
}

func convertGML(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	gg, err := fogsim.ReadGML(args[0], []byte{})
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	tc, err := fogsim.TopoCfgFromGML(name, gg, config.GetInt(config.GML_FOG_CAPACITY, 16),
		config.GetInt(config.GML_CLOUD_CAPACITY, 100), config.GetFloat(config.GML_BANDWIDTH, 1000.0))
	if err != nil {
		return err
	}

	summary := fogsim.SummarizeGML(gg)
	if summary.Components > 1 {
		logger.Warn("graph is not connected", "graph", name, "components", summary.Components)
	}
	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	if gmlOut == "" {
		return nil
	}
	if _, err := fogsim.CheckOutputFiles([]string{gmlOut}); err != nil {
		return err
	}
	logger.Info("writing topology", "file", gmlOut, "fogs", summary.Fogs, "clouds", summary.Clouds,
		"devices", summary.Devices)
	return tc.WriteToFile(gmlOut)
}
