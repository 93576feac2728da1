package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ossim/ossim/sim/workload"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between descriptor lines and YAML workload specs",
	Long:  "Convert descriptor line files and presets to YAML workload specs, or specs back to descriptor lines. Output is written to stdout for piping.",
}

// --- ossim convert text ---

var (
	textPath       string
	textPartitions []int64
)

var convertTextCmd = &cobra.Command{
	Use:   "text",
	Short: "Convert a descriptor line file to a YAML workload spec",
	Run: func(cmd *cobra.Command, args []string) {
		descriptors, err := workload.NewLoader().LoadDescriptors(context.Background(), textPath)
		if err != nil {
			logrus.Fatalf("Descriptor conversion failed: %v", err)
		}
		writeSpecToStdout(workload.NewWorkloadSpec(textPartitions, descriptors))
	},
}

// --- ossim convert preset ---

var (
	convertPresetName  string
	presetDefaultsPath string
)

var convertPresetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Convert a named workload preset to a YAML workload spec",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := loadPresetWorkload(presetDefaultsPath, convertPresetName)
		if err != nil {
			logrus.Fatalf("Preset conversion failed: %v", err)
		}
		writeSpecToStdout(spec)
	},
}

// --- ossim convert lines ---

var specPath string

var convertLinesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Convert a YAML workload spec to descriptor lines",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := workload.NewLoader().LoadWorkloadSpec(context.Background(), specPath)
		if err != nil {
			logrus.Fatalf("Spec conversion failed: %v", err)
		}
		if len(spec.Partitions) > 0 {
			logrus.Warnf("Partition layout %v is not representable in descriptor lines and is dropped", spec.Partitions)
		}
		if err := workload.FormatDescriptors(os.Stdout, spec.Descriptors()); err != nil {
			logrus.Fatalf("Writing descriptor lines failed: %v", err)
		}
	},
}

// writeSpecToStdout marshals a WorkloadSpec to YAML and writes to stdout.
func writeSpecToStdout(spec *workload.WorkloadSpec) {
	data, err := spec.Marshal()
	if err != nil {
		logrus.Fatalf("YAML marshal failed: %v", err)
	}
	fmt.Print(string(data))
}

func init() {
	convertTextCmd.Flags().StringVar(&textPath, "file", "", "Path or afs URL of the descriptor line file")
	convertTextCmd.Flags().Int64SliceVar(&textPartitions, "partitions", nil, "Optional partition layout to embed in the spec")
	_ = convertTextCmd.MarkFlagRequired("file")

	convertPresetCmd.Flags().StringVar(&convertPresetName, "name", "", "Preset name (e.g., memory-stall, round-robin, mixed)")
	convertPresetCmd.Flags().StringVar(&presetDefaultsPath, "defaults-filepath", "defaults.yaml", "Path to defaults.yaml")
	_ = convertPresetCmd.MarkFlagRequired("name")

	convertLinesCmd.Flags().StringVar(&specPath, "spec", "", "Path or afs URL of the YAML workload spec")
	_ = convertLinesCmd.MarkFlagRequired("spec")

	convertCmd.AddCommand(convertTextCmd)
	convertCmd.AddCommand(convertPresetCmd)
	convertCmd.AddCommand(convertLinesCmd)

	rootCmd.AddCommand(convertCmd)
}
