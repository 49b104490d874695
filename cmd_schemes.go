package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"themedmark/config"
	"themedmark/model"
	"themedmark/scheme"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "Manage highlight color schemes",
}

var schemesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the configured schemes with color swatches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		m, err := resolveMode(cmd)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), scheme.RenderSwatches(cfg.Schemes, m))
		return nil
	},
}

var schemesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, persister, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		s, err := registry.Add(model.ColorScheme{Name: args[0], LightColor: lightColor, DarkColor: darkColor})
		if err != nil {
			return err
		}
		if err := persister.Err(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully created the scheme %q\n", s.Name)
		return nil
	},
}

var schemesEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Change the colors of a scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, persister, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		s, err := registry.Find(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("light") {
			s.LightColor = lightColor
		}
		if cmd.Flags().Changed("dark") {
			s.DarkColor = darkColor
		}
		if s, err = registry.Update(s.ID, s); err != nil {
			return err
		}
		if err := persister.Err(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated the scheme %q\n", s.Name)
		return nil
	},
}

var schemesRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm", "delete"},
	Short:   "Delete a scheme",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, persister, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		s, err := registry.Find(args[0])
		if err != nil {
			return err
		}
		if _, err := registry.Delete(s.ID); err != nil {
			return err
		}
		if err := persister.Err(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted the scheme %q\n", s.Name)
		return nil
	},
}

var schemesImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Add or update schemes from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		in, err := scheme.ImportYAML(f)
		if err != nil {
			return err
		}
		registry, persister, err := openRegistry(cmd)
		if err != nil {
			return err
		}
		added, updated, err := registry.Merge(in)
		if err != nil {
			return err
		}
		if err := persister.Err(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new and %d updated schemes\n", added, updated)
		return nil
	},
}

var schemesExportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Write the schemes as YAML to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return scheme.ExportYAML(cmd.OutOrStdout(), cfg.Schemes)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		if err := scheme.ExportYAML(f, cfg.Schemes); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

// openRegistry loads the schemes for a one-shot change. Callers check the persister's
// Err, since the change is lost with the process if the save failed.
func openRegistry(cmd *cobra.Command) (*scheme.Registry, *config.Persister, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	registry, persister := newRegistry(cfg, logger)
	return registry, persister, nil
}

func init() {
	schemesListCmd.Flags().StringVar(&modeFlag, "mode", "", "Display mode to mark as current (default: detect from terminal)")
	for _, c := range []*cobra.Command{schemesAddCmd, schemesEditCmd} {
		c.Flags().StringVar(&lightColor, "light", "", "Color used in light mode, e.g. #ffeb3b")
		c.Flags().StringVar(&darkColor, "dark", "", "Color used in dark mode, e.g. #8d6e00")
	}
	_ = schemesAddCmd.MarkFlagRequired("light")
	_ = schemesAddCmd.MarkFlagRequired("dark")

	schemesCmd.AddCommand(schemesListCmd, schemesAddCmd, schemesEditCmd, schemesRemoveCmd, schemesImportCmd, schemesExportCmd)
}
