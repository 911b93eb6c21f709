package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/phpsniff/pkg/linter"
)

func newRulesCommand(g *globalOptions) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available lint rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadLintConfig(configFile, ".")
			if err != nil {
				return err
			}
			engine, err := newEngine(config, g.logger)
			if err != nil {
				return err
			}
			return listRules(cmd.OutOrStdout(), engine)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to lint config file (phpsniff.yaml)")
	return cmd
}

var categoryOrder = []linter.Category{
	linter.CategoryNaming,
	linter.CategoryStyle,
	linter.CategoryDocumentation,
	linter.CategoryStructure,
}

func listRules(w io.Writer, engine *linter.LintEngine) error {
	infos := engine.Describe()

	fmt.Fprintf(w, "Available lint rules (%d):\n\n", len(infos))

	// Group by category
	byCategory := make(map[linter.Category][]linter.RuleInfo)
	for _, info := range infos {
		byCategory[info.Category] = append(byCategory[info.Category], info)
	}

	for _, cat := range categoryOrder {
		rules := byCategory[cat]
		if len(rules) == 0 {
			continue
		}

		catName := string(cat)
		fmt.Fprintf(w, "%s Rules:\n", strings.ToUpper(catName[:1])+catName[1:])
		for _, info := range rules {
			state := ""
			if !info.Enabled {
				state = " [disabled]"
			}
			fmt.Fprintf(w, "  - %-25s [%s]%s\n    %s\n",
				info.Name,
				info.Severity,
				state,
				info.Description,
			)

			keys := make([]string, 0, len(info.Properties))
			for k := range info.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "    %s: %s\n", k, info.Properties[k])
			}
		}
		fmt.Fprintln(w)
	}

	return nil
}
