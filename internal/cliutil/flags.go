package cliutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GetString returns a flag's value, falling back to viper and then to the
// TRACECHART_<FLAG> environment variable.
func GetString(cmd *cobra.Command, flag string) string {
	value, _ := cmd.Flags().GetString(flag)
	if value != "" {
		return value
	}

	value = viper.GetString(flag)
	if value != "" {
		return value
	}

	env := "TRACECHART_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
	return os.Getenv(env)
}

// ParseSeriesIDs parses series IDs given as repeated or comma-separated
// values, dropping duplicates.
func ParseSeriesIDs(values []string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid series id %q: %w", part, err)
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
