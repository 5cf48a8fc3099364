package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/archive"
	"github.com/astrolab/voquery/internal/cli/config"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/tap"
)

// persistent flags shared by the archive-facing commands
var (
	flagArchive string
	flagServer  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagArchive, "archive", "a", "", "archive to query (euclid, mast, simbad, registry)")
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "override the archive base URL, e.g. a local tapsim")
}

// session bundles what every command needs: the CLI config, the resolved
// archive descriptor, and a TAP client pointed at it
type session struct {
	cfg  *config.Config
	desc archive.Descriptor
	tap  *tap.Client
}

// newSession resolves the target archive from flags and config
func newSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	name := flagArchive
	if name == "" {
		name = cfg.DefaultArchive
	}

	registry := archive.BuiltinRegistry()
	for archiveName, baseURL := range cfg.Servers {
		// unknown names in the config are not fatal
		_ = registry.Override(archiveName, baseURL)
	}

	desc, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		desc.BaseURL = flagServer
	}

	client, err := tap.NewClient(desc.BaseURL, slog.Default())
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, desc: desc, tap: client}, nil
}

// parseCriteria turns repeated k=v flags into a criteria map.
// Comma-separated values become a membership list.
func parseCriteria(pairs []string) (adql.Criteria, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(adql.Criteria, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, domain.NewInvalidQueryError(
				fmt.Sprintf("criteria %q is not of the form column=value", pair))
		}
		if strings.Contains(value, ",") {
			out[key] = strings.Split(value, ",")
		} else {
			out[key] = value
		}
	}
	return out, nil
}
