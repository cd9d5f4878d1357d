package migrate

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
)

var (
	migrationNameRe = regexp.MustCompile(`^\d{14}_[a-z0-9_]+\.sql$`)
	columnDefRe     = regexp.MustCompile(`^\s*(?:(?i:add\s+column)\s+(?:(?i:if\s+not\s+exists)\s+)?)?([a-z_][a-z0-9_]*)\s+([a-z]+)`)
)

// moneyWords mark a column as holding dollars or a tax rate. Flags such as
// price_adjusted are the only non-numeric columns allowed to use them.
var moneyWords = map[string]bool{
	"price":    true,
	"subtotal": true,
	"total":    true,
	"tax":      true,
	"fee":      true,
	"tip":      true,
	"modifier": true,
	"amount":   true,
}

// Lint checks every .sql file in migrations. It reports all problems at once:
// bad file names, duplicate versions, missing goose annotations, integer cent
// columns and money columns not declared numeric.
func Lint(migrations fs.FS) error {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var errs error
	seen := map[int64]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if !migrationNameRe.MatchString(name) {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		version, err := goose.NumericComponent(name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if prev, ok := seen[version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %d already used by %s", name, version, prev))
			continue
		}
		seen[version] = name

		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, lintSQL(name, string(body)))
	}
	return errs
}

func lintSQL(name, body string) error {
	var errs error
	if !strings.Contains(body, "-- +goose Up") {
		errs = multierr.Append(errs, fmt.Errorf("%s: missing \"-- +goose Up\"", name))
	}
	if !strings.Contains(body, "-- +goose Down") {
		errs = multierr.Append(errs, fmt.Errorf("%s: missing \"-- +goose Down\"", name))
	}

	for i, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		m := columnDefRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		column, typ := m[1], m[2]
		if strings.HasSuffix(column, "_cents") {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: %s stores integer cents, use numeric dollars", name, i+1, column))
			continue
		}
		if isMoneyColumn(column) && typ != "numeric" && typ != "boolean" {
			errs = multierr.Append(errs, fmt.Errorf("%s:%d: money column %s is %s, want numeric", name, i+1, column, typ))
		}
	}
	return errs
}

func isMoneyColumn(column string) bool {
	for _, part := range strings.Split(column, "_") {
		if moneyWords[part] {
			return true
		}
	}
	return false
}
