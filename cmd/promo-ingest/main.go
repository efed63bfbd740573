// Command promo-ingest builds the promo code artifacts the storefront server
// loads at start: a rules JSON and a serialized bloom filter.
//
// Vendors deliver promo code dumps as large gzip-compressed line files. A
// code counts as valid when it appears in at least two dumps. The tool makes
// two passes: pass 1 builds one bloom filter per dump, pass 2 re-streams each
// dump checking codes against the other dumps' filters, then the surviving
// codes are written out with their rules.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/distrokart/storefront/internal/domain/promo"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	progressEvery = 10_000_000
	minCodeLen    = 5
	maxCodeLen    = 12
)

// curatedRules carries the explicit discount rules for marketing-issued
// codes. Any other valid code gets defaultRule.
var curatedRules = map[string]promo.Rule{
	"WELCOME10": {Kind: promo.KindPercentage, Value: decimal.NewFromInt(10), Description: "New customer: 10% off"},
	"BULK15":    {Kind: promo.KindPercentage, Value: decimal.NewFromInt(15), MinSubtotal: decimal.NewFromInt(750), Description: "15% off orders over $750"},
	"FREIGHT20": {Kind: promo.KindFixed, Value: decimal.NewFromInt(20), MinSubtotal: decimal.NewFromInt(200), Description: "$20 off orders over $200"},
	"DISTRO5":   {Kind: promo.KindPercentage, Value: decimal.NewFromInt(5), Description: "Distributor appreciation: 5% off"},
	"PALLET50":  {Kind: promo.KindFixed, Value: decimal.NewFromInt(50), MinSubtotal: decimal.NewFromInt(1500), Description: "$50 off pallet-size orders"},
}

var defaultRule = promo.Rule{
	Kind:        promo.KindPercentage,
	Value:       decimal.NewFromInt(10),
	Description: "Valid promo code: 10% off",
}

// fileResult holds candidate codes found in a single file during pass 2.
type fileResult struct {
	candidates map[string]uint
}

func main() {
	var (
		dataDir   string
		rulesOut  string
		filterOut string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing promocodesN.gz files")
	flag.StringVar(&rulesOut, "rules-out", "promocodes.json", "output path for the rules JSON")
	flag.StringVar(&filterOut, "filter-out", "promofilter.bloom", "output path for the serialized bloom filter")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, rulesOut, filterOut); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, rulesOut, filterOut string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("promocodes%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: Build bloom filters concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: Find candidate codes appearing in 2+ files.
	slog.Info("pass 2: finding candidate codes")

	validCodes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to write")
		return nil
	}

	if err := writeRules(rulesOut, validCodes); err != nil {
		return errors.Wrap(err, "write rules")
	}
	if err := writeFilter(filterOut, validCodes); err != nil {
		return errors.Wrap(err, "write filter")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) >= minCodeLen && len(code) <= maxCodeLen {
				filter.AddString(code)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("file", idx+1),
						slog.Uint64("codes", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
		)

		filters[idx] = filter
		return nil
	}
}

// findValidCodes re-streams each file and checks codes against OTHER files'
// bloom filters. A code is valid if it appears in 2 or more files.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(findCandidatesInFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all files.
	merged := make(map[string]uint)
	for _, r := range results {
		for code, mask := range r.candidates {
			merged[code] |= mask
		}
	}

	// Keep codes appearing in 2+ files.
	var valid []string
	for code, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			valid = append(valid, code)
		}
	}

	return valid, nil
}

func findCandidatesInFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("codes", count),
				)
			}

			// Check if this code appears in any OTHER file's bloom filter.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(code) {
					candidates[code] |= fileBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_codes", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = fileResult{candidates: candidates}
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// ruleOut mirrors the promo rules seed document shape read by the server.
type ruleOut struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"minSubtotal"`
	Description string          `json:"description"`
}

// writeRules produces the rules JSON: curated codes keep their marketing
// rules, every other valid code gets the default discount.
func writeRules(path string, codes []string) error {
	slog.Info("writing rules", slog.String("path", path), slog.Int("count", len(codes)))

	out := make([]ruleOut, 0, len(codes))
	for _, code := range codes {
		code = promo.Normalize(code)
		rule, ok := curatedRules[code]
		if !ok {
			rule = defaultRule
		}
		out = append(out, ruleOut{
			Code:        code,
			Kind:        string(rule.Kind),
			Value:       rule.Value,
			MinSubtotal: rule.MinSubtotal,
			Description: rule.Description,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode rules")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// writeFilter serializes a bloom filter over the final valid code set. The
// server loads it to reject invalid codes without touching the rule map.
func writeFilter(path string, codes []string) error {
	slog.Info("writing filter", slog.String("path", path), slog.Int("count", len(codes)))

	capacity := uint(len(codes))
	if capacity < 1024 {
		capacity = 1024
	}
	filter := bloom.NewWithEstimates(capacity, bloomFPR)
	for _, code := range codes {
		filter.AddString(promo.Normalize(code))
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	if _, err := filter.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "serialize filter to %s", path)
	}
	return f.Close()
}
