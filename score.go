package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"distress-score/domain"
	"distress-score/service"
)

type scoreFlags struct {
	format   string
	minScore int
	limit    int
}

func newScoreCmd() *cobra.Command {
	f := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score <listings-file>",
		Short: "Rank the listings in a .json or .csv file by distress score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := loadListings(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-score") {
				input.MinScore = &f.minScore
			}
			if cmd.Flags().Changed("limit") {
				input.Limit = f.limit
			}

			batch := service.NewBatchService(service.NewDistressService(nil, 0, nil))
			result, err := batch.Rank(cmd.Context(), input)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, f.format)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "table", "Output format: table or json")
	flags.IntVar(&f.minScore, "min-score", 0, "Only list listings scoring at least this much")
	flags.IntVar(&f.limit, "limit", 0, "Maximum number of listings to print (0 = all)")

	return cmd
}

func loadListings(path string) (domain.BatchInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.BatchInput{}, fmt.Errorf("reading listings: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONListings(data)
	case ".csv":
		listings, err := parseCSVListings(bytes.NewReader(data))
		if err != nil {
			return domain.BatchInput{}, err
		}
		return domain.BatchInput{Listings: listings}, nil
	default:
		return domain.BatchInput{}, fmt.Errorf("unsupported listings file %q: want .json or .csv", path)
	}
}

// parseJSONListings accepts either a bare array of listings or a batch
// object with listings, minScore and limit. Every listing field is required.
func parseJSONListings(data []byte) (domain.BatchInput, error) {
	trimmed := bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var req domain.BatchRequest
	var err error
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = dec.Decode(&req.Listings)
	} else {
		err = dec.Decode(&req)
	}
	if err != nil {
		return domain.BatchInput{}, fmt.Errorf("parsing listings: %w", err)
	}

	input, err := req.Input()
	if err != nil {
		return domain.BatchInput{}, fmt.Errorf("parsing listings: %w", err)
	}
	return input, nil
}

var csvColumns = []string{
	"id",
	"loanToValuePct",
	"daysOnMarket",
	"medianDaysOnMarket",
	"originalListPrice",
	"currentListPrice",
	"preforeclosureActive",
	"taxDelinquent",
	"absenteeOwner",
	"absorptionRate",
}

// parseCSVListings reads a header row naming every column in csvColumns, in
// any order, followed by one listing per row.
func parseCSVListings(r io.Reader) ([]domain.ListingInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header is missing columns: %s", strings.Join(missing, ", "))
	}

	var listings []domain.ListingInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		listing, err := parseCSVRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func parseCSVRecord(record []string, index map[string]int) (domain.ListingInput, error) {
	field := func(name string) string { return strings.TrimSpace(record[index[name]]) }

	var firstErr error
	num := func(name string) float64 {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
		return v
	}
	flag := func(name string) bool {
		v, err := strconv.ParseBool(field(name))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
		return v
	}

	days, err := strconv.Atoi(field("daysOnMarket"))
	if err != nil {
		return domain.ListingInput{}, fmt.Errorf("daysOnMarket: %w", err)
	}

	listing := domain.ListingInput{
		ID: field("id"),
		DistressInput: domain.DistressInput{
			LoanToValuePct:       num("loanToValuePct"),
			DaysOnMarket:         days,
			MedianDaysOnMarket:   num("medianDaysOnMarket"),
			OriginalListPrice:    num("originalListPrice"),
			CurrentListPrice:     num("currentListPrice"),
			PreforeclosureActive: flag("preforeclosureActive"),
			TaxDelinquent:        flag("taxDelinquent"),
			AbsenteeOwner:        flag("absenteeOwner"),
			AbsorptionRate:       num("absorptionRate"),
		},
	}
	if firstErr != nil {
		return domain.ListingInput{}, firstErr
	}
	return listing, nil
}

func writeResult(w io.Writer, result domain.BatchResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "table":
		return writeTable(w, result)
	default:
		return fmt.Errorf("unknown format %q: want table or json", format)
	}
}

func writeTable(w io.Writer, result domain.BatchResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tSCORE\tDISCOUNT\tREASON")
	for i, l := range result.Ranked {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", i+1, l.ID, l.Score, l.EstimatedDiscount, l.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nscored %d listing(s):", result.Scored)
	for _, label := range service.DiscountBrackets {
		fmt.Fprintf(w, " %s=%d", label, result.BracketCounts[label])
	}
	fmt.Fprintln(w)

	for _, r := range result.Rejected {
		fmt.Fprintf(w, "rejected %s: %s\n", r.ID, r.Error)
	}
	return nil
}
