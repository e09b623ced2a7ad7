package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/votechain/pkg/query"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func validMark(ok bool) string {
	if ok {
		return pterm.LightGreen("ok")
	}
	return pterm.LightRed("suspect")
}

func renderBlocks(w io.Writer, blocks []query.BlockSummary) error {
	data := pterm.TableData{{"#", "Timestamp", "Digest", "Previous", "Payload", "Valid"}}

	for _, b := range blocks {
		prev := b.PreviousDigest
		if len(prev) > len(b.ShortDigest) {
			prev = prev[:len(b.ShortDigest)]
		}

		data = append(data, []string{
			strconv.Itoa(b.Index),
			b.Timestamp.Format("2006-01-02 15:04:05"),
			b.ShortDigest,
			prev,
			b.PayloadSummary,
			validMark(b.Valid),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

func renderReport(w io.Writer, r query.ValidityReport) {
	if r.IsValid {
		pterm.Success.WithWriter(w).Printfln("%s (%d blocks)", r.Message, r.Length)
		return
	}

	idx := -1
	if r.FirstInvalidIndex != nil {
		idx = *r.FirstInvalidIndex
	}

	pterm.Error.WithWriter(w).Printfln("%s: first invalid block %d (%s)", r.Message, idx, r.Invariant)
}

func renderInfo(w io.Writer, info query.ChainInfo) error {
	data := pterm.TableData{
		{"Blocks", strconv.Itoa(info.TotalBlocks)},
		{"Votes", strconv.Itoa(info.TotalVotes)},
		{"Valid", validMark(info.IsValid)},
		{"Latest digest", info.LatestDigest},
		{"Genesis", info.GenesisTimestamp.Format("2006-01-02 15:04:05")},
	}

	return pterm.DefaultTable.WithWriter(w).WithData(data).Render()
}

func renderResults(w io.Writer, res query.PollResult) error {
	data := pterm.TableData{{"Choice", "Votes"}}
	for choice, n := range res.Counts {
		data = append(data, []string{choice, strconv.Itoa(n)})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}

	if res.Excluded > 0 {
		pterm.Warning.WithWriter(w).Printfln("%d ballots excluded from blocks that failed validation", res.Excluded)
	}

	return nil
}
