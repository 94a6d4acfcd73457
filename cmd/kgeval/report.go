package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/cnclabs/kgeval/pkg/evaluation"
)

type reportRow struct {
	label   string
	triples int
	summary evaluation.Summary
}

// renderReport prints one metric row per model.
func renderReport(w io.Writer, rows []reportRow) error {
	table := tablewriter.NewWriter(w)
	table.Header("Model", "Triples", "MR", "MRR", "Hits@1", "Hits@3", "Hits@10")
	for _, r := range rows {
		s := r.summary
		err := table.Append([]string{
			r.label,
			strconv.Itoa(r.triples),
			fmt.Sprintf("%.2f", s.MR),
			fmt.Sprintf("%.4f", s.MRR),
			fmt.Sprintf("%.4f", s.Hits1),
			fmt.Sprintf("%.4f", s.Hits3),
			fmt.Sprintf("%.4f", s.Hits10),
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
