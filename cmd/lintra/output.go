package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/gabrielrodrigueslb/lintra/internal/format"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
)

func writeFunnels(w io.Writer, output string, funnels []models.Funnel) error {
	switch output {
	case "json", "yaml":
		return encode(w, output, funnels)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Funnel", "Stages"})
	for _, f := range funnels {
		names := make([]string, 0, len(f.Stages))
		for _, s := range f.Stages {
			names = append(names, s.Name)
		}
		t.AppendRow(table.Row{f.ID, f.Name, strings.Join(names, " → ")})
	}
	t.Render()
	return nil
}

func writeDeals(w io.Writer, output string, funnel models.Funnel, deals []models.Deal) error {
	switch output {
	case "json", "yaml":
		return encode(w, output, deals)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(funnel.Name)
	t.AppendHeader(table.Row{"ID", "Title", "Stage", "Owner", "Value"})
	for _, stage := range funnel.Stages {
		for _, d := range store.FilterStage(deals, stage.ID) {
			owner := ""
			if d.Owner != nil {
				owner = d.Owner.Name
			}
			t.AppendRow(table.Row{d.ID, format.Truncate(d.Title, 40), stage.Name, owner, format.Currency(d.Value)})
		}
	}
	t.AppendFooter(table.Row{"", "", "", "Total", format.Currency(store.Total(deals))})
	t.Render()
	return nil
}

func encode(w io.Writer, output string, v any) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
