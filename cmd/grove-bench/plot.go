// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var plotOperations = []string{"Insert", "Workload_OLTP", "Workload_OLAP", "Workload_Range"}

// renderLatencyPlot draws grouped latency bars, one group per operation,
// one bar per engine.
func renderLatencyPlot(results []benchResult, path string) error {
	latency := map[string]map[string]int64{}
	var engines []string
	for _, res := range results {
		if latency[res.Name] == nil {
			latency[res.Name] = map[string]int64{}
			engines = append(engines, res.Name)
		}
		latency[res.Name][res.Operation] = res.LatencyNs
	}

	p := plot.New()
	p.Title.Text = "grove-bench latency"
	p.Y.Label.Text = "ns/op"

	width := vg.Points(18)
	for i, name := range engines {
		values := make(plotter.Values, len(plotOperations))
		for j, op := range plotOperations {
			values[j] = float64(latency[name][op])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = 0
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(i-len(engines)/2)
		p.Add(bars)
		p.Legend.Add(name, bars)
	}
	p.Legend.Top = true
	p.NominalX(plotOperations...)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
