package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/davecgh/go-spew/spew"

	"sibyl/internal/classifier"
	"sibyl/internal/classifier/knn"
	"sibyl/internal/frame"
	"sibyl/internal/logging"
	"sibyl/internal/measure"
	"sibyl/internal/plot"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Bold(true)
)

type options struct {
	data     string
	label    string
	k        int
	distance string
	ratio    float64
	query    string
	plotOut  string
	plotX    string
	plotY    string
	print    int
	verbose  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.data, "data", "", "path to the labeled CSV file")
	flag.StringVar(&opts.label, "label", "", "name of the label column")
	flag.IntVar(&opts.k, "k", 3, "number of neighbors")
	flag.StringVar(&opts.distance, "distance", string(measure.TypeMixedEuclidean), "distance measure")
	flag.Float64Var(&opts.ratio, "ratio", 0.8, "train split ratio for evaluation")
	flag.StringVar(&opts.query, "query", "", "comma separated point to classify")
	flag.StringVar(&opts.plotOut, "plot", "", "write a gnuplot script to this path")
	flag.StringVar(&opts.plotX, "x", "", "x axis column for the plot")
	flag.StringVar(&opts.plotY, "y", "", "y axis column for the plot")
	flag.IntVar(&opts.print, "print", 0, "print the first n rows of the dataset")
	flag.BoolVar(&opts.verbose, "verbose", false, "dump the full evaluation")
	flag.Parse()

	ctx := logging.WithLogger(context.Background(), logging.NewLogger())
	if err := run(ctx, opts); err != nil {
		logging.FromContext(ctx).Fatal(err)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.data == "" || opts.label == "" {
		return fmt.Errorf("-data and -label are required")
	}

	f, err := frame.ReadCSV(opts.data)
	if err != nil {
		return err
	}
	if err := f.SetLabel(opts.label); err != nil {
		return err
	}

	query, err := parseQuery(opts.query)
	if err != nil {
		return err
	}

	if opts.print > 0 {
		printFrame(f, opts.print)
	}

	// Plot from the raw rows, before the model normalizes them in place.
	if opts.plotOut != "" {
		if opts.plotX == "" || opts.plotY == "" {
			return fmt.Errorf("-plot requires -x and -y")
		}
		if err := plot.RenderFile(opts.plotOut, f, opts.plotX, opts.plotY, query); err != nil {
			return err
		}
		fmt.Printf("plot script written to %s\n", opts.plotOut)
	}

	train, test, err := f.Split(opts.ratio)
	if err != nil {
		return err
	}

	ms, err := measure.For(measure.Type(opts.distance))
	if err != nil {
		return err
	}

	if test.Len() > 0 && train.Len() >= opts.k {
		model, err := knn.New(train, knn.WithK(opts.k), knn.WithMeasure(ms))
		if err != nil {
			return err
		}
		eval, err := model.Evaluate(test)
		if err != nil {
			return err
		}
		printEvaluation(eval)
		if opts.verbose {
			fmt.Print(spew.Sdump(eval))
		}
	} else {
		logging.FromContext(ctx).Warnf(
			"skipping evaluation: split %d/%d leaves no room for k=%d", train.Len(), test.Len(), opts.k)
	}

	if query != nil {
		model, err := knn.New(f, knn.WithK(opts.k), knn.WithMeasure(ms))
		if err != nil {
			return err
		}
		predicted, err := model.Predict(query)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", labelStyle.Render("predicted:"), predicted)

		neighbors, err := model.FirstKNN(query)
		if err != nil {
			return err
		}
		printNeighbors(model, neighbors)
	}
	return nil
}

func parseQuery(s string) ([]frame.Value, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	point := make([]frame.Value, len(fields))
	for i, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			return nil, fmt.Errorf("query field %d is empty", i)
		}
		point[i] = frame.Parse(field)
	}
	return point, nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printFrame(f *frame.Frame, limit int) {
	t := newTable(f.Columns()...)
	if limit > f.Len() {
		limit = f.Len()
	}
	for i := 0; i < limit; i++ {
		row, err := f.Row(i)
		if err != nil {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		t.Row(cells...)
	}
	fmt.Println(t)
	fmt.Printf("%d of %d rows\n", limit, f.Len())
}

func printEvaluation(eval *classifier.Evaluation) {
	labels := eval.Matrix.Labels()
	sort.Slice(labels, func(i, j int) bool { return labels[i].String() < labels[j].String() })

	headers := make([]string, 0, len(labels)+1)
	headers = append(headers, "actual \\ predicted")
	for _, l := range labels {
		headers = append(headers, l.String())
	}
	t := newTable(headers...)
	for _, actual := range labels {
		cells := make([]string, 0, len(labels)+1)
		cells = append(cells, actual.String())
		for _, predicted := range labels {
			cells = append(cells, fmt.Sprintf("%d", eval.Matrix[actual][predicted]))
		}
		t.Row(cells...)
	}
	fmt.Println(t)
	fmt.Printf(
		"%s accuracy %d%%, precision %d%%, recall %d%% over %d rows\n",
		labelStyle.Render("evaluation:"),
		eval.MicroAccuracy(), eval.MicroPrecision(), eval.MicroRecall(), eval.Total,
	)
}

func printNeighbors(model *knn.Model, neighbors []classifier.Neighbor) {
	l := model.Ref().LabelIndex()
	t := newTable("rank", "row", "label", "distance")
	for rank, n := range neighbors {
		row, err := model.Ref().Row(n.Index)
		if err != nil {
			break
		}
		t.Row(
			fmt.Sprintf("%d", rank+1),
			fmt.Sprintf("%d", n.Index),
			row[l].String(),
			fmt.Sprintf("%.4f", n.Distance),
		)
	}
	fmt.Println(t)
}
