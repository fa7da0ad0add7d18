package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	qhttp "bikebuyers/http"
	"bikebuyers/ml"
)

func main() {
	app := &cli.App{
		Name:  "score_records",
		Usage: "Score customer records offline with a bike buyer model artifact",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "model-path",
				Value:   "./models/bike_buyers_tree.json",
				Usage:   "Model artifact path",
				EnvVars: []string{"MODEL_PATH"},
			},
			&cli.StringFlag{
				Name:    "model-type",
				Usage:   "decision_tree or logistic_regression, empty uses the artifact's type",
				EnvVars: []string{"MODEL_TYPE"},
			},
		},
		Commands: []*cli.Command{
			scoreCommand(),
			inspectCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadModel(c *cli.Context) (ml.Model, error) {
	return ml.LoadModel(c.String("model-type"), c.String("model-path"), ml.BikeBuyerSchema)
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a JSON lines file of customer records, one result per line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "JSON lines file of customer records, - for stdin",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			model, err := loadModel(c)
			if err != nil {
				return err
			}
			predictor, err := ml.NewPredictor(model, 0)
			if err != nil {
				return err
			}

			in := os.Stdin
			if path := c.String("input"); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			sum, err := scoreRecords(c.Context, predictor, in, c.App.Writer)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.ErrWriter, "scored=%d rejected=%d likely=%d mean_probability=%.3f\n",
				sum.Scored, sum.Rejected, sum.Likely, sum.MeanProbability())
			return nil
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Load the artifact, check it against the feature schema and print its description",
		Action: func(c *cli.Context) error {
			model, err := loadModel(c)
			if err != nil {
				return err
			}
			return writeModelInfo(c.App.Writer, model)
		},
	}
}

func writeModelInfo(w io.Writer, model ml.Model) error {
	schema := model.Schema()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"model_type":     model.Type(),
		"schema_version": schema.Version,
		"features":       schema.Features,
		"classes":        model.Classes(),
	})
}

type scorer interface {
	Predict(ctx context.Context, record ml.CustomerRecord) (ml.PredictionResult, error)
}

type scoredLine struct {
	Line        int                `json:"line"`
	Prediction  *int               `json:"prediction,omitempty"`
	Probability *float64           `json:"probability,omitempty"`
	Error       string             `json:"error,omitempty"`
	Fields      []qhttp.FieldError `json:"fields,omitempty"`
}

type summary struct {
	Scored   int
	Rejected int
	Likely   int
	probSum  float64
}

func (s summary) MeanProbability() float64 {
	if s.Scored == 0 {
		return 0
	}
	return s.probSum / float64(s.Scored)
}

// scoreRecords 逐行校验并预测, 每行输出一条结果. 非法行记录原因后继续
func scoreRecords(ctx context.Context, predictor scorer, r io.Reader, w io.Writer) (summary, error) {
	var sum summary
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	enc := json.NewEncoder(w)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		out := scoredLine{Line: line}
		record, err := qhttp.DecodeCustomerRecord(strings.NewReader(text))
		if err != nil {
			sum.Rejected++
			out.Error = "validation failed"
			var verr *qhttp.RequestValidationError
			if errors.As(err, &verr) {
				out.Fields = verr.Fields
			}
		} else if result, err := predictor.Predict(ctx, record); err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		} else {
			sum.Scored++
			sum.probSum += result.Probability
			if result.Prediction == 1 {
				sum.Likely++
			}
			out.Prediction = &result.Prediction
			out.Probability = &result.Probability
		}

		if err := enc.Encode(out); err != nil {
			return sum, fmt.Errorf("write result: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("read input: %w", err)
	}
	return sum, nil
}
