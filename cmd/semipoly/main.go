// cmd/semipoly/main.go — CLI front-end for the semipoly library
//
// Reads a JSON request describing expressions and designated variables,
// and prints the requested decomposition.
//
// Request format:
//
//	{
//	  "exprs":  [ {"type": "add", "terms": [...]}, ... ],
//	  "vars":   ["x", "y"],
//	  "degree": 2,
//	  "consts": true
//	}
//
// Usage:
//
//	semipoly decompose request.json
//	semipoly linear < request.json
//	semipoly quadratic < request.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	semipoly "github.com/njchilds90/semipoly"
)

type request struct {
	Exprs  []map[string]interface{} `json:"exprs"`
	Vars   []string                 `json:"vars"`
	Degree int                      `json:"degree"`
	Consts bool                     `json:"consts"`
}

func readRequest(args []string) (*request, []semipoly.Expr, []*semipoly.Sym, error) {
	var raw []byte
	var err error
	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(req.Exprs) == 0 {
		return nil, nil, nil, fmt.Errorf("request has no expressions")
	}
	exprs := make([]semipoly.Expr, len(req.Exprs))
	for i, m := range req.Exprs {
		e, err := semipoly.FromJSON(m)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("exprs[%d]: %w", i, err)
		}
		exprs[i] = e
	}
	vars := make([]*semipoly.Sym, len(req.Vars))
	for i, name := range req.Vars {
		vars[i] = semipoly.S(name)
	}
	return &req, exprs, vars, nil
}

func main() {
	root := &cobra.Command{
		Use:           "semipoly",
		Short:         "Decompose symbolic expressions into semi-polynomial form",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	decomposeCmd := &cobra.Command{
		Use:   "decompose [request.json]",
		Short: "Monomial dictionary and residual per expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, exprs, vars, err := readRequest(args)
			if err != nil {
				return err
			}
			dicts, residuals, err := semipoly.SemiPolynomialForms(exprs, vars, req.Degree, req.Consts)
			if err != nil {
				return err
			}
			for i := range exprs {
				fmt.Printf("expr %d: %s\n", i, exprs[i])
				fmt.Printf("  dict:     %s\n", dicts[i])
				fmt.Printf("  residual: %s\n", residuals[i])
			}
			return nil
		},
	}

	linearCmd := &cobra.Command{
		Use:   "linear [request.json]",
		Short: "Sparse linear form: A·vars + residual == exprs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exprs, vars, err := readRequest(args)
			if err != nil {
				return err
			}
			a, residuals, err := semipoly.SemiLinearForm(exprs, vars)
			if err != nil {
				return err
			}
			fmt.Printf("A: %s\n", a)
			for i, r := range residuals {
				fmt.Printf("residual %d: %s\n", i, r)
			}
			return nil
		},
	}

	quadraticCmd := &cobra.Command{
		Use:   "quadratic [request.json]",
		Short: "Sparse quadratic form: A1·vars + A2·v2 + residual == exprs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, exprs, vars, err := readRequest(args)
			if err != nil {
				return err
			}
			a1, a2, v2, residuals, err := semipoly.SemiQuadraticForm(exprs, vars)
			if err != nil {
				return err
			}
			fmt.Printf("A1: %s\n", a1)
			fmt.Printf("A2: %s\n", a2)
			for col, mono := range v2 {
				if n, ok := mono.(*semipoly.Num); ok && n.IsZero() {
					continue
				}
				p, q := semipoly.QuadPair(col)
				fmt.Printf("v2[%d] (pair %d,%d): %s\n", col, p, q, mono)
			}
			for i, r := range residuals {
				fmt.Printf("residual %d: %s\n", i, r)
			}
			return nil
		},
	}

	root.AddCommand(decomposeCmd, linearCmd, quadraticCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
